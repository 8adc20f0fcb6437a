package geocode

import (
	"github.com/codingsince1985/geo-golang/openstreetmap"
)

func NewOpenstreetmapClient() *gc {
	return NewClient(openstreetmap.Geocoder())
}
