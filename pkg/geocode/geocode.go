package geocode

import (
	"context"
	"fmt"
	"strings"

	"github.com/codingsince1985/geo-golang"
)

type Client interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*Location, error)
}

type Location struct {
	Latitude    float64
	Longitude   float64
	Name        string
	City        string
	Country     string
	CountryCode string
}

// Short is the "City, Country" caption shown next to a marker.
func (l *Location) Short() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{l.City, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 0 {
		return l.Name
	}

	return strings.Join(parts, ", ")
}

func NewClient(geocoder geo.Geocoder) *gc {
	return &gc{geocoder: geocoder}
}

type gc struct {
	geocoder geo.Geocoder
}

var _ Client = (*gc)(nil)

type reverseResult struct {
	address *geo.Address
	err     error
}

func (c *gc) ReverseGeocode(ctx context.Context, lat, lng float64) (*Location, error) {
	// geo-golang has no context support, so the lookup runs aside and is
	// abandoned when ctx is done.
	done := make(chan reverseResult, 1)
	go func() {
		address, err := c.geocoder.ReverseGeocode(lat, lng)
		done <- reverseResult{address: address, err: err}
	}()

	var res reverseResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("reverse geocode: %w", ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", res.err)
	}

	if res.address == nil {
		return nil, fmt.Errorf("unable to reverse geocode location")
	}

	return &Location{
		Latitude:    lat,
		Longitude:   lng,
		Name:        res.address.FormattedAddress,
		City:        res.address.City,
		Country:     res.address.Country,
		CountryCode: res.address.CountryCode,
	}, nil
}

// Address implements search.Annotator.
func (c *gc) Address(ctx context.Context, lat, lng float64) (string, error) {
	loc, err := c.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return "", err
	}

	return loc.Short(), nil
}
