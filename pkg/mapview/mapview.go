package mapview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/olekukonko/tablewriter"
)

const (
	DefaultZoom = 12
	DefaultSize = 2
)

// Marker is the single point drawn on the map widget.
type Marker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
	Size      int     `json:"size"`
	Label     string  `json:"label,omitempty"`
	Address   string  `json:"address,omitempty"`
}

func NewMarker(lat, lng float64, label string) Marker {
	return Marker{Latitude: lat, Longitude: lng, Zoom: DefaultZoom, Size: DefaultSize, Label: label}
}

type Renderer interface {
	Render(w io.Writer, m Marker) error
}

// OpenStreetMapURL links to openstreetmap.org centred on m with a pin.
func OpenStreetMapURL(m Marker) string {
	q := url.Values{}
	q.Set("mlat", fmt.Sprintf("%.6f", m.Latitude))
	q.Set("mlon", fmt.Sprintf("%.6f", m.Longitude))

	return fmt.Sprintf("https://www.openstreetmap.org/?%s#map=%d/%.6f/%.6f", q.Encode(), m.Zoom, m.Latitude, m.Longitude)
}

// JSONRenderer writes the payload consumed by the web map widget.
type JSONRenderer struct{}

type Payload struct {
	Marker Marker `json:"marker"`
	MapURL string `json:"map_url"`
}

func NewPayload(m Marker) Payload {
	return Payload{Marker: m, MapURL: OpenStreetMapURL(m)}
}

func (JSONRenderer) Render(w io.Writer, m Marker) error {
	return json.NewEncoder(w).Encode(NewPayload(m))
}

// TableRenderer draws the marker as a terminal table.
type TableRenderer struct{}

func (TableRenderer) Render(w io.Writer, m Marker) error {
	b := bytes.NewBuffer([]byte{})
	table := tablewriter.NewWriter(b)
	table.SetHeader([]string{"Place", "Latitude", "Longitude"})
	table.SetAutoFormatHeaders(false)
	table.SetRowLine(true)
	table.SetRowSeparator("-")

	name := m.Label
	if m.Address != "" {
		name = fmt.Sprintf("%s  \n%s", m.Label, m.Address)
	}

	table.Append([]string{name, fmt.Sprintf("%.6f", m.Latitude), fmt.Sprintf("%.6f", m.Longitude)})
	table.Render()

	_, err := fmt.Fprintf(w, "%s%s\n", b.String(), OpenStreetMapURL(m))
	return err
}

// SuggestionsTable renders the labels of a search with their index, so they
// can be picked by number.
func SuggestionsTable(w io.Writer, labels []string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Suggestion"})
	table.SetAutoFormatHeaders(false)

	for i, l := range labels {
		table.Append([]string{fmt.Sprint(i + 1), l})
	}

	table.Render()
}
