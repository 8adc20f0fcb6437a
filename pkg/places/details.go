package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type detailsResponse struct {
	Result *struct {
		Geometry *struct {
			Location *struct {
				Lat *float64 `json:"lat"`
				Lng *float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func (c *gmc) Resolve(ctx context.Context, placeID, apiKey string) (*Coordinate, error) {
	const op = "place details"

	if placeID == "" {
		return nil, ErrEmptyPlaceID
	}

	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	u, err := url.Parse(c.detailsURL)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnexpected, Err: err}
	}

	q := u.Query()
	q.Set("place_id", placeID)
	q.Set("key", apiKey)
	q.Set("fields", "geometry")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnexpected, Err: err}
	}

	req.Header.Set("Accept", "application/json")

	data, err := c.do(op, req)
	if err != nil {
		return nil, err
	}

	var d detailsResponse
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, decodingError(op, err)
	}

	// The legacy endpoint reports failures such as REQUEST_DENIED with a 200.
	if d.Status != "" && d.Status != "OK" {
		msg := d.Status
		if d.ErrorMessage != "" {
			msg = fmt.Sprintf("%s: %s", d.Status, d.ErrorMessage)
		}

		return nil, &Error{Op: op, Kind: KindStatus, StatusCode: http.StatusOK, Err: fmt.Errorf("%s", msg)}
	}

	if d.Result == nil || d.Result.Geometry == nil || d.Result.Geometry.Location == nil {
		return nil, decodingError(op, fmt.Errorf("response has no result.geometry.location"))
	}

	loc := d.Result.Geometry.Location
	if loc.Lat == nil || loc.Lng == nil {
		return nil, decodingError(op, fmt.Errorf("location is missing lat or lng"))
	}

	return &Coordinate{Latitude: *loc.Lat, Longitude: *loc.Lng}, nil
}
