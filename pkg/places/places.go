package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAutocompleteURL = "https://places.googleapis.com/v1/places:autocomplete"
	DefaultDetailsURL      = "https://maps.googleapis.com/maps/api/place/details/json"

	// DefaultTimeout bounds every call to the Google endpoints.
	DefaultTimeout = 10 * time.Second
)

type AutocompleteClient interface {
	Autocomplete(ctx context.Context, query, apiKey string) (*AutocompleteResponse, error)
}

type PlaceResolver interface {
	Resolve(ctx context.Context, placeID, apiKey string) (*Coordinate, error)
}

type Client interface {
	AutocompleteClient
	PlaceResolver
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Option func(*gmc)

func WithAutocompleteURL(u string) Option {
	return func(c *gmc) {
		c.autocompleteURL = u
	}
}

func WithDetailsURL(u string) Option {
	return func(c *gmc) {
		c.detailsURL = u
	}
}

// NewGoogleMapsClient builds a client for the Places autocomplete and place
// details endpoints. A nil or unbounded http.Client gets DefaultTimeout.
func NewGoogleMapsClient(h *http.Client, opts ...Option) *gmc {
	if h == nil {
		h = &http.Client{}
	}

	if h.Timeout == 0 {
		h.Timeout = DefaultTimeout
	}

	c := &gmc{h: h, autocompleteURL: DefaultAutocompleteURL, detailsURL: DefaultDetailsURL}
	for _, o := range opts {
		o(c)
	}

	return c
}

type gmc struct {
	h               *http.Client
	autocompleteURL string
	detailsURL      string
}

var _ Client = (*gmc)(nil)

// do sends req and returns the body of a 2xx response.
func (c *gmc) do(op string, req *http.Request) ([]byte, error) {
	res, err := c.h.Do(req)
	if err != nil {
		return nil, classify(op, err)
	}

	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, classify(op, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &Error{
			Op:         op,
			Kind:       KindStatus,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("%d %s: %s", res.StatusCode, http.StatusText(res.StatusCode), apiErrorMessage(data)),
		}
	}

	return data, nil
}

// apiErrorMessage extracts the message of a google.rpc.Status error body,
// falling back to the raw body.
func apiErrorMessage(data []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		ErrorMessage string `json:"error_message"`
	}

	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error.Message != "" {
			return body.Error.Message
		}

		if body.ErrorMessage != "" {
			return body.ErrorMessage
		}
	}

	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}

	return msg
}
