package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type AutocompleteResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Suggestion holds either a place prediction or a query prediction.
type Suggestion struct {
	PlacePrediction *PlacePrediction `json:"placePrediction,omitempty"`
	QueryPrediction *QueryPrediction `json:"queryPrediction,omitempty"`
}

type PlacePrediction struct {
	Place   string          `json:"place,omitempty"`
	PlaceID string          `json:"placeId,omitempty"`
	Text    FormattableText `json:"text"`
	Types   []string        `json:"types,omitempty"`
}

type QueryPrediction struct {
	Text FormattableText `json:"text"`
}

type FormattableText struct {
	Text string `json:"text"`
}

func (s Suggestion) Label() string {
	if s.PlacePrediction != nil {
		return s.PlacePrediction.Text.Text
	}

	if s.QueryPrediction != nil {
		return s.QueryPrediction.Text.Text
	}

	return ""
}

// PlaceID is empty for query predictions.
func (s Suggestion) PlaceID() string {
	if s.PlacePrediction == nil {
		return ""
	}

	return s.PlacePrediction.PlaceID
}

// Labels returns the display text of every suggestion in server order.
func (r *AutocompleteResponse) Labels() []string {
	if r == nil {
		return []string{}
	}

	labels := make([]string, len(r.Suggestions))
	for i, s := range r.Suggestions {
		labels[i] = s.Label()
	}

	return labels
}

type autocompleteRequest struct {
	Input                   string `json:"input"`
	IncludeQueryPredictions bool   `json:"includeQueryPredictions"`
}

func (c *gmc) Autocomplete(ctx context.Context, query, apiKey string) (*AutocompleteResponse, error) {
	const op = "places autocomplete"

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	b, err := json.Marshal(autocompleteRequest{Input: query, IncludeQueryPredictions: true})
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnexpected, Err: err}
	}

	u, err := url.Parse(c.autocompleteURL)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnexpected, Err: err}
	}

	q := u.Query()
	q.Set("fields", "*")
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(b))
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnexpected, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(op, req)
	if err != nil {
		return nil, err
	}

	return parseAutocomplete(op, data)
}

func parseAutocomplete(op string, data []byte) (*AutocompleteResponse, error) {
	var d struct {
		Suggestions *[]Suggestion `json:"suggestions"`
	}

	if err := json.Unmarshal(data, &d); err != nil {
		return nil, decodingError(op, err)
	}

	if d.Suggestions == nil {
		return nil, decodingError(op, fmt.Errorf(`response has no "suggestions" key`))
	}

	for i, s := range *d.Suggestions {
		if s.PlacePrediction == nil && s.QueryPrediction == nil {
			return nil, decodingError(op, fmt.Errorf("suggestion %d has neither a place nor a query prediction", i))
		}
	}

	return &AutocompleteResponse{Suggestions: *d.Suggestions}, nil
}
