package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manzanit0/placefinder/cmd/web/api"
	"github.com/manzanit0/placefinder/pkg/mapview"
	"github.com/manzanit0/placefinder/pkg/middleware"
	"github.com/manzanit0/placefinder/pkg/places"
	"github.com/manzanit0/placefinder/pkg/search"
	"github.com/manzanit0/placefinder/pkg/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClient struct {
	autocompleteErr error
	resolveErr      error
	resolved        []string
}

func (f *fakeClient) Autocomplete(_ context.Context, query, apiKey string) (*places.AutocompleteResponse, error) {
	if apiKey == "" {
		return nil, places.ErrMissingCredential
	}

	if f.autocompleteErr != nil {
		return nil, f.autocompleteErr
	}

	return &places.AutocompleteResponse{Suggestions: []places.Suggestion{
		{PlacePrediction: &places.PlacePrediction{PlaceID: "g", Text: places.FormattableText{Text: "Googleplex"}}},
		{QueryPrediction: &places.QueryPrediction{Text: places.FormattableText{Text: query + " near me"}}},
	}}, nil
}

func (f *fakeClient) Resolve(_ context.Context, placeID, _ string) (*places.Coordinate, error) {
	f.resolved = append(f.resolved, placeID)
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}

	return &places.Coordinate{Latitude: 37.4, Longitude: -122.1}, nil
}

type fakeHistory struct {
	resolutions []search.Resolution
	err         error
	limit       int
}

func (f *fakeHistory) List(_ context.Context, _ string, limit int) ([]search.Resolution, error) {
	f.limit = limit
	return f.resolutions, f.err
}

type client struct {
	t      *testing.T
	r      *gin.Engine
	cookie *http.Cookie
}

func newClient(t *testing.T, fc *fakeClient, secret string, h api.History) *client {
	t.Helper()

	o := search.NewOrchestrator(fc, fc, search.WithThrottle(0))

	r := gin.New()
	r.Use(middleware.Session(session.NewStore(secret)))
	api.NewController(o, h).Register(r)

	return &client{t: t, r: r}
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.SessionCookieName {
			c.cookie = ck
		}
	}

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "text/html; charset=utf-8" {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	}

	return w.Code, out
}

func TestIndex(t *testing.T) {
	c := newClient(t, &fakeClient{}, "", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `type="password"`)
}

func TestSearchAndSelect(t *testing.T) {
	fc := &fakeClient{}
	c := newClient(t, fc, "", nil)

	code, body := c.do(http.MethodGet, "/api/suggestions?q=goo", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, api.MsgMissingCredential, body["error"])
	assert.Equal(t, []any{}, body["suggestions"])

	code, body = c.do(http.MethodPost, "/api/credential", map[string]string{"key": "typed"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["has_credential"])

	code, body = c.do(http.MethodGet, "/api/suggestions?q=goo", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"Googleplex", "goo near me"}, body["suggestions"])

	code, body = c.do(http.MethodPost, "/api/selection", search.Selection{Query: "goo", Label: "goo near me"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, api.MsgNoValidSuggestions, body["warning"])
	assert.Empty(t, fc.resolved)

	code, body = c.do(http.MethodPost, "/api/selection", search.Selection{Query: "go", Label: "Googleplex"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Empty(t, fc.resolved)

	code, body = c.do(http.MethodPost, "/api/selection", search.Selection{Query: "goo", Label: "Googleplex"})
	require.Equal(t, http.StatusOK, code)
	marker := body["marker"].(map[string]any)
	assert.Equal(t, 37.4, marker["latitude"])
	assert.Equal(t, -122.1, marker["longitude"])
	assert.Equal(t, float64(mapview.DefaultZoom), marker["zoom"])
	assert.NotEmpty(t, body["map_url"])

	code, body = c.do(http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(session.StateResolved), body["state"])
	assert.Equal(t, "goo", body["query"])
}

func TestSuggestionsUpstreamErrors(t *testing.T) {
	fc := &fakeClient{autocompleteErr: &places.Error{Op: "places autocomplete", Kind: places.KindTimeout, Err: context.DeadlineExceeded}}
	c := newClient(t, fc, "s3cr3t", nil)

	code, body := c.do(http.MethodGet, "/api/suggestions?q=goo", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "timeout", body["kind"])
	assert.Contains(t, body["error"], "Timeout error")
	assert.Equal(t, []any{}, body["suggestions"])
}

func TestSelectUpstreamErrors(t *testing.T) {
	fc := &fakeClient{resolveErr: &places.Error{Op: "place details", Kind: places.KindDecoding, Err: errors.New("unexpected end of JSON input")}}
	c := newClient(t, fc, "s3cr3t", nil)

	code, _ := c.do(http.MethodGet, "/api/suggestions?q=goo", nil)
	require.Equal(t, http.StatusOK, code)

	code, body := c.do(http.MethodPost, "/api/selection", search.Selection{Label: "Googleplex"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "JSON decoding error: unexpected end of JSON input", body["error"])
	assert.Nil(t, body["marker"])
}

func TestHistory(t *testing.T) {
	testCases := []struct {
		desc      string
		history   *fakeHistory
		query     string
		wantCode  int
		wantLimit int
	}{
		{desc: "history is disabled without a database", history: nil, wantCode: http.StatusNotFound},
		{desc: "the default limit is used", history: &fakeHistory{}, wantCode: http.StatusOK, wantLimit: 20},
		{desc: "the limit is capped", history: &fakeHistory{}, query: "?limit=1000", wantCode: http.StatusOK, wantLimit: 100},
		{desc: "an invalid limit is rejected", history: &fakeHistory{}, query: "?limit=-1", wantCode: http.StatusBadRequest},
		{desc: "storage errors are reported", history: &fakeHistory{err: errors.New("db down")}, wantCode: http.StatusInternalServerError, wantLimit: 20},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			var h api.History
			if tC.history != nil {
				h = tC.history
			}

			c := newClient(t, &fakeClient{}, "s3cr3t", h)

			code, _ := c.do(http.MethodGet, "/api/history"+tC.query, nil)
			assert.Equal(t, tC.wantCode, code)

			if tC.history != nil {
				assert.Equal(t, tC.wantLimit, tC.history.limit)
			}
		})
	}
}
