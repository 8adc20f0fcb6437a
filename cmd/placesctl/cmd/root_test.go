package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manzanit0/placefinder/pkg/mapview"
	"github.com/manzanit0/placefinder/pkg/places"
	"github.com/manzanit0/placefinder/pkg/search"
	"github.com/manzanit0/placefinder/pkg/session"
)

type fakeClient struct {
	keys     []string
	queries  []string
	resolved []string
}

func (f *fakeClient) Autocomplete(_ context.Context, query, apiKey string) (*places.AutocompleteResponse, error) {
	f.keys = append(f.keys, apiKey)
	f.queries = append(f.queries, query)

	if query == "nowhere" {
		return &places.AutocompleteResponse{Suggestions: []places.Suggestion{}}, nil
	}

	return &places.AutocompleteResponse{Suggestions: []places.Suggestion{
		{QueryPrediction: &places.QueryPrediction{Text: places.FormattableText{Text: query + " restaurants"}}},
		{PlacePrediction: &places.PlacePrediction{PlaceID: "g", Text: places.FormattableText{Text: "Googleplex"}}},
	}}, nil
}

func (f *fakeClient) Resolve(_ context.Context, placeID, _ string) (*places.Coordinate, error) {
	f.resolved = append(f.resolved, placeID)
	return &places.Coordinate{Latitude: 37.4, Longitude: -122.1}, nil
}

func setupRootTest(t *testing.T, fc *fakeClient, input string, args ...string) *bytes.Buffer {
	t.Helper()

	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("THROTTLE_INTERVAL", "1ms")
	t.Setenv("REVERSE_GEOCODE", "false")

	prev := newPlacesClient
	newPlacesClient = func() places.Client { return fc }
	t.Cleanup(func() { newPlacesClient = prev })

	jsonOutput = false

	out := new(bytes.Buffer)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(out)
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)

	return out
}

func TestRootPipedKeyThenQuery(t *testing.T) {
	fc := &fakeClient{}
	out := setupRootTest(t, fc, "KEY\nmadrid\n2\n")

	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, []string{"madrid"}, fc.queries, "the query after the key must reach the search")
	assert.Equal(t, []string{"KEY"}, fc.keys)
	assert.Equal(t, []string{"g"}, fc.resolved)
	assert.Contains(t, out.String(), "37.400000")
}

func TestRootProvisionedKeySkipsPrompt(t *testing.T) {
	fc := &fakeClient{}
	out := setupRootTest(t, fc, "madrid\n\n")
	t.Setenv("GOOGLE_MAPS_API_KEY", "s3cr3t")

	require.NoError(t, rootCmd.Execute())

	assert.NotContains(t, out.String(), "API key")
	assert.Equal(t, []string{"s3cr3t"}, fc.keys)
	assert.Equal(t, []string{"g"}, fc.resolved)
}

func TestRootJSON(t *testing.T) {
	fc := &fakeClient{}
	out := setupRootTest(t, fc, "KEY\nmadrid\n2\n", "--json")

	require.NoError(t, rootCmd.Execute())

	i := strings.Index(out.String(), "{")
	require.GreaterOrEqual(t, i, 0)

	var payload mapview.Payload
	require.NoError(t, json.NewDecoder(strings.NewReader(out.String()[i:])).Decode(&payload))
	assert.Equal(t, 37.4, payload.Marker.Latitude)
	assert.Equal(t, "Googleplex", payload.Marker.Label)
}

func TestPromptLoop(t *testing.T) {
	testCases := []struct {
		desc         string
		input        string
		wantOutput   []string
		wantResolved []string
	}{
		{
			desc:         "picking a place renders it",
			input:        "goo\n2\n\n",
			wantOutput:   []string{"Googleplex", "37.400000", "-122.100000"},
			wantResolved: []string{"g"},
		},
		{
			desc:         "an empty pick resolves the first place",
			input:        "goo\n\n\n",
			wantOutput:   []string{"37.400000"},
			wantResolved: []string{"g"},
		},
		{
			desc:       "picking a query prediction warns",
			input:      "goo\n1\n\n",
			wantOutput: []string{"No valid place suggestions found."},
		},
		{
			desc:       "an out of range pick is rejected",
			input:      "goo\n7\n\n",
			wantOutput: []string{"Please pick a number between 1 and 2."},
		},
		{
			desc:       "no suggestions are reported",
			input:      "nowhere\n\n",
			wantOutput: []string{"No suggestions."},
		},
		{
			desc:  "the end of the input stops the loop",
			input: "",
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			fc := &fakeClient{}
			var out bytes.Buffer
			p := &prompt{
				in:           bufio.NewReader(strings.NewReader(tC.input)),
				out:          &out,
				orchestrator: search.NewOrchestrator(fc, fc, search.WithThrottle(0)),
				renderer:     mapview.TableRenderer{},
			}

			err := p.loop(context.Background(), session.New("s3cr3t"))
			if tC.input == "" {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			for _, w := range tC.wantOutput {
				assert.Contains(t, out.String(), w)
			}

			assert.Equal(t, tC.wantResolved, fc.resolved)
		})
	}
}
