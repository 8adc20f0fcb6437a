package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/manzanit0/placefinder/pkg/places"
	"github.com/manzanit0/placefinder/pkg/session"
)

// DefaultThrottleInterval is the minimum time between two autocomplete calls
// of the same session.
const DefaultThrottleInterval = 500 * time.Millisecond

var (
	ErrNoValidSuggestion = errors.New("no valid place suggestions found")
	ErrStaleSelection    = errors.New("selection does not belong to the latest query")
)

// Annotator turns a coordinate into a human readable address.
type Annotator interface {
	Address(ctx context.Context, lat, lng float64) (string, error)
}

// Recorder keeps track of resolved places.
type Recorder interface {
	Record(ctx context.Context, r Resolution) error
}

type Selection struct {
	// Query is the text the selected label was suggested for. When set it must
	// match the query of the latest suggestion set.
	Query string `json:"query"`
	Label string `json:"label"`
}

type Resolution struct {
	SessionID  string            `json:"-"`
	Query      string            `json:"query"`
	Label      string            `json:"label"`
	PlaceID    string            `json:"place_id"`
	Coordinate places.Coordinate `json:"coordinate"`
	Address    string            `json:"address,omitempty"`
	ResolvedAt time.Time         `json:"resolved_at"`
}

type Option func(*Orchestrator)

func WithThrottle(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.interval = d
	}
}

func WithAnnotator(a Annotator) Option {
	return func(o *Orchestrator) {
		o.annotator = a
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// Orchestrator wires the query typed by the user to the places client and
// resolves selections against the suggestions cached in the session.
type Orchestrator struct {
	autocomplete places.AutocompleteClient
	resolver     places.PlaceResolver
	interval     time.Duration
	annotator    Annotator
	recorder     Recorder
	now          func() time.Time
}

func NewOrchestrator(a places.AutocompleteClient, r places.PlaceResolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{autocomplete: a, resolver: r, interval: DefaultThrottleInterval, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Search returns the suggestion labels for query. On failure the labels are
// empty and the error is meant to be shown to the user.
func (o *Orchestrator) Search(ctx context.Context, sess *session.Session, query string) ([]string, error) {
	sess.Lock.Lock()
	defer sess.Lock.Unlock()

	// Clearing the input takes the session back to idle.
	if query == "" {
		sess.Reset()
		return []string{}, nil
	}

	if err := o.throttle(ctx, sess); err != nil {
		sess.Store(query, nil)
		return []string{}, fmt.Errorf("throttle: %w", err)
	}

	res, err := o.autocomplete.Autocomplete(ctx, query, sess.Credential())
	if err != nil {
		sess.Store(query, nil)
		slog.ErrorContext(ctx, "autocomplete failed", "error", err.Error(), "kind", places.KindOf(err).String(), "session_id", sess.ID)
		return []string{}, err
	}

	set := sess.Store(query, res)
	slog.InfoContext(ctx, "suggestions stored", "session_id", sess.ID, "seq", set.Seq, "count", len(set.Suggestions()))

	return res.Labels(), nil
}

func (o *Orchestrator) throttle(ctx context.Context, sess *session.Session) error {
	if o.interval <= 0 {
		return nil
	}

	if sess.Throttle == nil {
		sess.Throttle = rate.NewLimiter(rate.Every(o.interval), 1)
	}

	return sess.Throttle.Wait(ctx)
}

// Select resolves sel against the latest suggestion set of the session.
func (o *Orchestrator) Select(ctx context.Context, sess *session.Session, sel Selection) (*Resolution, error) {
	sess.Lock.Lock()
	defer sess.Lock.Unlock()

	set := sess.Suggestions()
	if set == nil {
		return nil, ErrNoValidSuggestion
	}

	if sel.Query != "" && sel.Query != set.Query {
		slog.WarnContext(ctx, "stale selection", "session_id", sess.ID, "selection_query", sel.Query, "latest_query", set.Query)
		return nil, ErrStaleSelection
	}

	s, err := PickSuggestion(set, sel.Label)
	if err != nil {
		return nil, err
	}

	coord, err := o.resolver.Resolve(ctx, s.PlaceID(), sess.Credential())
	if err != nil {
		slog.ErrorContext(ctx, "place details failed", "error", err.Error(), "kind", places.KindOf(err).String(), "session_id", sess.ID)
		return nil, err
	}

	r := Resolution{
		SessionID:  sess.ID,
		Query:      set.Query,
		Label:      s.Label(),
		PlaceID:    s.PlaceID(),
		Coordinate: *coord,
		ResolvedAt: o.now().UTC(),
	}

	if o.annotator != nil {
		address, err := o.annotator.Address(ctx, coord.Latitude, coord.Longitude)
		if err != nil {
			slog.WarnContext(ctx, "unable to annotate place", "error", err.Error(), "place_id", r.PlaceID)
		} else {
			r.Address = address
		}
	}

	sess.MarkResolved()

	if o.recorder != nil {
		if err := o.recorder.Record(ctx, r); err != nil {
			slog.ErrorContext(ctx, "unable to record resolution", "error", err.Error(), "place_id", r.PlaceID)
		}
	}

	return &r, nil
}

// PickSuggestion returns the suggestion named by label, preferring an entry
// with a place id when several share the label. When label is empty or
// unknown, the first suggestion carrying a place id is used instead.
func PickSuggestion(set *session.SuggestionSet, label string) (places.Suggestion, error) {
	suggestions := set.Suggestions()

	if label != "" {
		var matched bool
		for _, s := range suggestions {
			if s.Label() != label {
				continue
			}

			matched = true
			if s.PlaceID() != "" {
				return s, nil
			}
		}

		if matched {
			return places.Suggestion{}, ErrNoValidSuggestion
		}
	}

	for _, s := range suggestions {
		if s.PlaceID() != "" {
			return s, nil
		}
	}

	return places.Suggestion{}, ErrNoValidSuggestion
}
