// Package session holds the per-user state of a search session: the API key
// in use and the suggestions returned by the latest query.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"golang.org/x/time/rate"

	"github.com/manzanit0/placefinder/pkg/places"
)

type State string

const (
	StateIdle       State = "idle"
	StateSuggesting State = "suggesting"
	StateResolved   State = "resolved"
)

// ResolveCredential picks the provisioned secret over the value typed by the
// user. An empty result is rejected by the places client.
func ResolveCredential(secret, input string) string {
	if secret != "" {
		return secret
	}

	return input
}

// SuggestionSet is the response of one autocomplete call together with the
// query that produced it. It is only valid against that query.
type SuggestionSet struct {
	Query    string
	Seq      uint64
	Response *places.AutocompleteResponse
}

func (s *SuggestionSet) Suggestions() []places.Suggestion {
	if s == nil || s.Response == nil {
		return nil
	}

	return s.Response.Suggestions
}

type Session struct {
	ID string

	// Lock serialises searches and selections within the session.
	Lock sync.Mutex

	// Throttle is set by the search orchestrator on first use.
	Throttle *rate.Limiter

	mu       sync.RWMutex
	secret   string
	input    string
	seq      uint64
	set      *SuggestionSet
	resolved bool
	lastSeen time.Time
}

func New(secret string) *Session {
	return &Session{ID: ksuid.New().String(), secret: secret}
}

func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ResolveCredential(s.secret, s.input)
}

// SetInput stores the key typed into the masked input. It never overrides a
// provisioned secret.
func (s *Session) SetInput(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = key
}

// HasSecret reports whether a provisioned key is in use, so the UI can hide
// the masked input.
func (s *Session) HasSecret() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.secret != ""
}

// Store replaces the suggestion set with the response for query. A nil
// response records a failed query: the set is emptied rather than left
// holding a previous query's suggestions.
func (s *Session) Store(query string, res *places.AutocompleteResponse) *SuggestionSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res == nil {
		res = &places.AutocompleteResponse{Suggestions: []places.Suggestion{}}
	}

	s.seq++
	s.set = &SuggestionSet{Query: query, Seq: s.seq, Response: res}
	s.resolved = false

	return s.set
}

// Suggestions returns the set produced by the latest query, or nil when no
// query was made yet.
func (s *Session) Suggestions() *SuggestionSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.set
}

// Reset forgets the suggestion set, taking the session back to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = nil
	s.resolved = false
}

func (s *Session) MarkResolved() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolved = true
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.set == nil:
		return StateIdle
	case s.resolved:
		return StateResolved
	default:
		return StateSuggesting
	}
}

// Store keeps the sessions of the web front-end in memory. Nothing is
// written to disk.
type Store struct {
	mu       sync.Mutex
	secret   string
	sessions map[string]*Session
}

func NewStore(secret string) *Store {
	return &Store{secret: secret, sessions: map[string]*Session{}}
}

// Get returns the session for id, creating a new one when id is unknown.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		s.lastSeen = time.Now()
		return s
	}

	s := New(st.secret)
	s.lastSeen = time.Now()
	st.sessions[s.ID] = s

	return s
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return len(st.sessions)
}

// Sweep deletes the sessions that have not been used for longer than ttl and
// returns how many were removed.
func (st *Store) Sweep(ttl time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	deadline := time.Now().Add(-ttl)

	var n int
	for id, s := range st.sessions {
		if s.lastSeen.Before(deadline) {
			delete(st.sessions, id)
			n++
		}
	}

	return n
}

// Janitor sweeps the store every interval until ctx is done.
func (st *Store) Janitor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(ttl); n > 0 {
				slog.Info("expired idle sessions", "count", n, "remaining", st.Len())
			}
		}
	}
}
