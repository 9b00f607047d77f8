// Package state persists the set of outage identifiers a monitor has already
// seen for its county, so restarts do not re-notify known outages.
package state

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Seen is the audit metadata kept for one known outage.
type Seen struct {
	Title     string    `json:"title,omitempty"`
	FirstSeen time.Time `json:"firstSeen"`
}

// MonitorState is the set of outage keys already seen for a county. The set
// only grows.
type MonitorState struct {
	County string          `json:"county,omitempty"`
	Known  map[string]Seen `json:"known"`
}

// New returns an empty state for county.
func New(county string) *MonitorState {
	return &MonitorState{County: county, Known: make(map[string]Seen)}
}

// Has reports whether key is already known.
func (s *MonitorState) Has(key string) bool {
	_, ok := s.Known[key]
	return ok
}

// Mark records key as known. Existing entries keep their first-seen time.
// It reports whether the key was new.
func (s *MonitorState) Mark(key, title string, at time.Time) bool {
	if s.Known == nil {
		s.Known = make(map[string]Seen)
	}
	if _, ok := s.Known[key]; ok {
		return false
	}
	s.Known[key] = Seen{Title: title, FirstSeen: at.UTC()}
	return true
}

// Len returns the number of known keys.
func (s *MonitorState) Len() int {
	return len(s.Known)
}

// Keys returns the known keys in sorted order.
func (s *MonitorState) Keys() []string {
	keys := make([]string, 0, len(s.Known))
	for k := range s.Known {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store loads and saves a MonitorState.
type Store interface {
	// Load returns the persisted state. A missing store yields an empty
	// state and no error.
	Load(ctx context.Context) (*MonitorState, error)
	// Save replaces the persisted state with st.
	Save(ctx context.Context, st *MonitorState) error
	Close() error
}

// Open selects a store implementation from the path: ".db" and ".sqlite"
// use SQLite, anything else a JSON file.
func Open(path, county string) (Store, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") {
		return OpenSQLite(path, county)
	}
	return NewFileStore(path, county), nil
}
