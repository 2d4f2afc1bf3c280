package client

import (
	"strings"
	"time"

	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

const (
	// MinQueryLength is the shortest query that triggers a search.
	MinQueryLength = 2
	// DebounceInterval is how long typing must pause before a search is sent.
	DebounceInterval = 300 * time.Millisecond
)

// State is the search UI state: the current query, the pending debounce sequence, the visible
// results, the selected entry and a per-session cache of results by query.
// It is not safe for concurrent use; the UI loop owns it.
type State struct {
	query    string
	seq      uint64
	results  []dto.Teacher
	visible  bool
	selected *dto.Teacher
	cache    map[string][]dto.Teacher
}

func NewState() *State {
	return &State{cache: make(map[string][]dto.Teacher)}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Keystroke records a new query value. It returns the debounce sequence for this keystroke and
// whether a network search is needed once the sequence is Due. Short queries hide the results;
// cached queries are shown immediately.
func (s *State) Keystroke(query string) (uint64, bool) {
	s.seq++
	s.query = query

	q := strings.TrimSpace(query)
	if len([]rune(q)) < MinQueryLength {
		s.results, s.visible = nil, false
		return s.seq, false
	}
	if cached, ok := s.cache[cacheKey(q)]; ok {
		s.results, s.visible = cached, true
		return s.seq, false
	}
	return s.seq, true
}

// Due reports whether seq is still the latest keystroke, i.e. its search should fire.
func (s *State) Due(seq uint64) bool {
	return seq == s.seq
}

func (s *State) Cached(query string) ([]dto.Teacher, bool) {
	r, ok := s.cache[cacheKey(query)]
	return r, ok
}

// Store caches results for query and shows them if query is still current.
func (s *State) Store(query string, results []dto.Teacher) {
	if results == nil {
		results = []dto.Teacher{}
	}
	s.cache[cacheKey(query)] = results
	if cacheKey(query) == cacheKey(s.query) {
		s.results, s.visible = results, true
	}
}

// Select marks t as chosen and hides the result list.
func (s *State) Select(t dto.Teacher) {
	s.selected = &t
	s.visible = false
}

// SetDetail replaces the selected entry with the full detail fetched from the server.
func (s *State) SetDetail(t *dto.Teacher) {
	s.selected = t
}

// Clear resets the query, results and selection. Pending searches become stale; the cache is kept.
func (s *State) Clear() {
	s.seq++
	s.query = ""
	s.results, s.visible = nil, false
	s.selected = nil
}

func (s *State) Query() string { return s.query }

// Results returns the visible results; nil when results are hidden.
func (s *State) Results() []dto.Teacher {
	if !s.visible {
		return nil
	}
	return s.results
}

func (s *State) ResultsVisible() bool { return s.visible }

func (s *State) Selected() *dto.Teacher { return s.selected }
