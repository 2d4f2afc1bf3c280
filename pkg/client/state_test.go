package client

import (
	"testing"

	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

func TestShortQueryHidesResults(t *testing.T) {
	s := NewState()
	s.Store("as", []dto.Teacher{{Name: "Asha Rao"}})

	if _, search := s.Keystroke("a"); search {
		t.Fatal("single character should not search")
	}
	if s.ResultsVisible() || s.Results() != nil {
		t.Fatal("results should be hidden for a short query")
	}
}

func TestDebounceOnlyLatestIsDue(t *testing.T) {
	s := NewState()
	first, search1 := s.Keystroke("as")
	second, search2 := s.Keystroke("ash")
	if !search1 || !search2 {
		t.Fatal("uncached queries should need a search")
	}
	if s.Due(first) {
		t.Fatal("superseded keystroke should not be due")
	}
	if !s.Due(second) {
		t.Fatal("latest keystroke should be due")
	}
}

func TestCachedQueryShowsImmediately(t *testing.T) {
	s := NewState()
	s.Keystroke("asha")
	s.Store("asha", []dto.Teacher{{Name: "Asha Rao"}})

	s.Keystroke("ashaX")
	if _, search := s.Keystroke("ASHA "); search {
		t.Fatal("cached query should not search")
	}
	if got := s.Results(); len(got) != 1 || got[0].Name != "Asha Rao" {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestStaleStoreDoesNotShow(t *testing.T) {
	s := NewState()
	s.Keystroke("as")
	s.Keystroke("bo")
	s.Store("as", []dto.Teacher{{Name: "Asha Rao"}})
	if s.ResultsVisible() {
		t.Fatal("results for an old query should not be shown")
	}
	if _, ok := s.Cached("as"); !ok {
		t.Fatal("stale results should still be cached")
	}

	s.Store("bo", nil)
	if !s.ResultsVisible() || s.Results() == nil || len(s.Results()) != 0 {
		t.Fatal("empty results for the current query should be visible")
	}
}

func TestSelectAndClear(t *testing.T) {
	s := NewState()
	seq, _ := s.Keystroke("as")
	s.Store("as", []dto.Teacher{{Name: "Asha Rao"}})

	s.Select(dto.Teacher{Name: "Asha Rao"})
	if s.ResultsVisible() {
		t.Fatal("selecting should hide the list")
	}
	if s.Selected() == nil || s.Selected().Name != "Asha Rao" {
		t.Fatal("selection not recorded")
	}
	s.SetDetail(&dto.Teacher{Name: "Asha Rao", Directions: "Left"})
	if s.Selected().Directions != "Left" {
		t.Fatal("detail not applied")
	}

	s.Clear()
	if s.Query() != "" || s.Selected() != nil || s.ResultsVisible() {
		t.Fatal("clear did not reset state")
	}
	if s.Due(seq) {
		t.Fatal("pending search should be stale after clear")
	}
	if _, ok := s.Cached("as"); !ok {
		t.Fatal("clear should keep the cache")
	}
}
