package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Shreyas165/Find-My-Teacher/pkg/client"
	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

func typeText(t *testing.T, m searchModel, text string) searchModel {
	t.Helper()
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(searchModel)
	}
	return m
}

func TestStaleDebounceIsIgnored(t *testing.T) {
	m := newSearchModel(client.New("http://127.0.0.1:1"))
	m = typeText(t, m, "as")
	m = typeText(t, m, "h")

	if _, cmd := m.Update(debounceMsg{seq: 1}); cmd != nil {
		t.Fatal("stale debounce should not trigger a search")
	}
	if m.state.Query() != "ash" {
		t.Fatalf("query = %q", m.state.Query())
	}
}

func TestResultsAndSelection(t *testing.T) {
	m := newSearchModel(client.New("http://127.0.0.1:1"))
	m = typeText(t, m, "as")

	next, _ := m.Update(resultsMsg{query: "as", results: []dto.Teacher{{Name: "Asha Rao", Branch: "CSE", Floor: "3"}}})
	m = next.(searchModel)
	if !strings.Contains(m.View(), "ha Rao") {
		t.Fatalf("results not rendered:\n%s", m.View())
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(searchModel)
	if cmd == nil {
		t.Fatal("enter should fetch directions")
	}
	if m.state.ResultsVisible() {
		t.Fatal("results should hide after selection")
	}

	next, _ = m.Update(detailMsg{teacher: &dto.Teacher{Name: "Asha Rao", Directions: "Second door on the left"}})
	m = next.(searchModel)
	if !strings.Contains(m.View(), "Second door on the left") {
		t.Fatalf("detail not rendered:\n%s", m.View())
	}
}

func TestSelectingDuplicateNameFetchesThatEntry(t *testing.T) {
	older := dto.Teacher{ID: uuid.New(), Name: "Asha Rao", Branch: "CS", Floor: "3", Directions: "Near elevator"}
	newer := dto.Teacher{ID: uuid.New(), Name: "Asha Rao", Branch: "EE", Floor: "1", Directions: "Lab 2"}

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path != "/api/teachers/"+newer.ID.String() {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Teacher not found."})
			return
		}
		_ = json.NewEncoder(w).Encode(newer)
	}))
	defer srv.Close()

	m := newSearchModel(client.New(srv.URL))
	m = typeText(t, m, "as")
	next, _ := m.Update(resultsMsg{query: "as", results: []dto.Teacher{older, newer}})
	m = next.(searchModel)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(searchModel)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(searchModel)
	if cmd == nil {
		t.Fatal("enter should fetch the selected entry")
	}

	msg, ok := cmd().(detailMsg)
	if !ok {
		t.Fatalf("unexpected message %T", cmd())
	}
	if msg.err != nil {
		t.Fatalf("fetch detail: %v (path %s)", msg.err, gotPath)
	}
	if msg.teacher.ID != newer.ID || msg.teacher.Branch != "EE" {
		t.Fatalf("fetched %+v, want the second entry", msg.teacher)
	}
}
