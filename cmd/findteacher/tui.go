package main

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Shreyas165/Find-My-Teacher/pkg/client"
	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

const requestTimeout = 10 * time.Second

type debounceMsg struct{ seq uint64 }

type resultsMsg struct {
	query   string
	results []dto.Teacher
	err     error
}

type detailMsg struct {
	teacher *dto.Teacher
	err     error
}

type searchModel struct {
	api    *client.Client
	state  *client.State
	input  textinput.Model
	cursor int
	err    error
}

func newSearchModel(api *client.Client) searchModel {
	ti := textinput.New()
	ti.Placeholder = "Type a teacher's name"
	ti.CharLimit = 100
	ti.Width = 50
	ti.Focus()

	return searchModel{api: api, state: client.NewState(), input: ti}
}

func (m searchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.state.Clear()
			m.input.SetValue("")
			m.cursor, m.err = 0, nil
			return m, nil
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down":
			if m.cursor < len(m.state.Results())-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			results := m.state.Results()
			if m.cursor >= len(results) {
				return m, nil
			}
			chosen := results[m.cursor]
			m.state.Select(chosen)
			return m, m.fetchDetail(chosen.ID)
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() == before {
			return m, cmd
		}
		seq, needed := m.state.Keystroke(m.input.Value())
		m.cursor, m.err = 0, nil
		if !needed {
			return m, cmd
		}
		return m, tea.Batch(cmd, tea.Tick(client.DebounceInterval, func(time.Time) tea.Msg {
			return debounceMsg{seq: seq}
		}))

	case debounceMsg:
		if !m.state.Due(msg.seq) {
			return m, nil
		}
		return m, m.search(m.state.Query())

	case resultsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.state.Store(msg.query, msg.results)
		return m, nil

	case detailMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.state.SetDetail(msg.teacher)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m searchModel) search(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		results, err := m.api.Search(ctx, strings.TrimSpace(query))
		return resultsMsg{query: query, results: results, err: err}
	}
}

// fetchDetail loads the chosen entry by id; names may be shared by several entries.
func (m searchModel) fetchDetail(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := m.api.Teacher(ctx, id)
		return detailMsg{teacher: t, err: err}
	}
}

func (m searchModel) View() string {
	var b strings.Builder
	b.WriteString(client.TitleStyle.Render("Find My Teacher"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.state.ResultsVisible() {
		b.WriteString(client.RenderResults(m.state.Query(), m.state.Results(), m.cursor))
		b.WriteString("\n")
	} else if sel := m.state.Selected(); sel != nil {
		b.WriteString(client.RenderDetail(sel))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n" + client.ErrorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + client.MutedStyle.Render("↑/↓ move • enter: directions • esc: clear • ctrl+c: quit"))
	return b.String()
}
