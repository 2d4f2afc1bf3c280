package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

var (
	Primary = lipgloss.Color("#7D56F4")
	Accent  = lipgloss.Color("#FFD166")
	Muted   = lipgloss.Color("#888888")
	Danger  = lipgloss.Color("#FF5F5F")

	TitleStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			MarginBottom(1)

	ResultStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	CursorStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	MatchStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Underline(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Danger)

	CardStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Width(60)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(12)
)

// splitMatch splits name around the first case-insensitive occurrence of query.
// When query does not occur, before holds all of name.
func splitMatch(name, query string) (before, match, after string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return name, "", ""
	}
	lowerName, lowerQuery := strings.ToLower(name), strings.ToLower(query)
	i := strings.Index(lowerName, lowerQuery)
	// Lower-casing can change byte lengths for some scripts; only slice when offsets line up.
	if i < 0 || len(lowerName) != len(name) {
		return name, "", ""
	}
	return name[:i], name[i : i+len(query)], name[i+len(query):]
}

// RenderResults draws the result list with the matching part of each name highlighted.
// cursor is the highlighted row; pass -1 for none.
func RenderResults(query string, results []dto.Teacher, cursor int) string {
	if len(results) == 0 {
		return MutedStyle.Render("  No teachers match " + fmt.Sprintf("%q", strings.TrimSpace(query)))
	}

	var b strings.Builder
	for i, t := range results {
		before, match, after := splitMatch(t.Name, query)
		line := before + MatchStyle.Render(match) + after
		if match == "" {
			line = t.Name
		}
		prefix := "  "
		if i == cursor {
			prefix = CursorStyle.Render("> ")
		}
		meta := MutedStyle.Render(fmt.Sprintf("  %s · floor %s", t.Branch, t.Floor))
		b.WriteString(ResultStyle.Render(prefix + line + meta))
		if i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderDetail draws one entry's location card.
func RenderDetail(t *dto.Teacher) string {
	if t == nil {
		return ""
	}
	row := func(label, value string) string {
		return LabelStyle.Render(label) + value
	}
	image := t.ImageURL
	if image == "" {
		image = MutedStyle.Render("no photo")
	}
	body := strings.Join([]string{
		TitleStyle.Render(t.Name),
		row("Branch", t.Branch),
		row("Floor", t.Floor),
		row("Directions", t.Directions),
		row("Photo", image),
	}, "\n")
	return CardStyle.Render(body)
}
