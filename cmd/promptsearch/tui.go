package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"promptsearch/pkg/render"
	"promptsearch/pkg/search"
	"promptsearch/pkg/store"
)

// searchDebounce delays queries while the user is still typing.
const searchDebounce = 150 * time.Millisecond

// queryMsg fires after the debounce period for the query tagged seq.
// Stale sequences are dropped in Update.
type queryMsg struct {
	seq int
}

// resultsMsg carries the outcome of one search query.
type resultsMsg struct {
	seq     int
	results []search.Result
	mode    string
	err     error
}

var (
	tuiTitleStyle    = lipgloss.NewStyle().Bold(true)
	tuiDimStyle      = lipgloss.NewStyle().Faint(true)
	tuiSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	tuiErrStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// tuiModel is the Bubble Tea model for interactive search.
type tuiModel struct {
	st    *store.Store
	limit int

	input    textinput.Model
	seq      int
	results  []search.Result
	mode     string
	selected int
	err      error

	width  int
	height int

	// chosen holds the selected document text when the user hits enter;
	// it is printed after the program exits the alt screen.
	chosen string
}

func newTuiModel(st *store.Store, limit int) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "search prompts"
	ti.Prompt = "> "
	ti.Focus()
	return tuiModel{st: st, limit: limit, input: ti}
}

// debounceCmd schedules a queryMsg for the given sequence number.
func debounceCmd(seq int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return queryMsg{seq: seq}
	})
}

// searchCmd runs the query against the store off the update loop.
func (m tuiModel) searchCmd(seq int, query string) tea.Cmd {
	st, limit := m.st, m.limit
	return func() tea.Msg {
		results, mode, err := search.Run(context.Background(), st, query, search.Options{
			Limit:       limit,
			IncludeText: true,
		})
		return resultsMsg{seq: seq, results: results, mode: mode, err: err}
	}
}

// Init implements tea.Model.
func (m tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.selected < len(m.results)-1 {
				m.selected++
			}
			return m, nil
		case "enter":
			if m.selected >= 0 && m.selected < len(m.results) {
				m.chosen = m.results[m.selected].Text
				if m.chosen == "" {
					m.chosen = m.results[m.selected].Snippet
				}
			}
			return m, tea.Quit
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			m.seq++
			return m, tea.Batch(cmd, debounceCmd(m.seq))
		}
		return m, cmd

	case queryMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m, m.searchCmd(msg.seq, m.input.Value())

	case resultsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.results = msg.results
		m.mode = msg.mode
		m.err = msg.err
		m.selected = 0
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(tuiTitleStyle.Render("promptsearch"))
	if m.mode == search.ModeSubstring {
		b.WriteString(tuiDimStyle.Render("  (substring mode)"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(tuiErrStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
		return b.String()
	}

	if len(m.results) == 0 {
		if strings.TrimSpace(m.input.Value()) != "" {
			b.WriteString(tuiDimStyle.Render("no matches"))
			b.WriteString("\n")
		}
		return b.String()
	}

	visible := m.visibleRows()
	for i, r := range m.results {
		if i >= visible {
			b.WriteString(tuiDimStyle.Render(fmt.Sprintf("  … %d more", len(m.results)-visible)))
			b.WriteString("\n")
			break
		}
		line := fmt.Sprintf("%s  %s  %s", shortTS(r.EventTS), r.Role, m.fitSnippet(r.Snippet))
		if i == m.selected {
			b.WriteString(tuiSelectedStyle.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tuiDimStyle.Render("↑/↓ select · enter print · esc quit"))
	return b.String()
}

// visibleRows returns how many result lines fit below the header and
// above the footer.
func (m tuiModel) visibleRows() int {
	if m.height == 0 {
		return len(m.results)
	}
	rows := m.height - 7
	if rows < 1 {
		rows = 1
	}
	return rows
}

// fitSnippet trims a snippet to the terminal width, accounting for the
// timestamp and role prefix.
func (m tuiModel) fitSnippet(s string) string {
	if m.width == 0 {
		return s
	}
	budget := m.width - 30
	if budget < 10 {
		budget = 10
	}
	return render.TruncateRunes(s, budget)
}

// shortTS trims the stored timestamp down to date and minutes.
func shortTS(ts string) string {
	if len(ts) >= 16 {
		return strings.Replace(ts[:16], "T", " ", 1)
	}
	if ts == "" {
		return "-"
	}
	return ts
}
