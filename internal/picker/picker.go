// Package picker is a small TUI for choosing one bookmark out of ranked
// search results.
package picker

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/search"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("108"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Copy   key.Binding
	Cancel key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
	Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),
	Cancel: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "cancel")),
}

// copiedMsg reports the outcome of a clipboard write.
type copiedMsg struct {
	url string
	err error
}

// Picker is a simple TUI for selecting from search results.
type Picker struct {
	results   []search.Result
	tagNames  map[string]string
	query     string
	cursor    int
	selected  bool
	cancelled bool
	status    string
	width     int
	height    int

	copy func(string) error
}

// New creates a new Picker with the given search results. tags are used to
// show tag names next to each result and may be nil.
func New(results []search.Result, query string, tags []model.Tag) Picker {
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}
	return Picker{
		results:  results,
		tagNames: names,
		query:    query,
		width:    80,
		height:   24,
		copy:     clipboard.WriteAll,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case copiedMsg:
		if msg.err != nil {
			p.status = "copy failed: " + msg.err.Error()
		} else {
			p.status = "copied " + msg.url
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Cancel):
			p.cancelled = true
			return p, tea.Quit

		case key.Matches(msg, keys.Select):
			p.selected = true
			return p, tea.Quit

		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.results)-1 {
				p.cursor++
			}
			return p, nil

		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil

		case key.Matches(msg, keys.Copy):
			if p.cursor >= len(p.results) {
				return p, nil
			}
			url, write := p.results[p.cursor].Bookmark.URL, p.copy
			return p, func() tea.Msg {
				return copiedMsg{url: url, err: write(url)}
			}
		}
	}

	return p, nil
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Search: %s (%d results)", p.query, len(p.results))))
	b.WriteString("\n\n")

	for i, result := range p.results {
		cursor := "  "
		style := normalStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedStyle
		}

		line := cursor + style.Render(result.Bookmark.Title)
		if tags := p.tagsOf(result.Bookmark); tags != "" {
			line += " " + tagStyle.Render(tags)
		}
		b.WriteString(line + "\n")
		b.WriteString(fmt.Sprintf("   %s\n", urlStyle.Render(result.Bookmark.URL)))
	}

	b.WriteString("\n")
	if p.status != "" {
		b.WriteString(helpStyle.Render(p.status) + "\n")
	}
	b.WriteString(helpStyle.Render(help()))

	return b.String()
}

func (p Picker) tagsOf(b model.Bookmark) string {
	var names []string
	for _, id := range b.TagIDs {
		if name, ok := p.tagNames[id]; ok {
			names = append(names, "#"+name)
		}
	}
	return strings.Join(names, " ")
}

func help() string {
	bindings := []key.Binding{keys.Down, keys.Up, keys.Select, keys.Copy, keys.Cancel}
	parts := make([]string, len(bindings))
	for i, k := range bindings {
		parts[i] = k.Help().Key + ": " + k.Help().Desc
	}
	return strings.Join(parts, "  ")
}

// SelectedBookmark returns the selected bookmark, or nil if cancelled.
func (p Picker) SelectedBookmark() *model.Bookmark {
	if p.cancelled || !p.selected {
		return nil
	}
	if p.cursor < len(p.results) {
		b := p.results[p.cursor].Bookmark
		return &b
	}
	return nil
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}
