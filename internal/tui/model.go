// Package tui is the terminal front end of a search session.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/letmevibethatforyou/searchbox/highlight"
	"github.com/letmevibethatforyou/searchbox/session"
)

// Session receives the user's input events. *session.Loop implements it.
type Session interface {
	Keystroke(value string)
	Cancel()
	Navigate(location string)
}

// Navigator moves through location history.
type Navigator interface {
	Back() (string, bool)
	Forward() (string, bool)
}

var (
	promptStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activePromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	titleStyle        = lipgloss.NewStyle().Bold(true)
	uriStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const helpText = "esc clear • ctrl+b back • ctrl+f forward • ctrl+c quit"

// Model is the bubbletea model of the search box.
type Model struct {
	session Session
	history Navigator
	marker  highlight.Marker

	input   textinput.Model
	active  bool
	loading bool
	loadErr error
	display session.Display

	// typing is set while the field holds text the session has not
	// committed yet. Values pushed by the session are ignored meanwhile.
	typing bool

	width, height int
}

// New returns a model that reports to s and navigates h.
func New(s Session, h Navigator) *Model {
	in := textinput.New()
	in.Placeholder = "Search…"
	in.Prompt = "/ "
	in.PromptStyle = promptStyle
	in.Focus()

	return &Model{
		session: s,
		history: h,
		marker:  highlight.DefaultTerminal,
		input:   in,
		loading: true,
	}
}

// WithMarker replaces the highlight marker.
func (m *Model) WithMarker(marker highlight.Marker) *Model {
	m.marker = marker
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case indexMsg:
		m.loading = false
		m.loadErr = msg.err
		return m, nil

	case valueMsg:
		if !m.typing && m.input.Value() != string(msg) {
			m.input.SetValue(string(msg))
			m.input.CursorEnd()
		}
		return m, nil

	case activeMsg:
		m.active = bool(msg)
		if m.active {
			m.input.PromptStyle = activePromptStyle
		} else {
			m.input.PromptStyle = promptStyle
		}
		return m, nil

	case blurMsg:
		m.input.Blur()
		return m, nil

	case displayMsg:
		m.display = session.Display(msg)
		if m.input.Value() == m.display.Query {
			m.typing = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.typing = false
		m.input.SetValue("")
		m.session.Cancel()
		return m, nil
	case "ctrl+b":
		if loc, ok := m.history.Back(); ok {
			m.typing = false
			m.session.Navigate(loc)
		}
		return m, nil
	case "ctrl+f":
		if loc, ok := m.history.Forward(); ok {
			m.typing = false
			m.session.Navigate(loc)
		}
		return m, nil
	}

	var cmds []tea.Cmd
	if !m.input.Focused() {
		cmds = append(cmds, m.input.Focus())
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	if value := m.input.Value(); value != before {
		m.typing = true
		m.session.Keystroke(value)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(noticeStyle.Render("Loading index…"))
	case m.loadErr != nil:
		b.WriteString(errorStyle.Render("Search unavailable: " + m.loadErr.Error()))
	case m.display.Kind == session.DisplayError:
		b.WriteString(errorStyle.Render(m.display.Message()))
	case m.display.Kind == session.DisplayEmpty:
		b.WriteString(noticeStyle.Render(m.display.Message()))
	case m.display.Kind == session.DisplayResults:
		b.WriteString(m.results())
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(helpText))
	return b.String()
}

func (m *Model) results() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d results for %q\n", len(m.display.Results), m.display.Query)
	for _, r := range m.display.Results {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(m.marker.Mark(r.Document.Title, r.Title)))
		b.WriteString("  ")
		b.WriteString(uriStyle.Render(r.Document.URI))
		if r.Document.Subtitle != "" {
			b.WriteString("\n  ")
			b.WriteString(m.marker.Mark(r.Document.Subtitle, r.Subtitle))
		}
		if len(r.Snippets) > 0 {
			b.WriteString("\n  ")
			b.WriteString(m.wrap(highlight.Snippets(m.marker, r.Snippets)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) wrap(s string) string {
	if m.width <= 4 {
		return s
	}
	return lipgloss.NewStyle().Width(m.width - 2).Render(s)
}
