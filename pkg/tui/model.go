// Package tui is the terminal front end of the feed generator
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/umputun/feedgen/pkg/feed"
	"github.com/umputun/feedgen/pkg/ui"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	entryStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	activeTab   = lipgloss.NewStyle().Bold(true).Underline(true)
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type keyMap struct {
	Submit   key.Binding
	Toggle   key.Binding
	Copy     key.Binding
	Download key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "generate")),
	Toggle:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "pretty/raw")),
	Copy:     key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
	Download: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

// generatedMsg carries the generation result of submission seq
type generatedMsg struct {
	seq int
	raw string
	err error
}

type copyExpiredMsg struct {
	token int
}

// Model is the bubbletea model driving ui.State with key presses
type Model struct {
	ctx    context.Context
	deps   ui.Deps
	state  ui.State
	status string // result of the last save or copy attempt

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
}

// New makes the model. Deps.Fetcher is required, clipboard and saver may be nil.
func New(ctx context.Context, deps ui.Deps) Model {
	if deps.CopyAck <= 0 {
		deps.CopyAck = ui.CopyAckInterval
	}

	ti := textinput.New()
	ti.Placeholder = "https://example.com/news"
	ti.Prompt = "URL: "
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	return Model{ctx: ctx, deps: deps, input: ti, spinner: s, viewport: viewport.New(80, 20)}
}

// Run starts the terminal program and blocks until the user quits or ctx is canceled
func Run(ctx context.Context, deps ui.Deps) error {
	p := tea.NewProgram(New(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}

// State returns the current generator state
func (m Model) State() ui.State {
	return m.state
}

// Init starts the cursor blinking
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and generation results
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-10, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		m.refreshContent()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case generatedMsg:
		if msg.err != nil {
			m.state = ui.Reduce(m.state, ui.Failed{Seq: msg.seq, Err: msg.err})
		} else {
			m.state = ui.Reduce(m.state, ui.Succeeded{Seq: msg.seq, Raw: msg.raw})
		}
		m.refreshContent()
		return m, nil

	case copyExpiredMsg:
		m.state = ui.Reduce(m.state, ui.CopyExpired{Token: msg.token})
		return m, nil

	case spinner.TickMsg:
		if m.state.Phase != ui.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Submit):
		next := ui.Reduce(m.state, ui.Submit{URL: m.input.Value()})
		started := next.Seq != m.state.Seq
		m.state = next
		m.status = ""
		m.refreshContent()
		if !started {
			return m, nil
		}
		return m, tea.Batch(m.generate(next.Seq, next.URL), m.spinner.Tick)

	case key.Matches(msg, keys.Toggle):
		view := ui.ViewRaw
		if m.state.View == ui.ViewRaw {
			view = ui.ViewPretty
		}
		m.state = ui.Reduce(m.state, ui.SetView{View: view})
		m.refreshContent()
		return m, nil

	case key.Matches(msg, keys.Copy):
		if !m.state.Loaded() {
			return m, nil
		}
		if err := ui.CopyFeed(m.deps.Clipboard, m.state.RawFeed); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.state = ui.Reduce(m.state, ui.Copied{})
		token := m.state.CopyToken
		return m, tea.Tick(m.deps.CopyAck, func(time.Time) tea.Msg { return copyExpiredMsg{token: token} })

	case key.Matches(msg, keys.Download):
		if !m.state.Loaded() {
			return m, nil
		}
		path, err := ui.SaveFeed(m.deps.Saver, m.state.URL, m.state.RawFeed)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = "saved to " + path
		return m, nil

	case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown || msg.Type == tea.KeyUp || msg.Type == tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// generate runs the fetcher outside of the update loop
func (m Model) generate(seq int, url string) tea.Cmd {
	fetcher, ctx := m.deps.Fetcher, m.ctx
	return func() tea.Msg {
		raw, err := fetcher.Generate(ctx, url)
		return generatedMsg{seq: seq, raw: raw, err: err}
	}
}

func (m *Model) refreshContent() {
	if !m.state.Loaded() {
		m.viewport.SetContent("")
		return
	}
	if m.state.View == ui.ViewPretty {
		m.viewport.SetContent(renderEntries(m.state.Outcome, m.viewport.Width))
	} else {
		m.viewport.SetContent(m.state.RawFeed)
	}
	m.viewport.GotoTop()
}

// renderEntries formats parsed entries as a plain text list
func renderEntries(outcome feed.Outcome, width int) string {
	descStyle := lipgloss.NewStyle()
	if width > 4 {
		descStyle = descStyle.Width(width - 2)
	}

	var sb strings.Builder
	if outcome.Channel.Title != "" {
		sb.WriteString(titleStyle.Render(outcome.Channel.Title) + "\n\n")
	}
	for i, e := range outcome.Entries {
		sb.WriteString(entryStyle.Render(fmt.Sprintf("%d. %s", i+1, e.Title)) + "\n")
		sb.WriteString(dimStyle.Render(e.Link) + "\n")
		if e.PubDate != "" {
			sb.WriteString(dimStyle.Render(e.PubDate) + "\n")
		}
		sb.WriteString(descStyle.Render(feed.PlainText(e.Description)) + "\n\n")
	}
	return sb.String()
}

// View renders the screen
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("feedgen") + " " + dimStyle.Render("RSS feed for any website") + "\n\n")
	sb.WriteString(m.input.View() + "\n")

	switch {
	case m.state.Phase == ui.PhaseLoading:
		sb.WriteString(m.spinner.View() + " generating feed for " + m.state.URL + "\n")
	case m.state.ErrorMessage != "":
		sb.WriteString(errorStyle.Render(m.state.ErrorMessage) + "\n")
	case m.state.Copied:
		sb.WriteString(okStyle.Render("copied to clipboard") + "\n")
	case m.status != "":
		sb.WriteString(dimStyle.Render(m.status) + "\n")
	default:
		sb.WriteString("\n")
	}

	if m.state.Loaded() {
		sb.WriteString(m.tabs() + "\n")
		sb.WriteString(m.viewport.View() + "\n")
	}

	sb.WriteString(dimStyle.Render(m.help()))
	return sb.String()
}

func (m Model) tabs() string {
	pretty, raw := inactiveTab, activeTab
	if m.state.View == ui.ViewPretty {
		pretty, raw = activeTab, inactiveTab
	}
	prettyLabel := "Pretty"
	if !m.state.PrettyAllowed() {
		prettyLabel = "Pretty (n/a)"
	}
	return fmt.Sprintf("%s  %s  %s", pretty.Render(prettyLabel), raw.Render("Raw XML"),
		dimStyle.Render(m.state.Outcome.Kind.String()))
}

func (m Model) help() string {
	bindings := []key.Binding{keys.Submit, keys.Toggle, keys.Copy, keys.Download, keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
