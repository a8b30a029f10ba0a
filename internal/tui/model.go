package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"minirag/internal/session"
)

type focus int

const (
	focusIngest focus = iota
	focusQuery
)

// ingestDoneMsg and queryDoneMsg carry settled calls back onto the event loop.
type ingestDoneMsg struct{ outcome session.IngestOutcome }

type queryDoneMsg struct{ outcome session.QueryOutcome }

// Model is the Bubble Tea model for the TUI application. All controller
// transitions happen inside Update; remote calls run as commands.
type Model struct {
	ctx      context.Context
	ctl      *session.Controller
	ingest   textarea.Model
	query    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	focus    focus
	ready    bool
}

// New creates a new TUI model instance.
func New(ctx context.Context, ctl *session.Controller) Model {
	ta := textarea.New()
	ta.Placeholder = "Paste your text here to ingest into the knowledge base..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(6)
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question..."
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	vp := viewport.New(0, 0)
	return Model{ctx: ctx, ctl: ctl, ingest: ta, query: ti, viewport: vp, spinner: sp}
}

// Init initializes the model (cursor blink).
func (m Model) Init() tea.Cmd { return tea.Batch(textarea.Blink, textinput.Blink) }

// Update handles key, window and call-completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		w := max(20, msg.Width-4)
		m.ingest.SetWidth(w)
		m.query.Width = w - 2
		_, fh := answerBoxStyle.GetFrameSize()
		// header, two sections with labels/buttons/status, error and help lines
		reserved := 4 + m.ingest.Height() + 2 + 3 + 3 + 3 + 2 + fh
		m.viewport.Width = w
		m.viewport.Height = max(3, msg.Height-reserved)
		m.viewport.SetContent(renderAnswer(m.ctl.View().Answer))
		return m, nil

	case ingestDoneMsg:
		m.ctl.FinishIngest(msg.outcome)
		return m, nil

	case queryDoneMsg:
		if m.ctl.FinishQuery(msg.outcome) {
			m.viewport.SetContent(renderAnswer(m.ctl.View().Answer))
			m.viewport.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab", "shift+tab":
			return m.toggleFocus(), nil
		case "ctrl+s":
			return m.submitIngest()
		case "ctrl+r":
			m.ctl.Reset()
			m.ingest.Reset()
			m.query.Reset()
			m.viewport.SetContent(renderAnswer(nil))
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			if m.focus == focusQuery {
				return m.submitQuery()
			}
		}
	}

	var cmd tea.Cmd
	if m.focus == focusIngest {
		m.ingest, cmd = m.ingest.Update(msg)
		m.ctl.SetInputText(m.ingest.Value())
	} else {
		m.query, cmd = m.query.Update(msg)
		m.ctl.SetQueryText(m.query.Value())
	}
	return m, cmd
}

func (m Model) busy() bool {
	st := m.ctl.State()
	return st.IngestInFlight || st.QueryInFlight
}

func (m Model) toggleFocus() Model {
	if m.focus == focusIngest {
		m.focus = focusQuery
		m.ingest.Blur()
		m.query.Focus()
	} else {
		m.focus = focusIngest
		m.query.Blur()
		m.ingest.Focus()
	}
	return m
}

func (m Model) submitIngest() (tea.Model, tea.Cmd) {
	wasBusy := m.busy()
	m.ctl.SetInputText(m.ingest.Value())
	a, err := m.ctl.StartIngest()
	if err != nil {
		// validation failures are already in state; a second submit while
		// in flight is ignored
		return m, nil
	}
	run := func() tea.Msg { return ingestDoneMsg{outcome: a.Run(m.ctx)} }
	if wasBusy {
		return m, run
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

func (m Model) submitQuery() (tea.Model, tea.Cmd) {
	wasBusy := m.busy()
	m.ctl.SetQueryText(m.query.Value())
	a, err := m.ctl.StartQuery()
	if err != nil {
		return m, nil
	}
	m.viewport.SetContent(renderAnswer(nil))
	run := func() tea.Msg { return queryDoneMsg{outcome: a.Run(m.ctx)} }
	if wasBusy {
		return m, run
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

// View renders the TUI layout from the controller's view.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	v := m.ctl.View()

	header := titleStyle.Render("Mini-RAG System") + "\n" +
		subtleStyle.Render("Retrieval-Augmented Generation with Citations")

	ingest := sectionStyle.Render("1. Ingest Text") + "\n" +
		m.ingest.View() + "\n" +
		m.button(v.IngestLabel, v.IngestBusy, "ctrl+s")
	if v.Status != "" {
		ingest += "\n" + successStyle.Render(v.Status)
	}

	query := sectionStyle.Render("2. Query") + "\n" +
		queryBoxStyle.Render(m.query.View()) + "\n" +
		m.button(v.QueryLabel, v.QueryBusy, "enter")

	parts := []string{header, ingest, query}
	if v.Error != "" {
		parts = append(parts, errorStyle.Render(v.Error))
	}
	if v.Answer != nil {
		parts = append(parts, answerBoxStyle.Render(m.viewport.View()))
	}
	parts = append(parts, subtleStyle.Render("tab switch field • ctrl+s ingest • enter search • pgup/pgdown scroll • ctrl+r reset • ctrl+c quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) button(label string, busy bool, key string) string {
	if busy {
		return m.spinner.View() + " " + busyStyle.Render(label)
	}
	return buttonStyle.Render(label) + " " + subtleStyle.Render(key)
}
