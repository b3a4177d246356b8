package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/domain"
)

// QAPort is the TUI-facing subset of the QA service.
type QAPort interface {
	Ask(ctx context.Context, question, model string, grounded bool) (domain.Answer, error)
}

// answerMsg delivers a finished pipeline run back to the update loop.
type answerMsg struct {
	answer   domain.Answer
	grounded bool
}

// errMsg delivers a pipeline failure back to the update loop.
type errMsg struct{ err error }

// Model is the Bubble Tea model for the interactive shell.
type Model struct {
	service  QAPort
	docs     []domain.Document
	models   []string
	modelIdx int
	grounded bool

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	busy     bool
	ready    bool
	status   string
}

// New creates the shell over the resolved document listing and the fixed
// model selection. models must be non-empty.
func New(service QAPort, docs []domain.Document, models []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return Model{
		service:  service,
		docs:     docs,
		models:   models,
		input:    ti,
		viewport: vp,
		spin:     sp,
		status:   "Ready. Ctrl+G toggles document grounding, Ctrl+P/Ctrl+N change model.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 3 // title + intro + document list
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, vh-ah)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case answerMsg:
		m.busy = false
		m.viewport.SetContent(renderAnswer(msg.answer, msg.grounded))
		m.viewport.GotoTop()
		m.status = fmt.Sprintf("Answered with %s.", m.currentModel())
		return m, nil

	case errMsg:
		m.busy = false
		m.status = "Error: " + msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = fmt.Sprintf("Asking %s...", m.currentModel())
			return m, tea.Batch(m.spin.Tick, m.ask(q))
		case "ctrl+g":
			m.grounded = !m.grounded
			if m.grounded {
				m.status = "Grounding on: your documents will be used as context."
			} else {
				m.status = "Grounding off: the model answers on its own."
			}
			return m, nil
		case "ctrl+n":
			m.modelIdx = (m.modelIdx + 1) % len(m.models)
			m.status = "Model: " + m.currentModel()
			return m, nil
		case "ctrl+p":
			m.modelIdx = (m.modelIdx - 1 + len(m.models)) % len(m.models)
			m.status = "Model: " + m.currentModel()
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the shell layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := titleStyle.Render("Asking Questions to Your Own Documents")
	intro := mutedStyle.Render("Ask questions and decide whether your documents provide the context or the model answers on its own.")
	docs := mutedStyle.Render("Documents: " + renderDocList(m.docs))
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := m.renderStatus()
	return title + "\n" + intro + "\n" + docs + "\n" + answer + "\n" + input + "\n" + status
}

// ask runs the pipeline off the update loop and reports back as a message.
// The flag and model are captured at submit time so toggling mid-flight
// cannot change an in-progress request.
func (m Model) ask(question string) tea.Cmd {
	service := m.service
	model := m.currentModel()
	grounded := m.grounded
	return func() tea.Msg {
		answer, err := service.Ask(context.Background(), question, model, grounded)
		if err != nil {
			return errMsg{err}
		}
		return answerMsg{answer: answer, grounded: grounded}
	}
}

func (m Model) currentModel() string { return m.models[m.modelIdx] }

func (m Model) renderStatus() string {
	mode := "model only"
	if m.grounded {
		mode = "grounded"
	}
	line := fmt.Sprintf("[%s | %s] %s", m.currentModel(), mode, m.status)
	if m.busy {
		line = m.spin.View() + " " + line
	}
	return statusStyle.Render(line)
}

// renderAnswer formats the answer body plus the optional source line. For a
// grounded question that found no relevant document, a notice replaces the
// link.
func renderAnswer(a domain.Answer, grounded bool) string {
	body := a.Text
	if a.Source != nil {
		link := fmt.Sprintf("Link to %s (%s) that may be useful", a.Source.RelativePath, a.Source.URL)
		return body + "\n\n" + linkStyle.Render(link)
	}
	if grounded {
		return body + "\n\n" + mutedStyle.Render("No relevant document found; answered without your documents.")
	}
	return body
}

func renderDocList(docs []domain.Document) string {
	if len(docs) == 0 {
		return "(none accessible)"
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return strings.Join(names, ", ")
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	linkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Underline(true)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
