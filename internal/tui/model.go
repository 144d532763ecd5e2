package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfchat/internal/domain"
	"pdfchat/internal/exam"
	"pdfchat/internal/service"
)

// phase tracks what the next line of input means.
type phase int

const (
	phaseSelectDir phase = iota
	phaseBusy
	phaseReady
	phaseExam
)

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

type (
	progressMsg   string
	progressEOF   struct{}
	ingestDoneMsg struct {
		summary service.IngestSummary
		err     error
	}
	answerMsg struct {
		answer  domain.Answer
		elapsed time.Duration
		err     error
	}
	examGenDoneMsg struct {
		count   int
		elapsed time.Duration
		err     error
	}
)

// Model is the Bubble Tea model for the chat application.
type Model struct {
	app *service.App

	input      textinput.Model
	viewport   viewport.Model
	spin       spinner.Model
	transcript []string
	status     string
	phase      phase
	progressCh chan string
	ready      bool

	// pendingCmds carries commands queued before the program loop has
	// started, e.g. ingestion kicked off from New.
	pendingCmds []tea.Cmd
}

// New creates the TUI model. When dir is non-empty, ingestion of that
// directory starts immediately instead of prompting for one.
func New(app *service.App, dir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter a directory containing PDF files"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := Model{
		app:      app,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
		phase:    phaseSelectDir,
		status:   "Select a directory to begin.",
	}
	if dir != "" {
		m = m.beginIngest(dir)
	}
	return m
}

// Init starts the cursor blink and, when already busy, the spinner.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.phase == phaseBusy {
		cmds = append(cmds, m.spin.Tick)
		cmds = append(cmds, m.pendingCmds...)
	}
	return tea.Batch(cmds...)
}

// Update handles key and window events and drives the chat flow.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + ih + 1 // title, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-2)
		m.viewport.Height = vh
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.phase == phaseBusy {
			return m, nil
		}
		if msg.String() == "enter" {
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			return m.handleLine(line)
		}

	case spinner.TickMsg:
		if m.phase == phaseBusy {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case progressMsg:
		m.appendLine(string(msg))
		return m, listenProgress(m.progressCh)

	case progressEOF:
		return m, nil

	case ingestDoneMsg:
		return m.handleIngestDone(msg)

	case answerMsg:
		return m.handleAnswer(msg)

	case examGenDoneMsg:
		return m.handleExamGenerated(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript, the input line and the status bar.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := titleStyle.Render("PDF Chat")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := m.status
	if m.phase == phaseBusy {
		status = m.spin.View() + " " + m.status
	}
	return title + "\n" + chat + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) handleLine(line string) (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseSelectDir:
		if line == "" {
			return m, nil
		}
		m = m.beginIngest(line)
		return m, tea.Batch(append([]tea.Cmd{m.spin.Tick}, m.pendingCmds...)...)

	case phaseReady:
		if line == "" {
			return m, nil
		}
		m.appendLine("")
		m.appendLine(promptStyle.Render("Question: " + line))
		if service.IsExamTrigger(line) {
			m.appendLine("Starting exam simulation...")
			m.phase = phaseBusy
			m.status = "Generating exam questions..."
			m.input.Blur()
			ch := make(chan string)
			m.progressCh = ch
			return m, tea.Batch(m.spin.Tick, listenProgress(ch), startExamCmd(m.app, ch))
		}
		m.phase = phaseBusy
		m.status = "Thinking..."
		m.input.Blur()
		return m, tea.Batch(m.spin.Tick, askCmd(m.app, line))

	case phaseExam:
		return m.handleExamInput(line)
	}
	return m, nil
}

// beginIngest flips the model into the busy phase and queues the
// ingestion commands for the next Update or Init.
func (m Model) beginIngest(dir string) Model {
	m.phase = phaseBusy
	m.status = "Loading documents..."
	m.input.Blur()
	ch := make(chan string)
	m.progressCh = ch
	m.pendingCmds = []tea.Cmd{listenProgress(ch), ingestCmd(m.app, dir, ch)}
	return m
}

func (m Model) handleIngestDone(msg ingestDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.appendLine(errorStyle.Render(fmt.Sprintf("An error occurred: %v", msg.err)))
		if m.app.Ready() {
			// The previous corpus is still installed and usable.
			m.phase = phaseReady
			m.status = "Ready. Ask a question."
		} else {
			m.phase = phaseSelectDir
			m.status = "Select a directory to begin."
			m.input.Placeholder = "Enter a directory containing PDF files"
		}
		m.input.Focus()
		return m, nil
	}
	if msg.summary.Overview != "" {
		m.appendLine("Overview: " + msg.summary.Overview)
	}
	m.appendLine(fmt.Sprintf("System ready for questions! %d PDF documents loaded.", msg.summary.DocumentCount))
	m.phase = phaseReady
	m.status = fmt.Sprintf("Ready. %d chunks indexed.", msg.summary.ChunkCount)
	m.input.Placeholder = "Enter your question here"
	m.input.Focus()
	return m, nil
}

func (m Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.appendLine(errorStyle.Render(fmt.Sprintf("An error occurred: %v", msg.err)))
	} else {
		m.appendLine("Answer: " + msg.answer.Text)
		m.appendLine("Sources: " + strings.Join(msg.answer.Sources, ", "))
		m.appendLine(fmt.Sprintf("Processing time: %.2f seconds", msg.elapsed.Seconds()))
	}
	m.phase = phaseReady
	m.status = "Ready. Ask a question."
	m.input.Focus()
	return m, nil
}

func (m Model) handleExamGenerated(msg examGenDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.appendLine(errorStyle.Render(fmt.Sprintf("An error occurred: %v", msg.err)))
		m.phase = phaseReady
		m.status = "Ready. Ask a question."
		m.input.Focus()
		return m, nil
	}
	if msg.count == 0 {
		// Nothing was generated; the session completed immediately.
		m.showExamResult()
		m.phase = phaseReady
		m.status = "Ready. Ask a question."
		m.input.Focus()
		return m, nil
	}
	m.appendLine(fmt.Sprintf("Processing time: %.2f seconds", msg.elapsed.Seconds()))
	m.phase = phaseExam
	m.status = "Exam in progress."
	m.input.Placeholder = "Enter your answer here"
	m.input.Focus()
	m.showCurrentQuestion()
	return m, nil
}

func (m *Model) handleExamInput(line string) (tea.Model, tea.Cmd) {
	step := m.app.SubmitAnswer(line)
	switch step.Outcome {
	case exam.OutcomeInvalid:
		m.appendLine("Please enter 'a', 'b', 'c', 'd', 'next', or 'exit'.")
		return *m, nil
	case exam.OutcomeCorrect:
		m.appendLine(fmt.Sprintf("Correct! The answer is: %s", step.Correct))
	case exam.OutcomeWrong:
		correct := step.Correct
		if correct == "" {
			correct = "unknown"
		}
		m.appendLine(fmt.Sprintf("Wrong. The correct answer was: %s", correct))
	case exam.OutcomeExited:
		m.appendLine("Ending exam simulation early.")
	}
	if step.Finished {
		m.showExamResult()
		m.phase = phaseReady
		m.status = "Ready. Ask a question."
		m.input.Placeholder = "Enter your question here"
		return *m, nil
	}
	m.showCurrentQuestion()
	return *m, nil
}

func (m *Model) showCurrentQuestion() {
	text, number, total := m.app.CurrentQuestion()
	m.appendLine("")
	m.appendLine(fmt.Sprintf("Question %d of %d:", number, total))
	for _, line := range strings.Split(text, "\n") {
		m.appendLine(line)
	}
	m.appendLine("")
	m.appendLine("Enter your answer (a, b, c, d), 'next' for the next question, or 'exit' to end the simulation:")
}

func (m *Model) showExamResult() {
	res := m.app.FinishExam()
	m.appendLine("")
	m.appendLine("Exam simulation completed!")
	if len(res.Wrong) > 0 {
		m.appendLine("")
		m.appendLine("Wrong answers:")
		for _, w := range res.Wrong {
			m.appendLine("")
			m.appendLine(fmt.Sprintf("Question %d:", w.Index+1))
			for _, line := range strings.Split(exam.DisplayText(w.Question.Text), "\n") {
				m.appendLine(line)
			}
			m.appendLine("Your answer: " + w.Given)
			correct := w.Correct
			if correct == "" {
				correct = "unknown"
			}
			m.appendLine("Correct answer: " + correct)
		}
	}
	m.appendLine("")
	m.appendLine(fmt.Sprintf("You answered %d out of %d questions.", res.Total, res.Total))
	m.appendLine(fmt.Sprintf("Correct answers: %d", res.Correct))
	m.appendLine(fmt.Sprintf("Wrong answers: %d", len(res.Wrong)))
	if res.Total > 0 {
		m.appendLine("")
		m.appendLine(fmt.Sprintf("Your vote: %d/30", res.Score))
		verdict := "FAILED"
		if res.Passed {
			verdict = "PASSED"
		}
		m.appendLine("Exam result: " + verdict)
	}
}

func (m *Model) appendLine(s string) {
	m.transcript = append(m.transcript, s)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

func ingestCmd(app *service.App, dir string, ch chan string) tea.Cmd {
	return func() tea.Msg {
		summary, err := app.Ingest(context.Background(), dir, func(s string) { ch <- s })
		close(ch)
		return ingestDoneMsg{summary: summary, err: err}
	}
}

func askCmd(app *service.App, query string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		answer, err := app.Ask(context.Background(), query)
		return answerMsg{answer: answer, elapsed: time.Since(start), err: err}
	}
}

func startExamCmd(app *service.App, ch chan string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		count, err := app.StartExam(context.Background(), func(s string) { ch <- s })
		close(ch)
		return examGenDoneMsg{count: count, elapsed: time.Since(start), err: err}
	}
}

func listenProgress(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return progressEOF{}
		}
		return progressMsg(s)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
