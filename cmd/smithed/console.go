package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/Smithed-MC/UX/pkg/launcher"
)

// maxLines is how many output lines the console keeps on screen.
const maxLines = 12

// eventMsg carries a launcher event into the program.
type eventMsg struct{ event launcher.Event }

// stopRequestedMsg is sent after ctrl+c asked the launcher to stop.
type stopRequestedMsg struct{ err error }

// sessionDoneMsg is sent once the launch task has returned, whether or not
// its game_finished event reached the console.
type sessionDoneMsg struct {
	state launcher.State
	err   error
}

// consoleModel renders one launch: header, progress, recent output and any
// sign-in prompt.
type consoleModel struct {
	bundleID  string
	sessionID string
	stop      func() error

	spinner  spinner.Model
	progress progress.Model
	width    int

	header   string
	label    string
	percent  float64
	lines    []string
	auth     *launcher.AuthPromptData
	state    launcher.State
	errText  string
	stopping bool
	done     bool
}

func newConsoleModel(bundleID, sessionID string, stop func() error) consoleModel {
	return consoleModel{
		bundleID:  bundleID,
		sessionID: sessionID,
		stop:      stop,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		width:     80,
		state:     launcher.StateLaunching,
	}
}

func (m consoleModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// A second press leaves without waiting for the game to go down.
			if m.done || m.stopping {
				return m, tea.Quit
			}
			m.stopping = true
			stop := m.stop
			return m, func() tea.Msg { return stopRequestedMsg{err: stop()} }
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case stopRequestedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		}
		return m, nil

	case eventMsg:
		return m.handleEvent(msg.event)

	case sessionDoneMsg:
		m.state = msg.state
		if msg.err != nil && msg.state == launcher.StateFailed && m.errText == "" {
			m.errText = msg.err.Error()
		}
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m consoleModel) handleEvent(e launcher.Event) (tea.Model, tea.Cmd) {
	if e.SessionID != "" && e.SessionID != m.sessionID {
		return m, nil
	}

	switch d := e.Data.(type) {
	case launcher.TextData:
		switch e.Kind {
		case launcher.EventOutputHeader:
			m.header = d.Text
			m.label = ""
			m.percent = 0
		case launcher.EventLaunchError:
			m.errText = d.Text
		default:
			m.appendLine(d.Text)
		}

	case launcher.ProgressData:
		m.label = d.Label
		if d.Total > 0 {
			m.percent = float64(d.Current) / float64(d.Total)
		}

	case launcher.AuthPromptData:
		m.auth = &d

	case launcher.StateData:
		m.state = d.State
		if d.State == launcher.StateRunning {
			m.auth = nil
		}
		if e.Kind == launcher.EventGameFinished {
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *consoleModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
}

func (m consoleModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Smithed") + " " + dimStyle.Render(m.bundleID) + "\n\n")

	switch {
	case m.done:
		sb.WriteString(m.finishedLine() + "\n")
	case m.stopping:
		sb.WriteString(m.spinner.View() + " Stopping...\n")
	default:
		header := m.header
		if header == "" {
			header = "Preparing"
		}
		sb.WriteString(m.spinner.View() + " " + headerStyle.Render(header) + "\n")
	}

	if m.label != "" && !m.done {
		sb.WriteString(m.progress.ViewAs(m.percent) + " " + dimStyle.Render(m.truncate(m.label, m.width-50)) + "\n")
	}

	if m.auth != nil {
		box := fmt.Sprintf("Sign in at %s\nand enter the code %s", m.auth.URL, codeStyle.Render(m.auth.Code))
		sb.WriteString("\n" + authBoxStyle.Render(box) + "\n")
	}

	if len(m.lines) > 0 {
		sb.WriteString("\n")
		for _, l := range m.lines {
			sb.WriteString(dimStyle.Render(m.truncate(l, m.width-2)) + "\n")
		}
	}

	if m.errText != "" {
		sb.WriteString("\n" + errorStyle.Render(m.errText) + "\n")
	}

	if !m.done {
		sb.WriteString("\n" + dimStyle.Render("ctrl+c to stop") + "\n")
	}

	return sb.String()
}

func (m consoleModel) finishedLine() string {
	switch m.state {
	case launcher.StateCompleted:
		return okStyle.Render("Game exited")
	case launcher.StateStopped:
		return dimStyle.Render("Stopped")
	default:
		return errorStyle.Render("Launch failed")
	}
}

// truncate shortens s to n display cells, accounting for wide runes.
func (m consoleModel) truncate(s string, n int) string {
	if n < 10 {
		n = 10
	}
	return runewidth.Truncate(strings.ReplaceAll(s, "\t", " "), n, "…")
}
