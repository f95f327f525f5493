package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/quickjs-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// historyLimit bounds how many evaluated entries the view keeps.
const historyLimit = 100

type replModel struct {
	err     error
	rt      *runtime.Runtime
	opts    []runtime.Option
	input   textinput.Model
	history []historyEntry
	seq     int
}

type historyEntry struct {
	input  string
	output string
	failed bool
}

func newReplModel(opts []runtime.Option) *replModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("js> ")
	ti.Placeholder = "1 + 1"
	ti.Width = 72
	ti.Focus()
	return &replModel{opts: opts, input: ti}
}

type readyMsg struct {
	err error
	rt  *runtime.Runtime
}

type evalMsg struct {
	input  string
	output string
	failed bool
}

func (m *replModel) Init() tea.Cmd {
	return m.start
}

func (m *replModel) start() tea.Msg {
	rt, err := runtime.New(context.Background(), m.opts...)
	if err != nil {
		return readyMsg{err: err}
	}
	return readyMsg{rt: rt}
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			if m.rt != nil {
				m.rt.Close()
			}
			return m, tea.Quit

		case "enter":
			code := strings.TrimSpace(m.input.Value())
			if code == "" || m.rt == nil {
				return m, nil
			}
			m.input.Reset()
			m.seq++
			return m, m.eval(code)
		}

	case readyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt

	case evalMsg:
		m.history = append(m.history, historyEntry{
			input:  msg.input,
			output: msg.output,
			failed: msg.failed,
		})
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *replModel) eval(code string) tea.Cmd {
	rt, seq := m.rt, m.seq
	return func() tea.Msg {
		out, err := rt.Eval(context.Background(), replPath(seq), code)
		if err != nil {
			return evalMsg{input: code, output: err.Error(), failed: true}
		}
		return evalMsg{input: code, output: out}
	}
}

func replPath(seq int) string {
	return "<repl:" + strconv.Itoa(seq) + ">"
}

func (m *replModel) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n\n" +
			helpStyle.Render("ctrl+c quit")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("QuickJS"))
	b.WriteString(" interactive\n\n")

	if m.rt == nil {
		b.WriteString("Starting engine...\n")
		return b.String()
	}

	for _, h := range m.history {
		b.WriteString(promptStyle.Render("js> "))
		b.WriteString(h.input)
		b.WriteString("\n")
		if h.failed {
			b.WriteString(errorStyle.Render(h.output))
		} else {
			b.WriteString(resultStyle.Render(h.output))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter evaluate • ctrl+c quit"))
	return b.String()
}

func runInteractive(opts []runtime.Option) error {
	p := tea.NewProgram(newReplModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
