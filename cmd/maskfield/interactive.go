package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/mask-runtime/engine"
	"github.com/wippyai/mask-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateLoading modelState = iota
	stateEditing
)

type interactiveModel struct {
	err        error
	rt         *runtime.Runtime
	handle     *runtime.Handle
	field      *hostField
	logger     *zap.Logger
	input      textinput.Model
	engineFile string
	maskSpec   string
	formatted  string
	unmasked   string
	state      modelState
}

type loadedMsg struct {
	err    error
	rt     *runtime.Runtime
	handle *runtime.Handle
}

type appliedMsg struct {
	err       error
	formatted string
	unmasked  string
}

func newInteractiveModel(engineFile, maskSpec string, logger *zap.Logger) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "type raw value"
	ti.Focus()

	return &interactiveModel{
		engineFile: engineFile,
		maskSpec:   maskSpec,
		field:      &hostField{},
		logger:     logger,
		input:      ti,
		state:      stateLoading,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.loadEngine, textinput.Blink)
}

func (m *interactiveModel) loadEngine() tea.Msg {
	ctx := context.Background()

	rt, err := runtime.New(runtime.Config{
		Load:   engine.LoadFile(m.engineFile),
		Logger: m.logger,
	})
	if err != nil {
		return loadedMsg{err: err}
	}

	handle, err := rt.CreateMask(ctx, m.field, m.maskSpec)
	if err != nil {
		rt.Close(ctx)
		return loadedMsg{err: err}
	}

	return loadedMsg{rt: rt, handle: handle}
}

// applyValue pushes the raw input through the mask binding.
func (m *interactiveModel) applyValue(raw string) tea.Cmd {
	handle := m.handle
	return func() tea.Msg {
		ctx := context.Background()
		if err := handle.SetValue(ctx, raw); err != nil {
			return appliedMsg{err: err}
		}
		formatted, err := handle.Value(ctx)
		if err != nil {
			return appliedMsg{err: err}
		}
		unmasked, err := handle.UnmaskedValue(ctx)
		if err != nil {
			return appliedMsg{err: err}
		}
		return appliedMsg{formatted: formatted, unmasked: unmasked}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.rt = msg.rt
		m.handle = msg.handle
		m.state = stateEditing
		return m, nil

	case appliedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.formatted = msg.formatted
		m.unmasked = msg.unmasked
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
	}

	if m.state != stateEditing {
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		return m, tea.Batch(cmd, m.applyValue(m.input.Value()))
	}
	return m, cmd
}

func (m *interactiveModel) View() string {
	s := titleStyle.Render("maskfield") + "\n\n"

	if m.state == stateLoading {
		return s + "Loading engine...\n"
	}

	if p := m.handle.Pattern(); p != "" {
		s += labelStyle.Render("Named pattern: ") + valueStyle.Render(p) + "\n\n"
	} else {
		s += labelStyle.Render("Mask: ") + m.maskSpec + "\n\n"
	}

	s += m.input.View() + "\n\n"
	s += labelStyle.Render("Formatted: ") + valueStyle.Render(m.formatted) + "\n"
	s += labelStyle.Render("Unmasked:  ") + valueStyle.Render(m.unmasked) + "\n"

	if m.err != nil {
		s += "\n" + errorStyle.Render(fmt.Sprintf("error: %v", m.err)) + "\n"
	}

	s += "\n" + helpStyle.Render("esc/ctrl+c: quit")
	return s
}

func runInteractive(engineFile, maskSpec string, logger *zap.Logger) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}

	m := newInteractiveModel(engineFile, maskSpec, logger)
	p := tea.NewProgram(m)

	final, err := p.Run()
	if err != nil {
		return err
	}

	// Dispose the binding and the engine after the TUI exits.
	fm := final.(*interactiveModel)
	if fm.rt != nil {
		ctx := context.Background()
		if fm.handle != nil {
			fm.handle.Destroy(ctx)
		}
		fm.rt.Close(ctx)
	}
	return fm.err
}
