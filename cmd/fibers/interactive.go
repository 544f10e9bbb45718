package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fiberruntime "github.com/wippyai/fiber-runtime"
	"github.com/wippyai/fiber-runtime/fiber"
	"github.com/wippyai/fiber-runtime/sched"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// fiberStat is the property object installed on each spawned fiber; the
// entry updates it between yields and the view reads it back through
// fiber.Properties.
type fiberStat struct {
	steps       int
	target      int
	interrupted bool
}

type tracked struct {
	handle *fiber.Fiber
	id     fiber.ID
}

type modelState int

const (
	stateList modelState = iota
	stateSpawn
)

type interactiveModel struct {
	cfg      config
	sched    *sched.Scheduler
	provider fiberruntime.StackProvider
	fibers   []tracked
	input    textinput.Model
	err      error
	selected int
	joined   int
	state    modelState
}

func newInteractiveModel(cfg config) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(cfg.Yields)
	ti.Prompt = "yields: "
	ti.Width = 10

	return &interactiveModel{
		cfg:      cfg,
		sched:    sched.New(),
		provider: cfg.newProvider(),
		input:    ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	for i := 0; i < m.cfg.Fibers; i++ {
		m.spawn(m.cfg.Yields)
	}
	return nil
}

func (m *interactiveModel) spawn(yields int) {
	st := &fiberStat{target: yields}
	f, err := fiber.NewWithOptions(m.sched, fiber.Options{
		Stack:      m.provider,
		Properties: st,
	}, func(ctx *fiber.Context, args ...any) {
		p := ctx.Properties().(*fiberStat)
		for j := 0; j <= p.target; j++ {
			p.steps++
			if j < p.target {
				if err := ctx.Yield(); err != nil {
					p.interrupted = true
					return
				}
			}
		}
	})
	if err != nil {
		m.err = err
		return
	}
	m.fibers = append(m.fibers, tracked{handle: f, id: f.ID()})
}

// drain interrupts and joins every remaining handle so quitting never
// abandons a joinable fiber.
func (m *interactiveModel) drain() {
	for _, t := range m.fibers {
		if t.handle.Alive() {
			t.handle.Interrupt()
		}
	}
	m.sched.Run()
	for _, t := range m.fibers {
		t.handle.Join()
	}
	m.fibers = nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateSpawn {
		switch keyMsg.String() {
		case "ctrl+c":
			m.drain()
			return m, tea.Quit
		case "enter":
			yields := m.cfg.Yields
			if v := strings.TrimSpace(m.input.Value()); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					m.err = fmt.Errorf("invalid yield count %q", v)
					m.state = stateList
					return m, nil
				}
				yields = n
			}
			m.spawn(yields)
			m.state = stateList
			return m, nil
		case "esc":
			m.state = stateList
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "ctrl+c", "q":
		m.drain()
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.fibers)-1 {
			m.selected++
		}

	case "n":
		m.input.SetValue("")
		m.input.Focus()
		m.state = stateSpawn

	case "s":
		m.sched.Step()

	case "r":
		m.sched.Run()

	case "i":
		if m.selected < len(m.fibers) {
			t := m.fibers[m.selected]
			if t.handle.Alive() {
				t.handle.Interrupt()
			}
		}

	case "x":
		if m.selected < len(m.fibers) {
			t := m.fibers[m.selected]
			if !t.handle.Alive() {
				t.handle.Join()
				m.fibers = append(m.fibers[:m.selected], m.fibers[m.selected+1:]...)
				m.joined++
				if m.selected >= len(m.fibers) && m.selected > 0 {
					m.selected--
				}
			}
		}
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Fiber Scheduler"))
	st := m.sched.Stats()
	b.WriteString(fmt.Sprintf("  ready %d · live %d · dispatches %d · joined %d\n\n",
		st.Ready, st.Live, st.Dispatches, m.joined))

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if len(m.fibers) == 0 {
		b.WriteString(helpStyle.Render("no fibers · press n to spawn one"))
		b.WriteString("\n")
	}

	for i, t := range m.fibers {
		line := m.formatFiber(t)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.state == stateSpawn {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter spawn · esc cancel"))
	} else {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select · s step · r run · i interrupt · x join · n new · q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatFiber(t tracked) string {
	p := fiber.Properties[*fiberStat](t.handle)

	state := "ready"
	switch {
	case p.interrupted:
		state = "interrupted"
	case !t.handle.Alive():
		state = "done"
	}

	progress := fmt.Sprintf("%d/%d", p.steps, p.target+1)
	line := fmt.Sprintf("%s  %s  %s",
		idStyle.Render(t.id.String()),
		stateStyle.Render(progress),
		state)
	if state == "done" {
		return doneStyle.Render(line)
	}
	return line
}

func runInteractive(cfg config) error {
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
