package viz

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidctl/internal/control"
	"github.com/san-kum/pidctl/internal/sim"
)

const (
	frameRate       = 60
	historyCapacity = 300
	sparkWidth      = 30
)

type TickMsg time.Time

// Live steps a PID loop against a plant once per frame and renders the
// response. Each frame advances enough controller timesteps to keep the
// simulation close to wall-clock time.
type Live struct {
	name      string
	loop      *control.Loop
	simulator *sim.Simulator

	state        sim.State
	initialState sim.State
	u            sim.Control
	t, dt        float64
	stepsPerTick int

	running bool
	status  string

	measured  []float64
	setpoints []float64
	outputs   []float64

	paramKeys []string
	selected  int
}

func NewLive(name string, loop *control.Loop, plant sim.Plant, integ sim.Integrator, x0 sim.State) Live {
	cfg, _ := loop.PID.Config()

	keys := make([]string, 0)
	for k := range loop.Params() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := Live{
		name:         name,
		loop:         loop,
		simulator:    sim.New(plant, integ, loop),
		state:        x0.Clone(),
		initialState: x0.Clone(),
		u:            make(sim.Control, plant.ControlDim()),
		dt:           cfg.Timestep,
		running:      true,
		measured:     make([]float64, 0, historyCapacity),
		setpoints:    make([]float64, 0, historyCapacity),
		outputs:      make([]float64, 0, historyCapacity),
		paramKeys:    keys,
	}
	m.updateRate()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Live) Init() tea.Cmd {
	return tick()
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.loop.Reset(); err != nil {
				m.status = err.Error()
			} else {
				m.status = "controller reset"
			}
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "up", "k":
			m.adjust(1)
		case "down", "j":
			m.adjust(-1)
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Live) updateRate() {
	cfg, ok := m.loop.PID.Config()
	if !ok {
		return
	}
	m.dt = cfg.Timestep
	m.stepsPerTick = int(math.Round(1.0 / frameRate / m.dt))
	if m.stepsPerTick < 1 {
		m.stepsPerTick = 1
	}
}

// adjust moves the selected parameter by 10% of its magnitude, at least 0.1.
// Rejected values leave the controller unchanged.
func (m *Live) adjust(dir float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.loop.Params()[key]
	delta := math.Max(math.Abs(val)*0.1, 0.1)

	next := val + dir*delta
	if err := m.loop.SetParam(key, next); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s = %.3f", key, next)
	m.updateRate()
}

// advance runs one frame worth of controller timesteps. Histories record
// each state with the output computed for it.
func (m *Live) advance() {
	cfg := sim.Config{
		Dt:            m.dt,
		Duration:      float64(m.stepsPerTick) * m.dt,
		Start:         m.t,
		ValidateState: true,
	}
	x, err := m.simulator.RunWithCallback(context.Background(), m.state, cfg, func(x sim.State, u sim.Control, t float64) bool {
		m.u = u
		m.measured = appendCapped(m.measured, x[m.loop.Index])
		m.setpoints = appendCapped(m.setpoints, m.loop.Setpoint())
		if len(u) > 0 {
			m.outputs = appendCapped(m.outputs, u[0])
		}
		m.t = t + m.dt
		return true
	})
	if err != nil {
		m.running = false
		m.status = "state diverged, press r and retune"
		return
	}
	m.state = x
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// Time returns the simulated time.
func (m Live) Time() float64 { return m.t }

func (m Live) Running() bool { return m.running }

func (m Live) View() string {
	var graph string
	if len(m.measured) > 1 {
		graph = asciigraph.PlotMany([][]float64{m.setpoints, m.measured},
			asciigraph.Height(14),
			asciigraph.Width(60),
			asciigraph.Caption("measured vs setpoint"),
			asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
		)
	} else {
		graph = Subtle.Render("waiting for samples")
	}

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.name)) + "\n")
	if m.running {
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	cfg, _ := m.loop.PID.Config()
	measured := 0.0
	if m.loop.Index < len(m.state) {
		measured = m.state[m.loop.Index]
	}
	output := 0.0
	if len(m.u) > 0 {
		output = m.u[0]
	}

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.t))
	row("Setpoint", fmt.Sprintf("%.3f", m.loop.Setpoint()))
	row("Measured", fmt.Sprintf("%.3f", measured))
	row("Output", fmt.Sprintf("%.3f", output))
	row("Next", fmt.Sprintf("%.3f", m.loop.Peek(m.state)))
	row("Integrator", fmt.Sprintf("%.3f", m.loop.PID.Integrator()))
	s.WriteString("\n" + Sparkline(m.outputs, cfg.MinOut, cfg.MaxOut, sparkWidth) + "\n")

	s.WriteString("\nPARAMETERS\n")
	params := m.loop.Params()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-9s %.3f", k, params[k])
		if i == m.selected {
			s.WriteString(activeParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}

	if m.status != "" {
		s.WriteString("\n" + StatusError.Render(m.status) + "\n")
	}
	s.WriteString("\n" + Separator(30) + "\n")
	s.WriteString(KeyHint.Render("tab:select ↑↓:tune r:reset\nspace:pause q:quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, graphPanel.Render(graph), statsPanel.Render(s.String()))
}
