// Package viz renders live terminal views of running simulations.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/blocksim/internal/models"
	"github.com/san-kum/blocksim/internal/sim"
)

const (
	graphWidth  = 70
	graphHeight = 14
	traceWindow = 400
)

type TickMsg time.Time

// Builder constructs a fresh demo and simulator pair. The live view calls
// it at startup and again on reset, since a simulator cannot be rewound.
type Builder func() (*models.Demo, *sim.Simulator, error)

// Model drives a simulation in real time and plots its trace.
type Model struct {
	build     Builder
	demo      *models.Demo
	simulator *sim.Simulator
	rate      float64
	speed     float64
	running   bool
	events    int
	err       error
}

// NewModel builds the initial simulation. rate is the redraw frequency in
// frames per second, speed the simulated seconds per wall second.
func NewModel(build Builder, rate, speed float64) (Model, error) {
	demo, simulator, err := build()
	if err != nil {
		return Model{}, err
	}
	return Model{
		build:     build,
		demo:      demo,
		simulator: simulator,
		rate:      rate,
		speed:     speed,
		running:   true,
	}, nil
}

func (m Model) tick() tea.Cmd {
	d := time.Duration(float64(time.Second) / m.rate)
	return tea.Tick(d, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input and advances the simulation on each tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "up", "k":
			m.speed *= 1.25
		case "down", "j":
			m.speed *= 0.8
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances simulated time by one frame's worth of wall time.
func (m *Model) step() {
	target := m.simulator.Time() + m.speed/m.rate
	if err := m.simulator.RunUntil(target); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.events = countEvents(m.simulator.Result())
}

func (m *Model) reset() {
	demo, simulator, err := m.build()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.demo = demo
	m.simulator = simulator
	m.events = 0
	m.err = nil
	m.running = true
}

func countEvents(r *sim.Result) int {
	n := 0
	for i := 0; i < r.Len(); i++ {
		for _, hit := range r.EventRow(i) {
			if hit {
				n++
			}
		}
	}
	return n
}

// View renders the trace graph and run statistics.
func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.demo.Name)) + "\n")

	trace := m.demo.Trace(m.simulator.Result())
	if len(trace) > traceWindow {
		trace = trace[len(trace)-traceWindow:]
	}
	if len(trace) > 1 {
		chart := asciigraph.Plot(trace,
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption(m.demo.Label))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	if m.err != nil {
		status = "FAILED"
	}
	s.WriteString(labelStyle.Render("Status") + valueStyle.Render(status) + "\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3fs", m.simulator.Time())) + "\n")
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%.2fx", m.speed)) + "\n")
	s.WriteString(labelStyle.Render("Samples") + valueStyle.Render(fmt.Sprintf("%d", m.simulator.Result().Len())) + "\n")
	s.WriteString(labelStyle.Render("Events") + eventStyle.Render(fmt.Sprintf("%d", m.events)) + "\n")
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Reset ↑↓:Speed Q:Quit"))
	return s.String()
}
