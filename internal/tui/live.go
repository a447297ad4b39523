// Package tui renders a scenario run live in the terminal.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"

	"github.com/san-kum/speedctl/internal/sim"
)

const historyCapacity = 300

// Graphed columns, cycled with tab.
var graphColumns = []string{"x", "y", "z", "vx", "vy", "vz", "yaw", "cmd_vx", "cmd_vy", "cmd_vz", "cmd_yaw_rate"}

type sampleMsg sim.Sample

type doneMsg struct {
	result *sim.Result
	err    error
}

// Model is the bubbletea model of a live run. It pulls samples from the
// runner one at a time, so pausing the view also pauses the flight.
type Model struct {
	title    string
	samples  <-chan sim.Sample
	done     <-chan doneMsg
	cancel   context.CancelFunc
	last     sim.Sample
	seen     bool
	rejected int
	history  map[string][]float64
	column   int
	paused   bool
	waiting  bool
	finished bool
	result   *sim.Result
	err      error
	width    int
}

func newModel(title string, samples <-chan sim.Sample, done <-chan doneMsg, cancel context.CancelFunc) Model {
	return Model{
		waiting: true,
		title:   title,
		samples: samples,
		done:    done,
		cancel:  cancel,
		history: make(map[string][]float64, len(graphColumns)*2),
		width:   80,
	}
}

func (m Model) Init() tea.Cmd { return m.next() }

// pull asks for the next message unless a request is already in flight.
func (m *Model) pull() tea.Cmd {
	if m.waiting || m.finished {
		return nil
	}
	m.waiting = true
	return m.next()
}

// next waits for either the following sample or the end of the run.
func (m Model) next() tea.Cmd {
	samples, done := m.samples, m.done
	return func() tea.Msg {
		select {
		case s, ok := <-samples:
			if ok {
				return sampleMsg(s)
			}
			return <-done
		case d := <-done:
			return d
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ", "p":
			if m.finished {
				return m, nil
			}
			m.paused = !m.paused
			if !m.paused {
				return m, m.pull()
			}
		case "tab", "right", "l":
			m.column = (m.column + 1) % len(graphColumns)
		case "shift+tab", "left", "h":
			m.column = (m.column + len(graphColumns) - 1) % len(graphColumns)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case sampleMsg:
		m.waiting = false
		m.record(sim.Sample(msg))
		if m.paused {
			return m, nil
		}
		return m, m.pull()
	case doneMsg:
		m.waiting = false
		m.finished, m.result, m.err = true, msg.result, msg.err
	}
	return m, nil
}

func (m *Model) record(s sim.Sample) {
	m.last, m.seen = s, true
	if !s.Accepted {
		m.rejected++
	}
	row := s.Row()
	for _, c := range graphColumns {
		m.push(c, row[sim.ColumnIndex(c)])
		if ref := "ref_" + c; sim.ColumnIndex(ref) >= 0 {
			m.push(ref, row[sim.ColumnIndex(ref)])
		}
	}
}

func (m *Model) push(key string, v float64) {
	h := append(m.history[key], v)
	if len(h) > historyCapacity {
		h = h[len(h)-historyCapacity:]
	}
	m.history[key] = h
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render(m.title) + "  " + m.status() + "\n")
	if !m.seen {
		b.WriteString("  " + subStyle.Render("waiting for the first cycle...") + "\n")
		return b.String()
	}
	s := m.last
	b.WriteString("  " + subStyle.Render(fmt.Sprintf("t=%.2fs  mode=%s  rejected=%d", s.T, s.Mode, m.rejected)) + "\n\n")

	stats := lipgloss.JoinVertical(lipgloss.Left,
		row("pos", vec(s.Position.X, s.Position.Y, s.Position.Z), vec(s.Target.Position.X, s.Target.Position.Y, s.Target.Position.Z)),
		row("vel", vec(s.Velocity.X, s.Velocity.Y, s.Velocity.Z), vec(s.Target.Velocity.X, s.Target.Velocity.Y, s.Target.Velocity.Z)),
		row("yaw", fmt.Sprintf("%7.3f", s.Yaw), fmt.Sprintf("%7.3f", s.Target.Yaw)),
		row("cmd", vec(s.Command.Linear.X, s.Command.Linear.Y, s.Command.Linear.Z), fmt.Sprintf("wz %6.3f", s.Command.Angular.Z)),
	)
	b.WriteString(panelStyle.Render(stats) + "\n")
	b.WriteString(m.graph() + "\n")

	if m.finished && m.result != nil && len(m.result.Metrics) > 0 {
		b.WriteString(m.summary() + "\n")
	}
	if m.err != nil {
		b.WriteString("  " + rejectStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("  " + keyHints("space", "pause", "tab", "column", "q", "quit") + "\n")
	return b.String()
}

func (m Model) status() string {
	switch {
	case m.finished && m.err != nil:
		return rejectStyle.Render("FAILED")
	case m.finished:
		return runStyle.Render("DONE")
	case m.paused:
		return pauseStyle.Render("PAUSED")
	default:
		return runStyle.Render("RUNNING")
	}
}

func (m Model) graph() string {
	col := graphColumns[m.column]
	data := m.history[col]
	if len(data) < 2 {
		return ""
	}
	series := [][]float64{data}
	legends := []string{col}
	if ref, ok := m.history["ref_"+col]; ok && len(ref) == len(data) {
		series = append(series, ref)
		legends = append(legends, "ref_"+col)
	}
	w := m.width - 14
	if w < 20 {
		w = 20
	}
	plot := asciigraph.PlotMany(series,
		asciigraph.Height(10),
		asciigraph.Width(w),
		asciigraph.Caption(col),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Magenta),
		asciigraph.SeriesLegends(legends...),
	)
	return graphStyle.Render(plot)
}

func (m Model) summary() string {
	names := make([]string, 0, len(m.result.Metrics))
	for k := range m.result.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, k := range names {
		lines = append(lines, labelStyle.Width(18).Render(k)+valueStyle.Render(fmt.Sprintf("%.4f", m.result.Metrics[k])))
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func row(label, value, ref string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "   " + refStyle.Render("ref "+ref)
}

func vec(x, y, z float64) string { return fmt.Sprintf("%7.3f %7.3f %7.3f", x, y, z) }

// Run flies sc on r while rendering it. The returned result is nil when the
// user quits before the run completes.
func Run(ctx context.Context, r *sim.Runner, sc sim.Scenario, cfg sim.Config) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	samples := make(chan sim.Sample)
	done := make(chan doneMsg, 1)
	r.AddObserver(sim.ObserverFunc(func(s sim.Sample) {
		select {
		case samples <- s:
		case <-ctx.Done():
		}
	}))
	go func() {
		res, err := r.Run(ctx, sc, cfg)
		close(samples)
		done <- doneMsg{result: res, err: err}
	}()

	title := strings.ToUpper(sc.Name)
	final, err := tea.NewProgram(newModel(title, samples, done, cancel), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, errors.Wrap(err, "live view")
	}
	fm := final.(Model)
	if !fm.finished {
		return nil, nil
	}
	return fm.result, fm.err
}
