package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sdmsim/internal/attributes"
	"github.com/san-kum/sdmsim/internal/dynamics"
	"github.com/san-kum/sdmsim/internal/particulator"
)

const (
	canvasWidth     = 40
	canvasHeight    = 8
	graphWidth      = 60
	graphHeight     = 10
	sparkWidth      = 12
	historyCapacity = 600
	maxStepsPerTick = 1000
	tickInterval    = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Option configures a [Model].
type Option func(*Model)

// WithRebuild enables the reset key. rebuild must return a fresh
// particulator in its initial state.
func WithRebuild(rebuild func() (*particulator.Particulator, error)) Option {
	return func(m *Model) { m.rebuild = rebuild }
}

func WithStepsPerTick(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.perTick = min(n, maxStepsPerTick)
		}
	}
}

func WithTheme(name string) Option {
	return func(m *Model) { m.theme = themeIndex(name) }
}

// Model steps a particulator on every tick and renders its products.
type Model struct {
	p        *particulator.Particulator
	rebuild  func() (*particulator.Particulator, error)
	title    string
	total    int
	perTick  int
	names    []string
	units    map[string]string
	history  map[string][]float64
	selected int
	running  bool
	err      error
	canvas   *Canvas
	liquid   int
	ice      int
	freezing dynamics.FreezingStats
	theme    int
	frame    int
	showHelp bool
}

// NewModel wraps p for a run of totalSteps timesteps. Products are
// sampled once up front so the first frame already has data.
func NewModel(p *particulator.Particulator, title string, totalSteps int, opts ...Option) Model {
	m := Model{
		title:   title,
		total:   totalSteps,
		perTick: 1,
		running: true,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.attach(p)
	return m
}

func (m *Model) attach(p *particulator.Particulator) {
	m.p = p
	m.err = nil
	m.names = m.names[:0]
	m.units = make(map[string]string)
	m.history = make(map[string][]float64)
	for _, prod := range p.Products() {
		m.names = append(m.names, prod.Name())
		m.units[prod.Name()] = prod.Units().String()
	}
	if m.selected >= len(m.names) {
		m.selected = 0
	}
	m.sample()
}

func (m Model) Init() tea.Cmd { return tick() }

// Done reports whether the run has reached its final step or failed.
func (m Model) Done() bool { return m.err != nil || m.p.Steps() >= m.total }

func (m Model) Err() error { return m.err }

func (m Model) Particulator() *particulator.Particulator { return m.p }

// History returns the sampled series of a product, newest last.
func (m Model) History(name string) []float64 { return m.history[name] }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab", "right", "l":
			if len(m.names) > 0 {
				m.selected = (m.selected + 1) % len(m.names)
			}
		case "shift+tab", "left", "h":
			if len(m.names) > 0 {
				m.selected = (m.selected + len(m.names) - 1) % len(m.names)
			}
		case "+", "=":
			m.perTick = min(m.perTick*2, maxStepsPerTick)
		case "-", "_":
			m.perTick = max(m.perTick/2, 1)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.frame++
		if m.running && !m.Done() {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	steps := min(m.perTick, m.total-m.p.Steps())
	for i := 0; i < steps; i++ {
		if err := m.p.Run(context.Background(), 1); err != nil {
			m.err = err
			return
		}
		m.sample()
		if m.err != nil {
			return
		}
	}
}

func (m *Model) sample() {
	for _, name := range m.names {
		v, err := m.p.ProductValue(name)
		if err != nil {
			m.err = fmt.Errorf("product %q: %w", name, err)
			return
		}
		h := append(m.history[name], v)
		if len(h) > historyCapacity {
			h = h[1:]
		}
		m.history[name] = h
	}
	if mass, err := m.p.Attributes().Get(attributes.SignedWaterMass); err == nil {
		m.liquid, m.ice = m.canvas.PhaseMap(mass)
	}
	m.freezing = m.p.FreezingStats()
}

func (m *Model) reset() {
	if m.rebuild == nil {
		return
	}
	p, err := m.rebuild()
	if err != nil {
		m.err = err
		return
	}
	m.attach(p)
}

func (m Model) View() string {
	theme := Themes[m.theme]
	st := newStyles(theme)

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")

	status := st.running.Render(AnimatedSpinner(m.frame) + " RUNNING")
	switch {
	case m.err != nil:
		status = st.failed.Render("FAILED: " + m.err.Error())
	case m.Done():
		status = st.running.Render("DONE")
	case !m.running:
		status = st.paused.Render("PAUSED")
	}
	fraction := 1.0
	if m.total > 0 {
		fraction = float64(m.p.Steps()) / float64(m.total)
	}
	fmt.Fprintf(&s, "%s  %s %d/%d  t=%gs  x%d\n\n", status, ProgressBar(fraction, 30), m.p.Steps(), m.total, m.p.Time(), m.perTick)

	graph := st.muted.Render("no products")
	if len(m.names) > 0 {
		name := m.names[m.selected]
		caption := name
		if u := m.units[name]; u != "" {
			caption += " [" + u + "]"
		}
		series := m.history[name]
		if len(series) == 1 {
			series = []float64{series[0], series[0]}
		}
		graph = st.muted.Render(caption + ": no data")
		if anyFinite(series) {
			graph = asciigraph.Plot(series,
				asciigraph.Height(graphHeight),
				asciigraph.Width(graphWidth),
				asciigraph.Precision(4),
				asciigraph.SeriesColors(theme.Series),
				asciigraph.Caption(caption),
			)
		}
	}

	var stats strings.Builder
	for i, name := range m.names {
		label := st.label.Render(name)
		if i == m.selected {
			label = st.cursor.Render("> ") + st.label.Width(24).Render(name)
		}
		value := "-"
		h := m.history[name]
		if len(h) > 0 {
			value = fmt.Sprintf("%.4g", h[len(h)-1])
		}
		fmt.Fprintf(&stats, "%s %s %s %s\n", label, Sparkline(h, sparkWidth), st.value.Render(value), st.muted.Render(m.units[name]))
	}
	stats.WriteString("\n" + st.ice.Render(fmt.Sprintf("ice %d", m.ice)) + "  " + st.liquid.Render(fmt.Sprintf("liquid %d", m.liquid)) + "\n")
	stats.WriteString(st.muted.Render(fmt.Sprintf("frozen %d  thawed %d", m.freezing.Frozen, m.freezing.Thawed)) + "\n")
	stats.WriteString(st.muted.Render("ice ↑  log10|m| →  liquid ↓") + "\n")
	stats.WriteString(m.canvas.String())

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, graph, "  ", st.panel.Render(stats.String())))
	s.WriteString("\n\n")

	if m.showHelp {
		s.WriteString(st.muted.Render("space pause  tab/←/→ product  +/- speed  r reset  t theme (" + theme.Name + ")  q quit"))
	} else {
		s.WriteString(st.muted.Render("? help"))
	}
	return s.String() + "\n"
}

func anyFinite(series []float64) bool {
	for _, v := range series {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// RunLive shows m full screen until the user quits and returns the final
// model state.
func RunLive(m Model) (Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, err
	}
	return final.(Model), nil
}
