package viz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/sdmsim/internal/config"
	"github.com/san-kum/sdmsim/internal/particulator"
)

// BuildFunc turns a configuration into a ready particulator.
type BuildFunc func(cfg *config.Config) (*particulator.Particulator, error)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type entry struct{ scenario, preset string }

func (e entry) String() string { return e.scenario + "/" + e.preset }

var editable = []string{"n_sd", "dt", "steps", "seed"}

type app struct {
	build   BuildFunc
	state   int
	cursor  int
	entries []entry
	cfg     *config.Config
	field   int
	editing bool
	editBuf string
	err     error
	theme   string
	live    Model
}

// NewInteractiveApp lists every preset, lets the user adjust the run
// length and resolution, then hands over to the live view.
func NewInteractiveApp(build BuildFunc, theme string) tea.Model {
	var entries []entry
	scenarios := make([]string, 0, len(config.Presets))
	for s := range config.Presets {
		scenarios = append(scenarios, s)
	}
	sort.Strings(scenarios)
	for _, s := range scenarios {
		for _, p := range config.ListPresets(s) {
			entries = append(entries, entry{s, p})
		}
	}
	return app{build: build, entries: entries, theme: theme}
}

func (a app) Init() tea.Cmd { return nil }

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = stateConfig
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		if a.state == stateMenu {
			return a.menuKey(k)
		}
		return a.configKey(k)
	}
	return a, nil
}

func (a app) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.entries)-1 {
			a.cursor++
		}
	case "enter", " ":
		if len(a.entries) == 0 {
			return a, nil
		}
		e := a.entries[a.cursor]
		a.cfg = config.GetPreset(e.scenario, e.preset)
		a.state, a.field, a.err = stateConfig, 0, nil
	}
	return a, nil
}

func (a app) configKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.editing {
		switch msg.String() {
		case "enter":
			a.err = a.set(editable[a.field], a.editBuf)
			a.editing, a.editBuf = false, ""
		case "esc":
			a.editing, a.editBuf = false, ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				a.editBuf += s
			}
		}
		return a, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "q", "esc":
		a.state = stateMenu
	case "up", "k":
		if a.field > 0 {
			a.field--
		}
	case "down", "j":
		if a.field < len(editable)-1 {
			a.field++
		}
	case "enter":
		a.editing, a.editBuf = true, a.get(editable[a.field])
	case "s":
		return a.start()
	}
	return a, nil
}

func (a app) get(field string) string {
	switch field {
	case "n_sd":
		return strconv.Itoa(a.cfg.NSD)
	case "dt":
		return strconv.FormatFloat(a.cfg.Dt, 'g', -1, 64)
	case "steps":
		return strconv.Itoa(a.cfg.Steps)
	case "seed":
		return strconv.FormatInt(a.cfg.Seed, 10)
	}
	return ""
}

func (a app) set(field, raw string) error {
	var err error
	switch field {
	case "n_sd":
		a.cfg.NSD, err = strconv.Atoi(raw)
	case "dt":
		a.cfg.Dt, err = strconv.ParseFloat(raw, 64)
	case "steps":
		a.cfg.Steps, err = strconv.Atoi(raw)
	case "seed":
		a.cfg.Seed, err = strconv.ParseInt(raw, 10, 64)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func (a app) start() (tea.Model, tea.Cmd) {
	cfg := *a.cfg
	p, err := a.build(&cfg)
	if err != nil {
		a.err = err
		return a, nil
	}
	e := a.entries[a.cursor]
	a.live = NewModel(p, e.String(), cfg.Steps,
		WithTheme(a.theme),
		WithRebuild(func() (*particulator.Particulator, error) {
			c := cfg
			return a.build(&c)
		}),
	)
	a.state = stateSim
	return a, a.live.Init()
}

func (a app) View() string {
	st := newStyles(GetTheme(a.theme))
	var s strings.Builder

	switch a.state {
	case stateSim:
		return a.live.View() + st.muted.Render("esc back") + "\n"

	case stateMenu:
		s.WriteString(st.header.Render("SUPER-DROPLET FREEZING") + "\n\n")
		for i, e := range a.entries {
			line := "  " + e.String()
			if i == a.cursor {
				line = st.cursor.Render("> " + e.String())
			}
			s.WriteString(line + "\n")
		}
		s.WriteString("\n" + st.muted.Render("↑/↓ select  enter configure  q quit"))

	case stateConfig:
		s.WriteString(st.header.Render(a.entries[a.cursor].String()) + "\n\n")
		for i, f := range editable {
			val := a.get(f)
			if a.editing && i == a.field {
				val = a.editBuf + "_"
			}
			label := st.label.Render("  " + f)
			if i == a.field {
				label = st.cursor.Render("> ") + st.label.Width(24).Render(f)
			}
			s.WriteString(label + " " + st.value.Render(val) + "\n")
		}
		if a.err != nil {
			s.WriteString("\n" + st.failed.Render(a.err.Error()))
		}
		s.WriteString("\n" + st.muted.Render("enter edit  s start  esc back"))
	}
	return s.String() + "\n"
}

// RunInteractive starts the preset browser full screen.
func RunInteractive(build BuildFunc, theme string) error {
	_, err := tea.NewProgram(NewInteractiveApp(build, theme), tea.WithAltScreen()).Run()
	return err
}
