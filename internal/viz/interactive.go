package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/scenario"
	"go.uber.org/zap"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	stateMenu = iota
	stateSim
)

type model struct {
	state, cursor int
	presets       []string
	cfg           *config.Config
	log           *zap.Logger
	live          Model
	err           error
	width, height int
}

// NewInteractiveApp lists the built-in scenarios and runs the chosen one
// live. The playground preset is listed first.
func NewInteractiveApp(cfg *config.Config, log *zap.Logger) tea.Model {
	names := []string{scenario.Playground}
	for _, n := range scenario.PresetNames() {
		if n != scenario.Playground {
			names = append(names, n)
		}
	}
	return model{state: stateMenu, presets: names, cfg: cfg, log: log, width: 80, height: 24}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.state == stateMenu {
			return m.menuKey(msg)
		}
		if msg.String() == "esc" {
			m.state = stateMenu
			return m, nil
		}
	}
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		cmd := m.start()
		return m, cmd
	}
	return m, nil
}

func (m *model) start() tea.Cmd {
	sc, _, err := scenario.Preset(m.presets[m.cursor])
	if err != nil {
		m.err = err
		return nil
	}
	scene, err := scenario.Build(sc, m.cfg, m.log)
	if err != nil {
		m.err = err
		return nil
	}
	live, err := NewModel(scene)
	if err != nil {
		m.err = err
		return nil
	}
	m.live, m.err, m.state = live, nil, stateSim
	return live.Init()
}

func (m model) View() string {
	if m.state == stateSim {
		return m.live.View() + "\n" + dimmer.Render("esc: back to menu")
	}

	var s strings.Builder
	s.WriteString("\n  " + cyan.Render("grabsim") + dim.Render("  grab, follow and throw") + "\n\n")
	for i, name := range m.presets {
		desc := ""
		if sc, ok := scenario.Presets[name]; ok {
			desc = sc.Description
		}
		if i == m.cursor {
			s.WriteString(fmt.Sprintf("  %s %s  %s\n", cyan.Render(">"), white.Render(name), dim.Render(desc)))
		} else {
			s.WriteString(fmt.Sprintf("    %s  %s\n", dim.Render(name), dimmer.Render(desc)))
		}
	}
	if m.err != nil {
		s.WriteString("\n  " + red.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n  " + dimmer.Render("enter: run  j/k: move  q: quit") + "\n")
	return s.String()
}

// RunInteractive starts the full-screen app with mouse motion reporting.
func RunInteractive(cfg *config.Config, log *zap.Logger) error {
	_, err := tea.NewProgram(NewInteractiveApp(cfg, log), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
