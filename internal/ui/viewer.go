package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	headerHeight = 2
	footerHeight = 1
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	statsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type viewerModel struct {
	title    string
	summary  string
	lines    []string
	viewport viewport.Model
	ready    bool
	width    int
}

// NewViewerModel returns a Bubble Tea model that scrolls through rendered
// trace lines.
func NewViewerModel(title, summary string, lines []string) tea.Model {
	return &viewerModel{
		title:   title,
		summary: summary,
		lines:   lines,
		width:   80,
	}
}

func (m *viewerModel) Init() tea.Cmd {
	return nil
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := max(msg.Height-headerHeight-footerHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *viewerModel) View() string {
	if !m.ready {
		return "loading..."
	}
	var b strings.Builder
	header := truncate(m.title, m.width-runewidth.StringWidth(m.summary)-1)
	b.WriteString(titleStyle.Render(header))
	b.WriteString(" ")
	b.WriteString(statsStyle.Render(m.summary))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.footer()))
	return b.String()
}

func (m *viewerModel) footer() string {
	return fmt.Sprintf("%d lines  %3.f%%  q quit  g/G top/bottom", len(m.lines), m.viewport.ScrollPercent()*100)
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
