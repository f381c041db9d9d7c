// ABOUTME: Bubble Tea model rendering install progress from installer events
// ABOUTME: Shows a counter line, a bar, and the artifacts currently downloading

package progress

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/mauromedda/mclaunch-go/internal/install"
)

const (
	defaultWidth = 80
	maxActive    = 6
)

// EventMsg carries one installer event into the program.
type EventMsg struct {
	Event install.Event
}

// DoneMsg ends the program once the install has returned.
type DoneMsg struct {
	Err error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	barDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	barTodoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeStyle  = lipgloss.NewStyle().Faint(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Model tracks install progress.
type Model struct {
	title   string
	total   int
	done    int
	skipped int
	failed  int
	bytes   int64
	active  []string
	lastErr error
	width   int
	quit    bool
}

// NewModel creates a Model with the given heading.
func NewModel(title string) Model {
	return Model{title: title, width: defaultWidth}
}

// Init returns nil; events arrive from the bridge.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update folds events into the counters.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m = m.apply(msg.Event)
	case DoneMsg:
		m.lastErr = msg.Err
		m.quit = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quit = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) apply(ev install.Event) Model {
	switch ev.Kind {
	case install.Planned:
		m.total += ev.Total
	case install.Started:
		m.active = append(m.active, ev.Name)
	case install.Finished:
		m.done++
		m.bytes += ev.Bytes
		m.active = remove(m.active, ev.Name)
	case install.Skipped:
		m.done++
		m.skipped++
		m.active = remove(m.active, ev.Name)
	case install.Failed:
		m.failed++
		m.lastErr = ev.Err
		m.active = remove(m.active, ev.Name)
	}
	return m
}

func remove(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i:i], names[i+1:]...)
		}
	}
	return names
}

// View renders the current state.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	fmt.Fprintf(&b, "  %d/%d", m.done, m.total)
	if m.skipped > 0 {
		fmt.Fprintf(&b, "  %d cached", m.skipped)
	}
	if m.bytes > 0 {
		fmt.Fprintf(&b, "  %s", humanize.IBytes(uint64(m.bytes)))
	}
	b.WriteByte('\n')
	b.WriteString(m.bar())
	b.WriteByte('\n')

	if !m.quit {
		for i, name := range m.active {
			if i == maxActive {
				fmt.Fprintf(&b, "  … %d more\n", len(m.active)-maxActive)
				break
			}
			b.WriteString(activeStyle.Render("  " + runewidth.Truncate(name, m.width-2, "…")))
			b.WriteByte('\n')
		}
	}
	if m.lastErr != nil {
		b.WriteString(errStyle.Render(runewidth.Truncate("error: "+m.lastErr.Error(), m.width, "…")))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) bar() string {
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	filled := 0
	if m.total > 0 {
		filled = width * m.done / m.total
	}
	if filled > width {
		filled = width
	}
	return "[" + barDoneStyle.Render(strings.Repeat("=", filled)) +
		barTodoStyle.Render(strings.Repeat("-", width-filled)) + "]"
}

// Done reports the counters: completed, from cache, failed.
func (m Model) Done() (done, skipped, failed int) {
	return m.done, m.skipped, m.failed
}
