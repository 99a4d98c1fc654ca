package calendar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// — styles ——————————————————————————————————————————————————————————————————

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dimStyle      = lipgloss.NewStyle().Faint(true)
	todayStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	cursorStyle   = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("205"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	triggerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
)

// — keys ————————————————————————————————————————————————————————————————————

type keyMap struct {
	Left, Right, Up, Down key.Binding
	PrevMonth, NextMonth  key.Binding
	Select, Today, Close  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevMonth, k.NextMonth, k.Select, k.Today, k.Close}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.PrevMonth, k.NextMonth, k.Select, k.Today, k.Close},
	}
}

var defaultKeys = keyMap{
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev day")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next day")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "prev week")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "next week")),
	PrevMonth: key.NewBinding(key.WithKeys("[", "pgup"), key.WithHelp("[", "prev month")),
	NextMonth: key.NewBinding(key.WithKeys("]", "pgdown"), key.WithHelp("]", "next month")),
	Select:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "pick")),
	Today:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
	Close:     key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "close")),
}

// — messages ————————————————————————————————————————————————————————————————

// TriggerMovedMsg reports a new trigger position, e.g. after scrolling.
type TriggerMovedMsg struct {
	Trigger Rect
}

// ModalMsg sets or clears (nil) the containing modal bounds.
type ModalMsg struct {
	Modal *Rect
}

// — model ———————————————————————————————————————————————————————————————————

// Model renders a Picker as a terminal popup anchored to a trigger line.
type Model struct {
	picker    *Picker
	cursor    Date
	trigger   Rect
	modal     *Rect
	viewport  Size
	placement Placement
	pos       Position
	label     string
	status    string

	keys keyMap
	help help.Model
}

// NewModel wraps p and opens it. trigger is where the date field sits.
func NewModel(p *Picker, label string, trigger Rect) Model {
	cursor, ok := p.Selected()
	if !ok || MonthOf(cursor) != p.Visible() {
		cursor, _ = p.Visible().Date(1)
		if today := p.Today(); MonthOf(today) == p.Visible() {
			cursor = today
		}
	}
	p.Open()

	m := Model{
		picker:    p,
		cursor:    cursor,
		trigger:   trigger,
		viewport:  Size{W: 80, H: 24},
		placement: DefaultPlacement,
		label:     label,
		keys:      defaultKeys,
		help:      help.New(),
	}
	m.relayout()
	return m
}

// WithPlacement overrides the placement tuning.
func (m Model) WithPlacement(p Placement) Model {
	m.placement = p
	m.relayout()
	return m
}

// Picker returns the underlying selection state.
func (m Model) Picker() *Picker { return m.picker }

// Position is the last computed popup anchor.
func (m Model) Position() Position { return m.pos }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport = Size{W: msg.Width, H: msg.Height}
		m.help.Width = msg.Width
	case TriggerMovedMsg:
		m.trigger = msg.Trigger
	case ModalMsg:
		m.modal = msg.Modal
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	m.relayout()
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Close):
		m.picker.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(m.cursor.AddDays(-1))
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(m.cursor.AddDays(1))
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(m.cursor.AddDays(-7))
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.cursor.AddDays(7))
	case key.Matches(msg, m.keys.PrevMonth):
		m.shiftMonth(-1)
	case key.Matches(msg, m.keys.NextMonth):
		m.shiftMonth(1)
	case key.Matches(msg, m.keys.Select):
		if m.picker.SelectDay(m.cursor.Day) {
			return m, tea.Quit
		}
		m.status = fmt.Sprintf("%s is not selectable", m.cursor)
	case key.Matches(msg, m.keys.Today):
		if m.picker.SelectToday() {
			return m, tea.Quit
		}
		m.status = "today is not selectable"
	}
	m.relayout()
	return m, nil
}

// moveCursor follows the cursor into a neighbouring month when needed.
func (m *Model) moveCursor(d Date) {
	vis := m.picker.Visible()
	target := MonthOf(d)
	if delta := (target.Year-vis.Year)*12 + int(target.Month) - int(vis.Month); delta != 0 {
		m.picker.NavigateMonth(delta)
	}
	m.cursor = d
}

func (m *Model) shiftMonth(delta int) {
	m.picker.NavigateMonth(delta)
	vis := m.picker.Visible()
	day := min(m.cursor.Day, vis.Days())
	m.cursor, _ = vis.Date(day)
}

func (m *Model) relayout() {
	box := m.renderPopup()
	size := Size{W: lipgloss.Width(box), H: lipgloss.Height(box)}
	m.pos = Place(m.trigger, size, m.viewport, m.modal, m.placement)
}

func (m Model) View() string {
	rows := map[int]string{}

	field := m.picker.Value()
	if field == "" {
		field = "YYYY-MM-DD"
	}
	rows[m.trigger.Y] = strings.Repeat(" ", max(m.trigger.X, 0)) +
		dimStyle.Render(m.label+": ") + triggerStyle.Render("["+field+"]")

	last := m.trigger.Y
	if m.picker.IsOpen() {
		pad := strings.Repeat(" ", max(m.pos.X, 0))
		for i, line := range strings.Split(m.renderPopup(), "\n") {
			rows[m.pos.Y+i] = pad + line
			last = max(last, m.pos.Y+i)
		}
	}

	var b strings.Builder
	for y := 0; y <= last; y++ {
		b.WriteString(rows[y])
		b.WriteByte('\n')
	}
	if m.status != "" {
		b.WriteString(warnStyle.Render(m.status))
		b.WriteByte('\n')
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderPopup always draws six week rows so the popup size is stable.
func (m Model) renderPopup() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.picker.Visible().String()))
	b.WriteByte('\n')
	b.WriteString(dimStyle.Render("Su Mo Tu We Th Fr Sa"))

	weeks := m.picker.Grid()
	for len(weeks) < 6 {
		weeks = append(weeks, make([]Cell, 7))
	}
	for _, week := range weeks {
		b.WriteByte('\n')
		cells := make([]string, 0, len(week))
		for _, c := range week {
			cells = append(cells, m.renderCell(c))
		}
		b.WriteString(strings.Join(cells, " "))
	}
	return popupStyle.Render(b.String())
}

func (m Model) renderCell(c Cell) string {
	if c.Day == 0 {
		return "  "
	}
	text := fmt.Sprintf("%2d", c.Day)
	style := lipgloss.NewStyle()
	switch {
	case c.Selected:
		style = selectedStyle
	case !c.Selectable:
		style = dimStyle
	case c.Today:
		style = todayStyle
	}
	if c.Date == m.cursor {
		style = style.Inherit(cursorStyle)
	}
	return style.Render(text)
}
