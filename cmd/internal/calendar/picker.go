package calendar

import (
	"time"
)

// Options configures a Picker.
type Options struct {
	// Value is the current date (YYYY-MM-DD) or empty for none.
	Value string

	// MaxDate is an optional inclusive upper bound. Any time-of-day it carries
	// is ignored; the whole calendar day is selectable.
	MaxDate string

	// OnChange receives the picked date as YYYY-MM-DD.
	OnChange func(string)

	// Now is the clock used for "today". Default time.Now.
	Now func() time.Time
}

// Picker is the selection state of a single-date calendar. It is meant to be
// driven from one goroutine, like the UI loop that owns it.
type Picker struct {
	visible  Month
	selected Date
	hasSel   bool
	open     bool

	max      Date
	hasMax   bool
	onChange func(string)
	now      func() time.Time
}

// NewPicker validates opts. The initial value is taken as given even if it
// falls outside the selectable range; only user picks are constrained.
func NewPicker(opts Options) (*Picker, error) {
	p := &Picker{
		onChange: opts.OnChange,
		now:      opts.Now,
	}
	if p.now == nil {
		p.now = time.Now
	}

	if opts.MaxDate != "" {
		d, err := Parse(opts.MaxDate)
		if err != nil {
			return nil, err
		}
		p.max, p.hasMax = d, true
	}

	p.visible = MonthOf(p.Today())
	if opts.Value != "" {
		d, err := Parse(opts.Value)
		if err != nil {
			return nil, err
		}
		p.selected, p.hasSel = d, true
		p.visible = MonthOf(d)
	}
	return p, nil
}

// Today is the current calendar date in the clock's location.
func (p *Picker) Today() Date { return FromTime(p.now()) }

func (p *Picker) IsOpen() bool   { return p.open }
func (p *Picker) Visible() Month { return p.visible }
func (p *Picker) Open()          { p.open = true }
func (p *Picker) Close()         { p.open = false }
func (p *Picker) Toggle()        { p.open = !p.open }

// MaxDate returns the configured upper bound, if any.
func (p *Picker) MaxDate() (Date, bool) { return p.max, p.hasMax }

// Selected returns the current selection, if any.
func (p *Picker) Selected() (Date, bool) { return p.selected, p.hasSel }

// Value is the selection in YYYY-MM-DD form, or "".
func (p *Picker) Value() string {
	if !p.hasSel {
		return ""
	}
	return p.selected.String()
}

// NavigateMonth shifts the visible month. Selection is untouched.
func (p *Picker) NavigateMonth(delta int) {
	p.visible = p.visible.Add(delta)
}

// Selectable reports whether d is today or later and not past the max date.
func (p *Picker) Selectable(d Date) bool {
	if d.Before(p.Today()) {
		return false
	}
	if p.hasMax && d.After(p.max) {
		return false
	}
	return true
}

// SelectDay picks day in the visible month. It returns false and changes
// nothing when the picker is closed or the day is out of range or not
// selectable. On success the date is emitted and the picker closes.
func (p *Picker) SelectDay(day int) bool {
	if !p.open {
		return false
	}
	d, ok := p.visible.Date(day)
	if !ok {
		return false
	}
	return p.pick(d)
}

// SelectToday picks today when it is selectable.
func (p *Picker) SelectToday() bool {
	if !p.open {
		return false
	}
	today := p.Today()
	if !p.pick(today) {
		return false
	}
	p.visible = MonthOf(today)
	return true
}

func (p *Picker) pick(d Date) bool {
	if !p.Selectable(d) {
		return false
	}
	p.selected, p.hasSel = d, true
	p.open = false
	if p.onChange != nil {
		p.onChange(d.String())
	}
	return true
}

// Cell is one slot of the month grid. Day is 0 for padding cells.
type Cell struct {
	Date       Date
	Day        int
	Selectable bool
	Selected   bool
	Today      bool
}

// Grid lays out the visible month in Sunday-first weeks.
func (p *Picker) Grid() [][]Cell {
	today := p.Today()
	lead := int(p.visible.FirstWeekday())
	days := p.visible.Days()

	var weeks [][]Cell
	week := make([]Cell, 0, 7)
	for i := 0; i < lead; i++ {
		week = append(week, Cell{})
	}
	for day := 1; day <= days; day++ {
		d, _ := p.visible.Date(day)
		week = append(week, Cell{
			Date:       d,
			Day:        day,
			Selectable: p.Selectable(d),
			Selected:   p.hasSel && d == p.selected,
			Today:      d == today,
		})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]Cell, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, Cell{})
		}
		weeks = append(weeks, week)
	}
	return weeks
}
