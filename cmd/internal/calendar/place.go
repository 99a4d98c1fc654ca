package calendar

// Rect is an axis-aligned box in screen cells, origin top-left.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Right() int  { return r.X + r.W }
func (r Rect) Bottom() int { return r.Y + r.H }

// Size of the popup or the viewport.
type Size struct {
	W, H int
}

// Placement tunes Place.
type Placement struct {
	// Gap between trigger and popup.
	Gap int
	// MinTopMargin is the least distance from the viewport top the popup may
	// keep when shown above the trigger.
	MinTopMargin int
}

// DefaultPlacement suits a terminal layout.
var DefaultPlacement = Placement{Gap: 0, MinTopMargin: 1}

type Side int

const (
	Above Side = iota
	Below
)

func (s Side) String() string {
	if s == Below {
		return "below"
	}
	return "above"
}

// Position is the computed top-left anchor of the popup.
type Position struct {
	X, Y int
	Side Side
}

// Place anchors a popup of the given size to trigger. Above is preferred; the
// popup drops below when above would come closer than MinTopMargin to the
// viewport top or, with a modal, cross the modal's top edge. Horizontally it
// starts at the trigger's left edge and is kept inside the viewport and then
// inside the modal.
func Place(trigger Rect, popup, viewport Size, modal *Rect, p Placement) Position {
	pos := Position{Side: Above}

	pos.Y = trigger.Y - p.Gap - popup.H
	if pos.Y < p.MinTopMargin || (modal != nil && pos.Y < modal.Y) {
		pos.Side = Below
		pos.Y = trigger.Bottom() + p.Gap
	}

	pos.X = clamp(trigger.X, 0, viewport.W-popup.W)
	if modal != nil {
		pos.X = clamp(pos.X, modal.X, modal.Right()-popup.W)
	}
	return pos
}

// clamp keeps v in [lo, hi]; lo wins when the range is empty.
func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
