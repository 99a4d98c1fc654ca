package calendar

import "testing"

func TestPlace(t *testing.T) {
	t.Parallel()

	popup := Size{W: 24, H: 10}
	view := Size{W: 80, H: 40}
	p := Placement{Gap: 1, MinTopMargin: 2}

	cases := []struct {
		name    string
		trigger Rect
		modal   *Rect
		want    Position
	}{
		{
			name:    "room above",
			trigger: Rect{X: 10, Y: 20, W: 12, H: 1},
			want:    Position{X: 10, Y: 9, Side: Above},
		},
		{
			name:    "exactly at margin stays above",
			trigger: Rect{X: 10, Y: 13, W: 12, H: 1},
			want:    Position{X: 10, Y: 2, Side: Above},
		},
		{
			name:    "too close to top falls below",
			trigger: Rect{X: 10, Y: 12, W: 12, H: 1},
			want:    Position{X: 10, Y: 14, Side: Below},
		},
		{
			name:    "clamped to viewport right edge",
			trigger: Rect{X: 70, Y: 20, W: 8, H: 1},
			want:    Position{X: 56, Y: 9, Side: Above},
		},
		{
			name:    "negative x clamped to zero",
			trigger: Rect{X: -4, Y: 20, W: 8, H: 1},
			want:    Position{X: 0, Y: 9, Side: Above},
		},
		{
			name:    "above would escape modal top",
			trigger: Rect{X: 30, Y: 20, W: 8, H: 1},
			modal:   &Rect{X: 20, Y: 12, W: 40, H: 20},
			want:    Position{X: 30, Y: 22, Side: Below},
		},
		{
			name:    "fits inside modal above",
			trigger: Rect{X: 30, Y: 25, W: 8, H: 1},
			modal:   &Rect{X: 20, Y: 12, W: 40, H: 20},
			want:    Position{X: 30, Y: 14, Side: Above},
		},
		{
			name:    "clamped to modal right edge",
			trigger: Rect{X: 50, Y: 25, W: 8, H: 1},
			modal:   &Rect{X: 20, Y: 12, W: 40, H: 20},
			want:    Position{X: 36, Y: 14, Side: Above},
		},
		{
			name:    "clamped to modal left edge",
			trigger: Rect{X: 5, Y: 25, W: 8, H: 1},
			modal:   &Rect{X: 20, Y: 12, W: 40, H: 20},
			want:    Position{X: 20, Y: 14, Side: Above},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Place(tc.trigger, popup, view, tc.modal, p)
			if got != tc.want {
				t.Fatalf("Place=%+v want %+v", got, tc.want)
			}
		})
	}
}

func TestPlace_PopupWiderThanModal(t *testing.T) {
	t.Parallel()

	modal := &Rect{X: 10, Y: 0, W: 20, H: 30}
	got := Place(Rect{X: 15, Y: 25, W: 4, H: 1}, Size{W: 24, H: 5}, Size{W: 80, H: 40}, modal, Placement{})
	if got.X != modal.X {
		t.Fatalf("x=%d want modal left %d", got.X, modal.X)
	}
}
