package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"telecall/cmd/internal/calendar"
)

// pickDate runs the calendar popup on the terminal and returns the picked
// date, or "" when it was closed without a pick. Tests replace it.
var pickDate = func(ctx context.Context, stdio IO, opts calendar.Options, label string) (string, error) {
	var picked string
	opts.OnChange = func(v string) { picked = v }

	p, err := calendar.NewPicker(opts)
	if err != nil {
		return "", err
	}

	// The field sits low enough for the popup to open above it on a 24-row terminal.
	trigger := calendar.Rect{X: 2, Y: 12, W: len(label) + 14, H: 1}
	prog := tea.NewProgram(
		calendar.NewModel(p, label, trigger),
		tea.WithContext(ctx),
		tea.WithInput(stdio.In),
		tea.WithOutput(stdio.Err),
		tea.WithAltScreen(),
	)
	if _, err := prog.Run(); err != nil {
		return "", fmt.Errorf("date picker: %w", err)
	}
	return picked, nil
}

func runPickDate(ctx context.Context, a *App, args []string) error {
	fs := a.flags("pick-date")
	var opts calendar.Options
	label := fs.String("label", "Date", "field label")
	fs.StringVar(&opts.Value, "value", "", "initial date YYYY-MM-DD")
	fs.StringVar(&opts.MaxDate, "max", "", "latest selectable date (YYYY-MM-DD or RFC 3339)")
	if err := parse(fs, args); err != nil {
		return err
	}
	opts.Now = a.now

	picked, err := pickDate(ctx, a.io, opts, *label)
	if err != nil {
		return err
	}
	if picked != "" {
		_, _ = fmt.Fprintln(a.io.Out, picked)
	}
	return nil
}
