package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"telecall/cmd/internal/archive"
	"telecall/cmd/internal/callcenter"
	"telecall/cmd/internal/calendar"
)

func runArchive(ctx context.Context, a *App, args []string) error {
	fs := a.flags("archive")
	var q callcenter.CallQuery
	var outcome string
	callFilterFlags(fs, &q, &outcome)
	since := fs.String("since", "", "report archived calls from this day YYYY-MM-DD (default --from, else 7 days ago)")
	if err := parse(fs, args); err != nil {
		return err
	}
	q.Outcome = callcenter.Outcome(outcome)

	reportFrom, err := reportStart(*since, q.From, a.now())
	if err != nil {
		return usagef("archive", "%v", err)
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer pool.Close()

	st, err := archive.NewStore(pool, archive.WithSchema(a.cfg.ArchiveSchema))
	if err != nil {
		return err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	calls, err := a.svc.AllCalls(ctx, q)
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		_, _ = fmt.Fprintln(a.io.Out, "no calls matched; nothing archived")
	} else {
		run, err := st.UpsertCalls(ctx, calls, a.now().UTC())
		if err != nil {
			return err
		}
		a.log.Info("archive.run", "run_id", run.ID, "calls", run.Calls, "schema", st.Schema())
		_, _ = fmt.Fprintf(a.io.Out, "archived %d calls (run %s)\n", run.Calls, run.ID)
	}

	total, err := st.CountSince(ctx, reportFrom)
	if err != nil {
		return err
	}
	byOutcome, err := st.OutcomesSince(ctx, reportFrom)
	if err != nil {
		return err
	}

	rows := [][2]string{{"archived since " + reportFrom.Format(time.DateOnly), strconv.FormatInt(total, 10)}}
	keys := make([]string, 0, len(byOutcome))
	for o := range byOutcome {
		keys = append(keys, string(o))
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, [2]string{k, strconv.FormatInt(byOutcome[callcenter.Outcome(k)], 10)})
	}
	renderKV(a.io.Out, rows)
	return nil
}

// reportStart picks the first day of the archive report, in local time.
func reportStart(since, from string, now time.Time) (time.Time, error) {
	raw := since
	if raw == "" {
		raw = from
	}
	d := calendar.FromTime(now).AddDays(-7)
	if raw != "" {
		var err error
		if d, err = calendar.Parse(raw); err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, now.Location()), nil
}
