package app

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"telecall/cmd/internal/callcenter"
	"telecall/cmd/internal/calendar"
	"telecall/cmd/internal/export"
)

func runLogCall(ctx context.Context, a *App, args []string) error {
	fs := a.flags("log-call")
	var in callcenter.CallInput
	var outcome string
	fs.StringVar(&in.GymID, "gym", "", "gym id")
	fs.StringVar(&outcome, "outcome", "", strings.Join(outcomeNames(), " | "))
	fs.StringVar(&in.Remarks, "remarks", "", "free-text notes")
	fs.StringVar(&in.FollowUpDate, "follow-up", "", "follow-up date YYYY-MM-DD (callback and interested)")
	pick := fs.Bool("pick", false, "choose the follow-up date in the calendar picker")
	if err := parse(fs, args); err != nil {
		return err
	}
	if in.GymID == "" || outcome == "" {
		return usagef("log-call", "--gym and --outcome are required")
	}
	in.Outcome = callcenter.Outcome(outcome)

	if *pick && in.Outcome.NeedsFollowUp() {
		opts := calendar.Options{Value: in.FollowUpDate, Now: a.now}
		if maxDate, ok := a.svc.MaxFollowUp(); ok {
			opts.MaxDate = maxDate.String()
		}
		picked, err := pickDate(ctx, a.io, opts, "Follow-up")
		if err != nil {
			return err
		}
		if picked == "" {
			return fmt.Errorf("log-call: no follow-up date picked")
		}
		in.FollowUpDate = picked
	}

	call, err := a.svc.LogCall(ctx, in)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("logged call %s: %s", call.ID, call.Outcome)
	if call.FollowUpDate != "" {
		line += ", follow up on " + call.FollowUpDate
	}
	_, _ = fmt.Fprintln(a.io.Out, line)
	return nil
}

func runFollowUps(ctx context.Context, a *App, args []string) error {
	fs := a.flags("followups")
	var q callcenter.FollowUpQuery
	var status string
	all := fs.Bool("all", false, "ignore the date filter")
	done := fs.String("done", "", "mark this follow-up id as done")
	fs.StringVar(&q.Date, "date", "", "due date YYYY-MM-DD (default today)")
	fs.StringVar(&status, "status", string(callcenter.FollowUpPending), "pending or done; empty for both")
	fs.IntVar(&q.Page, "page", 1, "page number")
	fs.IntVar(&q.Limit, "limit", callcenter.DefaultLimit, "page size, 1 to 100")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *done != "" {
		f, err := a.svc.CompleteFollowUp(ctx, *done)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.io.Out, "follow-up %s marked %s\n", f.ID, f.Status)
		return nil
	}

	q.Status = callcenter.FollowUpStatus(status)
	if q.Date == "" && !*all {
		q.Date = a.svc.Today().String()
	}

	page, err := a.svc.ListFollowUps(ctx, q)
	if err != nil {
		return err
	}
	renderTable(a.io.Out, []string{"id", "date", "gym", "status", "remarks"}, followUpRows(page.Items))
	renderFooter(a.io.Out, len(page.Items), page.Page, page.Total, page.HasMore())
	return nil
}

// callFilterFlags registers the call-log filters shared by export and archive.
func callFilterFlags(fs *flag.FlagSet, q *callcenter.CallQuery, outcome *string) {
	fs.StringVar(&q.From, "from", "", "first day YYYY-MM-DD")
	fs.StringVar(&q.To, "to", "", "last day YYYY-MM-DD")
	fs.StringVar(outcome, "outcome", "", "outcome filter")
	fs.StringVar(&q.TelecallerID, "telecaller", "", "telecaller id filter (manager)")
	fs.StringVar(&q.GymID, "gym", "", "gym id filter")
}

func runExport(ctx context.Context, a *App, args []string) error {
	fs := a.flags("export")
	var q callcenter.CallQuery
	var outcome string
	callFilterFlags(fs, &q, &outcome)
	out := fs.String("out", "", "output path: .csv or .xlsx, with an optional .xz suffix")
	format := fs.String("format", "", "csv or xlsx; default from the --out extension")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *out == "" {
		return usagef("export", "--out is required")
	}
	q.Outcome = callcenter.Outcome(outcome)

	f, err := export.FormatFromPath(*out)
	if *format != "" {
		f, err = export.ParseFormat(*format)
	}
	if err != nil {
		return usagef("export", "%v", err)
	}

	calls, err := a.svc.AllCalls(ctx, q)
	if err != nil {
		return err
	}

	w, err := export.Create(*out)
	if err != nil {
		return err
	}
	if err := export.WriteCalls(w, f, calls); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	a.log.Info("export.done", "path", *out, "format", f, "calls", len(calls))
	_, _ = fmt.Fprintf(a.io.Out, "wrote %d calls to %s\n", len(calls), *out)
	return nil
}

func outcomeNames() []string {
	out := make([]string, 0, len(callcenter.Outcomes))
	for _, o := range callcenter.Outcomes {
		out = append(out, string(o))
	}
	return out
}
