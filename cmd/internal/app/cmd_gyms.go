package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"telecall/cmd/internal/callcenter"
	"telecall/cmd/internal/export"
)

func runGyms(ctx context.Context, a *App, args []string) error {
	fs := a.flags("gyms")
	var q callcenter.GymQuery
	var status string
	fs.StringVar(&q.Search, "search", "", "name or phone search")
	fs.StringVar(&status, "status", "", "new | contacted | follow_up | converted | not_interested")
	fs.StringVar(&q.City, "city", "", "city filter")
	fs.StringVar(&q.TelecallerID, "telecaller", "", "telecaller id filter (manager)")
	fs.BoolVar(&q.Unassigned, "unassigned", false, "only gyms without a telecaller (manager)")
	fs.IntVar(&q.Page, "page", 1, "page number")
	fs.IntVar(&q.Limit, "limit", callcenter.DefaultLimit, "page size, 1 to 100")
	if err := parse(fs, args); err != nil {
		return err
	}
	q.Status = callcenter.GymStatus(status)

	page, err := a.svc.ListGyms(ctx, q)
	if err != nil {
		return err
	}
	renderTable(a.io.Out, []string{"id", "name", "city", "status", "telecaller", "last call"}, gymRows(page.Items))
	renderFooter(a.io.Out, len(page.Items), page.Page, page.Total, page.HasMore())
	return nil
}

func runTelecallers(ctx context.Context, a *App, args []string) error {
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list":
		return listTelecallers(ctx, a, args)
	case "add":
		return addTelecaller(ctx, a, args)
	case "activate", "deactivate":
		fs := a.flags("telecallers " + sub)
		if err := parse(fs, args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return usagef("telecallers", "%s takes exactly one telecaller id", sub)
		}
		tc, err := a.svc.SetTelecallerActive(ctx, fs.Arg(0), sub == "activate")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.io.Out, "%s is now %sd\n", tc.Name, sub)
		return nil
	default:
		return usagef("telecallers", "unknown action %q (list, add, activate, deactivate)", sub)
	}
}

func listTelecallers(ctx context.Context, a *App, args []string) error {
	fs := a.flags("telecallers list")
	var q callcenter.ListQuery
	active := fs.String("active", "", "true or false; empty lists all")
	fs.StringVar(&q.Search, "search", "", "name or mobile search")
	fs.IntVar(&q.Page, "page", 1, "page number")
	fs.IntVar(&q.Limit, "limit", callcenter.DefaultLimit, "page size, 1 to 100")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *active != "" {
		b, err := strconv.ParseBool(*active)
		if err != nil {
			return usagef("telecallers", "--active must be true or false")
		}
		q.Active = &b
	}

	page, err := a.svc.ListTelecallers(ctx, q)
	if err != nil {
		return err
	}
	renderTable(a.io.Out, []string{"id", "name", "mobile", "active", "gyms"}, telecallerRows(page.Items))
	renderFooter(a.io.Out, len(page.Items), page.Page, page.Total, page.HasMore())
	return nil
}

func addTelecaller(ctx context.Context, a *App, args []string) error {
	fs := a.flags("telecallers add")
	var in callcenter.TelecallerInput
	fs.StringVar(&in.Name, "name", "", "display name")
	fs.StringVar(&in.Mobile, "mobile", "", "mobile number used to sign in")
	if err := parse(fs, args); err != nil {
		return err
	}
	if in.Name == "" || in.Mobile == "" {
		return usagef("telecallers", "add requires --name and --mobile")
	}

	tc, err := a.svc.CreateTelecaller(ctx, in)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.io.Out, "created telecaller %s (%s)\n", tc.Name, tc.ID)
	return nil
}

func runAssign(ctx context.Context, a *App, args []string) error {
	fs := a.flags("assign")
	telecaller := fs.String("telecaller", "", "telecaller id to receive the gyms")
	file := fs.String("file", "", "roster of gym ids: .csv, .xls or .xlsx, optionally .xz")
	unassign := fs.Bool("unassign", false, "return the gyms to the unassigned pool")
	dryRun := fs.Bool("dry-run", false, "print what would change without calling the backend")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *unassign == (*telecaller != "") {
		return usagef("assign", "pass exactly one of --telecaller or --unassign")
	}

	gymIDs := fs.Args()
	if *file != "" {
		fromFile, err := readRoster(*file)
		if err != nil {
			return err
		}
		gymIDs = append(gymIDs, fromFile...)
	}
	if len(gymIDs) == 0 {
		return usagef("assign", "no gym ids given; pass ids or --file")
	}

	if *dryRun {
		_, _ = fmt.Fprintf(a.io.Out, "would change %d gyms\n", len(gymIDs))
		return nil
	}

	var res callcenter.AssignResult
	var err error
	if *unassign {
		res, err = a.svc.UnassignGyms(ctx, gymIDs)
	} else {
		res, err = a.svc.AssignGyms(ctx, *telecaller, gymIDs)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.io.Out, "updated %d gyms\n", res.Updated)
	return nil
}

func readRoster(path string) ([]string, error) {
	rc, name, err := export.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	ids, err := export.ReadGymIDs(rc, name)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	return ids, nil
}
