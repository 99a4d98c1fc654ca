package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"telecall/cmd/internal/session"
)

func runLogin(ctx context.Context, a *App, args []string) error {
	fs := a.flags("login")
	mobile := fs.String("mobile", "", "registered mobile number")
	role := fs.String("role", string(session.RoleTelecaller), "manager or telecaller")
	otp := fs.String("otp", "", "one-time code already received; skips sending a new one")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*mobile) == "" {
		return usagef("login", "--mobile is required")
	}
	r, err := session.ParseRole(*role)
	if err != nil {
		return usagef("login", "%v", err)
	}

	code := strings.TrimSpace(*otp)
	if code == "" {
		if err := a.svc.SendOTP(ctx, *mobile, r); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.io.Err, "code sent to %s, enter it: ", *mobile)
		code, err = readLine(a.io.In)
		if err != nil {
			return fmt.Errorf("read otp: %w", err)
		}
	}

	id, err := a.svc.VerifyOTP(ctx, *mobile, code, r)
	if err != nil {
		return err
	}

	name := id.Name
	if name == "" {
		name = id.SubjectID
	}
	_, _ = fmt.Fprintf(a.io.Out, "signed in as %s (%s)\n", name, id.Role)
	return nil
}

func runLogout(ctx context.Context, a *App, args []string) error {
	if err := parse(a.flags("logout"), args); err != nil {
		return err
	}
	if err := a.svc.Logout(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.io.Out, "signed out")
	return nil
}

func runWhoami(ctx context.Context, a *App, args []string) error {
	if err := parse(a.flags("whoami"), args); err != nil {
		return err
	}
	id, err := a.svc.Whoami(ctx)
	if err != nil {
		return err
	}
	renderKV(a.io.Out, identityRows(id))
	return nil
}

func runStats(ctx context.Context, a *App, args []string) error {
	if err := parse(a.flags("stats"), args); err != nil {
		return err
	}
	id, err := a.svc.Whoami(ctx)
	if err != nil {
		return err
	}
	stats, err := a.svc.Stats(ctx)
	if err != nil {
		return err
	}
	renderKV(a.io.Out, statsRows(stats, id.Role))
	return nil
}

func readLine(r io.Reader) (string, error) {
	if r == nil {
		return "", io.ErrUnexpectedEOF
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
