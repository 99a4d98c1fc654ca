package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
)

var (
	// ErrUsage marks a malformed command line; main exits 2 on it.
	ErrUsage = errors.New("usage")

	// ErrReauthRequired is returned when the command failed because the session is gone.
	ErrReauthRequired = errors.New("re-authentication required")
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *App, args []string) error
}

var commands = []command{
	{"login", "send an OTP and sign in (--mobile, --role, --otp)", runLogin},
	{"logout", "revoke the session and forget local credentials", runLogout},
	{"whoami", "show the signed-in identity", runWhoami},
	{"stats", "dashboard counters for your role", runStats},
	{"gyms", "list gyms (--search, --status, --city, --telecaller, --page)", runGyms},
	{"telecallers", "list | add | activate | deactivate telecallers (manager)", runTelecallers},
	{"assign", "assign or unassign gyms, from ids or a roster file (manager)", runAssign},
	{"log-call", "record a call outcome (--gym, --outcome, --follow-up, --pick)", runLogCall},
	{"followups", "list follow-ups or mark one done (--date, --done)", runFollowUps},
	{"export", "write call logs to .csv or .xlsx, optionally .xz compressed", runExport},
	{"archive", "mirror call logs into Postgres for reporting", runArchive},
	{"pick-date", "open the calendar picker and print the chosen date", runPickDate},
	{"watch", "poll stats and due follow-ups; optionally serve /metrics", runWatch},
}

// Execute is the CLI entrypoint used by cmd/telecall.
// It returns an error instead of calling os.Exit to keep defers effective.
func Execute(args []string) error {
	if err := LoadDotEnv(EnvString("TELECALL_ENV_FILE", ".env")); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return Run(ctx, args, StdIO())
}

// Run executes one subcommand against stdio.
func Run(ctx context.Context, args []string, stdio IO) (err error) {
	if len(args) < 1 {
		return usageError()
	}
	switch args[0] {
	case "help", "-h", "--help":
		PrintUsage(stdio.Out)
		return nil
	}

	cmd, ok := lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	log := NewLogger(cfg.LogLevel, cfg.LogFormat, stdio.Err)

	a, err := New(ctx, cfg, log, stdio)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn("app.close.fail", "err", cerr)
		}
	}()

	log.Debug("command.start", "command", cmd.name, "profile", cfg.Session.Profile)
	return a.finish(cmd.run(ctx, a, args[1:]))
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usageError() error {
	return fmt.Errorf("%w: telecall <command> [flags]", ErrUsage)
}

// PrintUsage writes the command list to w.
func PrintUsage(w io.Writer) {
	var b strings.Builder
	b.WriteString("Usage: telecall <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-12s %s\n", c.name, c.summary)
	}
	b.WriteString("\nRun `telecall <command> -h` for command flags.\n")
	_, _ = io.WriteString(w, b.String())
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.io.Err)
	return fs
}

// parse wraps flag errors in ErrUsage. -h prints defaults and returns flag.ErrHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	return nil
}

func usagef(cmd, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrUsage, cmd, fmt.Sprintf(format, args...))
}
