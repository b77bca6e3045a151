package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/platform/tracing"
	"github.com/phrazzld/lexis/internal/redact"
	"github.com/phrazzld/lexis/internal/service/review"
	"github.com/spf13/pflag"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitUsage   = 2
	exitInvalid = 3
	exitMissing = 4
)

var errUsage = errors.New("usage error")

// command is one lexis subcommand. Commands that need the review service
// receive a wired application; migrate works on the raw backend.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, app *application, args []string) error
}

var commands = []command{
	{name: "migrate", summary: "apply or inspect database migrations (up, down, status, version, reset)", run: runMigrate},
	{name: "add-item", summary: "add a vocabulary item", run: runAddItem},
	{name: "queue", summary: "show a user's review queue", run: runQueue},
	{name: "review", summary: "submit a graded review", run: runReview},
	{name: "postpone", summary: "push an item's next review back by some days", run: runPostpone},
	{name: "stats", summary: "show learning statistics for a period", run: runStats},
	{name: "user-stats", summary: "show a user's overall progress", run: runUserStats},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func globalFlags() (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet("lexis", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	configFile := fs.String("config", "", "path to a config file (default ./config.yaml if present)")
	fs.String("logging-level", "info", "log level (debug, info, warn, error)")
	fs.String("logging-format", "json", "log format (json, text)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("cache-backend", "none", "read cache backend (none, memory, redis)")
	fs.String("scheduler-timezone", "UTC", "IANA timezone for calendar-day statistics")
	fs.Bool("tracing-enabled", false, "export spans to stderr")
	return fs, configFile
}

func usage(env environment, fs *pflag.FlagSet) {
	var b strings.Builder
	b.WriteString("Usage: lexis [global flags] <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-11s %s\n", c.name, c.summary)
	}
	b.WriteString("\nGlobal flags:\n")
	b.WriteString(fs.FlagUsages())
	fmt.Fprint(env.stderr, b.String())
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, env environment) int {
	fs, configFile := globalFlags()
	fs.SetOutput(env.stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			usage(env, fs)
			return exitOK
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(env, fs)
		return exitUsage
	}
	cmd, ok := findCommand(rest[0])
	if !ok {
		fmt.Fprintf(env.stderr, "unknown command %q\n\n", rest[0])
		usage(env, fs)
		return exitUsage
	}

	cfg, err := config.LoadWithOptions(config.Options{ConfigFile: *configFile, Flags: fs})
	if err != nil {
		fmt.Fprintf(env.stderr, "failed to load configuration: %v\n", err)
		return exitError
	}

	log, err := logger.New(env.stderr, cfg.Logging)
	if err != nil {
		fmt.Fprintf(env.stderr, "failed to set up logger: %v\n", err)
		return exitError
	}
	slog.SetDefault(log)
	log = log.With(slog.String("command", cmd.name))
	ctx = logger.WithLogger(ctx, log)

	provider, shutdown, err := tracing.Setup(cfg.Tracing, env.stderr, log)
	if err != nil {
		log.Error("failed to set up tracing", slog.String("error", err.Error()))
		return exitError
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("failed to flush spans", slog.String("error", err.Error()))
		}
	}()

	app, err := newApplication(ctx, cfg, log, env, provider.Tracer(review.TracerName))
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", redact.Error(err)))
		fmt.Fprintln(env.stderr, redact.Error(err))
		return exitError
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("failed to close application", slog.String("error", err.Error()))
		}
	}()

	if err := cmd.run(ctx, app, rest[1:]); err != nil {
		return reportError(env, log, err)
	}
	return exitOK
}

// reportError prints err and maps it to an exit code by error kind.
func reportError(env environment, log *slog.Logger, err error) int {
	switch {
	case errors.Is(err, errUsage), errors.Is(err, pflag.ErrHelp):
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(env.stderr, err)
		}
		return exitUsage
	case errors.Is(err, domain.ErrValidation):
		fmt.Fprintln(env.stderr, err)
		return exitInvalid
	case errors.Is(err, domain.ErrNotFound):
		fmt.Fprintln(env.stderr, err)
		return exitMissing
	default:
		msg := redact.Error(err)
		log.Error("command failed",
			slog.String("error", msg),
			slog.Bool("retryable", domain.IsRetryable(err)))
		fmt.Fprintln(env.stderr, msg)
		return exitError
	}
}

func (a *application) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
