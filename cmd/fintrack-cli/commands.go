package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

var commands = []subcommands.Command{
	&usageCmd{},
	&summaryCmd{},
	&recentCmd{},
}

// reportFlags are shared by every report.
type reportFlags struct {
	user string
	at   string
}

func (r *reportFlags) register(f *flag.FlagSet) {
	f.StringVar(&r.user, "u", os.Getenv("FINTRACK_USER"), "user id (defaults to $FINTRACK_USER)")
	f.StringVar(&r.at, "at", "", "evaluate at this instant (RFC3339, defaults to now)")
}

func (r *reportFlags) instant() (time.Time, error) {
	if r.at == "" {
		return time.Now(), nil
	}
	return time.Parse(time.RFC3339, r.at)
}

// open loads configuration and connects to the configured backend.
func (r *reportFlags) open(ctx context.Context) (*services.BudgetService, string, func(), error) {
	if r.user == "" {
		return nil, "", nil, fmt.Errorf("missing user: pass -u or set FINTRACK_USER")
	}
	cli.LoadEnvFile()
	logger := log.New(log.Config{Level: slog.LevelWarn, Component: log.ComponentApp, Output: os.Stderr})
	cfg := cli.LoadAndValidateConfig(logger)
	backend := cli.InitBackend(ctx, logger, cfg)
	closeFn := func() {
		if err := backend.Cleanup(); err != nil {
			logger.Warn("Storage cleanup error", log.FieldError, err)
		}
	}
	return services.NewBudgetService(backend.Repository), cfg.Currency, closeFn, nil
}

type usageCmd struct {
	reportFlags
	budget string
}

func (*usageCmd) Name() string     { return "usage" }
func (*usageCmd) Synopsis() string { return "show budget usage for the current period" }
func (*usageCmd) Usage() string {
	return `fintrack-cli usage [-u <user>] [-b <budget id>] [-at <time>]

  Shows how much of each budget has been spent in its current window.
`
}

func (c *usageCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.budget, "b", "", "only this budget")
}

func (c *usageCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now, err := c.instant()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	svc, currency, closeFn, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer closeFn()

	var statuses []services.BudgetStatus
	if c.budget != "" {
		snap, err := svc.Usage(ctx, c.user, c.budget, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		statuses = []services.BudgetStatus{{Usage: snap}}
	} else if statuses, err = svc.Budgets(ctx, c.user, now); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(usageMarkdown(statuses, currency, now))
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	reportFlags
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show totals and expenses by category" }
func (*summaryCmd) Usage() string {
	return `fintrack-cli summary [-u <user>]

  Shows total income, total expenses, balance and the expense breakdown.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now, err := c.instant()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	svc, currency, closeFn, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer closeFn()

	d, err := svc.Overview(ctx, c.user, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(summaryMarkdown(d.Summary, d.ByCategory, currency))
	return subcommands.ExitSuccess
}

type recentCmd struct {
	reportFlags
}

func (*recentCmd) Name() string     { return "recent" }
func (*recentCmd) Synopsis() string { return "list the most recent transactions" }
func (*recentCmd) Usage() string {
	return `fintrack-cli recent [-u <user>]

  Lists the latest transactions, newest first.
`
}

func (c *recentCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *recentCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now, err := c.instant()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	svc, currency, closeFn, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer closeFn()

	d, err := svc.Overview(ctx, c.user, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(recentMarkdown(d.Recent, currency, now.Location()))
	return subcommands.ExitSuccess
}

func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	// Fall back to the raw markdown, still readable.
	fmt.Print(md)
}
