// Command harness resolves a named configuration, layers the remaining
// command-line arguments over the object graph, and either prints what it
// built (--dry-run) or runs the configured tests.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/devicelab/harness"
	"github.com/devicelab/harness/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "harness: %v\n", err)
		if config.IsUsageError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: harness <config-name> [options]")
		return config.UsageError(fmt.Errorf("a configuration name is required"))
	}
	name := args[0]
	args = args[1:]

	if name == "--help" || name == "-h" {
		fmt.Fprintln(os.Stderr, "usage: harness <config-name> [options]")
		fmt.Fprintln(os.Stderr, "pass --help-options after the name to list its options")
		return nil
	}

	wantHelp := false
	filtered := args[:0]
	for _, a := range args {
		if a == "--help-options" {
			wantHelp = true
			continue
		}
		filtered = append(filtered, a)
	}

	cfg, leftover, err := harness.LoadConfiguration(name, filtered)
	if err != nil {
		return err
	}
	if wantHelp {
		return cfg.PrintUsage(os.Stdout, false)
	}
	if len(leftover) > 0 {
		return config.UsageError(fmt.Errorf("unexpected arguments: %v", leftover))
	}

	cmdOpts, err := cfg.CommandOptions()
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	if cmdOpts.DryRun {
		logger.Infof("dry run: configuration %q resolved", cfg.Name)
		return cfg.PrintUsage(os.Stdout, true)
	}

	return harness.RunInvocation(context.Background(), cfg, logger)
}
