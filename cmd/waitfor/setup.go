package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/benaskins/waitfor/internal/condition"
	"github.com/benaskins/waitfor/internal/config"
	"github.com/benaskins/waitfor/internal/logging"
	"github.com/benaskins/waitfor/internal/wait"
)

var (
	// errOut receives log lines and the outcome summary.
	errOut io.Writer = os.Stderr

	// exitStatus is the status of the last wait run by a subcommand.
	exitStatus int
)

// newCoordinator loads the defaults file and builds the logger and
// coordinator. Environment variables override the file's log settings.
func newCoordinator() (*wait.Coordinator, *config.Config, error) {
	fc, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	lc := logging.DefaultConfig()
	lc.Output = errOut
	logger := logging.New(logging.ApplyEnv(fc.Logging(lc)))

	return wait.NewCoordinator(logging.NewRoutine(logger), wait.WithSlogger(logger)), fc, nil
}

// runWait layers the defaults file and then the flags over the built-in
// defaults, runs the wait and records its status.
func runWait(ctx context.Context, coord *wait.Coordinator, routine string, p condition.Predicate, perr error, fc *config.Config, flags wait.RawOptions) {
	if perr != nil {
		finish(coord.Usage(routine, perr))
		return
	}

	req := wait.NewRequest(routine, p)
	for _, raw := range []wait.RawOptions{fc.WaitDefaults(), flags} {
		if err := raw.Apply(&req); err != nil {
			finish(coord.Usage(routine, err))
			return
		}
	}
	finish(coord.Wait(ctx, req))
}

func finish(out wait.Outcome) {
	exitStatus = out.Status()
	if logging.IsTerminal(errOut) {
		fmt.Fprintln(errOut, renderOutcome(out))
	}
}
