package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/benaskins/waitfor/internal/wait"
)

var commandCmd = &cobra.Command{
	Use:   "command [flags] -- <command...>",
	Short: "Wait until a shell command exits with the expected status",
	Long: `Run the command through sh -c until it exits with the expected status.

Arguments after -- are joined with spaces into a single command line. A run
still in progress when the timeout elapses is killed together with every
process it started.`,
	Example: `  waitfor command --timeout 30 -- curl -sf http://localhost:8080/health
  waitfor command --max-invocations 5 --delay 0.5 -- test -f /tmp/ready`,
	Args: cobra.ArbitraryArgs,
	RunE: runCommand,
}

var commandOpts wait.RawOptions

func init() {
	f := commandCmd.Flags()
	f.StringVar(&commandOpts.Timeout, "timeout", "", "whole seconds before giving up (default 120)")
	f.StringVar(&commandOpts.GuardPID, "pid", "", "stop waiting when this process exits (default: waitfor itself)")
	f.StringVar(&commandOpts.MaxInvocations, "max-invocations", "", "run the command at most this many times (default unbounded)")
	f.StringVar(&commandOpts.Delay, "delay", "", "seconds to pause between runs (default 1)")
	f.StringVar(&commandOpts.ExpectedResult, "expected-result", "", "exit status that counts as success (default 0)")
	rootCmd.AddCommand(commandCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	coord, fc, err := newCoordinator()
	if err != nil {
		return err
	}
	p, perr := coord.CommandPredicate(strings.Join(args, " "))
	runWait(cmd.Context(), coord, wait.RoutineCommand, p, perr, fc, commandOpts)
	return nil
}
