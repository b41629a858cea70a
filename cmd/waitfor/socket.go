package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/benaskins/waitfor/internal/condition"
	"github.com/benaskins/waitfor/internal/wait"
)

var socketCmd = &cobra.Command{
	Use:   "socket [flags] <pattern>",
	Short: "Wait until a matching socket is listening",
	Long: `Wait until a listening socket matches the pattern.

A numeric pattern is a TCP port and matches a listener on any address. Any
other pattern is a regular expression matched against the paths of
listening Unix domain sockets.`,
	Example: `  waitfor socket 5432
  waitfor socket --timeout 10 '/run/postgresql/\.s\.PGSQL\.5432$'`,
	Args: cobra.ArbitraryArgs,
	RunE: runSocket,
}

var socketOpts wait.RawOptions

func init() {
	f := socketCmd.Flags()
	f.StringVar(&socketOpts.Timeout, "timeout", "", "whole seconds before giving up (default 120)")
	f.StringVar(&socketOpts.GuardPID, "pid", "", "stop waiting when this process exits (default: waitfor itself)")
	f.StringVar(&socketOpts.Delay, "delay", "", "seconds to pause between checks (default 1)")
	rootCmd.AddCommand(socketCmd)
}

func runSocket(cmd *cobra.Command, args []string) error {
	coord, fc, err := newCoordinator()
	if err != nil {
		return err
	}

	var (
		p    condition.Predicate
		perr error
	)
	if len(args) != 1 {
		perr = &wait.UsageError{Option: "pattern", Err: errors.New("exactly one pattern is required")}
	} else {
		p, perr = coord.SocketPredicate(args[0])
	}
	runWait(cmd.Context(), coord, wait.RoutineSocket, p, perr, fc, socketOpts)
	return nil
}
