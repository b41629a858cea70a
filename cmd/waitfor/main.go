package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benaskins/waitfor/internal/config"
	"github.com/benaskins/waitfor/internal/wait"
)

var rootCmd = &cobra.Command{
	Use:   "waitfor",
	Short: "Block until a command succeeds or a socket is listening",
	Long: `Block until a condition holds, then exit 0.

Exits 1 when the timeout elapses, the guard process dies or the invocation
budget runs out, and 127 when the invocation itself is malformed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to the defaults file")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes one waitfor invocation and returns the process exit status.
// Anything cobra itself rejects, such as an unknown flag, is a usage error.
func run(args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errOut = stderr
	exitStatus = 0

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stderr)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "waitfor:", err)
		return wait.StatusUsage
	}
	return exitStatus
}
