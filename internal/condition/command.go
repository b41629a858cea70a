package condition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Command runs a shell command and yields its exit status.
type Command struct {
	command string
	killer  TreeKiller
	logger  *slog.Logger
}

// NewCommand creates a command predicate. When an evaluation is cancelled the
// running shell and everything it spawned is force-killed through killer.
func NewCommand(command string, killer TreeKiller, logger *slog.Logger) *Command {
	if logger == nil {
		logger = slog.With("component", "condition")
	}
	return &Command{
		command: command,
		killer:  killer,
		logger:  logger,
	}
}

func (c *Command) Describe() string {
	return fmt.Sprintf("command %q", c.command)
}

// Evaluate runs the command with the ambient environment and working
// directory. Output is discarded; only the exit status is observed. A
// command killed by a signal yields 128 plus the signal number, the way a
// shell reports it.
func (c *Command) Evaluate(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", c.command)
	cmd.Cancel = func() error {
		// ctx is already done here; the kill itself must not be cut short.
		err := c.killer.Terminate(context.WithoutCancel(ctx), cmd.Process.Pid, unix.SIGKILL)
		if err != nil {
			c.logger.Error("terminating command tree failed", "pid", cmd.Process.Pid, "error", err)
		}
		return err
	}

	err := cmd.Run()
	if ctx.Err() != nil {
		return -1, context.Cause(ctx)
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
	}
	return -1, fmt.Errorf("running %q: %w", c.command, err)
}
