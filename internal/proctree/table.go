package proctree

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessTable answers questions about the live OS process table.
// Every call queries the OS afresh; nothing is cached between calls.
type ProcessTable interface {
	// ChildrenOf returns the PIDs whose parent is pid. A process with no
	// children, or one that no longer exists, yields an empty slice.
	ChildrenOf(ctx context.Context, pid int) ([]int, error)

	// Exists reports whether pid has an entry in the process table.
	Exists(ctx context.Context, pid int) (bool, error)
}

// SystemTable reads the process table of the running host.
type SystemTable struct{}

func (SystemTable) ChildrenOf(ctx context.Context, pid int) ([]int, error) {
	if pid <= 0 || pid > math.MaxInt32 {
		return nil, nil
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up process %d: %w", pid, err)
	}

	children, err := p.ChildrenWithContext(ctx)
	if err != nil {
		if errors.Is(err, process.ErrorNoChildren) || errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing children of %d: %w", pid, err)
	}

	pids := make([]int, 0, len(children))
	for _, c := range children {
		pids = append(pids, int(c.Pid))
	}
	return pids, nil
}

func (SystemTable) Exists(ctx context.Context, pid int) (bool, error) {
	if pid <= 0 || pid > math.MaxInt32 {
		return false, nil
	}
	return process.PidExistsWithContext(ctx, int32(pid))
}
