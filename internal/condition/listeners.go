package condition

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/prometheus/procfs"
	psnet "github.com/shirou/gopsutil/v4/net"
)

// SystemListeners reads the host's live socket tables.
type SystemListeners struct{}

func (SystemListeners) TCPListeners(ctx context.Context) ([]string, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, fmt.Errorf("listing tcp sockets: %w", err)
	}

	var addrs []string
	for _, c := range conns {
		if c.Status != "LISTEN" {
			continue
		}
		addrs = append(addrs, net.JoinHostPort(c.Laddr.IP, strconv.FormatUint(uint64(c.Laddr.Port), 10)))
	}
	return addrs, nil
}

func (SystemListeners) UnixListeners(ctx context.Context) ([]string, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("opening procfs: %w", err)
	}
	table, err := fs.NetUNIX()
	if err != nil {
		return nil, fmt.Errorf("reading unix socket table: %w", err)
	}

	var paths []string
	for _, row := range table.Rows {
		if row.Path == "" || row.Flags.String() != "listen" {
			continue
		}
		paths = append(paths, row.Path)
	}
	return paths, nil
}
