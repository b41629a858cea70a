//go:build linux

package condition

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"testing"
)

func TestSystemListenersTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	s, err := NewSocket(strconv.Itoa(port), SystemListeners{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 0 {
		t.Errorf("expected port %d to be found listening", port)
	}

	ln.Close()
	got, _ = s.Evaluate(context.Background())
	if got != 1 {
		t.Errorf("expected port %d to be gone after close", port)
	}
}

func TestSystemListenersUnix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitfor-test.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	s, err := NewSocket(path, SystemListeners{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 0 {
		t.Errorf("expected unix socket %s to be found listening", path)
	}
}
