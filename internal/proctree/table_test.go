package proctree

import (
	"context"
	"math"
	"testing"
)

// widePID is beyond the 32-bit pid space; narrowed, it would read as pid 1.
var widePID = int64(math.MaxUint32) + 2

func TestSystemTableRejectsWidePID(t *testing.T) {
	t.Parallel()
	pid := int(widePID)

	ok, err := SystemTable{}.Exists(context.Background(), pid)
	if err != nil || ok {
		t.Errorf("Exists(%d) = %v, %v, want false, nil", pid, ok, err)
	}

	children, err := SystemTable{}.ChildrenOf(context.Background(), pid)
	if err != nil || len(children) != 0 {
		t.Errorf("ChildrenOf(%d) = %v, %v, want no children", pid, children, err)
	}
}
