package store

import (
	"context"
	"testing"
)

const testSchema = "create table clickcounter (x int4, y int4, moment timestamp)"

// createTestHome creates a Home rooted in a fresh temp directory.
func createTestHome(t *testing.T) *Home {
	t.Helper()
	h, err := StartInstance(t.TempDir())
	if err != nil {
		t.Fatalf("StartInstance() failed: %v", err)
	}
	return h
}

// createTestConn creates a fresh instance with the click table.
func createTestConn(t *testing.T) *Conn {
	t.Helper()
	h := createTestHome(t)
	c, err := h.Create(context.Background(), "test", testSchema)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
