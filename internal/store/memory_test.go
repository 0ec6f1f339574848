package store

import (
	"testing"
)

func TestMemoryStore(t *testing.T) {
	var mem *MemoryStore

	initDB := func(t *testing.T) storeHarness {
		mem = NewMemoryStore()
		return storeHarness{
			store: mem,
			count: func(t *testing.T, table string) int {
				t.Helper()
				n, ok := mem.Counts()[table]
				if !ok {
					t.Fatalf("unknown table %q", table)
				}
				return n
			},
		}
	}

	cleanupDB := func(t *testing.T) {
		mem = nil
	}

	RunStoreTests(t, initDB, cleanupDB)
}
