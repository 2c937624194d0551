package store

import (
	"context"
	"testing"

	"github.com/JonMunkholm/collegemap/internal/core"
)

type countingStore struct {
	core.ReferenceMap
	lookups int
}

func (c *countingStore) Lookup(ctx context.Context, id string) (core.CollegeInfo, bool, error) {
	c.lookups++
	return c.ReferenceMap.Lookup(ctx, id)
}

func TestCached_HitsAndMisses(t *testing.T) {
	ctx := context.Background()
	next := &countingStore{ReferenceMap: core.ReferenceMap{}}
	putAll(t, next, map[string]core.CollegeInfo{"7": {Status: "Active", HomeUniversity: "X"}})

	c, err := NewCached(next, 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, found, err := c.Lookup(ctx, "7")
		if err != nil || !found || got.Status != "Active" {
			t.Fatalf("Lookup(7) = %+v, %v, %v", got, found, err)
		}
		if _, found, _ := c.Lookup(ctx, "404"); found {
			t.Fatal("Lookup(404) should miss")
		}
	}

	if next.lookups != 2 {
		t.Errorf("backend lookups = %d, want 2 (one per distinct id)", next.lookups)
	}
	hits, misses := c.Stats()
	if hits != 4 || misses != 2 {
		t.Errorf("Stats = %d hits, %d misses; want 4, 2", hits, misses)
	}
}

func TestCached_CommitPurges(t *testing.T) {
	ctx := context.Background()
	next := &countingStore{ReferenceMap: core.ReferenceMap{}}
	c, err := NewCached(next, 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	if _, found, _ := c.Lookup(ctx, "7"); found {
		t.Fatal("empty store should miss")
	}

	putAll(t, c, map[string]core.CollegeInfo{"7": {Status: "Active", HomeUniversity: "X"}})

	got, found, err := c.Lookup(ctx, "7")
	if err != nil || !found || got.HomeUniversity != "X" {
		t.Errorf("Lookup(7) after commit = %+v, %v, %v; cached miss should be purged", got, found, err)
	}
	if n, _ := c.Len(ctx); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestNewCached_InvalidSize(t *testing.T) {
	if _, err := NewCached(core.ReferenceMap{}, 0); err == nil {
		t.Error("expected error for zero cache size")
	}
}
