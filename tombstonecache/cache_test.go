package tombstonecache

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/chronodb/chronodb/catalog"
)

func countingLoader(t *testing.T, result map[catalog.TableID]CachedTombstones) (Loader, *int32) {
	t.Helper()
	var calls int32
	loader := func(ctx context.Context, tableID catalog.TableID) (CachedTombstones, error) {
		atomic.AddInt32(&calls, 1)
		return result[tableID], nil
	}
	return loader, &calls
}

func TestGetCachesSecondCallDoesNotHitLoader(t *testing.T) {
	result := map[catalog.TableID]CachedTombstones{
		1: {Tombstones: []catalog.Tombstone{{ID: 1, TableID: 1, SequenceNumber: 1}}},
	}
	loader, calls := countingLoader(t, result)
	c := New(loader, 1<<20)

	if _, err := c.Get(context.Background(), 1, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Get(context.Background(), 1, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected loader called once, got %d", got)
	}
}

func TestGetDistinguishesMultipleTables(t *testing.T) {
	result := map[catalog.TableID]CachedTombstones{
		1: {Tombstones: []catalog.Tombstone{{ID: 1, TableID: 1, SequenceNumber: 1}}},
		2: {Tombstones: []catalog.Tombstone{{ID: 2, TableID: 2, SequenceNumber: 1}}},
	}
	loader, calls := countingLoader(t, result)
	c := New(loader, 1<<20)

	v1, err := c.Get(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("Get table 1: %v", err)
	}
	v2, err := c.Get(context.Background(), 2, nil)
	if err != nil {
		t.Fatalf("Get table 2: %v", err)
	}
	if len(v1.Tombstones) != 1 || v1.Tombstones[0].TableID != 1 {
		t.Fatalf("unexpected table 1 result: %+v", v1)
	}
	if len(v2.Tombstones) != 1 || v2.Tombstones[0].TableID != 2 {
		t.Fatalf("unexpected table 2 result: %+v", v2)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected loader called once per table, got %d", got)
	}
}

func TestGetOfNonExistentTableCachesEmptyResult(t *testing.T) {
	loader, calls := countingLoader(t, map[catalog.TableID]CachedTombstones{})
	c := New(loader, 1<<20)

	v, err := c.Get(context.Background(), 99, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(v.Tombstones) != 0 {
		t.Fatalf("expected empty result, got %+v", v)
	}
	if _, err := c.Get(context.Background(), 99, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected the empty result to be cached, loader called %d times", got)
	}
}

func TestGetRefreshesWhenRequestedSequenceIsNewer(t *testing.T) {
	result := map[catalog.TableID]CachedTombstones{
		1: {Tombstones: []catalog.Tombstone{{ID: 1, TableID: 1, SequenceNumber: 5}}},
	}
	loader, calls := countingLoader(t, result)
	c := New(loader, 1<<20)

	if _, err := c.Get(context.Background(), 1, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	stale := catalog.SequenceNumber(3)
	if _, err := c.Get(context.Background(), 1, &stale); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("a request for an older sequence number should not force reload, got %d calls", got)
	}

	newer := catalog.SequenceNumber(10)
	if _, err := c.Get(context.Background(), 1, &newer); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("a request for a newer sequence number should force reload, got %d calls", got)
	}
}

func TestSizeAccountsForPredicateLength(t *testing.T) {
	small := CachedTombstones{Tombstones: []catalog.Tombstone{{SerializedPredicate: "x"}}}
	large := CachedTombstones{Tombstones: []catalog.Tombstone{{SerializedPredicate: "xxxxxxxxxxxxxxxxxxxx"}}}
	if large.Size() <= small.Size() {
		t.Fatalf("expected larger predicate to increase size: small=%d large=%d", small.Size(), large.Size())
	}
	two := CachedTombstones{Tombstones: []catalog.Tombstone{{SerializedPredicate: "x"}, {SerializedPredicate: "x"}}}
	if two.Size() <= small.Size() {
		t.Fatalf("expected a second tombstone to increase size: one=%d two=%d", small.Size(), two.Size())
	}
}

func TestEvictsOldestWhenOverBudget(t *testing.T) {
	result := map[catalog.TableID]CachedTombstones{
		1: {Tombstones: []catalog.Tombstone{{ID: 1, TableID: 1, SerializedPredicate: "aaaaaaaaaaaaaaaaaaaa"}}},
		2: {Tombstones: []catalog.Tombstone{{ID: 2, TableID: 2, SerializedPredicate: "bbbbbbbbbbbbbbbbbbbb"}}},
	}
	loader, _ := countingLoader(t, result)

	oneEntrySize := result[1].Size()
	c := New(loader, oneEntrySize+10)

	if _, err := c.Get(context.Background(), 1, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Get(context.Background(), 2, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if _, ok := c.peek(1); ok {
		t.Fatalf("expected table 1 evicted once table 2's entry no longer fits the budget")
	}
	if _, ok := c.peek(2); !ok {
		t.Fatalf("expected table 2 to remain cached")
	}
}
