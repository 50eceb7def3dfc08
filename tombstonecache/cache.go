// Package tombstonecache caches, per table, the tombstones needed to
// reconcile reads against not-yet-compacted data. Entries are evicted
// under a shared byte budget (not a fixed entry count), refreshed when a
// caller observes a tombstone sequence number newer than what is cached,
// and loaded through a single in-flight call per table even under
// concurrent callers.
package tombstonecache

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"unsafe"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/chronodb/chronodb/catalog"
)

// perEntryOverhead approximates the fixed cost of caching one
// CachedTombstones value: the slice header and the entry bookkeeping; Size
// adds one pointer-sized slot per tombstone of slice capacity on top of
// it. It does not need to match any other
// runtime's byte accounting exactly — it only needs to be a stable,
// monotonic function of the entry's shape so the byte budget has teeth.
const perEntryOverhead = 64

// perTombstoneOverhead approximates the fixed-size portion of a single
// Tombstone value (the IDs, the two timestamps, the sequence number),
// excluding its variable-length predicate string.
const perTombstoneOverhead = int(unsafe.Sizeof(catalog.Tombstone{}))

// CachedTombstones is one cache entry: every tombstone recorded for a table
// at the time it was loaded.
type CachedTombstones struct {
	Tombstones []catalog.Tombstone
}

// Size estimates the in-memory footprint of this entry in bytes, the unit
// the cache's byte budget is denominated in.
func (c CachedTombstones) Size() int {
	size := perEntryOverhead + cap(c.Tombstones)*int(unsafe.Sizeof(uintptr(0)))
	for _, t := range c.Tombstones {
		size += perTombstoneOverhead + len(t.SerializedPredicate)
	}
	return size
}

// MaxTombstoneSequenceNumber returns the greatest SequenceNumber among the
// cached tombstones, or nil if the entry is empty.
func (c CachedTombstones) MaxTombstoneSequenceNumber() *catalog.SequenceNumber {
	if len(c.Tombstones) == 0 {
		return nil
	}
	max := c.Tombstones[0].SequenceNumber
	for _, t := range c.Tombstones[1:] {
		if t.SequenceNumber > max {
			max = t.SequenceNumber
		}
	}
	return &max
}

// Loader fetches every tombstone recorded for a table from the catalog. It
// is wrapped in an indefinite backoff retry by Cache.Get, so implementations
// should simply return the catalog's error on failure.
type Loader func(ctx context.Context, tableID catalog.TableID) (CachedTombstones, error)

// CatalogLoader builds a Loader backed by a catalog.RepoCollection,
// equivalent to what the original cache's FunctionLoader closes over.
func CatalogLoader(repos catalog.RepoCollection) Loader {
	return func(ctx context.Context, tableID catalog.TableID) (CachedTombstones, error) {
		tombstones, err := repos.Tombstones().ListByTable(ctx, tableID)
		if err != nil {
			return CachedTombstones{}, err
		}
		return CachedTombstones{Tombstones: tombstones}, nil
	}
}

type entry struct {
	tableID catalog.TableID
	value   CachedTombstones
}

// Cache is the tombstone cache: a byte-weighted LRU over per-table
// tombstone lists, with conditional refresh and single-flight loading.
type Cache struct {
	load       Loader
	maxBytes   int
	backoffCfg backoff.BackOff

	mu        sync.Mutex
	ll        *list.List // of *entry, most-recently-used at the front
	index     map[catalog.TableID]*list.Element
	usedBytes int

	group singleflight.Group
}

// New returns an empty cache bounded by maxBytes. loader is retried
// indefinitely with exponential backoff on error, since a transient
// catalog failure should stall the caller rather than poison the cache
// with an empty result.
func New(loader Loader, maxBytes int) *Cache {
	return &Cache{
		load:     loader,
		maxBytes: maxBytes,
		ll:       list.New(),
		index:    map[catalog.TableID]*list.Element{},
	}
}

// newBackOff returns a fresh exponential backoff with no maximum elapsed
// time, so the retry loop below runs until the loader succeeds or ctx is
// canceled.
func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	return b
}

// Get returns the cached tombstones for tableID, loading them if absent. If
// maxTombstoneSequenceNumber is non-nil and either the cache has no entry
// for tableID or the cached entry's newest tombstone is older than the
// requested sequence number, the entry is invalidated and reloaded before
// being returned — mirroring the source cache's remove_if-then-get
// conditional refresh.
func (c *Cache) Get(ctx context.Context, tableID catalog.TableID, maxTombstoneSequenceNumber *catalog.SequenceNumber) (CachedTombstones, error) {
	if maxTombstoneSequenceNumber != nil && c.shouldInvalidate(tableID, *maxTombstoneSequenceNumber) {
		c.invalidate(tableID)
	}

	if v, ok := c.peek(tableID); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(strconv.FormatInt(int64(tableID), 10), func() (interface{}, error) {
		var loaded CachedTombstones
		operation := func() error {
			var loadErr error
			loaded, loadErr = c.load(ctx, tableID)
			return loadErr
		}
		if err := backoff.Retry(operation, backoff.WithContext(newBackOff(), ctx)); err != nil {
			return CachedTombstones{}, err
		}
		c.insert(tableID, loaded)
		return loaded, nil
	})
	if err != nil {
		return CachedTombstones{}, err
	}
	return v.(CachedTombstones), nil
}

func (c *Cache) shouldInvalidate(tableID catalog.TableID, requested catalog.SequenceNumber) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[tableID]
	if !ok {
		return false
	}
	cached := el.Value.(*entry).value.MaxTombstoneSequenceNumber()
	return cached == nil || *cached < requested
}

func (c *Cache) invalidate(tableID catalog.TableID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[tableID]
	if !ok {
		return
	}
	c.usedBytes -= el.Value.(*entry).value.Size()
	c.ll.Remove(el)
	delete(c.index, tableID)
}

func (c *Cache) peek(tableID catalog.TableID) (CachedTombstones, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[tableID]
	if !ok {
		return CachedTombstones{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (c *Cache) insert(tableID catalog.TableID, v CachedTombstones) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[tableID]; ok {
		c.usedBytes -= el.Value.(*entry).value.Size()
		c.ll.Remove(el)
		delete(c.index, tableID)
	}

	size := v.Size()
	for c.usedBytes+size > c.maxBytes && c.ll.Back() != nil {
		c.evictOldestLocked()
	}

	el := c.ll.PushFront(&entry{tableID: tableID, value: v})
	c.index[tableID] = el
	c.usedBytes += size
}

func (c *Cache) evictOldestLocked() {
	back := c.ll.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	c.usedBytes -= e.value.Size()
	c.ll.Remove(back)
	delete(c.index, e.tableID)
}

