package mem

import (
	"context"
	"runtime"
	"sync"

	"github.com/chronodb/chronodb/catalog"
	"github.com/chronodb/chronodb/internal/logging"
)

// noopLocker guards a transaction's staged clone, which by construction is
// reachable from exactly one goroutine between StartTransaction and
// Commit/Abort: the catalog's writer lock serializes transactions, so the
// stage itself needs no further locking.
type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// colSource resolves the *collections a repos call should operate against.
// A transaction resolves to its fixed stage; a one-shot handle resolves to
// whatever is currently live, re-read on every call since live can be
// swapped out from under it by a concurrent commit.
type colSource interface {
	get() *collections
}

type fixedSource struct{ col *collections }

func (f fixedSource) get() *collections { return f.col }

type liveSource struct{ cat *Catalog }

func (l liveSource) get() *collections { return l.cat.live }

// Catalog is an in-memory catalog.Catalog. Transactions are strictly
// serialized: StartTransaction blocks until any prior transaction commits
// or aborts. Readers using a one-shot handle always see the latest
// committed state.
type Catalog struct {
	wmu sync.Mutex // held for the lifetime of one open transaction

	mu   sync.RWMutex // guards live
	live *collections

	logger logging.Logger
}

// New returns an empty in-memory catalog.
func New(logger logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewStandardLogger()
	}
	return &Catalog{live: newCollections(), logger: logger}
}

func (c *Catalog) snapshot() *collections {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.live
}

// StartTransaction stages a private clone of the catalog and returns a
// handle through which all mutations are invisible to other readers until
// Commit. Only one transaction may be open at a time; a second call blocks
// until the first is finished.
func (c *Catalog) StartTransaction(ctx context.Context) (catalog.Transaction, error) {
	c.wmu.Lock()
	stage := c.snapshot().clone()
	t := &transaction{
		cat:   c,
		stage: stage,
	}
	t.repos = newRepos(fixedSource{col: stage}, noopLocker{})
	runtime.SetFinalizer(t, warnUnfinalizedTransaction)
	return t, nil
}

// Repositories returns a one-shot handle bound directly to the live store.
// Mutations through it take effect immediately and are visible to
// subsequent callers without any Commit. The returned value has no Commit
// or Abort method, so committing or aborting it does not compile.
func (c *Catalog) Repositories(ctx context.Context) catalog.RepoCollection {
	return newRepos(liveSource{cat: c}, &c.mu)
}

// transaction is the staged, all-or-nothing catalog.Transaction
// implementation.
type transaction struct {
	*repos
	cat        *Catalog
	stage      *collections
	finalized  bool
	finalizeMu sync.Mutex
}

func warnUnfinalizedTransaction(t *transaction) {
	t.finalizeMu.Lock()
	defer t.finalizeMu.Unlock()
	if !t.finalized {
		t.cat.logger.Warn("catalog transaction dropped without commit or abort")
	}
}

func (t *transaction) markFinalized() {
	t.finalizeMu.Lock()
	defer t.finalizeMu.Unlock()
	if t.finalized {
		panic("catalog: transaction already committed or aborted")
	}
	t.finalized = true
	runtime.SetFinalizer(t, nil)
}

// Commit swaps the staged clone in as the live catalog state and releases
// the writer lock so the next transaction can begin.
func (t *transaction) Commit(ctx context.Context) error {
	t.markFinalized()
	t.cat.mu.Lock()
	t.cat.live = t.stage
	t.cat.mu.Unlock()
	t.cat.wmu.Unlock()
	return nil
}

// Abort discards the staged clone without affecting live state.
func (t *transaction) Abort(ctx context.Context) error {
	t.markFinalized()
	t.cat.wmu.Unlock()
	return nil
}

func newRepos(src colSource, locker sync.Locker) *repos {
	return &repos{src: src, locker: locker}
}
