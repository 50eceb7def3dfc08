package compaction

import (
	"context"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chronodb/chronodb/catalog"
	"github.com/chronodb/chronodb/internal/logging"
)

const (
	minCycleDelay = 1 * time.Second
	maxCycleDelay = 30 * time.Second

	// timeInThePastNanos bounds how far back a hot/cold candidate query
	// looks for "recent" activity; a day is long enough to surface any
	// partition that has seen writes in a reasonable ingest window.
	timeInThePastNanos = int64(24 * time.Hour)
)

// Runner drives repeated compaction cycles against a catalog: resolve the
// shards owned by Config.Topic, pick hot or cold candidate partitions per
// Config.CycleSchedule, pack them into plans within the memory budget, and
// record skips for anything that didn't fit.
type Runner struct {
	cfg     Config
	catalog catalog.Catalog
	logger  logging.Logger
	now     func() catalog.Timestamp

	schedule []CycleKind
	cycleIdx int

	cycles     *prometheus.CounterVec
	partitions *prometheus.CounterVec
}

// NewRunner builds a Runner for cfg against cat. now defaults to the
// wall-clock time if nil; tests supply a fixed clock instead. If reg is
// non-nil, per-cycle and per-partition-outcome counters are registered
// against it; a nil reg runs unmetered.
func NewRunner(cfg Config, cat catalog.Catalog, logger logging.Logger, now func() catalog.Timestamp, reg prometheus.Registerer) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	if now == nil {
		now = func() catalog.Timestamp { return catalog.Timestamp(time.Now().UnixNano()) }
	}
	r := &Runner{cfg: cfg, catalog: cat, logger: logger, now: now, schedule: cfg.CycleSchedule()}
	if reg == nil {
		return r, nil
	}

	r.cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronodb_compaction_cycles_total",
		Help: "Count of compaction cycles run, by cycle kind and outcome.",
	}, []string{"kind", "outcome"})
	if err := reg.Register(r.cycles); err != nil {
		return nil, err
	}

	r.partitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronodb_compaction_partitions_total",
		Help: "Count of candidate partitions considered per compaction cycle, by outcome.",
	}, []string{"outcome"})
	if err := reg.Register(r.partitions); err != nil {
		return nil, err
	}

	return r, nil
}

// Run repeats RunOnce until ctx is canceled, sleeping a randomized delay
// between cycles and backing the delay off on error: jittered wait on
// success, exponential backoff on failure.
func (r *Runner) Run(ctx context.Context) error {
	var retry int
	for {
		err := r.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		var delay time.Duration
		if err != nil {
			r.logger.Error("compaction cycle failed: %v", err)
			delay = backoffDelay(retry)
			retry++
		} else {
			retry = 0
			delay = jitteredDelay()
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
	}
}

func jitteredDelay() time.Duration {
	span := float64(maxCycleDelay - minCycleDelay)
	return minCycleDelay + time.Duration(rand.Float64()*span)
}

func backoffDelay(retry int) time.Duration {
	delay := minCycleDelay << uint(retry)
	if delay > maxCycleDelay || delay <= 0 {
		return maxCycleDelay
	}
	return delay
}

// RunOnce runs a single compaction cycle: one hot or cold round, following
// Config.CycleSchedule, across every shard under Config.Topic and its
// shard index range.
func (r *Runner) RunOnce(ctx context.Context) error {
	kind := r.schedule[r.cycleIdx%len(r.schedule)]
	r.cycleIdx++

	err := r.runOnceInner(ctx, kind)
	r.observeCycle(kind, err)
	return err
}

func (r *Runner) runOnceInner(ctx context.Context, kind CycleKind) error {
	topic, err := r.catalog.Repositories(ctx).Topics().GetByName(ctx, r.cfg.Topic)
	if err != nil {
		return err
	}
	if topic == nil {
		r.logger.Debug("no topic named %q yet, skipping cycle", r.cfg.Topic)
		return nil
	}

	shards, err := r.catalog.Repositories(ctx).Shards().ListByTopic(ctx, *topic)
	if err != nil {
		return err
	}

	for _, shard := range shards {
		if shard.ShardIndex < catalog.ShardIndex(r.cfg.ShardIndexRangeStart) ||
			shard.ShardIndex > catalog.ShardIndex(r.cfg.ShardIndexRangeEnd) {
			continue
		}
		if err := r.compactShard(ctx, shard, kind); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) observeCycle(kind CycleKind, err error) {
	if r.cycles == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.cycles.WithLabelValues(kind.String(), outcome).Inc()
}

func (r *Runner) compactShard(ctx context.Context, shard catalog.Shard, kind CycleKind) error {
	repos := r.catalog.Repositories(ctx)
	timeInThePast := r.now() - catalog.Timestamp(timeInThePastNanos)

	var candidates []catalog.PartitionParam
	var err error
	switch kind {
	case CycleHot:
		candidates, err = repos.ParquetFiles().RecentHighestThroughputPartitions(
			ctx, shard.ID, timeInThePast, r.cfg.MinNumberRecentIngestedFilesPerPartition, r.cfg.MaxNumberPartitionsPerShard)
	default:
		candidates, err = repos.ParquetFiles().MostColdFilesPartitions(
			ctx, shard.ID, timeInThePast, r.cfg.MaxNumberPartitionsPerShard)
	}
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	filesByPartition := make(map[catalog.PartitionID][]catalog.ParquetFile, len(candidates))
	for _, c := range candidates {
		files, err := repos.ParquetFiles().ListByPartitionNotToDelete(ctx, c.PartitionID)
		if err != nil {
			return err
		}
		filesByPartition[c.PartitionID] = files
	}

	plans := r.cfg.PackPartitions(candidates, filesByPartition, nil)
	if err := RecordSkips(ctx, repos.Partitions(), plans); err != nil {
		return err
	}

	for _, p := range plans {
		if p.Skipped {
			r.logger.Warn("skipped partition %d: %s", p.Partition.PartitionID, p.SkipReason)
			r.observePartition("skipped")
			continue
		}
		r.logger.Info("packed partition %d into %d files, estimated %d bytes",
			p.Partition.PartitionID, len(r.cfg.OutputFileSizes(p.EstimatedMemoryBytes)), p.EstimatedMemoryBytes)
		r.observePartition("packed")
	}
	return nil
}

func (r *Runner) observePartition(outcome string) {
	if r.partitions == nil {
		return
	}
	r.partitions.WithLabelValues(outcome).Inc()
}
