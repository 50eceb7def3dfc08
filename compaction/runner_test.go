package compaction

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chronodb/chronodb/catalog"
	"github.com/chronodb/chronodb/catalog/mem"
)

const testNow = catalog.Timestamp(100 * int64(timeInThePastNanos))

func fixedClock() catalog.Timestamp { return testNow }

// seedShardWithRecentFile populates an in-memory catalog with one topic,
// namespace, table, shard and a single recently-created L0 parquet file on
// one partition, returning the shard's topic name so a Runner can be
// pointed at it.
func seedShardWithRecentFile(t *testing.T, cat *mem.Catalog) string {
	t.Helper()
	ctx := context.Background()
	repos := cat.Repositories(ctx)

	topic, err := repos.Topics().CreateOrGet(ctx, "iox-shared")
	if err != nil {
		t.Fatalf("CreateOrGet topic: %v", err)
	}
	pool, err := repos.QueryPools().CreateOrGet(ctx, "default")
	if err != nil {
		t.Fatalf("CreateOrGet pool: %v", err)
	}
	ns, err := repos.Namespaces().Create(ctx, "ns1", "", topic.ID, pool.ID)
	if err != nil {
		t.Fatalf("Create namespace: %v", err)
	}
	table, err := repos.Tables().CreateOrGet(ctx, "cpu", ns.ID)
	if err != nil {
		t.Fatalf("CreateOrGet table: %v", err)
	}
	shard, err := repos.Shards().CreateOrGet(ctx, topic, 0)
	if err != nil {
		t.Fatalf("CreateOrGet shard: %v", err)
	}
	partition, err := repos.Partitions().CreateOrGet(ctx, "2026-07-30", shard.ID, table.ID)
	if err != nil {
		t.Fatalf("CreateOrGet partition: %v", err)
	}

	_, err = repos.ParquetFiles().Create(ctx, catalog.ParquetFileParams{
		ShardID:         shard.ID,
		NamespaceID:     ns.ID,
		TableID:         table.ID,
		PartitionID:     partition.ID,
		ObjectStoreID:   [16]byte{1},
		RowCount:        1000,
		FileSizeBytes:   2048,
		CompactionLevel: catalog.CompactionLevelInitial,
		CreatedAt:       testNow,
	})
	if err != nil {
		t.Fatalf("Create parquet file: %v", err)
	}
	return topic.Name
}

func TestRunOnceSkipsWhenTopicDoesNotExist(t *testing.T) {
	cat := mem.New(nil)
	cfg := defaultConfig(4)
	cfg.Topic = "no-such-topic"

	runner, err := NewRunner(cfg, cat, nil, fixedClock, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
}

func TestRunOnceHotCyclePacksRecentFile(t *testing.T) {
	cat := mem.New(nil)
	topicName := seedShardWithRecentFile(t, cat)

	cfg := defaultConfig(4)
	cfg.Topic = topicName
	cfg.ShardIndexRangeStart = 0
	cfg.ShardIndexRangeEnd = 0
	cfg.MaxNumberPartitionsPerShard = 10
	cfg.MinNumberRecentIngestedFilesPerPartition = 1
	cfg.MemoryBudgetBytes = 1 << 30

	reg := prometheus.NewRegistry()
	runner, err := NewRunner(cfg, cat, nil, fixedClock, reg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var sawPacked bool
	for _, fam := range families {
		if fam.GetName() != "chronodb_compaction_partitions_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == "packed" && m.GetCounter().GetValue() == 1 {
					sawPacked = true
				}
			}
		}
	}
	if !sawPacked {
		t.Fatalf("expected one packed partition to be recorded, families: %v", families)
	}
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	cat := mem.New(nil)
	cfg := defaultConfig(4)
	cfg.Topic = "no-such-topic"

	runner, err := NewRunner(cfg, cat, nil, fixedClock, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
