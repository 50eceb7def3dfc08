package mem

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chronodb/chronodb/catalog"
)

func TestTransactionCommitIsVisibleAfterCommitOnly(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	txn, err := c.StartTransaction(ctx)
	if err != nil {
		t.Fatalf("StartTransaction: %v", err)
	}
	if _, err := txn.Namespaces().Create(ctx, "ns1", "inf", 1, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Not visible to a one-shot reader before commit.
	if ns, err := c.Repositories(ctx).Namespaces().GetByName(ctx, "ns1"); err != nil || ns != nil {
		t.Fatalf("expected namespace invisible before commit, got %+v, %v", ns, err)
	}

	if err := txn.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ns, err := c.Repositories(ctx).Namespaces().GetByName(ctx, "ns1")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if ns == nil || ns.Name != "ns1" {
		t.Fatalf("expected namespace visible after commit, got %+v", ns)
	}
}

func TestTransactionAbortDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	txn, err := c.StartTransaction(ctx)
	if err != nil {
		t.Fatalf("StartTransaction: %v", err)
	}
	if _, err := txn.Namespaces().Create(ctx, "ns1", "inf", 1, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := txn.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	ns, err := c.Repositories(ctx).Namespaces().GetByName(ctx, "ns1")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if ns != nil {
		t.Fatalf("expected namespace to not exist after abort, got %+v", ns)
	}
}

func TestNamespaceCreateNameExists(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	repos := c.Repositories(ctx)

	if _, err := repos.Namespaces().Create(ctx, "ns1", "inf", 1, 1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repos.Namespaces().Create(ctx, "ns1", "inf", 1, 1)
	if !catalog.IsNameExists(err) {
		t.Fatalf("expected NameExistsError, got %v", err)
	}
}

func TestColumnCreateOrGetTypeMismatch(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	repos := c.Repositories(ctx)

	ns, _ := repos.Namespaces().Create(ctx, "ns1", "inf", 1, 1)
	table, _ := repos.Tables().CreateOrGet(ctx, "t1", ns.ID)

	if _, err := repos.Columns().CreateOrGet(ctx, "c1", table.ID, catalog.ColumnTypeFieldFloat); err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	_, err := repos.Columns().CreateOrGet(ctx, "c1", table.ID, catalog.ColumnTypeFieldInteger)
	if !catalog.IsColumnTypeMismatch(err) {
		t.Fatalf("expected ColumnTypeMismatchError, got %v", err)
	}
}

func TestTableCreateLimit(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	repos := c.Repositories(ctx)

	ns, _ := repos.Namespaces().Create(ctx, "ns1", "inf", 1, 1)
	if _, err := repos.Namespaces().UpdateTableLimit(ctx, "ns1", 1); err != nil {
		t.Fatalf("UpdateTableLimit: %v", err)
	}
	if _, err := repos.Tables().CreateOrGet(ctx, "t1", ns.ID); err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	_, err := repos.Tables().CreateOrGet(ctx, "t2", ns.ID)
	if !catalog.IsTableCreateLimit(err) {
		t.Fatalf("expected TableCreateLimitError, got %v", err)
	}
}

func TestRecentHighestThroughputPartitionsTieBreaksAscendingPartitionID(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	repos := c.Repositories(ctx)

	ns, _ := repos.Namespaces().Create(ctx, "ns1", "inf", 1, 1)
	table, _ := repos.Tables().CreateOrGet(ctx, "t1", ns.ID)
	topic, _ := repos.Topics().CreateOrGet(ctx, "topic1")
	shard, _ := repos.Shards().CreateOrGet(ctx, topic, 0)

	p1, _ := repos.Partitions().CreateOrGet(ctx, "p1", shard.ID, table.ID)
	p2, _ := repos.Partitions().CreateOrGet(ctx, "p2", shard.ID, table.ID)

	mkFile := func(partitionID catalog.PartitionID, createdAt catalog.Timestamp) {
		if _, err := repos.ParquetFiles().Create(ctx, catalog.ParquetFileParams{
			ShardID:         shard.ID,
			NamespaceID:     ns.ID,
			TableID:         table.ID,
			PartitionID:     partitionID,
			ObjectStoreID:   catalog.NewObjectStoreID(),
			CompactionLevel: catalog.CompactionLevelInitial,
			CreatedAt:       createdAt,
		}); err != nil {
			t.Fatalf("Create file: %v", err)
		}
	}

	// p1 and p2 both get exactly one L0 file created after time 0: a tie.
	mkFile(p1.ID, 10)
	mkFile(p2.ID, 10)

	got, err := repos.ParquetFiles().RecentHighestThroughputPartitions(ctx, shard.ID, 0, 1, 10)
	if err != nil {
		t.Fatalf("RecentHighestThroughputPartitions: %v", err)
	}
	want := []catalog.PartitionParam{
		{PartitionID: p1.ID, ShardID: shard.ID, NamespaceID: ns.ID, TableID: table.ID},
		{PartitionID: p2.ID, ShardID: shard.ID, NamespaceID: ns.ID, TableID: table.ID},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestTombstoneRemoveCascadesProcessedTombstones(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	repos := c.Repositories(ctx)

	ns, _ := repos.Namespaces().Create(ctx, "ns1", "inf", 1, 1)
	table, _ := repos.Tables().CreateOrGet(ctx, "t1", ns.ID)
	topic, _ := repos.Topics().CreateOrGet(ctx, "topic1")
	shard, _ := repos.Shards().CreateOrGet(ctx, topic, 0)

	ts, err := repos.Tombstones().CreateOrGet(ctx, table.ID, shard.ID, 1, 0, 100, "pred")
	if err != nil {
		t.Fatalf("CreateOrGet tombstone: %v", err)
	}
	file, err := repos.ParquetFiles().Create(ctx, catalog.ParquetFileParams{
		ShardID: shard.ID, NamespaceID: ns.ID, TableID: table.ID, ObjectStoreID: catalog.NewObjectStoreID(),
	})
	if err != nil {
		t.Fatalf("Create file: %v", err)
	}
	if _, err := repos.ProcessedTombstones().Create(ctx, file.ID, ts.ID); err != nil {
		t.Fatalf("Create processed tombstone: %v", err)
	}

	if err := repos.Tombstones().Remove(ctx, []catalog.TombstoneID{ts.ID}); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if got, err := repos.Tombstones().GetByID(ctx, ts.ID); err != nil || got != nil {
		t.Fatalf("expected tombstone removed, got %+v, %v", got, err)
	}
	count, err := repos.ProcessedTombstones().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected processed tombstones cascaded to 0, got %d", count)
	}
}

func TestTombstonesForTimeRangeOverlapPredicate(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	repos := c.Repositories(ctx)

	ns, _ := repos.Namespaces().Create(ctx, "ns1", "inf", 1, 1)
	table, _ := repos.Tables().CreateOrGet(ctx, "t1", ns.ID)
	topic, _ := repos.Topics().CreateOrGet(ctx, "topic1")
	shard, _ := repos.Shards().CreateOrGet(ctx, topic, 0)

	// t.min_time <= q.min_time <= t.max_time: tombstone [10, 20], query min 15.
	if _, err := repos.Tombstones().CreateOrGet(ctx, table.ID, shard.ID, 1, 10, 20, "a"); err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	got, err := repos.Tombstones().ListTombstonesForTimeRange(ctx, shard.ID, table.ID, 0, 15, 25)
	if err != nil {
		t.Fatalf("ListTombstonesForTimeRange: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 overlapping tombstone, got %d", len(got))
	}

	// q.min_time < t.min_time <= q.max_time: tombstone [30, 40], query [25, 35].
	if _, err := repos.Tombstones().CreateOrGet(ctx, table.ID, shard.ID, 2, 30, 40, "b"); err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	got, err = repos.Tombstones().ListTombstonesForTimeRange(ctx, shard.ID, table.ID, 0, 25, 35)
	if err != nil {
		t.Fatalf("ListTombstonesForTimeRange: %v", err)
	}
	if len(got) != 1 || got[0].SequenceNumber != 2 {
		t.Fatalf("expected the second tombstone via the q.min_time < t.min_time branch, got %+v", got)
	}
}
