// Package mem implements catalog.Catalog entirely in process memory,
// suitable for a single chronodb instance or for tests. It has no
// persistence: restarting the process loses the catalog.
package mem

import "github.com/chronodb/chronodb/catalog"

// collections is the complete in-memory catalog state. A transaction stages
// a clone of this struct and, on commit, the clone replaces the live one
// wholesale; nothing here is shared between a stage and its parent.
type collections struct {
	topics               []catalog.Topic
	queryPools           []catalog.QueryPool
	namespaces           []catalog.Namespace
	tables               []catalog.Table
	columns              []catalog.Column
	shards               []catalog.Shard
	partitions           []catalog.Partition
	tombstones           []catalog.Tombstone
	parquetFiles         []catalog.ParquetFile
	processedTombstones  []catalog.ProcessedTombstone
	skippedCompactions   []catalog.SkippedCompaction

	nextTopicID       int64
	nextQueryPoolID   int64
	nextNamespaceID   int64
	nextTableID       int64
	nextColumnID      int64
	nextShardID       int64
	nextPartitionID   int64
	nextTombstoneID   int64
	nextParquetFileID int64
}

func newCollections() *collections {
	return &collections{}
}

// clone deep-copies every slice so that mutations against the returned
// collections are invisible to the original until explicitly swapped in.
func (c *collections) clone() *collections {
	clone := *c
	clone.topics = append([]catalog.Topic(nil), c.topics...)
	clone.queryPools = append([]catalog.QueryPool(nil), c.queryPools...)
	clone.namespaces = append([]catalog.Namespace(nil), c.namespaces...)
	clone.tables = append([]catalog.Table(nil), c.tables...)
	clone.columns = append([]catalog.Column(nil), c.columns...)
	clone.shards = append([]catalog.Shard(nil), c.shards...)
	clone.partitions = append([]catalog.Partition(nil), c.partitions...)
	clone.tombstones = append([]catalog.Tombstone(nil), c.tombstones...)
	clone.parquetFiles = append([]catalog.ParquetFile(nil), c.parquetFiles...)
	clone.processedTombstones = append([]catalog.ProcessedTombstone(nil), c.processedTombstones...)
	clone.skippedCompactions = append([]catalog.SkippedCompaction(nil), c.skippedCompactions...)
	return &clone
}
