package catalog

import "context"

// TopicRepo manages Topics.
type TopicRepo interface {
	CreateOrGet(ctx context.Context, name string) (Topic, error)
	GetByName(ctx context.Context, name string) (*Topic, error)
}

// QueryPoolRepo manages QueryPools.
type QueryPoolRepo interface {
	CreateOrGet(ctx context.Context, name string) (QueryPool, error)
}

// NamespaceRepo manages Namespaces.
type NamespaceRepo interface {
	Create(ctx context.Context, name, retentionDuration string, topicID TopicID, queryPoolID QueryPoolID) (Namespace, error)
	List(ctx context.Context) ([]Namespace, error)
	GetByID(ctx context.Context, id NamespaceID) (*Namespace, error)
	GetByName(ctx context.Context, name string) (*Namespace, error)
	UpdateTableLimit(ctx context.Context, name string, newMax int32) (Namespace, error)
	UpdateColumnLimit(ctx context.Context, name string, newMax int32) (Namespace, error)
}

// TableRepo manages Tables.
type TableRepo interface {
	CreateOrGet(ctx context.Context, name string, namespaceID NamespaceID) (Table, error)
	GetByID(ctx context.Context, id TableID) (*Table, error)
	GetByNamespaceAndName(ctx context.Context, namespaceID NamespaceID, name string) (*Table, error)
	ListByNamespaceID(ctx context.Context, namespaceID NamespaceID) ([]Table, error)
	List(ctx context.Context) ([]Table, error)
	GetTablePersistInfo(ctx context.Context, shardID ShardID, namespaceID NamespaceID, tableName string) (*TablePersistInfo, error)
}

// TablePersistInfo joins a table with the highest tombstone sequence number
// recorded against it on a given shard.
type TablePersistInfo struct {
	ShardID                    ShardID
	TableID                    TableID
	TombstoneMaxSequenceNumber *SequenceNumber
}

// ColumnRepo manages Columns.
type ColumnRepo interface {
	CreateOrGet(ctx context.Context, name string, tableID TableID, columnType ColumnType) (Column, error)
	CreateOrGetMany(ctx context.Context, reqs []ColumnUpsertRequest) ([]Column, error)
	ListByNamespaceID(ctx context.Context, namespaceID NamespaceID) ([]Column, error)
	ListByTableID(ctx context.Context, tableID TableID) ([]Column, error)
	List(ctx context.Context) ([]Column, error)
	ListTypeCountByTableID(ctx context.Context, tableID TableID) ([]ColumnTypeCount, error)
}

// ShardRepo manages Shards.
type ShardRepo interface {
	CreateOrGet(ctx context.Context, topic Topic, shardIndex ShardIndex) (Shard, error)
	GetByTopicIDAndShardIndex(ctx context.Context, topicID TopicID, shardIndex ShardIndex) (*Shard, error)
	List(ctx context.Context) ([]Shard, error)
	ListByTopic(ctx context.Context, topic Topic) ([]Shard, error)
	UpdateMinUnpersistedSequenceNumber(ctx context.Context, shardID ShardID, sequenceNumber SequenceNumber) error
}

// PartitionRepo manages Partitions and skipped-compaction bookkeeping.
type PartitionRepo interface {
	CreateOrGet(ctx context.Context, key PartitionKey, shardID ShardID, tableID TableID) (Partition, error)
	GetByID(ctx context.Context, id PartitionID) (*Partition, error)
	ListByShard(ctx context.Context, shardID ShardID) ([]Partition, error)
	ListByNamespace(ctx context.Context, namespaceID NamespaceID) ([]Partition, error)
	ListByTableID(ctx context.Context, tableID TableID) ([]Partition, error)
	PartitionInfoByID(ctx context.Context, id PartitionID) (*PartitionInfo, error)
	UpdateSortKey(ctx context.Context, id PartitionID, sortKey []string) (Partition, error)
	UpdatePersistedSequenceNumber(ctx context.Context, id PartitionID, sequenceNumber SequenceNumber) error
	RecordSkippedCompaction(ctx context.Context, id PartitionID, reason string) error
	ListSkippedCompactions(ctx context.Context) ([]SkippedCompaction, error)
}

// TombstoneRepo manages Tombstones.
type TombstoneRepo interface {
	CreateOrGet(ctx context.Context, tableID TableID, shardID ShardID, sequenceNumber SequenceNumber, minTime, maxTime Timestamp, predicate string) (Tombstone, error)
	ListByNamespace(ctx context.Context, namespaceID NamespaceID) ([]Tombstone, error)
	ListByTable(ctx context.Context, tableID TableID) ([]Tombstone, error)
	GetByID(ctx context.Context, id TombstoneID) (*Tombstone, error)
	ListTombstonesByShardGreaterThan(ctx context.Context, shardID ShardID, sequenceNumber SequenceNumber) ([]Tombstone, error)
	Remove(ctx context.Context, ids []TombstoneID) error
	ListTombstonesForTimeRange(ctx context.Context, shardID ShardID, tableID TableID, afterSequenceNumber SequenceNumber, minTime, maxTime Timestamp) ([]Tombstone, error)
}

// ParquetFileRepo manages ParquetFiles and the candidate-selection queries
// the compaction planner depends on.
type ParquetFileRepo interface {
	Create(ctx context.Context, params ParquetFileParams) (ParquetFile, error)
	FlagForDelete(ctx context.Context, id ParquetFileID) error
	ListByShardGreaterThan(ctx context.Context, shardID ShardID, sequenceNumber SequenceNumber) ([]ParquetFile, error)
	ListByNamespaceNotToDelete(ctx context.Context, namespaceID NamespaceID) ([]ParquetFile, error)
	ListByTableNotToDelete(ctx context.Context, tableID TableID) ([]ParquetFile, error)
	ListByPartitionNotToDelete(ctx context.Context, partitionID PartitionID) ([]ParquetFile, error)
	DeleteOld(ctx context.Context, olderThan Timestamp) ([]ParquetFile, error)
	Level0(ctx context.Context, shardID ShardID) ([]ParquetFile, error)
	Level1(ctx context.Context, tablePartition TablePartition, minTime, maxTime Timestamp) ([]ParquetFile, error)
	RecentHighestThroughputPartitions(ctx context.Context, shardID ShardID, timeInThePast Timestamp, minNumFiles, numPartitions int) ([]PartitionParam, error)
	MostColdFilesPartitions(ctx context.Context, shardID ShardID, timeInThePast Timestamp, numPartitions int) ([]PartitionParam, error)
	UpdateCompactionLevel(ctx context.Context, ids []ParquetFileID, level CompactionLevel) ([]ParquetFileID, error)
	Exist(ctx context.Context, id ParquetFileID) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByOverlapsWithLevel0(ctx context.Context, tableID TableID, shardID ShardID, minTime, maxTime Timestamp, sequenceNumber SequenceNumber) (int64, error)
	CountByOverlapsWithLevel1(ctx context.Context, tableID TableID, shardID ShardID, minTime, maxTime Timestamp) (int64, error)
	GetByObjectStoreID(ctx context.Context, objectStoreID [16]byte) (*ParquetFile, error)
}

// ProcessedTombstoneRepo manages ProcessedTombstones.
type ProcessedTombstoneRepo interface {
	Create(ctx context.Context, parquetFileID ParquetFileID, tombstoneID TombstoneID) (ProcessedTombstone, error)
	Exist(ctx context.Context, parquetFileID ParquetFileID, tombstoneID TombstoneID) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByTombstoneID(ctx context.Context, tombstoneID TombstoneID) (int64, error)
}

// RepoCollection groups the per-entity repositories available within a
// single transaction or one-shot handle. Every accessor returns the same
// underlying handle, scoped to the appropriate interface.
type RepoCollection interface {
	Topics() TopicRepo
	QueryPools() QueryPoolRepo
	Namespaces() NamespaceRepo
	Tables() TableRepo
	Columns() ColumnRepo
	Shards() ShardRepo
	Partitions() PartitionRepo
	Tombstones() TombstoneRepo
	ParquetFiles() ParquetFileRepo
	ProcessedTombstones() ProcessedTombstoneRepo
}

// Transaction is a RepoCollection bound to a staged snapshot of the
// catalog. Mutations made through it are invisible to other readers until
// Commit; Abort discards them. Calling Commit or Abort more than once is a
// programming error and panics. A one-shot handle obtained from
// Catalog.Repositories is a plain RepoCollection with no Commit or Abort.
type Transaction interface {
	RepoCollection
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// Catalog is the top-level entry point: it hands out transactions (staged,
// all-or-nothing) and one-shot handles (direct access to the live store,
// where commit/abort are programming errors).
type Catalog interface {
	StartTransaction(ctx context.Context) (Transaction, error)
	Repositories(ctx context.Context) RepoCollection
}
