// Package catalog defines the authoritative metadata model for chronodb:
// namespaces, tables, columns, shards, partitions, tombstones, and the
// columnar files persisted against them. It mediates every write-path and
// compaction decision; it does not itself read or write columnar data.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// TopicID identifies a write-buffer namespace (a Kafka-like topic).
type TopicID int64

// QueryPoolID identifies a query execution pool.
type QueryPoolID int64

// NamespaceID identifies a Namespace.
type NamespaceID int64

// TableID identifies a Table.
type TableID int64

// ColumnID identifies a Column.
type ColumnID int64

// ShardID identifies a Shard.
type ShardID int64

// ShardIndex is the caller-assigned index of a shard within a topic.
type ShardIndex int32

// PartitionID identifies a Partition.
type PartitionID int64

// PartitionKey is the caller-assigned key of a partition (commonly a
// formatted time bucket, but opaque to the catalog).
type PartitionKey string

// TombstoneID identifies a Tombstone.
type TombstoneID int64

// SequenceNumber is a monotonically increasing per-shard write sequence.
type SequenceNumber int64

// ParquetFileID identifies a ParquetFile.
type ParquetFileID int64

// Timestamp is nanoseconds since the Unix epoch, the unit of every
// min_time/max_time/created_at/to_delete field in the catalog.
type Timestamp int64

// NewTimestamp converts a wall-clock time to a catalog Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UnixNano())
}

// Time converts a catalog Timestamp back to a wall-clock time.
func (t Timestamp) Time() time.Time {
	return time.Unix(0, int64(t))
}

// ColumnType is the type tag of a Column. It never mutates once a column
// has been created; see catalog.ColumnTypeMismatchError.
type ColumnType int

const (
	// ColumnTypeTag marks an always-string-typed tag column.
	ColumnTypeTag ColumnType = iota
	// ColumnTypeTime marks the single 64-bit-nanosecond time column.
	ColumnTypeTime
	// ColumnTypeFieldFloat marks a float64 field column.
	ColumnTypeFieldFloat
	// ColumnTypeFieldInteger marks an int64 field column.
	ColumnTypeFieldInteger
	// ColumnTypeFieldUInteger marks a uint64 field column.
	ColumnTypeFieldUInteger
	// ColumnTypeFieldString marks a string field column.
	ColumnTypeFieldString
	// ColumnTypeFieldBoolean marks a bool field column.
	ColumnTypeFieldBoolean
)

// IsField reports whether this column type is one of the Field<T> variants.
func (c ColumnType) IsField() bool {
	switch c {
	case ColumnTypeFieldFloat, ColumnTypeFieldInteger, ColumnTypeFieldUInteger,
		ColumnTypeFieldString, ColumnTypeFieldBoolean:
		return true
	default:
		return false
	}
}

func (c ColumnType) String() string {
	switch c {
	case ColumnTypeTag:
		return "tag"
	case ColumnTypeTime:
		return "time"
	case ColumnTypeFieldFloat:
		return "field:float"
	case ColumnTypeFieldInteger:
		return "field:integer"
	case ColumnTypeFieldUInteger:
		return "field:uinteger"
	case ColumnTypeFieldString:
		return "field:string"
	case ColumnTypeFieldBoolean:
		return "field:boolean"
	default:
		return "unknown"
	}
}

// CompactionLevel classifies a ParquetFile by how much compaction it has
// received. Higher levels are reserved for future use.
type CompactionLevel int

const (
	// CompactionLevelInitial (L0) is assigned to freshly persisted files;
	// L0 files may overlap in time with any other file.
	CompactionLevelInitial CompactionLevel = iota
	// CompactionLevelFileNonOverlapped (L1) is assigned once a file has
	// been compacted so that it does not overlap in time with any other
	// L1 file in the same partition.
	CompactionLevelFileNonOverlapped
)

// Topic is a write-buffer namespace.
type Topic struct {
	ID   TopicID
	Name string
}

// QueryPool groups namespaces for query execution scheduling.
type QueryPool struct {
	ID   QueryPoolID
	Name string
}

// Namespace is the parent of a set of tables, with resource caps enforced
// by the catalog at write time.
type Namespace struct {
	ID                  NamespaceID
	Name                string
	TopicID             TopicID
	QueryPoolID         QueryPoolID
	RetentionDuration   string
	MaxTables           int32
	MaxColumnsPerTable  int32
}

// Default resource caps applied by Namespace creation, matching the values
// the original in-memory catalog hard-codes.
const (
	DefaultMaxTables          int32 = 10000
	DefaultMaxColumnsPerTable int32 = 1000
)

// Table belongs to exactly one namespace; its name is unique within that
// namespace.
type Table struct {
	ID          TableID
	NamespaceID NamespaceID
	Name        string
}

// Column belongs to exactly one table; its (name, type) is fixed for the
// lifetime of the column once created.
type Column struct {
	ID         ColumnID
	TableID    TableID
	Name       string
	ColumnType ColumnType
}

// ColumnTypeCount is a histogram bucket of column types within a table.
type ColumnTypeCount struct {
	ColumnType ColumnType
	Count      int
}

// Shard is a write-buffer partition of a Topic.
type Shard struct {
	ID                           ShardID
	TopicID                      TopicID
	ShardIndex                   ShardIndex
	MinUnpersistedSequenceNumber SequenceNumber
}

// Partition is the (shard, table, key) triple: the unit of compaction.
type Partition struct {
	ID                       PartitionID
	ShardID                  ShardID
	TableID                  TableID
	PartitionKey             PartitionKey
	SortKey                  []string
	PersistedSequenceNumber  *SequenceNumber
}

// PartitionInfo is a denormalised join of a partition with its parent
// table and namespace names.
type PartitionInfo struct {
	NamespaceName string
	TableName     string
	Partition     Partition
}

// PartitionParam is the light-weight (shard, table, partition, namespace)
// key returned by the compaction candidate-selection queries.
type PartitionParam struct {
	PartitionID PartitionID
	ShardID     ShardID
	NamespaceID NamespaceID
	TableID     TableID
}

// TablePartition identifies a partition scoped by its shard and table, used
// by the level-1 overlap query.
type TablePartition struct {
	ShardID     ShardID
	TableID     TableID
	PartitionID PartitionID
}

// Tombstone is a deletion record: remove all rows in (TableID, ShardID)
// ingested before SequenceNumber that match SerializedPredicate and whose
// time falls in [MinTime, MaxTime].
type Tombstone struct {
	ID                  TombstoneID
	TableID             TableID
	ShardID             ShardID
	SequenceNumber      SequenceNumber
	MinTime             Timestamp
	MaxTime             Timestamp
	SerializedPredicate string
}

// ParquetFile describes a persisted columnar file. ObjectStoreID is the
// sole external handle used to locate its bytes in object storage; it is
// globally unique.
type ParquetFile struct {
	ID                ParquetFileID
	ShardID           ShardID
	NamespaceID       NamespaceID
	TableID           TableID
	PartitionID       PartitionID
	ObjectStoreID     [16]byte
	MaxSequenceNumber SequenceNumber
	MinTime           Timestamp
	MaxTime           Timestamp
	RowCount          int64
	FileSizeBytes     int64
	CompactionLevel   CompactionLevel
	CreatedAt         Timestamp
	ColumnSet         []ColumnID
	ToDelete          *Timestamp
}

// ParquetFileParams carries the fields needed to persist a new ParquetFile;
// ID and ToDelete are assigned by the catalog.
type ParquetFileParams struct {
	ShardID           ShardID
	NamespaceID       NamespaceID
	TableID           TableID
	PartitionID       PartitionID
	ObjectStoreID     [16]byte
	MaxSequenceNumber SequenceNumber
	MinTime           Timestamp
	MaxTime           Timestamp
	RowCount          int64
	FileSizeBytes     int64
	CompactionLevel   CompactionLevel
	CreatedAt         Timestamp
	ColumnSet         []ColumnID
}

// ProcessedTombstone links a ParquetFile to a Tombstone whose deletions it
// has already incorporated at write time.
type ProcessedTombstone struct {
	ParquetFileID ParquetFileID
	TombstoneID   TombstoneID
}

// SkippedCompaction records that a partition was deliberately excluded from
// compaction candidate selection, and why.
type SkippedCompaction struct {
	PartitionID PartitionID
	Reason      string
	SkippedAt   Timestamp
}

// ColumnUpsertRequest is one element of a create_or_get_many batch.
type ColumnUpsertRequest struct {
	Name       string
	TableID    TableID
	ColumnType ColumnType
}

// NewObjectStoreID generates the random identifier callers persisting a new
// parquet file use as ParquetFileParams.ObjectStoreID. The catalog never
// generates one itself: it only enforces uniqueness on whatever the caller
// supplies.
func NewObjectStoreID() [16]byte {
	return uuid.New()
}
