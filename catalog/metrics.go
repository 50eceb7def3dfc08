package catalog

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricDecorator wraps a RepoCollection (or Transaction) and records a
// Prometheus counter per (repository, method, outcome) triple, forwarding
// per-operation counters into a registry rather than computing metrics
// inline in the storage code.
type MetricDecorator struct {
	inner RepoCollection
	calls *prometheus.CounterVec
}

// NewMetricDecorator registers its counter vector against reg and returns a
// RepoCollection that counts every call made through it.
func NewMetricDecorator(inner RepoCollection, reg prometheus.Registerer) (*MetricDecorator, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronodb_catalog_calls_total",
		Help: "Count of catalog repository method calls by repository, method and outcome.",
	}, []string{"repo", "method", "outcome"})
	if err := reg.Register(calls); err != nil {
		return nil, err
	}
	return &MetricDecorator{inner: inner, calls: calls}, nil
}

func observe0(calls *prometheus.CounterVec, repo, method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	calls.WithLabelValues(repo, method, outcome).Inc()
}

// observe1 records a call returning a single value plus error, and returns
// both unchanged so it composes directly into a one-line method body.
func observe1[T any](calls *prometheus.CounterVec, repo, method string, v T, err error) (T, error) {
	observe0(calls, repo, method, err)
	return v, err
}

func (d *MetricDecorator) Topics() TopicRepo {
	return &instrumentedTopicRepo{inner: d.inner.Topics(), calls: d.calls}
}
func (d *MetricDecorator) QueryPools() QueryPoolRepo {
	return &instrumentedQueryPoolRepo{inner: d.inner.QueryPools(), calls: d.calls}
}
func (d *MetricDecorator) Namespaces() NamespaceRepo {
	return &instrumentedNamespaceRepo{inner: d.inner.Namespaces(), calls: d.calls}
}
func (d *MetricDecorator) Tables() TableRepo {
	return &instrumentedTableRepo{inner: d.inner.Tables(), calls: d.calls}
}
func (d *MetricDecorator) Columns() ColumnRepo {
	return &instrumentedColumnRepo{inner: d.inner.Columns(), calls: d.calls}
}
func (d *MetricDecorator) Shards() ShardRepo {
	return &instrumentedShardRepo{inner: d.inner.Shards(), calls: d.calls}
}
func (d *MetricDecorator) Partitions() PartitionRepo {
	return &instrumentedPartitionRepo{inner: d.inner.Partitions(), calls: d.calls}
}
func (d *MetricDecorator) Tombstones() TombstoneRepo {
	return &instrumentedTombstoneRepo{inner: d.inner.Tombstones(), calls: d.calls}
}
func (d *MetricDecorator) ParquetFiles() ParquetFileRepo {
	return &instrumentedParquetFileRepo{inner: d.inner.ParquetFiles(), calls: d.calls}
}
func (d *MetricDecorator) ProcessedTombstones() ProcessedTombstoneRepo {
	return &instrumentedProcessedTombstoneRepo{inner: d.inner.ProcessedTombstones(), calls: d.calls}
}

const (
	repoTopics              = "topics"
	repoQueryPools          = "query_pools"
	repoNamespaces          = "namespaces"
	repoTables              = "tables"
	repoColumns             = "columns"
	repoShards              = "shards"
	repoPartitions          = "partitions"
	repoTombstones          = "tombstones"
	repoParquetFiles        = "parquet_files"
	repoProcessedTombstones = "processed_tombstones"
)

type instrumentedTopicRepo struct {
	inner TopicRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedTopicRepo) CreateOrGet(ctx context.Context, name string) (Topic, error) {
	v, err := r.inner.CreateOrGet(ctx, name)
	return observe1(r.calls, repoTopics, "create_or_get", v, err)
}

func (r *instrumentedTopicRepo) GetByName(ctx context.Context, name string) (*Topic, error) {
	v, err := r.inner.GetByName(ctx, name)
	return observe1(r.calls, repoTopics, "get_by_name", v, err)
}

type instrumentedQueryPoolRepo struct {
	inner QueryPoolRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedQueryPoolRepo) CreateOrGet(ctx context.Context, name string) (QueryPool, error) {
	v, err := r.inner.CreateOrGet(ctx, name)
	return observe1(r.calls, repoQueryPools, "create_or_get", v, err)
}

type instrumentedNamespaceRepo struct {
	inner NamespaceRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedNamespaceRepo) Create(ctx context.Context, name, retentionDuration string, topicID TopicID, queryPoolID QueryPoolID) (Namespace, error) {
	v, err := r.inner.Create(ctx, name, retentionDuration, topicID, queryPoolID)
	return observe1(r.calls, repoNamespaces, "create", v, err)
}
func (r *instrumentedNamespaceRepo) List(ctx context.Context) ([]Namespace, error) {
	v, err := r.inner.List(ctx)
	return observe1(r.calls, repoNamespaces, "list", v, err)
}
func (r *instrumentedNamespaceRepo) GetByID(ctx context.Context, id NamespaceID) (*Namespace, error) {
	v, err := r.inner.GetByID(ctx, id)
	return observe1(r.calls, repoNamespaces, "get_by_id", v, err)
}
func (r *instrumentedNamespaceRepo) GetByName(ctx context.Context, name string) (*Namespace, error) {
	v, err := r.inner.GetByName(ctx, name)
	return observe1(r.calls, repoNamespaces, "get_by_name", v, err)
}
func (r *instrumentedNamespaceRepo) UpdateTableLimit(ctx context.Context, name string, newMax int32) (Namespace, error) {
	v, err := r.inner.UpdateTableLimit(ctx, name, newMax)
	return observe1(r.calls, repoNamespaces, "update_table_limit", v, err)
}
func (r *instrumentedNamespaceRepo) UpdateColumnLimit(ctx context.Context, name string, newMax int32) (Namespace, error) {
	v, err := r.inner.UpdateColumnLimit(ctx, name, newMax)
	return observe1(r.calls, repoNamespaces, "update_column_limit", v, err)
}

type instrumentedTableRepo struct {
	inner TableRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedTableRepo) CreateOrGet(ctx context.Context, name string, namespaceID NamespaceID) (Table, error) {
	v, err := r.inner.CreateOrGet(ctx, name, namespaceID)
	return observe1(r.calls, repoTables, "create_or_get", v, err)
}
func (r *instrumentedTableRepo) GetByID(ctx context.Context, id TableID) (*Table, error) {
	v, err := r.inner.GetByID(ctx, id)
	return observe1(r.calls, repoTables, "get_by_id", v, err)
}
func (r *instrumentedTableRepo) GetByNamespaceAndName(ctx context.Context, namespaceID NamespaceID, name string) (*Table, error) {
	v, err := r.inner.GetByNamespaceAndName(ctx, namespaceID, name)
	return observe1(r.calls, repoTables, "get_by_namespace_and_name", v, err)
}
func (r *instrumentedTableRepo) ListByNamespaceID(ctx context.Context, namespaceID NamespaceID) ([]Table, error) {
	v, err := r.inner.ListByNamespaceID(ctx, namespaceID)
	return observe1(r.calls, repoTables, "list_by_namespace_id", v, err)
}
func (r *instrumentedTableRepo) List(ctx context.Context) ([]Table, error) {
	v, err := r.inner.List(ctx)
	return observe1(r.calls, repoTables, "list", v, err)
}
func (r *instrumentedTableRepo) GetTablePersistInfo(ctx context.Context, shardID ShardID, namespaceID NamespaceID, tableName string) (*TablePersistInfo, error) {
	v, err := r.inner.GetTablePersistInfo(ctx, shardID, namespaceID, tableName)
	return observe1(r.calls, repoTables, "get_table_persist_info", v, err)
}

type instrumentedColumnRepo struct {
	inner ColumnRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedColumnRepo) CreateOrGet(ctx context.Context, name string, tableID TableID, columnType ColumnType) (Column, error) {
	v, err := r.inner.CreateOrGet(ctx, name, tableID, columnType)
	return observe1(r.calls, repoColumns, "create_or_get", v, err)
}
func (r *instrumentedColumnRepo) CreateOrGetMany(ctx context.Context, reqs []ColumnUpsertRequest) ([]Column, error) {
	v, err := r.inner.CreateOrGetMany(ctx, reqs)
	return observe1(r.calls, repoColumns, "create_or_get_many", v, err)
}
func (r *instrumentedColumnRepo) ListByNamespaceID(ctx context.Context, namespaceID NamespaceID) ([]Column, error) {
	v, err := r.inner.ListByNamespaceID(ctx, namespaceID)
	return observe1(r.calls, repoColumns, "list_by_namespace_id", v, err)
}
func (r *instrumentedColumnRepo) ListByTableID(ctx context.Context, tableID TableID) ([]Column, error) {
	v, err := r.inner.ListByTableID(ctx, tableID)
	return observe1(r.calls, repoColumns, "list_by_table_id", v, err)
}
func (r *instrumentedColumnRepo) List(ctx context.Context) ([]Column, error) {
	v, err := r.inner.List(ctx)
	return observe1(r.calls, repoColumns, "list", v, err)
}
func (r *instrumentedColumnRepo) ListTypeCountByTableID(ctx context.Context, tableID TableID) ([]ColumnTypeCount, error) {
	v, err := r.inner.ListTypeCountByTableID(ctx, tableID)
	return observe1(r.calls, repoColumns, "list_type_count_by_table_id", v, err)
}

type instrumentedShardRepo struct {
	inner ShardRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedShardRepo) CreateOrGet(ctx context.Context, topic Topic, shardIndex ShardIndex) (Shard, error) {
	v, err := r.inner.CreateOrGet(ctx, topic, shardIndex)
	return observe1(r.calls, repoShards, "create_or_get", v, err)
}
func (r *instrumentedShardRepo) GetByTopicIDAndShardIndex(ctx context.Context, topicID TopicID, shardIndex ShardIndex) (*Shard, error) {
	v, err := r.inner.GetByTopicIDAndShardIndex(ctx, topicID, shardIndex)
	return observe1(r.calls, repoShards, "get_by_topic_id_and_shard_index", v, err)
}
func (r *instrumentedShardRepo) List(ctx context.Context) ([]Shard, error) {
	v, err := r.inner.List(ctx)
	return observe1(r.calls, repoShards, "list", v, err)
}
func (r *instrumentedShardRepo) ListByTopic(ctx context.Context, topic Topic) ([]Shard, error) {
	v, err := r.inner.ListByTopic(ctx, topic)
	return observe1(r.calls, repoShards, "list_by_topic", v, err)
}
func (r *instrumentedShardRepo) UpdateMinUnpersistedSequenceNumber(ctx context.Context, shardID ShardID, sequenceNumber SequenceNumber) error {
	err := r.inner.UpdateMinUnpersistedSequenceNumber(ctx, shardID, sequenceNumber)
	observe0(r.calls, repoShards, "update_min_unpersisted_sequence_number", err)
	return err
}

type instrumentedPartitionRepo struct {
	inner PartitionRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedPartitionRepo) CreateOrGet(ctx context.Context, key PartitionKey, shardID ShardID, tableID TableID) (Partition, error) {
	v, err := r.inner.CreateOrGet(ctx, key, shardID, tableID)
	return observe1(r.calls, repoPartitions, "create_or_get", v, err)
}
func (r *instrumentedPartitionRepo) GetByID(ctx context.Context, id PartitionID) (*Partition, error) {
	v, err := r.inner.GetByID(ctx, id)
	return observe1(r.calls, repoPartitions, "get_by_id", v, err)
}
func (r *instrumentedPartitionRepo) ListByShard(ctx context.Context, shardID ShardID) ([]Partition, error) {
	v, err := r.inner.ListByShard(ctx, shardID)
	return observe1(r.calls, repoPartitions, "list_by_shard", v, err)
}
func (r *instrumentedPartitionRepo) ListByNamespace(ctx context.Context, namespaceID NamespaceID) ([]Partition, error) {
	v, err := r.inner.ListByNamespace(ctx, namespaceID)
	return observe1(r.calls, repoPartitions, "list_by_namespace", v, err)
}
func (r *instrumentedPartitionRepo) ListByTableID(ctx context.Context, tableID TableID) ([]Partition, error) {
	v, err := r.inner.ListByTableID(ctx, tableID)
	return observe1(r.calls, repoPartitions, "list_by_table_id", v, err)
}
func (r *instrumentedPartitionRepo) PartitionInfoByID(ctx context.Context, id PartitionID) (*PartitionInfo, error) {
	v, err := r.inner.PartitionInfoByID(ctx, id)
	return observe1(r.calls, repoPartitions, "partition_info_by_id", v, err)
}
func (r *instrumentedPartitionRepo) UpdateSortKey(ctx context.Context, id PartitionID, sortKey []string) (Partition, error) {
	v, err := r.inner.UpdateSortKey(ctx, id, sortKey)
	return observe1(r.calls, repoPartitions, "update_sort_key", v, err)
}
func (r *instrumentedPartitionRepo) UpdatePersistedSequenceNumber(ctx context.Context, id PartitionID, sequenceNumber SequenceNumber) error {
	err := r.inner.UpdatePersistedSequenceNumber(ctx, id, sequenceNumber)
	observe0(r.calls, repoPartitions, "update_persisted_sequence_number", err)
	return err
}
func (r *instrumentedPartitionRepo) RecordSkippedCompaction(ctx context.Context, id PartitionID, reason string) error {
	err := r.inner.RecordSkippedCompaction(ctx, id, reason)
	observe0(r.calls, repoPartitions, "record_skipped_compaction", err)
	return err
}
func (r *instrumentedPartitionRepo) ListSkippedCompactions(ctx context.Context) ([]SkippedCompaction, error) {
	v, err := r.inner.ListSkippedCompactions(ctx)
	return observe1(r.calls, repoPartitions, "list_skipped_compactions", v, err)
}

type instrumentedTombstoneRepo struct {
	inner TombstoneRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedTombstoneRepo) CreateOrGet(ctx context.Context, tableID TableID, shardID ShardID, sequenceNumber SequenceNumber, minTime, maxTime Timestamp, predicate string) (Tombstone, error) {
	v, err := r.inner.CreateOrGet(ctx, tableID, shardID, sequenceNumber, minTime, maxTime, predicate)
	return observe1(r.calls, repoTombstones, "create_or_get", v, err)
}
func (r *instrumentedTombstoneRepo) ListByNamespace(ctx context.Context, namespaceID NamespaceID) ([]Tombstone, error) {
	v, err := r.inner.ListByNamespace(ctx, namespaceID)
	return observe1(r.calls, repoTombstones, "list_by_namespace", v, err)
}
func (r *instrumentedTombstoneRepo) ListByTable(ctx context.Context, tableID TableID) ([]Tombstone, error) {
	v, err := r.inner.ListByTable(ctx, tableID)
	return observe1(r.calls, repoTombstones, "list_by_table", v, err)
}
func (r *instrumentedTombstoneRepo) GetByID(ctx context.Context, id TombstoneID) (*Tombstone, error) {
	v, err := r.inner.GetByID(ctx, id)
	return observe1(r.calls, repoTombstones, "get_by_id", v, err)
}
func (r *instrumentedTombstoneRepo) ListTombstonesByShardGreaterThan(ctx context.Context, shardID ShardID, sequenceNumber SequenceNumber) ([]Tombstone, error) {
	v, err := r.inner.ListTombstonesByShardGreaterThan(ctx, shardID, sequenceNumber)
	return observe1(r.calls, repoTombstones, "list_tombstones_by_shard_greater_than", v, err)
}
func (r *instrumentedTombstoneRepo) Remove(ctx context.Context, ids []TombstoneID) error {
	err := r.inner.Remove(ctx, ids)
	observe0(r.calls, repoTombstones, "remove", err)
	return err
}
func (r *instrumentedTombstoneRepo) ListTombstonesForTimeRange(ctx context.Context, shardID ShardID, tableID TableID, afterSequenceNumber SequenceNumber, minTime, maxTime Timestamp) ([]Tombstone, error) {
	v, err := r.inner.ListTombstonesForTimeRange(ctx, shardID, tableID, afterSequenceNumber, minTime, maxTime)
	return observe1(r.calls, repoTombstones, "list_tombstones_for_time_range", v, err)
}

type instrumentedParquetFileRepo struct {
	inner ParquetFileRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedParquetFileRepo) Create(ctx context.Context, params ParquetFileParams) (ParquetFile, error) {
	v, err := r.inner.Create(ctx, params)
	return observe1(r.calls, repoParquetFiles, "create", v, err)
}
func (r *instrumentedParquetFileRepo) FlagForDelete(ctx context.Context, id ParquetFileID) error {
	err := r.inner.FlagForDelete(ctx, id)
	observe0(r.calls, repoParquetFiles, "flag_for_delete", err)
	return err
}
func (r *instrumentedParquetFileRepo) ListByShardGreaterThan(ctx context.Context, shardID ShardID, sequenceNumber SequenceNumber) ([]ParquetFile, error) {
	v, err := r.inner.ListByShardGreaterThan(ctx, shardID, sequenceNumber)
	return observe1(r.calls, repoParquetFiles, "list_by_shard_greater_than", v, err)
}
func (r *instrumentedParquetFileRepo) ListByNamespaceNotToDelete(ctx context.Context, namespaceID NamespaceID) ([]ParquetFile, error) {
	v, err := r.inner.ListByNamespaceNotToDelete(ctx, namespaceID)
	return observe1(r.calls, repoParquetFiles, "list_by_namespace_not_to_delete", v, err)
}
func (r *instrumentedParquetFileRepo) ListByTableNotToDelete(ctx context.Context, tableID TableID) ([]ParquetFile, error) {
	v, err := r.inner.ListByTableNotToDelete(ctx, tableID)
	return observe1(r.calls, repoParquetFiles, "list_by_table_not_to_delete", v, err)
}
func (r *instrumentedParquetFileRepo) ListByPartitionNotToDelete(ctx context.Context, partitionID PartitionID) ([]ParquetFile, error) {
	v, err := r.inner.ListByPartitionNotToDelete(ctx, partitionID)
	return observe1(r.calls, repoParquetFiles, "list_by_partition_not_to_delete", v, err)
}
func (r *instrumentedParquetFileRepo) DeleteOld(ctx context.Context, olderThan Timestamp) ([]ParquetFile, error) {
	v, err := r.inner.DeleteOld(ctx, olderThan)
	return observe1(r.calls, repoParquetFiles, "delete_old", v, err)
}
func (r *instrumentedParquetFileRepo) Level0(ctx context.Context, shardID ShardID) ([]ParquetFile, error) {
	v, err := r.inner.Level0(ctx, shardID)
	return observe1(r.calls, repoParquetFiles, "level_0", v, err)
}
func (r *instrumentedParquetFileRepo) Level1(ctx context.Context, tablePartition TablePartition, minTime, maxTime Timestamp) ([]ParquetFile, error) {
	v, err := r.inner.Level1(ctx, tablePartition, minTime, maxTime)
	return observe1(r.calls, repoParquetFiles, "level_1", v, err)
}
func (r *instrumentedParquetFileRepo) RecentHighestThroughputPartitions(ctx context.Context, shardID ShardID, timeInThePast Timestamp, minNumFiles, numPartitions int) ([]PartitionParam, error) {
	v, err := r.inner.RecentHighestThroughputPartitions(ctx, shardID, timeInThePast, minNumFiles, numPartitions)
	return observe1(r.calls, repoParquetFiles, "recent_highest_throughput_partitions", v, err)
}
func (r *instrumentedParquetFileRepo) MostColdFilesPartitions(ctx context.Context, shardID ShardID, timeInThePast Timestamp, numPartitions int) ([]PartitionParam, error) {
	v, err := r.inner.MostColdFilesPartitions(ctx, shardID, timeInThePast, numPartitions)
	return observe1(r.calls, repoParquetFiles, "most_cold_files_partitions", v, err)
}
func (r *instrumentedParquetFileRepo) UpdateCompactionLevel(ctx context.Context, ids []ParquetFileID, level CompactionLevel) ([]ParquetFileID, error) {
	v, err := r.inner.UpdateCompactionLevel(ctx, ids, level)
	return observe1(r.calls, repoParquetFiles, "update_compaction_level", v, err)
}
func (r *instrumentedParquetFileRepo) Exist(ctx context.Context, id ParquetFileID) (bool, error) {
	v, err := r.inner.Exist(ctx, id)
	return observe1(r.calls, repoParquetFiles, "exist", v, err)
}
func (r *instrumentedParquetFileRepo) Count(ctx context.Context) (int64, error) {
	v, err := r.inner.Count(ctx)
	return observe1(r.calls, repoParquetFiles, "count", v, err)
}
func (r *instrumentedParquetFileRepo) CountByOverlapsWithLevel0(ctx context.Context, tableID TableID, shardID ShardID, minTime, maxTime Timestamp, sequenceNumber SequenceNumber) (int64, error) {
	v, err := r.inner.CountByOverlapsWithLevel0(ctx, tableID, shardID, minTime, maxTime, sequenceNumber)
	return observe1(r.calls, repoParquetFiles, "count_by_overlaps_with_level_0", v, err)
}
func (r *instrumentedParquetFileRepo) CountByOverlapsWithLevel1(ctx context.Context, tableID TableID, shardID ShardID, minTime, maxTime Timestamp) (int64, error) {
	v, err := r.inner.CountByOverlapsWithLevel1(ctx, tableID, shardID, minTime, maxTime)
	return observe1(r.calls, repoParquetFiles, "count_by_overlaps_with_level_1", v, err)
}
func (r *instrumentedParquetFileRepo) GetByObjectStoreID(ctx context.Context, objectStoreID [16]byte) (*ParquetFile, error) {
	v, err := r.inner.GetByObjectStoreID(ctx, objectStoreID)
	return observe1(r.calls, repoParquetFiles, "get_by_object_store_id", v, err)
}

type instrumentedProcessedTombstoneRepo struct {
	inner ProcessedTombstoneRepo
	calls *prometheus.CounterVec
}

func (r *instrumentedProcessedTombstoneRepo) Create(ctx context.Context, parquetFileID ParquetFileID, tombstoneID TombstoneID) (ProcessedTombstone, error) {
	v, err := r.inner.Create(ctx, parquetFileID, tombstoneID)
	return observe1(r.calls, repoProcessedTombstones, "create", v, err)
}
func (r *instrumentedProcessedTombstoneRepo) Exist(ctx context.Context, parquetFileID ParquetFileID, tombstoneID TombstoneID) (bool, error) {
	v, err := r.inner.Exist(ctx, parquetFileID, tombstoneID)
	return observe1(r.calls, repoProcessedTombstones, "exist", v, err)
}
func (r *instrumentedProcessedTombstoneRepo) Count(ctx context.Context) (int64, error) {
	v, err := r.inner.Count(ctx)
	return observe1(r.calls, repoProcessedTombstones, "count", v, err)
}
func (r *instrumentedProcessedTombstoneRepo) CountByTombstoneID(ctx context.Context, tombstoneID TombstoneID) (int64, error) {
	v, err := r.inner.CountByTombstoneID(ctx, tombstoneID)
	return observe1(r.calls, repoProcessedTombstones, "count_by_tombstone_id", v, err)
}
