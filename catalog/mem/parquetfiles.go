package mem

import (
	"context"
	"math"
	"sort"

	"github.com/chronodb/chronodb/catalog"
)

type parquetFileRepo struct{ *repos }

func (r *parquetFileRepo) Create(ctx context.Context, params catalog.ParquetFileParams) (catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for _, f := range c.parquetFiles {
		if f.ObjectStoreID == params.ObjectStoreID {
			return catalog.ParquetFile{}, &catalog.FileExistsError{ObjectStoreID: params.ObjectStoreID}
		}
	}
	c.nextParquetFileID++
	f := catalog.ParquetFile{
		ID:                catalog.ParquetFileID(c.nextParquetFileID),
		ShardID:           params.ShardID,
		NamespaceID:       params.NamespaceID,
		TableID:           params.TableID,
		PartitionID:       params.PartitionID,
		ObjectStoreID:     params.ObjectStoreID,
		MaxSequenceNumber: params.MaxSequenceNumber,
		MinTime:           params.MinTime,
		MaxTime:           params.MaxTime,
		RowCount:          params.RowCount,
		FileSizeBytes:     params.FileSizeBytes,
		CompactionLevel:   params.CompactionLevel,
		CreatedAt:         params.CreatedAt,
		ColumnSet:         append([]catalog.ColumnID(nil), params.ColumnSet...),
	}
	c.parquetFiles = append(c.parquetFiles, f)
	return f, nil
}

func (r *parquetFileRepo) FlagForDelete(ctx context.Context, id catalog.ParquetFileID) error {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for i, f := range c.parquetFiles {
		if f.ID == id {
			now := catalog.NewTimestamp(timeNow())
			c.parquetFiles[i].ToDelete = &now
			return nil
		}
	}
	return &catalog.ParquetRecordNotFoundError{ID: id}
}

func (r *parquetFileRepo) ListByShardGreaterThan(ctx context.Context, shardID catalog.ShardID, sequenceNumber catalog.SequenceNumber) ([]catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.ParquetFile
	for _, f := range r.col().parquetFiles {
		if f.ShardID == shardID && f.MaxSequenceNumber > sequenceNumber {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *parquetFileRepo) ListByNamespaceNotToDelete(ctx context.Context, namespaceID catalog.NamespaceID) ([]catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.ParquetFile
	for _, f := range r.col().parquetFiles {
		if f.NamespaceID == namespaceID && f.ToDelete == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *parquetFileRepo) ListByTableNotToDelete(ctx context.Context, tableID catalog.TableID) ([]catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.ParquetFile
	for _, f := range r.col().parquetFiles {
		if f.TableID == tableID && f.ToDelete == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *parquetFileRepo) ListByPartitionNotToDelete(ctx context.Context, partitionID catalog.PartitionID) ([]catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.ParquetFile
	for _, f := range r.col().parquetFiles {
		if f.PartitionID == partitionID && f.ToDelete == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

// DeleteOld removes (and returns) every file flagged for delete strictly
// before olderThan, so the caller can reclaim the underlying object store
// bytes after the catalog record is gone.
func (r *parquetFileRepo) DeleteOld(ctx context.Context, olderThan catalog.Timestamp) ([]catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	var removed []catalog.ParquetFile
	kept := c.parquetFiles[:0:0]
	for _, f := range c.parquetFiles {
		if f.ToDelete != nil && *f.ToDelete < olderThan {
			removed = append(removed, f)
			continue
		}
		kept = append(kept, f)
	}
	c.parquetFiles = kept
	return removed, nil
}

func (r *parquetFileRepo) Level0(ctx context.Context, shardID catalog.ShardID) ([]catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.ParquetFile
	for _, f := range r.col().parquetFiles {
		if f.ShardID == shardID && f.CompactionLevel == catalog.CompactionLevelInitial && f.ToDelete == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *parquetFileRepo) Level1(ctx context.Context, tablePartition catalog.TablePartition, minTime, maxTime catalog.Timestamp) ([]catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.ParquetFile
	for _, f := range r.col().parquetFiles {
		if f.ShardID != tablePartition.ShardID || f.TableID != tablePartition.TableID || f.PartitionID != tablePartition.PartitionID {
			continue
		}
		if f.CompactionLevel != catalog.CompactionLevelFileNonOverlapped || f.ToDelete != nil {
			continue
		}
		if overlapsRange(f.MinTime, f.MaxTime, minTime, maxTime) {
			out = append(out, f)
		}
	}
	return out, nil
}

func overlapsRange(fMin, fMax, qMin, qMax catalog.Timestamp) bool {
	return fMin <= qMax && qMin <= fMax
}

// partitionCount accumulates a file count per partition while tracking
// which partition the count belongs to, for the two candidate-selection
// queries below.
type partitionCount struct {
	param catalog.PartitionParam
	count int
}

// RecentHighestThroughputPartitions selects the numPartitions partitions
// with the most level-0, non-deleted files created after timeInThePast,
// excluding partitions with fewer than minNumFiles such files and
// partitions carrying a recorded SkippedCompaction. Ties break on
// ascending PartitionID.
func (r *parquetFileRepo) RecentHighestThroughputPartitions(ctx context.Context, shardID catalog.ShardID, timeInThePast catalog.Timestamp, minNumFiles, numPartitions int) ([]catalog.PartitionParam, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()

	skipped := map[catalog.PartitionID]bool{}
	for _, s := range c.skippedCompactions {
		skipped[s.PartitionID] = true
	}

	counts := map[catalog.PartitionID]*partitionCount{}
	for _, f := range c.parquetFiles {
		if f.ShardID != shardID || f.ToDelete != nil {
			continue
		}
		if f.CompactionLevel != catalog.CompactionLevelInitial {
			continue
		}
		if f.CreatedAt <= timeInThePast {
			continue
		}
		if skipped[f.PartitionID] {
			continue
		}
		pc, ok := counts[f.PartitionID]
		if !ok {
			pc = &partitionCount{param: catalog.PartitionParam{
				PartitionID: f.PartitionID,
				ShardID:     f.ShardID,
				NamespaceID: f.NamespaceID,
				TableID:     f.TableID,
			}}
			counts[f.PartitionID] = pc
		}
		pc.count++
	}

	list := make([]*partitionCount, 0, len(counts))
	for _, pc := range counts {
		if pc.count >= minNumFiles {
			list = append(list, pc)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].param.PartitionID < list[j].param.PartitionID
	})
	if numPartitions < len(list) {
		list = list[:numPartitions]
	}

	out := make([]catalog.PartitionParam, len(list))
	for i, pc := range list {
		out[i] = pc.param
	}
	return out, nil
}

// MostColdFilesPartitions selects the numPartitions partitions with the
// most level-0-or-level-1, non-deleted files, restricted to partitions
// whose most recently created such file is older than timeInThePast (i.e.
// partitions that have gone cold), excluding skipped partitions. Ties
// break on ascending PartitionID.
func (r *parquetFileRepo) MostColdFilesPartitions(ctx context.Context, shardID catalog.ShardID, timeInThePast catalog.Timestamp, numPartitions int) ([]catalog.PartitionParam, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()

	skipped := map[catalog.PartitionID]bool{}
	for _, s := range c.skippedCompactions {
		skipped[s.PartitionID] = true
	}

	counts := map[catalog.PartitionID]*partitionCount{}
	maxCreated := map[catalog.PartitionID]catalog.Timestamp{}
	for _, f := range c.parquetFiles {
		if f.ShardID != shardID || f.ToDelete != nil {
			continue
		}
		if f.CompactionLevel != catalog.CompactionLevelInitial && f.CompactionLevel != catalog.CompactionLevelFileNonOverlapped {
			continue
		}
		if skipped[f.PartitionID] {
			continue
		}
		pc, ok := counts[f.PartitionID]
		if !ok {
			pc = &partitionCount{param: catalog.PartitionParam{
				PartitionID: f.PartitionID,
				ShardID:     f.ShardID,
				NamespaceID: f.NamespaceID,
				TableID:     f.TableID,
			}}
			counts[f.PartitionID] = pc
		}
		pc.count++
		if f.CreatedAt > maxCreated[f.PartitionID] {
			maxCreated[f.PartitionID] = f.CreatedAt
		}
	}

	list := make([]*partitionCount, 0, len(counts))
	for id, pc := range counts {
		if maxCreated[id] < timeInThePast {
			list = append(list, pc)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].param.PartitionID < list[j].param.PartitionID
	})
	if numPartitions < len(list) {
		list = list[:numPartitions]
	}

	out := make([]catalog.PartitionParam, len(list))
	for i, pc := range list {
		out[i] = pc.param
	}
	return out, nil
}

func (r *parquetFileRepo) UpdateCompactionLevel(ctx context.Context, ids []catalog.ParquetFileID, level catalog.CompactionLevel) ([]catalog.ParquetFileID, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	idSet := map[catalog.ParquetFileID]bool{}
	for _, id := range ids {
		idSet[id] = true
	}
	var updated []catalog.ParquetFileID
	for i, f := range c.parquetFiles {
		if idSet[f.ID] {
			c.parquetFiles[i].CompactionLevel = level
			updated = append(updated, f.ID)
		}
	}
	return updated, nil
}

func (r *parquetFileRepo) Exist(ctx context.Context, id catalog.ParquetFileID) (bool, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, f := range r.col().parquetFiles {
		if f.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *parquetFileRepo) Count(ctx context.Context) (int64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	n := len(r.col().parquetFiles)
	if n > math.MaxInt64 {
		return 0, &catalog.InvalidValueError{Value: n}
	}
	return int64(n), nil
}

func (r *parquetFileRepo) CountByOverlapsWithLevel0(ctx context.Context, tableID catalog.TableID, shardID catalog.ShardID, minTime, maxTime catalog.Timestamp, sequenceNumber catalog.SequenceNumber) (int64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	n := 0
	for _, f := range r.col().parquetFiles {
		if f.TableID != tableID || f.ShardID != shardID || f.ToDelete != nil {
			continue
		}
		if f.CompactionLevel != catalog.CompactionLevelInitial {
			continue
		}
		if f.MaxSequenceNumber <= sequenceNumber {
			continue
		}
		if overlapsRange(f.MinTime, f.MaxTime, minTime, maxTime) {
			n++
		}
	}
	return int64(n), nil
}

func (r *parquetFileRepo) CountByOverlapsWithLevel1(ctx context.Context, tableID catalog.TableID, shardID catalog.ShardID, minTime, maxTime catalog.Timestamp) (int64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	n := 0
	for _, f := range r.col().parquetFiles {
		if f.TableID != tableID || f.ShardID != shardID || f.ToDelete != nil {
			continue
		}
		if f.CompactionLevel != catalog.CompactionLevelFileNonOverlapped {
			continue
		}
		if overlapsRange(f.MinTime, f.MaxTime, minTime, maxTime) {
			n++
		}
	}
	return int64(n), nil
}

func (r *parquetFileRepo) GetByObjectStoreID(ctx context.Context, objectStoreID [16]byte) (*catalog.ParquetFile, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, f := range r.col().parquetFiles {
		if f.ObjectStoreID == objectStoreID {
			f := f
			return &f, nil
		}
	}
	return nil, nil
}
