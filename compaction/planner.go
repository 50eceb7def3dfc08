package compaction

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

// SizeClass is the result of classifying an estimated compaction result
// size against a Config's size policy.
type SizeClass int

const (
	// SizeTooSmall emits a single output file.
	SizeTooSmall SizeClass = iota
	// SizeBalanced emits exactly two output files split at SplitPercentage.
	SizeBalanced
	// SizeTooLarge emits multiple output files, each sized to
	// SplitPercentage of MaxDesiredFileSizeBytes.
	SizeTooLarge
)

// ClassifySize decides how an estimated compacted result of estimatedBytes
// should be split: below percentage_max_file_size of the desired
// size is too small to bother splitting; above the desired size outright is
// too large and must be split into multiple chunks of SplitPercentage of the
// desired size; anything in between is split once at SplitPercentage.
func (c Config) ClassifySize(estimatedBytes uint64) SizeClass {
	tooSmallThreshold := uint64(c.PercentageMaxFileSize) * c.MaxDesiredFileSizeBytes / 100
	switch {
	case estimatedBytes < tooSmallThreshold:
		return SizeTooSmall
	case estimatedBytes > c.MaxDesiredFileSizeBytes:
		return SizeTooLarge
	default:
		return SizeBalanced
	}
}

// OutputFileSizes returns the sizes of the files ClassifySize's decision
// implies an estimated compaction result of estimatedBytes should be split
// into.
func (c Config) OutputFileSizes(estimatedBytes uint64) []uint64 {
	splitSize := uint64(c.SplitPercentage) * c.MaxDesiredFileSizeBytes / 100

	switch c.ClassifySize(estimatedBytes) {
	case SizeTooSmall:
		return []uint64{estimatedBytes}
	case SizeTooLarge:
		if splitSize == 0 {
			return []uint64{estimatedBytes}
		}
		var sizes []uint64
		remaining := estimatedBytes
		for remaining > splitSize {
			sizes = append(sizes, splitSize)
			remaining -= splitSize
		}
		if remaining > 0 {
			sizes = append(sizes, remaining)
		}
		return sizes
	default:
		first := estimatedBytes * uint64(c.SplitPercentage) / 100
		return []uint64{first, estimatedBytes - first}
	}
}

// CycleKind distinguishes a hot-partition compaction cycle (recently
// ingested, high-throughput partitions) from a cold one (partitions that
// have gone quiet and are candidates for final compaction).
type CycleKind int

const (
	CycleHot CycleKind = iota
	CycleCold
)

func (k CycleKind) String() string {
	if k == CycleCold {
		return "cold"
	}
	return "hot"
}

// CycleSchedule produces the ordered sequence of cycle kinds for one
// scheduling round: HotMultiple hot cycles followed by one cold cycle,
// repeating round after round.
func (c Config) CycleSchedule() []CycleKind {
	kinds := make([]CycleKind, 0, c.HotMultiple+1)
	for i := 0; i < c.HotMultiple; i++ {
		kinds = append(kinds, CycleHot)
	}
	kinds = append(kinds, CycleCold)
	return kinds
}

// FileMemoryEstimator estimates the bytes of memory required to compact a
// single file, given its row count. Compaction plans are sized against
// this estimate rather than FileSizeBytes because decompressed row data
// dominates planning memory, not the compressed on-disk size.
type FileMemoryEstimator func(rowCount int64) uint64

// DefaultFileMemoryEstimator estimates memory as a small constant factor
// over row count, bottomed out at minRowsPerBatch rows — the same
// max(row_count, min_num_rows_allocated_per_record_batch_to_datafusion_plan)
// rule the source applies before estimating a record batch's footprint.
func (c Config) DefaultFileMemoryEstimator() FileMemoryEstimator {
	const bytesPerRow = 128
	minRows := c.MinNumRowsAllocatedPerRecordBatchToDatafusionPlan
	return func(rowCount int64) uint64 {
		rows := uint64(rowCount)
		if rows < minRows {
			rows = minRows
		}
		return rows * bytesPerRow
	}
}

// Plan is the outcome of packing one partition's files within the memory
// budget: either every eligible file fits, or the partition is skipped
// with a reason recorded via catalog.PartitionRepo.RecordSkippedCompaction.
type Plan struct {
	Partition     catalog.PartitionParam
	Files         []catalog.ParquetFile
	EstimatedMemoryBytes uint64
	Skipped       bool
	SkipReason    string
}

// PackPartitions greedily assigns each candidate partition's files to a
// plan as long as the running memory estimate stays within
// MemoryBudgetBytes and the partition's file count stays within
// MaxNumCompactingFiles; a partition whose files together do not fit in the
// remaining budget is skipped whole rather than blocking every partition
// behind it.
func (c Config) PackPartitions(candidates []catalog.PartitionParam, filesByPartition map[catalog.PartitionID][]catalog.ParquetFile, estimate FileMemoryEstimator) []Plan {
	if estimate == nil {
		estimate = c.DefaultFileMemoryEstimator()
	}

	var plans []Plan
	var budgetUsed uint64

	for _, candidate := range candidates {
		files := filesByPartition[candidate.PartitionID]
		if len(files) > c.MaxNumCompactingFiles {
			files = files[:c.MaxNumCompactingFiles]
		}

		var partitionMemory uint64
		for _, f := range files {
			partitionMemory += estimate(f.RowCount)
		}

		if budgetUsed+partitionMemory > c.MemoryBudgetBytes {
			plans = append(plans, Plan{
				Partition:  candidate,
				Skipped:    true,
				SkipReason: "insufficient remaining memory budget for this compaction cycle",
			})
			continue
		}

		budgetUsed += partitionMemory
		plans = append(plans, Plan{
			Partition:            candidate,
			Files:                files,
			EstimatedMemoryBytes: partitionMemory,
		})
	}

	return plans
}

// RecordSkips persists every skipped Plan's reason against its partition,
// so the next selection round excludes it via
// ParquetFileRepo.RecentHighestThroughputPartitions /
// MostColdFilesPartitions filtering out SkippedCompaction partitions.
func RecordSkips(ctx context.Context, partitions catalog.PartitionRepo, plans []Plan) error {
	for _, p := range plans {
		if !p.Skipped {
			continue
		}
		if err := partitions.RecordSkippedCompaction(ctx, p.Partition.PartitionID, p.SkipReason); err != nil {
			return err
		}
	}
	return nil
}
