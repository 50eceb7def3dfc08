package compaction

import (
	"testing"

	"github.com/chronodb/chronodb/catalog"
)

func testConfig() Config {
	return Config{
		MaxDesiredFileSizeBytes: 1000,
		PercentageMaxFileSize:   80,
		SplitPercentage:         80,
		HotMultiple:             4,
		MemoryBudgetBytes:       1 << 30,
		MaxNumCompactingFiles:   20,
	}
}

func TestClassifySizeTooSmall(t *testing.T) {
	c := testConfig()
	if got := c.ClassifySize(799); got != SizeTooSmall {
		t.Fatalf("expected SizeTooSmall, got %v", got)
	}
}

func TestClassifySizeTooLarge(t *testing.T) {
	c := testConfig()
	if got := c.ClassifySize(1001); got != SizeTooLarge {
		t.Fatalf("expected SizeTooLarge, got %v", got)
	}
}

func TestClassifySizeBalanced(t *testing.T) {
	c := testConfig()
	if got := c.ClassifySize(900); got != SizeBalanced {
		t.Fatalf("expected SizeBalanced, got %v", got)
	}
}

func TestOutputFileSizesBalancedSplitsAtPercentage(t *testing.T) {
	c := testConfig()
	sizes := c.OutputFileSizes(900)
	if len(sizes) != 2 {
		t.Fatalf("expected 2 output files, got %d", len(sizes))
	}
	if sizes[0] != 720 || sizes[1] != 180 {
		t.Fatalf("expected [720, 180], got %v", sizes)
	}
}

func TestOutputFileSizesTooLargeChunksAtSplitSize(t *testing.T) {
	c := testConfig()
	sizes := c.OutputFileSizes(1700)
	total := uint64(0)
	for _, s := range sizes {
		if s > 800 {
			t.Fatalf("no chunk should exceed the split size, got %d in %v", s, sizes)
		}
		total += s
	}
	if total != 1700 {
		t.Fatalf("chunk sizes should sum to the estimated size, got %d", total)
	}
}

func TestCycleScheduleRunsHotMultipleHotCyclesPerCold(t *testing.T) {
	c := Config{HotMultiple: 3}
	got := c.CycleSchedule()
	want := []CycleKind{CycleHot, CycleHot, CycleHot, CycleCold}
	if len(got) != len(want) {
		t.Fatalf("expected %d cycles, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cycle %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestPackPartitionsSkipsWhenOverBudget(t *testing.T) {
	c := testConfig()
	c.MemoryBudgetBytes = 200 * 128 // room for 200 min-size rows worth of estimate

	p1 := catalog.PartitionParam{PartitionID: 1}
	p2 := catalog.PartitionParam{PartitionID: 2}

	filesByPartition := map[catalog.PartitionID][]catalog.ParquetFile{
		1: {{ID: 1, RowCount: 100}},
		2: {{ID: 2, RowCount: 1000}},
	}

	plans := c.PackPartitions([]catalog.PartitionParam{p1, p2}, filesByPartition, func(rowCount int64) uint64 {
		return uint64(rowCount) * 128
	})

	if len(plans) != 2 {
		t.Fatalf("expected a plan per candidate including skipped ones, got %d", len(plans))
	}
	if plans[0].Skipped {
		t.Fatalf("expected the first, cheaper partition to fit in budget")
	}
	if !plans[1].Skipped {
		t.Fatalf("expected the second partition to be skipped once the budget is exhausted")
	}
}

func TestPackPartitionsCapsFilesAtMaxNumCompactingFiles(t *testing.T) {
	c := testConfig()
	c.MaxNumCompactingFiles = 2

	files := []catalog.ParquetFile{{ID: 1, RowCount: 1}, {ID: 2, RowCount: 1}, {ID: 3, RowCount: 1}}
	plans := c.PackPartitions(
		[]catalog.PartitionParam{{PartitionID: 1}},
		map[catalog.PartitionID][]catalog.ParquetFile{1: files},
		func(int64) uint64 { return 1 },
	)
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	if len(plans[0].Files) != 2 {
		t.Fatalf("expected files capped at MaxNumCompactingFiles=2, got %d", len(plans[0].Files))
	}
}
