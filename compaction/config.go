// Package compaction implements the candidate-selection and sizing policy
// that decides which partitions and files get compacted, and the CLI
// configuration that parameterizes it.
package compaction

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the fields shared between CompactorConfig and
// CompactorOnceConfig; the two only differ in their hot_multiple default.
type Config struct {
	Topic                                                   string
	ShardIndexRangeStart                                    int32
	ShardIndexRangeEnd                                      int32
	MaxDesiredFileSizeBytes                                 uint64
	PercentageMaxFileSize                                   uint16
	SplitPercentage                                         uint16
	MaxNumberPartitionsPerShard                             int
	MinNumberRecentIngestedFilesPerPartition                int
	HotMultiple                                             int
	MemoryBudgetBytes                                       uint64
	MinNumRowsAllocatedPerRecordBatchToDatafusionPlan       uint64
	MaxNumCompactingFiles                                   int
}

// CompactorConfig is the configuration for the long-running `compact run`
// server command; HotMultiple defaults to 4.
type CompactorConfig struct {
	Config
}

// CompactorOnceConfig is the configuration for the single-pass
// `compact run-once` command; HotMultiple defaults to 1.
type CompactorOnceConfig struct {
	Config
}

// IntoCompactorConfig performs the same lossless field-for-field
// conversion the original run-once configuration uses to reuse the
// server's compaction code path.
func (c CompactorOnceConfig) IntoCompactorConfig() CompactorConfig {
	return CompactorConfig{Config: c.Config}
}

func defaultConfig(hotMultiple int) Config {
	return Config{
		Topic:                                     "iox-shared",
		MaxDesiredFileSizeBytes:                   26214400,
		PercentageMaxFileSize:                      80,
		SplitPercentage:                            80,
		MaxNumberPartitionsPerShard:                1,
		MinNumberRecentIngestedFilesPerPartition:   1,
		HotMultiple:                                hotMultiple,
		MemoryBudgetBytes:                          32212254720,
		MinNumRowsAllocatedPerRecordBatchToDatafusionPlan: 8192,
		MaxNumCompactingFiles:                      20,
	}
}

// bindFlags registers every Config field as a pflag, with the given
// default hot-multiple, and binds each to its INFLUXDB_IOX_COMPACTION_*
// environment variable via viper — the same flag+env composition
// `cmd/run.go` uses for OPA's own runtime parameters.
func bindFlags(fs *pflag.FlagSet, v *viper.Viper, hotMultipleDefault int) *Config {
	d := defaultConfig(hotMultipleDefault)
	cfg := &d

	fs.StringVar(&cfg.Topic, "write-buffer-topic", cfg.Topic, "write buffer topic the compactor compacts files for")
	fs.Int32Var(&cfg.ShardIndexRangeStart, "shard-index-range-start", cfg.ShardIndexRangeStart, "write buffer shard index range start (inclusive)")
	fs.Int32Var(&cfg.ShardIndexRangeEnd, "shard-index-range-end", cfg.ShardIndexRangeEnd, "write buffer shard index range end (inclusive)")
	fs.Uint64Var(&cfg.MaxDesiredFileSizeBytes, "compaction-max-desired-size-bytes", cfg.MaxDesiredFileSizeBytes, "desired max size of compacted files")
	fs.Uint16Var(&cfg.PercentageMaxFileSize, "compaction-percentage-max-file-size", cfg.PercentageMaxFileSize, "percentage of max file size below which a compaction result is too small to split")
	fs.Uint16Var(&cfg.SplitPercentage, "compaction-split-percentage", cfg.SplitPercentage, "split percentage for a balanced compaction result")
	fs.IntVar(&cfg.MaxNumberPartitionsPerShard, "compaction-max-number-partitions-per-shard", cfg.MaxNumberPartitionsPerShard, "max partitions per shard compacted per cycle")
	fs.IntVar(&cfg.MinNumberRecentIngestedFilesPerPartition, "compaction-min-number-recent-ingested-files-per-partition", cfg.MinNumberRecentIngestedFilesPerPartition, "min recently ingested files for a partition to be a compaction candidate")
	fs.IntVar(&cfg.HotMultiple, "compaction-hot-multiple", cfg.HotMultiple, "ratio of hot-partition cycles to cold-partition cycles")
	fs.Uint64Var(&cfg.MemoryBudgetBytes, "compaction-memory-budget-bytes", cfg.MemoryBudgetBytes, "memory budget for estimating concurrently compactable files")
	fs.Uint64Var(&cfg.MinNumRowsAllocatedPerRecordBatchToDatafusionPlan, "compaction-min-rows-allocated-per-record-batch-to-plan", cfg.MinNumRowsAllocatedPerRecordBatchToDatafusionPlan, "minimum rows allocated per record batch fed into the query plan")
	fs.IntVar(&cfg.MaxNumCompactingFiles, "compaction-max-num-compacting-files", cfg.MaxNumCompactingFiles, "hard cap on files compacted together in one plan")

	if v != nil {
		bindEnv(v, fs, "write-buffer-topic", "INFLUXDB_IOX_WRITE_BUFFER_TOPIC")
		bindEnv(v, fs, "shard-index-range-start", "INFLUXDB_IOX_SHARD_INDEX_RANGE_START")
		bindEnv(v, fs, "shard-index-range-end", "INFLUXDB_IOX_SHARD_INDEX_RANGE_END")
		bindEnv(v, fs, "compaction-max-desired-size-bytes", "INFLUXDB_IOX_COMPACTION_MAX_DESIRED_FILE_SIZE_BYTES")
		bindEnv(v, fs, "compaction-percentage-max-file-size", "INFLUXDB_IOX_COMPACTION_PERCENTAGE_MAX_FILE_SIZE")
		bindEnv(v, fs, "compaction-split-percentage", "INFLUXDB_IOX_COMPACTION_SPLIT_PERCENTAGE")
		bindEnv(v, fs, "compaction-max-number-partitions-per-shard", "INFLUXDB_IOX_COMPACTION_MAX_NUMBER_PARTITIONS_PER_SHARD")
		bindEnv(v, fs, "compaction-min-number-recent-ingested-files-per-partition", "INFLUXDB_IOX_COMPACTION_MIN_NUMBER_RECENT_INGESTED_FILES_PER_PARTITION")
		bindEnv(v, fs, "compaction-hot-multiple", "INFLUXDB_IOX_COMPACTION_HOT_MULTIPLE")
		bindEnv(v, fs, "compaction-memory-budget-bytes", "INFLUXDB_IOX_COMPACTION_MEMORY_BUDGET_BYTES")
		bindEnv(v, fs, "compaction-min-rows-allocated-per-record-batch-to-plan", "INFLUXDB_IOX_COMPACTION_MIN_ROWS_PER_RECORD_BATCH_TO_PLAN")
		bindEnv(v, fs, "compaction-max-num-compacting-files", "INFLUXDB_IOX_COMPACTION_MAX_COMPACTING_FILES")
	}

	return cfg
}

func bindEnv(v *viper.Viper, fs *pflag.FlagSet, flag, env string) {
	_ = v.BindPFlag(flag, fs.Lookup(flag))
	_ = v.BindEnv(flag, env)
}

// NewCompactorConfig registers the `compact run` flag set, bound through v
// to its INFLUXDB_IOX_COMPACTION_* environment variables.
func NewCompactorConfig(fs *pflag.FlagSet, v *viper.Viper) *CompactorConfig {
	return &CompactorConfig{Config: *bindFlags(fs, v, 4)}
}

// NewCompactorOnceConfig registers the `compact run-once` flag set.
func NewCompactorOnceConfig(fs *pflag.FlagSet, v *viper.Viper) *CompactorOnceConfig {
	return &CompactorOnceConfig{Config: *bindFlags(fs, v, 1)}
}
