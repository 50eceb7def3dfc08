package mem

import (
	"sync"

	"github.com/chronodb/chronodb/catalog"
)

// repos is the shared backing for every per-entity repository: it resolves
// to either a transaction's staged clone or the catalog's live state, and
// every method below takes repos.locker before touching repos.col.
type repos struct {
	src    colSource
	locker sync.Locker
}

func (r *repos) col() *collections {
	return r.src.get()
}

func (r *repos) Topics() catalog.TopicRepo                           { return &topicRepo{r} }
func (r *repos) QueryPools() catalog.QueryPoolRepo                   { return &queryPoolRepo{r} }
func (r *repos) Namespaces() catalog.NamespaceRepo                   { return &namespaceRepo{r} }
func (r *repos) Tables() catalog.TableRepo                           { return &tableRepo{r} }
func (r *repos) Columns() catalog.ColumnRepo                         { return &columnRepo{r} }
func (r *repos) Shards() catalog.ShardRepo                           { return &shardRepo{r} }
func (r *repos) Partitions() catalog.PartitionRepo                   { return &partitionRepo{r} }
func (r *repos) Tombstones() catalog.TombstoneRepo                   { return &tombstoneRepo{r} }
func (r *repos) ParquetFiles() catalog.ParquetFileRepo               { return &parquetFileRepo{r} }
func (r *repos) ProcessedTombstones() catalog.ProcessedTombstoneRepo { return &processedTombstoneRepo{r} }
