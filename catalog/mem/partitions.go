package mem

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

type partitionRepo struct{ *repos }

func (r *partitionRepo) CreateOrGet(ctx context.Context, key catalog.PartitionKey, shardID catalog.ShardID, tableID catalog.TableID) (catalog.Partition, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for _, p := range c.partitions {
		if p.ShardID == shardID && p.TableID == tableID && p.PartitionKey == key {
			return p, nil
		}
	}
	c.nextPartitionID++
	p := catalog.Partition{ID: catalog.PartitionID(c.nextPartitionID), ShardID: shardID, TableID: tableID, PartitionKey: key}
	c.partitions = append(c.partitions, p)
	return p, nil
}

func (r *partitionRepo) GetByID(ctx context.Context, id catalog.PartitionID) (*catalog.Partition, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, p := range r.col().partitions {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *partitionRepo) ListByShard(ctx context.Context, shardID catalog.ShardID) ([]catalog.Partition, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.Partition
	for _, p := range r.col().partitions {
		if p.ShardID == shardID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *partitionRepo) ListByNamespace(ctx context.Context, namespaceID catalog.NamespaceID) ([]catalog.Partition, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	tableIDs := map[catalog.TableID]bool{}
	for _, t := range c.tables {
		if t.NamespaceID == namespaceID {
			tableIDs[t.ID] = true
		}
	}
	var out []catalog.Partition
	for _, p := range c.partitions {
		if tableIDs[p.TableID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *partitionRepo) ListByTableID(ctx context.Context, tableID catalog.TableID) ([]catalog.Partition, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.Partition
	for _, p := range r.col().partitions {
		if p.TableID == tableID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *partitionRepo) PartitionInfoByID(ctx context.Context, id catalog.PartitionID) (*catalog.PartitionInfo, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	var part *catalog.Partition
	for i := range c.partitions {
		if c.partitions[i].ID == id {
			part = &c.partitions[i]
			break
		}
	}
	if part == nil {
		return nil, nil
	}
	var table *catalog.Table
	for i := range c.tables {
		if c.tables[i].ID == part.TableID {
			table = &c.tables[i]
			break
		}
	}
	info := &catalog.PartitionInfo{Partition: *part}
	if table != nil {
		info.TableName = table.Name
		for _, ns := range c.namespaces {
			if ns.ID == table.NamespaceID {
				info.NamespaceName = ns.Name
				break
			}
		}
	}
	return info, nil
}

func (r *partitionRepo) UpdateSortKey(ctx context.Context, id catalog.PartitionID, sortKey []string) (catalog.Partition, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for i, p := range c.partitions {
		if p.ID == id {
			c.partitions[i].SortKey = sortKey
			return c.partitions[i], nil
		}
	}
	return catalog.Partition{}, &catalog.PartitionNotFoundError{ID: id}
}

func (r *partitionRepo) UpdatePersistedSequenceNumber(ctx context.Context, id catalog.PartitionID, sequenceNumber catalog.SequenceNumber) error {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for i, p := range c.partitions {
		if p.ID == id {
			c.partitions[i].PersistedSequenceNumber = &sequenceNumber
			return nil
		}
	}
	return &catalog.PartitionNotFoundError{ID: id}
}

// RecordSkippedCompaction upserts: a later call for the same partition
// replaces the prior reason and timestamp rather than accumulating rows.
func (r *partitionRepo) RecordSkippedCompaction(ctx context.Context, id catalog.PartitionID, reason string) error {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	now := catalog.NewTimestamp(timeNow())
	for i, s := range c.skippedCompactions {
		if s.PartitionID == id {
			c.skippedCompactions[i].Reason = reason
			c.skippedCompactions[i].SkippedAt = now
			return nil
		}
	}
	c.skippedCompactions = append(c.skippedCompactions, catalog.SkippedCompaction{
		PartitionID: id,
		Reason:      reason,
		SkippedAt:   now,
	})
	return nil
}

func (r *partitionRepo) ListSkippedCompactions(ctx context.Context) ([]catalog.SkippedCompaction, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	return append([]catalog.SkippedCompaction(nil), r.col().skippedCompactions...), nil
}
