package mem

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

type tombstoneRepo struct{ *repos }

func (r *tombstoneRepo) CreateOrGet(ctx context.Context, tableID catalog.TableID, shardID catalog.ShardID, sequenceNumber catalog.SequenceNumber, minTime, maxTime catalog.Timestamp, predicate string) (catalog.Tombstone, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for _, t := range c.tombstones {
		if t.TableID == tableID && t.ShardID == shardID && t.SequenceNumber == sequenceNumber {
			return t, nil
		}
	}
	c.nextTombstoneID++
	t := catalog.Tombstone{
		ID:                  catalog.TombstoneID(c.nextTombstoneID),
		TableID:             tableID,
		ShardID:             shardID,
		SequenceNumber:      sequenceNumber,
		MinTime:             minTime,
		MaxTime:             maxTime,
		SerializedPredicate: predicate,
	}
	c.tombstones = append(c.tombstones, t)
	return t, nil
}

func (r *tombstoneRepo) ListByNamespace(ctx context.Context, namespaceID catalog.NamespaceID) ([]catalog.Tombstone, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	tableIDs := map[catalog.TableID]bool{}
	for _, t := range c.tables {
		if t.NamespaceID == namespaceID {
			tableIDs[t.ID] = true
		}
	}
	var out []catalog.Tombstone
	for _, t := range c.tombstones {
		if tableIDs[t.TableID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *tombstoneRepo) ListByTable(ctx context.Context, tableID catalog.TableID) ([]catalog.Tombstone, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.Tombstone
	for _, t := range r.col().tombstones {
		if t.TableID == tableID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *tombstoneRepo) GetByID(ctx context.Context, id catalog.TombstoneID) (*catalog.Tombstone, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, t := range r.col().tombstones {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (r *tombstoneRepo) ListTombstonesByShardGreaterThan(ctx context.Context, shardID catalog.ShardID, sequenceNumber catalog.SequenceNumber) ([]catalog.Tombstone, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.Tombstone
	for _, t := range r.col().tombstones {
		if t.ShardID == shardID && t.SequenceNumber > sequenceNumber {
			out = append(out, t)
		}
	}
	return out, nil
}

// Remove deletes the given tombstones, cascading through ProcessedTombstone
// records that reference them first so no dangling reference survives.
func (r *tombstoneRepo) Remove(ctx context.Context, ids []catalog.TombstoneID) error {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()

	idSet := map[catalog.TombstoneID]bool{}
	for _, id := range ids {
		idSet[id] = true
	}

	kept := c.processedTombstones[:0:0]
	for _, pt := range c.processedTombstones {
		if !idSet[pt.TombstoneID] {
			kept = append(kept, pt)
		}
	}
	c.processedTombstones = kept

	keptTombstones := c.tombstones[:0:0]
	for _, t := range c.tombstones {
		if !idSet[t.ID] {
			keptTombstones = append(keptTombstones, t)
		}
	}
	c.tombstones = keptTombstones
	return nil
}

// ListTombstonesForTimeRange returns tombstones on (shard, table) newer than
// afterSequenceNumber whose [MinTime, MaxTime] overlaps [minTime, maxTime]
// under the asymmetric overlap predicate:
//
//	(t.min_time <= q.min_time <= t.max_time) OR (q.min_time < t.min_time <= q.max_time)
func (r *tombstoneRepo) ListTombstonesForTimeRange(ctx context.Context, shardID catalog.ShardID, tableID catalog.TableID, afterSequenceNumber catalog.SequenceNumber, minTime, maxTime catalog.Timestamp) ([]catalog.Tombstone, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.Tombstone
	for _, t := range r.col().tombstones {
		if t.ShardID != shardID || t.TableID != tableID || t.SequenceNumber <= afterSequenceNumber {
			continue
		}
		overlaps := (t.MinTime <= minTime && minTime <= t.MaxTime) ||
			(minTime < t.MinTime && t.MinTime <= maxTime)
		if overlaps {
			out = append(out, t)
		}
	}
	return out, nil
}
