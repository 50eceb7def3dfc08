package mem

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

type tableRepo struct{ *repos }

func (r *tableRepo) CreateOrGet(ctx context.Context, name string, namespaceID catalog.NamespaceID) (catalog.Table, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()

	for _, t := range c.tables {
		if t.NamespaceID == namespaceID && t.Name == name {
			return t, nil
		}
	}

	var ns *catalog.Namespace
	for i := range c.namespaces {
		if c.namespaces[i].ID == namespaceID {
			ns = &c.namespaces[i]
			break
		}
	}
	if ns != nil {
		count := 0
		for _, t := range c.tables {
			if t.NamespaceID == namespaceID {
				count++
			}
		}
		if int32(count) >= ns.MaxTables {
			return catalog.Table{}, &catalog.TableCreateLimitError{TableName: name, NamespaceID: namespaceID}
		}
	}

	c.nextTableID++
	t := catalog.Table{ID: catalog.TableID(c.nextTableID), NamespaceID: namespaceID, Name: name}
	c.tables = append(c.tables, t)
	return t, nil
}

func (r *tableRepo) GetByID(ctx context.Context, id catalog.TableID) (*catalog.Table, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, t := range r.col().tables {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (r *tableRepo) GetByNamespaceAndName(ctx context.Context, namespaceID catalog.NamespaceID, name string) (*catalog.Table, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, t := range r.col().tables {
		if t.NamespaceID == namespaceID && t.Name == name {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (r *tableRepo) ListByNamespaceID(ctx context.Context, namespaceID catalog.NamespaceID) ([]catalog.Table, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.Table
	for _, t := range r.col().tables {
		if t.NamespaceID == namespaceID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *tableRepo) List(ctx context.Context) ([]catalog.Table, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	return append([]catalog.Table(nil), r.col().tables...), nil
}

// GetTablePersistInfo joins a table with the highest sequence number among
// its tombstones on the given shard, used by the write path to decide
// whether newly arriving data needs a tombstone replay.
func (r *tableRepo) GetTablePersistInfo(ctx context.Context, shardID catalog.ShardID, namespaceID catalog.NamespaceID, tableName string) (*catalog.TablePersistInfo, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()

	var table *catalog.Table
	for i := range c.tables {
		if c.tables[i].NamespaceID == namespaceID && c.tables[i].Name == tableName {
			table = &c.tables[i]
			break
		}
	}
	if table == nil {
		return nil, nil
	}

	info := &catalog.TablePersistInfo{ShardID: shardID, TableID: table.ID}
	var max *catalog.SequenceNumber
	for _, ts := range c.tombstones {
		if ts.TableID != table.ID || ts.ShardID != shardID {
			continue
		}
		if max == nil || ts.SequenceNumber > *max {
			seq := ts.SequenceNumber
			max = &seq
		}
	}
	info.TombstoneMaxSequenceNumber = max
	return info, nil
}
