package mem

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

type columnRepo struct{ *repos }

func (r *columnRepo) CreateOrGet(ctx context.Context, name string, tableID catalog.TableID, columnType catalog.ColumnType) (catalog.Column, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.createOrGetLocked(name, tableID, columnType)
}

// createOrGetLocked assumes the caller already holds r.locker.
func (r *columnRepo) createOrGetLocked(name string, tableID catalog.TableID, columnType catalog.ColumnType) (catalog.Column, error) {
	c := r.col()

	for _, col := range c.columns {
		if col.TableID == tableID && col.Name == name {
			if col.ColumnType != columnType {
				return catalog.Column{}, &catalog.ColumnTypeMismatchError{Name: name, Existing: col.ColumnType, New: columnType}
			}
			return col, nil
		}
	}

	var table *catalog.Table
	for i := range c.tables {
		if c.tables[i].ID == tableID {
			table = &c.tables[i]
			break
		}
	}
	if table != nil {
		var ns *catalog.Namespace
		for i := range c.namespaces {
			if c.namespaces[i].ID == table.NamespaceID {
				ns = &c.namespaces[i]
				break
			}
		}
		if ns != nil {
			count := 0
			for _, col := range c.columns {
				if col.TableID == tableID {
					count++
				}
			}
			if int32(count) >= ns.MaxColumnsPerTable {
				return catalog.Column{}, &catalog.ColumnCreateLimitError{ColumnName: name, TableID: tableID}
			}
		}
	}

	c.nextColumnID++
	col := catalog.Column{ID: catalog.ColumnID(c.nextColumnID), TableID: tableID, Name: name, ColumnType: columnType}
	c.columns = append(c.columns, col)
	return col, nil
}

// CreateOrGetMany upserts a batch sequentially, matching the mem catalog's
// original one-at-a-time semantics: a later request in the batch for the
// same (table, name) with a conflicting type still fails with
// ColumnTypeMismatchError after earlier requests in the same batch have
// already taken effect.
func (r *columnRepo) CreateOrGetMany(ctx context.Context, reqs []catalog.ColumnUpsertRequest) ([]catalog.Column, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	out := make([]catalog.Column, 0, len(reqs))
	for _, req := range reqs {
		col, err := r.createOrGetLocked(req.Name, req.TableID, req.ColumnType)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

func (r *columnRepo) ListByNamespaceID(ctx context.Context, namespaceID catalog.NamespaceID) ([]catalog.Column, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	tableIDs := map[catalog.TableID]bool{}
	for _, t := range c.tables {
		if t.NamespaceID == namespaceID {
			tableIDs[t.ID] = true
		}
	}
	var out []catalog.Column
	for _, col := range c.columns {
		if tableIDs[col.TableID] {
			out = append(out, col)
		}
	}
	return out, nil
}

func (r *columnRepo) ListByTableID(ctx context.Context, tableID catalog.TableID) ([]catalog.Column, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.Column
	for _, col := range r.col().columns {
		if col.TableID == tableID {
			out = append(out, col)
		}
	}
	return out, nil
}

func (r *columnRepo) List(ctx context.Context) ([]catalog.Column, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	return append([]catalog.Column(nil), r.col().columns...), nil
}

func (r *columnRepo) ListTypeCountByTableID(ctx context.Context, tableID catalog.TableID) ([]catalog.ColumnTypeCount, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	counts := map[catalog.ColumnType]int{}
	for _, col := range r.col().columns {
		if col.TableID == tableID {
			counts[col.ColumnType]++
		}
	}
	out := make([]catalog.ColumnTypeCount, 0, len(counts))
	for ct, n := range counts {
		out = append(out, catalog.ColumnTypeCount{ColumnType: ct, Count: n})
	}
	return out, nil
}
