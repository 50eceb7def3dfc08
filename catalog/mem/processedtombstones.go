package mem

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

type processedTombstoneRepo struct{ *repos }

func (r *processedTombstoneRepo) Create(ctx context.Context, parquetFileID catalog.ParquetFileID, tombstoneID catalog.TombstoneID) (catalog.ProcessedTombstone, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()

	fileFound := false
	for _, f := range c.parquetFiles {
		if f.ID == parquetFileID {
			fileFound = true
			break
		}
	}
	if !fileFound {
		return catalog.ProcessedTombstone{}, &catalog.FileNotFoundError{ID: parquetFileID}
	}

	tombstoneFound := false
	for _, t := range c.tombstones {
		if t.ID == tombstoneID {
			tombstoneFound = true
			break
		}
	}
	if !tombstoneFound {
		return catalog.ProcessedTombstone{}, &catalog.TombstoneNotFoundError{ID: tombstoneID}
	}

	for _, pt := range c.processedTombstones {
		if pt.ParquetFileID == parquetFileID && pt.TombstoneID == tombstoneID {
			return catalog.ProcessedTombstone{}, &catalog.ProcessTombstoneExistsError{ParquetFileID: parquetFileID, TombstoneID: tombstoneID}
		}
	}

	pt := catalog.ProcessedTombstone{ParquetFileID: parquetFileID, TombstoneID: tombstoneID}
	c.processedTombstones = append(c.processedTombstones, pt)
	return pt, nil
}

func (r *processedTombstoneRepo) Exist(ctx context.Context, parquetFileID catalog.ParquetFileID, tombstoneID catalog.TombstoneID) (bool, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, pt := range r.col().processedTombstones {
		if pt.ParquetFileID == parquetFileID && pt.TombstoneID == tombstoneID {
			return true, nil
		}
	}
	return false, nil
}

func (r *processedTombstoneRepo) Count(ctx context.Context) (int64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	return int64(len(r.col().processedTombstones)), nil
}

func (r *processedTombstoneRepo) CountByTombstoneID(ctx context.Context, tombstoneID catalog.TombstoneID) (int64, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	n := int64(0)
	for _, pt := range r.col().processedTombstones {
		if pt.TombstoneID == tombstoneID {
			n++
		}
	}
	return n, nil
}
