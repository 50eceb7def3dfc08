package mem

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

type namespaceRepo struct{ *repos }

func (r *namespaceRepo) Create(ctx context.Context, name, retentionDuration string, topicID catalog.TopicID, queryPoolID catalog.QueryPoolID) (catalog.Namespace, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for _, n := range c.namespaces {
		if n.Name == name {
			return catalog.Namespace{}, &catalog.NameExistsError{Name: name}
		}
	}
	c.nextNamespaceID++
	n := catalog.Namespace{
		ID:                 catalog.NamespaceID(c.nextNamespaceID),
		Name:               name,
		TopicID:            topicID,
		QueryPoolID:        queryPoolID,
		RetentionDuration:  retentionDuration,
		MaxTables:          catalog.DefaultMaxTables,
		MaxColumnsPerTable: catalog.DefaultMaxColumnsPerTable,
	}
	c.namespaces = append(c.namespaces, n)
	return n, nil
}

func (r *namespaceRepo) List(ctx context.Context) ([]catalog.Namespace, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	return append([]catalog.Namespace(nil), r.col().namespaces...), nil
}

func (r *namespaceRepo) GetByID(ctx context.Context, id catalog.NamespaceID) (*catalog.Namespace, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, n := range r.col().namespaces {
		if n.ID == id {
			n := n
			return &n, nil
		}
	}
	return nil, nil
}

func (r *namespaceRepo) GetByName(ctx context.Context, name string) (*catalog.Namespace, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, n := range r.col().namespaces {
		if n.Name == name {
			n := n
			return &n, nil
		}
	}
	return nil, nil
}

func (r *namespaceRepo) UpdateTableLimit(ctx context.Context, name string, newMax int32) (catalog.Namespace, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for i, n := range c.namespaces {
		if n.Name == name {
			c.namespaces[i].MaxTables = newMax
			return c.namespaces[i], nil
		}
	}
	return catalog.Namespace{}, &catalog.NamespaceNotFoundByNameError{Name: name}
}

func (r *namespaceRepo) UpdateColumnLimit(ctx context.Context, name string, newMax int32) (catalog.Namespace, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for i, n := range c.namespaces {
		if n.Name == name {
			c.namespaces[i].MaxColumnsPerTable = newMax
			return c.namespaces[i], nil
		}
	}
	return catalog.Namespace{}, &catalog.NamespaceNotFoundByNameError{Name: name}
}
