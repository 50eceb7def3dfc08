package mem

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

type topicRepo struct{ *repos }

func (r *topicRepo) CreateOrGet(ctx context.Context, name string) (catalog.Topic, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for _, t := range c.topics {
		if t.Name == name {
			return t, nil
		}
	}
	c.nextTopicID++
	t := catalog.Topic{ID: catalog.TopicID(c.nextTopicID), Name: name}
	c.topics = append(c.topics, t)
	return t, nil
}

func (r *topicRepo) GetByName(ctx context.Context, name string) (*catalog.Topic, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, t := range r.col().topics {
		if t.Name == name {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

type queryPoolRepo struct{ *repos }

func (r *queryPoolRepo) CreateOrGet(ctx context.Context, name string) (catalog.QueryPool, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for _, p := range c.queryPools {
		if p.Name == name {
			return p, nil
		}
	}
	c.nextQueryPoolID++
	p := catalog.QueryPool{ID: catalog.QueryPoolID(c.nextQueryPoolID), Name: name}
	c.queryPools = append(c.queryPools, p)
	return p, nil
}
