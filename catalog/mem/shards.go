package mem

import (
	"context"

	"github.com/chronodb/chronodb/catalog"
)

type shardRepo struct{ *repos }

func (r *shardRepo) CreateOrGet(ctx context.Context, topic catalog.Topic, shardIndex catalog.ShardIndex) (catalog.Shard, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for _, s := range c.shards {
		if s.TopicID == topic.ID && s.ShardIndex == shardIndex {
			return s, nil
		}
	}
	c.nextShardID++
	s := catalog.Shard{ID: catalog.ShardID(c.nextShardID), TopicID: topic.ID, ShardIndex: shardIndex}
	c.shards = append(c.shards, s)
	return s, nil
}

func (r *shardRepo) GetByTopicIDAndShardIndex(ctx context.Context, topicID catalog.TopicID, shardIndex catalog.ShardIndex) (*catalog.Shard, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	for _, s := range r.col().shards {
		if s.TopicID == topicID && s.ShardIndex == shardIndex {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (r *shardRepo) List(ctx context.Context) ([]catalog.Shard, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	return append([]catalog.Shard(nil), r.col().shards...), nil
}

func (r *shardRepo) ListByTopic(ctx context.Context, topic catalog.Topic) ([]catalog.Shard, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	var out []catalog.Shard
	for _, s := range r.col().shards {
		if s.TopicID == topic.ID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *shardRepo) UpdateMinUnpersistedSequenceNumber(ctx context.Context, shardID catalog.ShardID, sequenceNumber catalog.SequenceNumber) error {
	r.locker.Lock()
	defer r.locker.Unlock()
	c := r.col()
	for i, s := range c.shards {
		if s.ID == shardID {
			c.shards[i].MinUnpersistedSequenceNumber = sequenceNumber
			return nil
		}
	}
	return nil
}
