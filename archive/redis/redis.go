// Package redis provides a Redis backed archive.Store.
//
// Each source is stored as one hash keyed "<prefix>:<source>" whose fields
// are record identifiers.
package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/zoobzio/archetype/archive"
)

// Store implements archive.Store on a Redis client.
type Store struct {
	client goredis.Cmdable
	prefix string
}

// New creates a store over client. The client lifecycle is managed by the caller.
func New(client goredis.Cmdable, prefix string) *Store {
	if prefix == "" {
		prefix = "archetype"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(source string) string {
	return s.prefix + ":" + source
}

// Create implements archive.Store with HSETNX, so the existence check and
// the write are one command.
func (s *Store) Create(ctx context.Context, source, id string, data []byte) error {
	ok, err := s.client.HSetNX(ctx, s.key(source), id, data).Result()
	if err != nil {
		return err
	}
	if !ok {
		return archive.ErrConflict
	}
	return nil
}

// Put implements archive.Store.
func (s *Store) Put(ctx context.Context, source, id string, data []byte) error {
	return s.client.HSet(ctx, s.key(source), id, data).Err()
}

// Get implements archive.Store.
func (s *Store) Get(ctx context.Context, source, id string) ([]byte, error) {
	data, err := s.client.HGet(ctx, s.key(source), id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, archive.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete implements archive.Store.
func (s *Store) Delete(ctx context.Context, source, id string) error {
	n, err := s.client.HDel(ctx, s.key(source), id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return archive.ErrNotFound
	}
	return nil
}

// List implements archive.Store.
func (s *Store) List(ctx context.Context, source string) (map[string][]byte, error) {
	raw, err := s.client.HGetAll(ctx, s.key(source)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raw))
	for id, data := range raw {
		out[id] = []byte(data)
	}
	return out, nil
}
