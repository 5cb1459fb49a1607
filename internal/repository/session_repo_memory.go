package repository

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memorySessionRepository struct {
	cache *expirable.LRU[string, []byte]
}

// NewMemorySessionRepository guarda hasta size sesiones en proceso.
// El TTL es el de la cache: el ttl de Put se ignora.
func NewMemorySessionRepository(size int, ttl time.Duration) SessionRepository {
	if size <= 0 {
		size = 10000
	}
	return &memorySessionRepository{
		cache: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (r *memorySessionRepository) Get(_ context.Context, id string) ([]byte, error) {
	val, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (r *memorySessionRepository) Put(_ context.Context, id string, record []byte, _ time.Duration) error {
	if id == "" {
		return nil
	}
	val := make([]byte, len(record))
	copy(val, record)
	r.cache.Add(id, val)
	return nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.cache.Remove(id)
	return nil
}
