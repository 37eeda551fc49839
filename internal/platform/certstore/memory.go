package certstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore backs tests and local development without a database.
type memoryStore struct {
	mu   sync.Mutex
	cert *Certificate
}

func NewMemoryStore() Store { return &memoryStore{} }

func (s *memoryStore) Get(ctx context.Context) (*Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cert == nil {
		return nil, nil
	}
	c := *s.cert
	return &c, nil
}

func (s *memoryStore) Save(ctx context.Context, cert *Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cert.ID = uuid.New()
	now := time.Now()
	cert.CreatedAt = now
	cert.UpdatedAt = now
	c := *cert
	s.cert = &c
	return nil
}

func (s *memoryStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cert = nil
	return nil
}
