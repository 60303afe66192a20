package memory

import (
	"context"
	"sync"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
)

// KV is an in-memory persistence substrate. It is intended for tests and dev
// environments, and doubles as a fault-injection point for exercising the
// rollback paths of the services built on top of it.
type KV struct {
	mu      sync.RWMutex
	data    map[string]string
	failSet error
}

func New() *KV {
	return &KV{data: make(map[string]string)}
}

func (s *KV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *KV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.data[key] = value
	return nil
}

func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// FailWrites makes every subsequent Set return err until called with nil.
// Test-only helper; pass a *store.StorageError to simulate a classified
// substrate failure such as quota exhaustion.
func (s *KV) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = err
}

// Raw returns the stored payload for key. Test-only helper.
func (s *KV) Raw(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// QuotaError builds the classified error a full substrate would produce.
func QuotaError(err error) *store.StorageError {
	return &store.StorageError{Kind: store.KindQuotaExceeded, Op: "set", Err: err}
}
