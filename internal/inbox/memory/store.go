package memory

import (
	"context"
	"sync"

	"github.com/ailum-crm/ailum/internal/inbox"
)

// MemoryStore mantém os buffers no processo. O runtime Go atende
// requisições em paralelo, então todo acesso passa pelo mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	cap     int
	buffers map[string][]inbox.MessageRecord
	tokens  map[string]string
}

func NewStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = inbox.DefaultCap
	}
	return &MemoryStore{
		cap:     capacity,
		buffers: make(map[string][]inbox.MessageRecord),
		tokens:  make(map[string]string),
	}
}

func (s *MemoryStore) Append(ctx context.Context, key string, rec inbox.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append([]inbox.MessageRecord{rec}, s.buffers[key]...)
	if len(buf) > s.cap {
		buf = buf[:s.cap]
	}
	s.buffers[key] = buf
	return nil
}

func (s *MemoryStore) List(ctx context.Context, key string) ([]inbox.MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.buffers[key]
	out := make([]inbox.MessageRecord, len(buf))
	copy(out, buf)
	return out, nil
}

func (s *MemoryStore) SetTokenHash(ctx context.Context, key, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = tokenHash
	return nil
}

func (s *MemoryStore) TokenHash(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[key], nil
}
