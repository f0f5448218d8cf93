package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultLoginStateTTL = 10 * time.Minute

// LoginStateRecord tracks one pending browser authorization round trip.
type LoginStateRecord struct {
	State        string
	RedirectURI  string
	CodeVerifier string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type LoginStateStore interface {
	Save(ctx context.Context, record LoginStateRecord) error
	Consume(ctx context.Context, state string) (LoginStateRecord, error)
}

// MemoryLoginStateStore keeps pending states in process memory. States are
// single use.
type MemoryLoginStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]LoginStateRecord
}

func NewMemoryLoginStateStore(ttl time.Duration) *MemoryLoginStateStore {
	if ttl <= 0 {
		ttl = defaultLoginStateTTL
	}
	return &MemoryLoginStateStore{
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		entries: map[string]LoginStateRecord{},
	}
}

func (s *MemoryLoginStateStore) Save(_ context.Context, record LoginStateRecord) error {
	if s == nil {
		return fmt.Errorf("core: login state store is not configured")
	}
	state := strings.TrimSpace(record.State)
	if state == "" {
		return fmt.Errorf("core: login state is required")
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = record.CreatedAt.Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[state] = record
	s.mu.Unlock()
	return nil
}

func (s *MemoryLoginStateStore) Consume(_ context.Context, state string) (LoginStateRecord, error) {
	if s == nil {
		return LoginStateRecord{}, fmt.Errorf("core: login state store is not configured")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return LoginStateRecord{}, fmt.Errorf("core: login state is required")
	}

	s.mu.Lock()
	record, ok := s.entries[state]
	if ok {
		delete(s.entries, state)
	}
	s.mu.Unlock()

	if !ok {
		return LoginStateRecord{}, fmt.Errorf("core: login state mismatch")
	}
	if !record.ExpiresAt.IsZero() && s.now().After(record.ExpiresAt) {
		return LoginStateRecord{}, fmt.Errorf("core: login state expired")
	}
	return record, nil
}

// Pending reports how many states are waiting for a callback.
func (s *MemoryLoginStateStore) Pending() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset drops every pending state.
func (s *MemoryLoginStateStore) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.entries = map[string]LoginStateRecord{}
	s.mu.Unlock()
}

func GenerateLoginState() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate login state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
