package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"atlantic-photo/internal/model"
)

type memoryEntry struct {
	user      model.User
	expiresAt time.Time
}

// Memory is an in-process IdentityCache. Reads are lock-free; expired
// entries are dropped on access and by the janitor started with Run.
type Memory struct {
	entries sync.Map
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context, subject string) (model.User, bool, error) {
	key := normalizeSubject(subject)
	v, ok := m.entries.Load(key)
	if !ok {
		return model.User{}, false, nil
	}

	entry := v.(memoryEntry)
	if !m.now().Before(entry.expiresAt) {
		m.entries.CompareAndDelete(key, v)
		return model.User{}, false, nil
	}
	return entry.user, true, nil
}

func (m *Memory) Put(_ context.Context, subject string, user model.User) error {
	m.entries.Store(normalizeSubject(subject), memoryEntry{user: snapshot(user), expiresAt: m.now().Add(m.ttl)})
	return nil
}

func (m *Memory) Delete(_ context.Context, subject string) error {
	m.entries.Delete(normalizeSubject(subject))
	return nil
}

func (m *Memory) Close() error {
	m.entries.Clear()
	return nil
}

// Run sweeps expired entries every interval until ctx is cancelled.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	now := m.now()
	m.entries.Range(func(key, v any) bool {
		if !now.Before(v.(memoryEntry).expiresAt) {
			m.entries.CompareAndDelete(key, v)
		}
		return true
	})
}

func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}
