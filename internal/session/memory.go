package session

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

var errNoStorage = fmt.Errorf("%w: storage unavailable", shared.ErrNoSession)

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string]string
	writes  int
	savedAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Write(_ context.Context, token string, user models.User) error {
	values, err := encode(token, user)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.values, values)
	m.writes++
	m.savedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) Read(_ context.Context) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decode(m.values)
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.values)
	m.savedAt = time.Time{}
	return nil
}

// SavedAt returns when the session was last written.
func (m *MemoryStore) SavedAt(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.savedAt, nil
}

// Writes reports how many successful writes the store has seen.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Unavailable is the [Store] used when no persistent storage can be opened.
//
// Reads behave as an empty store and writes are dropped without error.
type Unavailable struct{}

func (Unavailable) Write(context.Context, string, models.User) error { return nil }

func (Unavailable) Read(context.Context) (*models.Session, error) { return nil, errNoStorage }

func (Unavailable) Clear(context.Context) error { return nil }
