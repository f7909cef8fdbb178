package currency

import (
	"context"
	"sync"
)

// PreferenceStore persists an explicit currency choice per browsing session.
type PreferenceStore interface {
	Get(ctx context.Context, sessionID string) (string, bool, error)
	Set(ctx context.Context, sessionID, code string) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryPreferences is a PreferenceStore backed by a map.
type MemoryPreferences struct {
	mu    sync.RWMutex
	codes map[string]string
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{codes: make(map[string]string)}
}

func (p *MemoryPreferences) Get(_ context.Context, sessionID string) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	code, ok := p.codes[sessionID]
	return code, ok, nil
}

func (p *MemoryPreferences) Set(_ context.Context, sessionID, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes[sessionID] = code
	return nil
}

func (p *MemoryPreferences) Clear(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.codes, sessionID)
	return nil
}
