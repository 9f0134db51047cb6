// Package tracker remembers the last fingerprint the render boundary
// successfully regenerated, per page. The value is a cache: losing it
// only costs one redundant regeneration.
package tracker

import (
	"context"
	"sync"
)

// Tracker stores last-revalidated fingerprints.
type Tracker interface {
	// Last returns the last advanced fingerprint for key, or "" if none.
	Last(ctx context.Context, key string) (string, error)
	// Advance records fingerprint as revalidated for key.
	Advance(ctx context.Context, key, fingerprint string) error
}

// Key picks the tracker key for a revalidation target. Every page of a
// project is tracked separately; project-less paths (admin maintenance)
// are tracked by path alone.
func Key(projectID, path string) string {
	if projectID != "" {
		return "project:" + projectID + ":" + path
	}
	return "path:" + path
}

// Memory is an in-process Tracker. State is lost on restart.
type Memory struct {
	mu   sync.RWMutex
	last map[string]string
}

// NewMemory returns an empty in-memory tracker.
func NewMemory() *Memory {
	return &Memory{last: make(map[string]string)}
}

func (m *Memory) Last(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last[key], nil
}

func (m *Memory) Advance(ctx context.Context, key, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[key] = fingerprint
	return nil
}
