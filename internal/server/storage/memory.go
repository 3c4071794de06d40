package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scanvault/scanvault/internal/common"
)

// MemoryStore is an in-memory ObjectStore used by tests and local runs.
// Presigned URLs are fake but carry a fresh random signature token per mint,
// so every minted URL is distinct the way a real presigned URL is.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[Area]map[string]struct{}

	// FailWith, when set, makes every operation return this error. Lets
	// tests simulate an unavailable backend.
	FailWith error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: map[Area]map[string]struct{}{
			AreaQuarantine: {},
			AreaPermanent:  {},
		},
	}
}

// Put records an object as present. Test helper standing in for the actual
// client upload against a presigned URL.
func (m *MemoryStore) Put(area Area, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[area][key] = struct{}{}
}

func (m *MemoryStore) PresignPut(ctx context.Context, area Area, key string, ttl time.Duration) (string, error) {
	return m.presign(area, key, "put", ttl)
}

func (m *MemoryStore) PresignGet(ctx context.Context, area Area, key string, ttl time.Duration) (string, error) {
	return m.presign(area, key, "get", ttl)
}

func (m *MemoryStore) presign(area Area, key, verb string, ttl time.Duration) (string, error) {
	if m.FailWith != nil {
		return "", m.FailWith
	}
	sig, err := common.MakeRandHexString(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://storage.local/%s/%s?verb=%s&ttl=%s&sig=%s", area, key, verb, ttl, sig), nil
}

func (m *MemoryStore) Exists(ctx context.Context, area Area, key string) (bool, error) {
	if m.FailWith != nil {
		return false, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[area][key]
	return ok, nil
}

func (m *MemoryStore) Move(ctx context.Context, key string, from, to Area) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[from][key]; !ok {
		return common.ErrorNotFound
	}
	delete(m.objects[from], key)
	m.objects[to][key] = struct{}{}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, area Area, key string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects[area], key)
	return nil
}
