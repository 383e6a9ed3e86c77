// Package mocks provides test doubles for the platform's collaborators.
package mocks

import (
	"context"
	"sync"

	"github.com/autorent/autorent-platform/pkg/storage"
)

// KVStore is an in-memory storage.Store with injectable failures.
type KVStore struct {
	mu   sync.Mutex
	data map[string]string

	GetErr    error
	SetErr    error
	RemoveErr error

	GetCalls    int
	SetCalls    int
	RemoveCalls int
}

var _ storage.Store = (*KVStore)(nil)

// NewKVStore creates an empty mock store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string]string)}
}

// Get returns the stored value or GetErr when set.
func (m *KVStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.GetErr != nil {
		return "", m.GetErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}
	return val, nil
}

// Set stores value unless SetErr is set.
func (m *KVStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = value
	return nil
}

// Remove deletes key unless RemoveErr is set.
func (m *KVStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RemoveCalls++
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.data, key)
	return nil
}

// Seed stores a value directly, bypassing failures and counters.
func (m *KVStore) Seed(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Value returns the raw stored value.
func (m *KVStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok
}

// FailAll makes every operation return err.
func (m *KVStore) FailAll(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetErr, m.SetErr, m.RemoveErr = err, err, err
}

// Sets returns the number of Set calls seen.
func (m *KVStore) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SetCalls
}
