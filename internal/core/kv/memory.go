package kv

import (
	"context"
	"fmt"
	"slices"

	"github.com/4ndr0666/4ndr0debugger-sub000/pkg/kv"
)

// Memory is an in-process KV backed by a concurrent map. Values are copied on
// the way in and out.
type Memory struct {
	data *kv.Store[string, []byte]
}

var _ KV = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: kv.New[string, []byte]()}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data.Get(key)
	if !ok {
		return nil, fmt.Errorf("kv get %q: %w", key, ErrNotFound)
	}
	return slices.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.data.Set(key, slices.Clone(value))
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	_, ok := m.data.Get(key)
	return ok, nil
}

func (m *Memory) ListKeys(_ context.Context, prefix string) ([]string, error) {
	return m.data.KeysWithPrefix(prefix), nil
}
