// Package memory provides a process local storage backend
package memory

import (
	"context"
	"sync"

	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/pkg/storage/factory"
)

type backend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ storage.Backend = (*backend)(nil)

//nolint:ireturn // by factory contract
func New() storage.Backend {
	return &backend{blobs: map[string][]byte{}}
}

func (b *backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *backend) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (b *backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, key)
	return nil
}

func (b *backend) Keys(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ret := make([]string, 0, len(b.blobs))
	for k := range b.blobs {
		ret = append(ret, k)
	}
	return ret, nil
}

func (b *backend) Close() error {
	return nil
}

const StoreTypeMemory factory.StoreType = "memory"

func init() {
	factory.Register(StoreTypeMemory, func(context.Context, []struct{}) (storage.Backend, error) {
		return New(), nil
	})
}
