package factory

import (
	"context"
	"errors"
	"sort"

	"github.com/mpapenbr/swimprotocol/pkg/storage"
)

type StoreType string

var (
	ErrStoreTypeNotSupported = errors.New("store type not supported")
	ErrStoreWrongCreator     = errors.New("store wrong creator")
)

type Creator[ImplOpt any] func(context.Context, []ImplOpt) (storage.Backend, error)

var registry = map[StoreType]any{}

// Register a new implementation generically
//
//nolint:whitespace //editor/linter issue
func Register[ImplOpt any](
	key StoreType, creator Creator[ImplOpt],
) {
	registry[key] = creator
}

// New creates the backend registered for key and wraps it into a Store
//
//nolint:whitespace //editor/linter issue
func New[ImplOpt any](
	ctx context.Context,
	key StoreType,
	common []storage.Option,
	specific []ImplOpt,
) (storage.Store, error) {
	entry, ok := registry[key]
	if !ok {
		return nil, ErrStoreTypeNotSupported
	}
	creator, ok := entry.(Creator[ImplOpt])
	if !ok {
		return nil, ErrStoreWrongCreator
	}
	backend, err := creator(ctx, specific)
	if err != nil {
		return nil, err
	}
	return storage.New(backend, common...), nil
}

// Types returns the registered store types in ascending order
func Types() []StoreType {
	ret := make([]StoreType, 0, len(registry))
	for k := range registry {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
