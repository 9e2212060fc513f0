// Package natskv stores saved protocols in a NATS JetStream key value bucket
package natskv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/pkg/storage/factory"
)

const (
	DefaultBucket = "swim_protocols"
	keyPrefix     = "protocol."

	StoreTypeNats factory.StoreType = "nats"
)

type (
	Option func(*config)
	config struct {
		nc       *nats.Conn
		url      string
		bucket   string
		replicas int
		l        *log.Logger
	}
	backend struct {
		nc    *nats.Conn
		owned bool
		kv    jetstream.KeyValue
		l     *log.Logger
	}
)

var _ storage.Backend = (*backend)(nil)

// WithConn uses an existing connection. The caller keeps ownership.
func WithConn(nc *nats.Conn) Option {
	return func(c *config) {
		c.nc = nc
	}
}

// WithURL connects to url. The connection is closed by Close.
func WithURL(url string) Option {
	return func(c *config) {
		c.url = url
	}
}

func WithBucket(bucket string) Option {
	return func(c *config) {
		c.bucket = bucket
	}
}

func WithReplicas(n int) Option {
	return func(c *config) {
		c.replicas = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.l = l
	}
}

// New creates the bucket if it does not exist
//
//nolint:ireturn // by factory contract
func New(ctx context.Context, opts ...Option) (storage.Backend, error) {
	cfg := &config{
		url:    nats.DefaultURL,
		bucket: DefaultBucket,
		l:      log.Default().Named("storage.natskv"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	b := &backend{nc: cfg.nc, l: cfg.l}
	if b.nc == nil {
		nc, err := nats.Connect(cfg.url)
		if err != nil {
			return nil, fmt.Errorf("connect to nats: %w", err)
		}
		b.nc = nc
		b.owned = true
	}
	b.l.Debug("Initializing NATS key value storage", log.String("bucket", cfg.bucket))
	if err := b.init(ctx, cfg); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *backend) init(ctx context.Context, cfg *config) error {
	js, err := jetstream.New(b.nc)
	if err != nil {
		return err
	}
	b.kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.bucket,
		Description: "saved swim protocols",
		Replicas:    cfg.replicas,
	})
	return err
}

func (b *backend) Get(ctx context.Context, key string) ([]byte, error) {
	kve, err := b.kv.Get(ctx, composeKey(key))
	if err != nil {
		return nil, mapError(err)
	}
	return kve.Value(), nil
}

func (b *backend) Put(ctx context.Context, key string, data []byte) error {
	rev, err := b.kv.Put(ctx, composeKey(key), data)
	if err != nil {
		return mapError(err)
	}
	b.l.Debug("stored", log.String("key", key), log.Uint("revision", uint(rev)))
	return nil
}

func (b *backend) Delete(ctx context.Context, key string) error {
	return mapError(b.kv.Delete(ctx, composeKey(key)))
}

func (b *backend) Keys(ctx context.Context) ([]string, error) {
	lister, err := b.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, err
	}
	//nolint:errcheck // channel is drained
	defer lister.Stop()
	ret := []string{}
	for k := range lister.Keys() {
		if id, ok := strings.CutPrefix(k, keyPrefix); ok {
			ret = append(ret, id)
		}
	}
	return ret, nil
}

func (b *backend) Close() error {
	if b.owned && b.nc != nil {
		b.nc.Close()
	}
	return nil
}

func composeKey(id string) string {
	return keyPrefix + id
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jetstream.ErrKeyNotFound):
		return storage.ErrNotFound
	case errors.Is(err, jetstream.ErrInvalidKey):
		return fmt.Errorf("%w: %w", storage.ErrInvalidID, err)
	default:
		return err
	}
}

func init() {
	factory.Register(StoreTypeNats, func(ctx context.Context, opts []Option) (storage.Backend, error) {
		return New(ctx, opts...)
	})
}
