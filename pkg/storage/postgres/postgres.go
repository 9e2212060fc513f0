// Package postgres stores saved protocols in the saved_protocol table.
//
// The schema is managed by pkg/db/migrate.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/swimprotocol/log"
	database "github.com/mpapenbr/swimprotocol/pkg/db/postgres"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/pkg/storage/factory"
)

//nolint:lll // ok for interface
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var (
	_ Querier = (*pgx.Conn)(nil)
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = pgx.Tx(nil)
)

const StoreTypePostgres factory.StoreType = "postgres"

var ErrMissingURL = errors.New("database url is required")

type (
	Option  func(*backend)
	backend struct {
		conn     Querier
		url      string
		poolOpts []database.PoolConfigOption
		l        *log.Logger
		onClose  func()
	}
)

var _ storage.Backend = (*backend)(nil)

func WithLogger(l *log.Logger) Option {
	return func(b *backend) {
		b.l = l
	}
}

// WithURL is used by Open
func WithURL(url string) Option {
	return func(b *backend) {
		b.url = url
	}
}

func WithPoolOptions(opts ...database.PoolConfigOption) Option {
	return func(b *backend) {
		b.poolOpts = append(b.poolOpts, opts...)
	}
}

// New uses conn, which stays owned by the caller
//
//nolint:ireturn // by factory contract
func New(conn Querier, opts ...Option) storage.Backend {
	b := newBackend(opts)
	b.conn = conn
	return b
}

// Open creates a pool for the url given by WithURL, Close releases it
//
//nolint:ireturn // by factory contract
func Open(ctx context.Context, opts ...Option) (storage.Backend, error) {
	b := newBackend(opts)
	if b.url == "" {
		return nil, ErrMissingURL
	}
	pool, err := database.InitWithURL(ctx, b.url, b.poolOpts...)
	if err != nil {
		return nil, err
	}
	b.conn = pool
	b.onClose = pool.Close
	return b, nil
}

func newBackend(opts []Option) *backend {
	b := &backend{
		l: log.Default().Named("storage.postgres"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *backend) Get(ctx context.Context, key string) ([]byte, error) {
	row := b.conn.QueryRow(ctx, `
	select data from saved_protocol where competition_id=$1
	`, key)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *backend) Put(ctx context.Context, key string, data []byte) error {
	cmdTag, err := b.conn.Exec(ctx, `
	insert into saved_protocol (competition_id, data, saved_at)
	values ($1, $2, now())
	on conflict (competition_id) do update
	set data=excluded.data, saved_at=excluded.saved_at
	`, key, string(data))
	if err != nil {
		return err
	}
	b.l.Debug("stored", log.String("key", key), log.Int64("rows", cmdTag.RowsAffected()))
	return nil
}

func (b *backend) Delete(ctx context.Context, key string) error {
	_, err := b.conn.Exec(ctx, "delete from saved_protocol where competition_id=$1", key)
	return err
}

func (b *backend) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.conn.Query(ctx, `
	select competition_id from saved_protocol order by competition_id
	`)
	if err != nil {
		return nil, err
	}
	ret, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if ret == nil {
		ret = []string{}
	}
	return ret, nil
}

func (b *backend) Close() error {
	if b.onClose != nil {
		b.onClose()
	}
	return nil
}

func init() {
	factory.Register(StoreTypePostgres, func(ctx context.Context, opts []Option) (storage.Backend, error) {
		return Open(ctx, opts...)
	})
}
