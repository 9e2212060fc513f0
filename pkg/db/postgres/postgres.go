package postgres

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/swimprotocol/log"
)

type PoolConfigOption func(cfg *pgxpool.Config)

func WithTracer(tracer pgx.QueryTracer) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = tracer
	}
}

// NewOtlpTracer creates query spans on the global tracer provider
func NewOtlpTracer() pgx.QueryTracer {
	return otelpgx.NewTracer()
}

// NewLogTracer logs every statement at debug level
func NewLogTracer(l *log.Logger) pgx.QueryTracer {
	return &logTracer{l: l}
}

// InitWithURL creates a pool and verifies the connection
//
//nolint:whitespace // editor/linter issue
func InitWithURL(
	ctx context.Context,
	url string,
	opts ...PoolConfigOption,
) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	for _, opt := range opts {
		opt(dbConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create the database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to get a valid database connection: %w", err)
	}
	return pool, nil
}

type logTracer struct {
	l *log.Logger
}

//nolint:whitespace // can't make the linters happy
func (t *logTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	t.l.Debug("Executing", log.String("sql", data.SQL), log.Int("args", len(data.Args)))
	return ctx
}

//nolint:whitespace // can't make the linters happy
func (t *logTracer) TraceQueryEnd(
	ctx context.Context,
	conn *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	if data.Err != nil {
		t.l.Debug("query failed", log.ErrorField(data.Err))
	}
}
