package testdb

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"

	tcpg "github.com/mpapenbr/swimprotocol/testsupport/tcpostgres"
)

// InitTestDb returns a pool on an empty, migrated database.
// Without TESTDB_URL a postgres container is used, the test is skipped
// if no container runtime is available.
func InitTestDb(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	var (
		pool *pgxpool.Pool
		err  error
	)
	if os.Getenv("TESTDB_URL") != "" {
		pool, err = tcpg.SetupExternalTestDb(ctx)
	} else {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		pool, err = tcpg.SetupTestDb(ctx)
	}
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	if err := tcpg.ClearAllTables(ctx, pool); err != nil {
		t.Fatal(err)
	}
	return pool
}
