// Package tcpostgres runs a migrated postgres database for tests
package tcpostgres

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/swimprotocol/pkg/db/migrate"
	database "github.com/mpapenbr/swimprotocol/pkg/db/postgres"
)

const (
	containerName = "swimprotocol-test"
	dbUser        = "postgres"
	dbPassword    = "password"
	dbName        = "postgres"
)

// StartContainer starts (or reuses) the shared test database container and
// returns its connection url
func StartContainer(ctx context.Context) (string, error) {
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		return "", err
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Name:         containerName,
				Image:        "postgres:17-alpine",
				Cmd:          []string{"postgres", "-c", "fsync=off"},
				ExposedPorts: []string{string(port)},
				Env: map[string]string{
					"POSTGRES_USER":     dbUser,
					"POSTGRES_PASSWORD": dbPassword,
					"POSTGRES_DB":       dbName,
				},
				// the server restarts once after the init scripts
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(time.Minute),
			},
			Started: true,
			Reuse:   true,
		})
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		dbUser, dbPassword, host, mapped.Port(), dbName), nil
}

// SetupTestDb creates a pool on the migrated container database
func SetupTestDb(ctx context.Context) (*pgxpool.Pool, error) {
	dbURL, err := StartContainer(ctx)
	if err != nil {
		return nil, err
	}
	return setupPool(ctx, dbURL)
}

// SetupExternalTestDb uses the database referenced by TESTDB_URL
func SetupExternalTestDb(ctx context.Context) (*pgxpool.Pool, error) {
	return setupPool(ctx, os.Getenv("TESTDB_URL"))
}

func setupPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	if err := migrate.MigrateDb(dbURL); err != nil {
		return nil, fmt.Errorf("migrate test database: %w", err)
	}
	return database.InitWithURL(ctx, dbURL)
}

func ClearSavedProtocolTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, "delete from saved_protocol")
	return err
}

func ClearAllTables(ctx context.Context, pool *pgxpool.Pool) error {
	return ClearSavedProtocolTable(ctx, pool)
}
