package util

import (
	"context"
	"fmt"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/client"
	"github.com/mpapenbr/swimprotocol/pkg/config"
	database "github.com/mpapenbr/swimprotocol/pkg/db/postgres"
	"github.com/mpapenbr/swimprotocol/pkg/session"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/pkg/storage/factory"
	"github.com/mpapenbr/swimprotocol/pkg/storage/file"
	"github.com/mpapenbr/swimprotocol/pkg/storage/memory"
	"github.com/mpapenbr/swimprotocol/pkg/storage/natskv"
	"github.com/mpapenbr/swimprotocol/pkg/storage/postgres"
	"github.com/mpapenbr/swimprotocol/pkg/storage/s3store"
	"github.com/mpapenbr/swimprotocol/pkg/utils"
)

// Env holds the components a command works with.
// Store and Client are created on first use.
type Env struct {
	sqlLogger *log.Logger
	telemetry *config.Telemetry
	store     storage.Store
	client    *client.Client
}

func NewEnv(ctx context.Context) *Env {
	ret := &Env{sqlLogger: SetupLogger()}
	ret.telemetry = SetupTelemetry(ctx)
	return ret
}

func (e *Env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			log.Warn("closing store", log.ErrorField(err))
		}
	}
	if e.telemetry != nil {
		e.telemetry.Shutdown()
	}
	//nolint:errcheck // stderr sync may fail on terminals
	log.Sync()
}

func (e *Env) Store(ctx context.Context) (storage.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	s, err := e.newStore(ctx)
	if err != nil {
		return nil, err
	}
	e.store = s
	return s, nil
}

func (e *Env) Client() (*client.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	opts := []client.Option{client.WithToken(config.AuthToken)}
	if d := RequestTimeout(); d > 0 {
		opts = append(opts, client.WithTimeout(d))
	}
	c, err := client.New(config.BaseURL, opts...)
	if err != nil {
		return nil, err
	}
	e.client = c
	return c, nil
}

// Session creates a session for competitionID and loads its saved state
//
//nolint:whitespace // editor/linter issue
func (e *Env) Session(
	ctx context.Context,
	competitionID string,
) (*session.Session, error) {
	s, err := e.Store(ctx)
	if err != nil {
		return nil, err
	}
	c, err := e.Client()
	if err != nil {
		return nil, err
	}
	ret := session.New(competitionID, s, c)
	ret.Open(ctx)
	return ret, nil
}

//nolint:funlen // one case per store type
func (e *Env) newStore(ctx context.Context) (storage.Store, error) {
	storeType := factory.StoreType(config.StoreType)
	log.Debug("creating store", log.String("type", config.StoreType))
	switch storeType {
	case file.StoreTypeFile:
		return factory.New(ctx, storeType, nil, []file.Option{
			file.WithDir(config.StoreDir),
			file.WithWatch(config.StoreWatch),
		})

	case memory.StoreTypeMemory:
		return factory.New[struct{}](ctx, storeType, nil, nil)

	case natskv.StoreTypeNats:
		if err := e.waitFor(ctx, utils.ExtractFromNatsURL(config.NatsURL)); err != nil {
			return nil, err
		}
		opts := []natskv.Option{natskv.WithURL(config.NatsURL)}
		if config.NatsBucket != "" {
			opts = append(opts, natskv.WithBucket(config.NatsBucket))
		}
		return factory.New(ctx, storeType, nil, opts)

	case postgres.StoreTypePostgres:
		if err := e.waitFor(ctx, utils.ExtractFromDBURL(config.DB)); err != nil {
			return nil, err
		}
		tracer := database.NewLogTracer(e.sqlLogger)
		if e.telemetry != nil {
			tracer = database.NewOtlpTracer()
		}
		return factory.New(ctx, storeType, nil, []postgres.Option{
			postgres.WithURL(config.DB),
			postgres.WithPoolOptions(database.WithTracer(tracer)),
		})

	case s3store.StoreTypeS3:
		opts := []s3store.Option{
			s3store.WithBucket(config.S3Bucket),
			s3store.WithPrefix(config.S3Prefix),
			s3store.WithEndpoint(config.S3Endpoint),
		}
		if config.S3Region != "" {
			opts = append(opts, s3store.WithRegion(config.S3Region))
		}
		if config.S3AccessKey != "" {
			opts = append(opts, s3store.WithStaticCredentials(config.S3AccessKey,
				config.S3SecretKey))
		}
		return factory.New(ctx, storeType, nil, opts)

	default:
		return nil, fmt.Errorf("%w: %q (available: %v)",
			factory.ErrStoreTypeNotSupported, config.StoreType, factory.Types())
	}
}

func (e *Env) waitFor(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	if err := utils.WaitForTCP(ctx, addr, WaitTimeout()); err != nil {
		return fmt.Errorf("required service not ready: %w", err)
	}
	return nil
}
