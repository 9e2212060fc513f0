package migrate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/cmd/util"
	"github.com/mpapenbr/swimprotocol/pkg/config"
	"github.com/mpapenbr/swimprotocol/pkg/db/migrate"
	"github.com/mpapenbr/swimprotocol/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration for the postgres store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.Run(cmd, func(ctx context.Context, _ *util.Env) error {
				return startMigration(ctx)
			})
		},
	}
	return cmd
}

func startMigration(ctx context.Context) error {
	// wait for database
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if postgresAddr == "" {
		return fmt.Errorf("no postgres address in %q", config.DB)
	}
	if err := utils.WaitForTCP(ctx, postgresAddr, util.WaitTimeout()); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	log.Info("Applying migrations", log.String("addr", postgresAddr))
	if err := migrate.MigrateDb(config.DB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("Database schema is up to date")
	return nil
}
