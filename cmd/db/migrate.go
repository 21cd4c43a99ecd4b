package db

import (
	"context"
	"time"

	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/SafeMPC/flow-wallet-kit/internal/util"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Executes all PostgreSQL storage migrations",
		Long: `Executes all pending migrations of the PostgreSQL storage backend
and prints the applied migrations. Requires storage.postgres_dsn.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := command.LoadConfig(cmd)
			if err != nil {
				return err
			}

			closer := util.ConfigureLogger(cfg.Logger)
			if closer != nil {
				defer closer.Close()
			}

			return migrate(cmd.Context(), cfg.Storage.PostgresDSN)
		},
	}
}

func migrate(ctx context.Context, dsn string) error {
	if dsn == "" {
		return errors.New("storage.postgres_dsn is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, err := storage.OpenPostgreSQLStorage(ctx, dsn)
	if err != nil {
		log.Error().Err(err).Msg("Failed to migrate storage")
		return err
	}
	defer store.Close()

	records, err := storage.PostgreSQLMigrationRecords(store.DB())
	if err != nil {
		return err
	}

	for _, r := range records {
		log.Info().Str("id", r.Id).Time("applied_at", r.AppliedAt).Msg("Migration applied")
	}
	return nil
}
