package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/log"
	"github.com/spf13/cobra"

	"github.com/goto/vfsearch/internal/store/postgres"
)

const (
	esMigrationTimeout = 5 * time.Second
)

func migrateCommand(cfg *Config) *cobra.Command {
	var (
		down    bool
		skipDB  bool
		skipIdx bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run storage migration",
		Long: heredoc.Doc(`
			Apply the content repository schema and create or update the
			mapping of the search index.
		`),
		Example: heredoc.Doc(`
			$ vfsearch migrate
			$ vfsearch migrate --skip-db
			$ vfsearch migrate --down
		`),
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			"group:core": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if down {
				return migrateDown(*cfg)
			}
			return runMigrations(cmd.Context(), *cfg, !skipDB, !skipIdx)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "revert the last content repository migration")
	cmd.Flags().BoolVar(&skipDB, "skip-db", false, "do not migrate the content repository")
	cmd.Flags().BoolVar(&skipIdx, "skip-index", false, "do not migrate the search index")
	return cmd
}

func runMigrations(ctx context.Context, config Config, db, index bool) error {
	fmt.Println("Preparing migration...")

	logger := initLogger(config.LogLevel)
	logger.Info("vfsearch is migrating", "version", Version)

	if db {
		logger.Info("Migrating Postgres...")
		if err := migratePostgres(logger, config); err != nil {
			return err
		}
		logger.Info("Migration Postgres done.")
	}

	if index {
		logger.Info("Migrating ES...")
		if err := migrateElasticsearch(ctx, logger, config); err != nil {
			return err
		}
		logger.Info("Migration ES done.")
	}
	return nil
}

func migratePostgres(logger log.Logger, config Config) (err error) {
	logger.Info("Initiating Postgres client...")

	pgClient, err := postgres.NewClient(config.DB)
	if err != nil {
		logger.Error("failed to prepare migration", "error", err)
		return err
	}
	defer pgClient.Close()

	ver, err := pgClient.Migrate()
	if err != nil {
		return fmt.Errorf("problem with migration %w", err)
	}
	logger.Info("content repository schema migrated", "version", ver)
	return nil
}

func migrateDown(config Config) error {
	logger := initLogger(config.LogLevel)

	pgClient, err := postgres.NewClient(config.DB)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	ver, err := pgClient.MigrateDown()
	if err != nil {
		return fmt.Errorf("problem with migration %w", err)
	}
	logger.Info("content repository schema reverted", "version", ver)
	return nil
}

func migrateElasticsearch(ctx context.Context, logger log.Logger, config Config) error {
	logger.Info("Initiating ES client...")
	esClient, err := initElasticsearch(logger, config.Elasticsearch, nil)
	if err != nil {
		return err
	}

	logger.Info("Migrating index", "index", config.Index.Name)
	ctx, cancel := context.WithTimeout(ctx, esMigrationTimeout)
	defer cancel()
	if err := esClient.Migrate(ctx, config.Index.Name); err != nil {
		return fmt.Errorf("error creating/replacing index %q: %w", config.Index.Name, err)
	}
	logger.Info("created/updated index", "index", config.Index.Name)
	return nil
}
