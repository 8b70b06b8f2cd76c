package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Register database postgres
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	// Register golang migrate source
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx" // register instrumented DB driver
	"go.nhat.io/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
)

//go:embed migrations/*.sql
var fs embed.FS

const (
	pgDriverName         = "nrpgx"
	columnNameCreatedAt  = "created_at"
	columnNameUpdatedAt  = "updated_at"
	DefaultMaxResultSize = 100
)

// Client is a wrapper over sqlx for the content repository database.
type Client struct {
	db *sqlx.DB
}

func (c *Client) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

func (c *Client) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return c.db.GetContext(ctx, dest, query, args...)
}

func (c *Client) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return c.db.SelectContext(ctx, dest, query, args...)
}


// Migrate applies every pending migration and returns the schema version.
func (c *Client) Migrate() (ver uint, err error) {
	m, err := c.initMigration()
	if err != nil {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	ver, _, err = m.Version()
	return ver, err
}

// MigrateDown reverts the last migration.
func (c *Client) MigrateDown() (ver uint, err error) {
	m, err := c.initMigration()
	if err != nil {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	// down one step
	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migration failed: %w", err)
	}
	ver, _, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	return ver, err
}

// ExecQueries is used for executing list of db query
func (c *Client) ExecQueries(ctx context.Context, queries []string) error {
	for _, query := range queries {
		_, err := c.db.ExecContext(ctx, query)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// NewClient initializes database connection. Queries are traced with
// OpenTelemetry and recorded as NewRelic datastore segments.
func NewClient(cfg Config) (*Client, error) {
	driverName, err := otelsql.Register(
		pgDriverName,
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
		otelsql.WithInstanceName("resources"),
	)
	if err != nil {
		return nil, fmt.Errorf("register instrumented driver: %w", err)
	}

	db, err := sqlx.Connect(driverName, cfg.ConnectionURL().String())
	if err != nil {
		return nil, fmt.Errorf("error creating and connecting DB: %w", err)
	}
	if db == nil {
		return nil, errNilDBClient
	}

	if err := otelsql.RecordStats(
		db.DB,
		otelsql.WithSystem(semconv.DBSystemPostgreSQL),
		otelsql.WithInstanceName("resources"),
	); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Client{db: sqlx.NewDb(db.DB, "pgx")}, nil
}

// NewClientWithDB wraps an open database handle.
func NewClientWithDB(db *sql.DB) *Client {
	return &Client{db: sqlx.NewDb(db, "pgx")}
}

func (c *Client) initMigration() (*migrate.Migrate, error) {
	iofsDriver, err := iofs.New(fs, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	dbDriver, err := migratepg.WithInstance(c.db.DB, &migratepg.Config{})
	if err != nil {
		return nil, fmt.Errorf("init migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", iofsDriver, "postgres", dbDriver)
}

func checkPostgresError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w [%s]", errDuplicateKey, pgErr.Detail)
		case pgerrcode.CheckViolation:
			return fmt.Errorf("%w [%s]", errCheckViolation, pgErr.Detail)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w [%s]", errForeignKeyViolation, pgErr.Detail)
		}
	}
	return err
}
