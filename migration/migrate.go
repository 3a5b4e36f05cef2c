package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"friendspark/log"
)

// EmbeddedSource selects the migrations compiled into the binary.
const EmbeddedSource = "embed://"

//go:embed sql/*.sql
var files embed.FS

var (
	connectAttempts = 10
	connectInterval = 3 * time.Second
)

// Run waits for the database at dsn to accept connections and applies
// every pending up migration from sourceURL.
func Run(ctx context.Context, dsn, sourceURL string) error {
	m, err := open(ctx, dsn, sourceURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating up: %w", err)
	}
	logVersion(ctx, m, "migrations applied")
	return nil
}

// Down rolls back steps migrations, or all of them when steps is zero.
func Down(ctx context.Context, dsn, sourceURL string, steps int) error {
	m, err := open(ctx, dsn, sourceURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating down: %w", err)
	}
	logVersion(ctx, m, "migrations rolled back")
	return nil
}

func open(ctx context.Context, dsn, sourceURL string) (*migrate.Migrate, error) {
	if err := waitForDB(ctx, dsn); err != nil {
		return nil, err
	}
	if sourceURL == "" || sourceURL == EmbeddedSource {
		src, err := iofs.New(files, "sql")
		if err != nil {
			return nil, fmt.Errorf("embedded migrations: %w", err)
		}
		m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
		if err != nil {
			return nil, fmt.Errorf("could not start migrations: %w", err)
		}
		return m, nil
	}
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not start migrations from %s: %w", sourceURL, err)
	}
	return m, nil
}

func waitForDB(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return nil
		}
		if attempt == connectAttempts {
			return fmt.Errorf("could not connect to the database after %d attempts: %w", attempt, err)
		}
		log.Warn(ctx, "waiting for the database to be ready",
			slog.Int("attempt", attempt), log.Err("err", err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectInterval):
		}
	}
}

// versioner is the part of *migrate.Migrate logVersion needs.
type versioner interface {
	Version() (version uint, dirty bool, err error)
}

func logVersion(ctx context.Context, m versioner, msg string) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info(ctx, msg, slog.String("version", "none"))
		return
	case err != nil:
		log.Warn(ctx, msg, slog.String("version", "unknown"), log.Err("err", err))
		return
	}
	log.Info(ctx, msg, slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
}
