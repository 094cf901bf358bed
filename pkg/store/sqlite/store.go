package sqlite

import (
	"context"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
	"strings"
)

const (
	// DriverCgo is mattn/go-sqlite3.
	DriverCgo = "sqlite3"
	// DriverPure is modernc.org/sqlite.
	DriverPure = "sqlite"
)

var ErrUnknownDriver = errors.New("unknown sqlite driver")

type Config struct {
	Driver      string
	Path        string
	ForeignKeys bool
}

// Store owns a single connection to a sqlite database file.
type Store struct {
	db   *sqlx.DB
	conn *sqlx.Conn
}

// Open opens the database at cfg.Path, creating the file if it does not
// exist, and takes one connection from the pool for the lifetime of the
// store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverCgo
	}
	if driver != DriverCgo && driver != DriverPure {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sqlx.Open(driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	conn, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	store := &Store{db: db, conn: conn}

	if cfg.ForeignKeys {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	return store, nil
}

func (s *Store) Close() error {
	return errors.Join(s.conn.Close(), s.db.Close())
}

// Exec runs a single statement in the engine's default mode. With sqlite
// that is autocommit unless an earlier statement opened a transaction.
func (s *Store) Exec(ctx context.Context, statement string) error {
	if _, err := s.conn.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("sqlite exec: %w", err)
	}

	return nil
}

// Commit commits a transaction left open by executed statements. It does
// nothing when the connection is in autocommit mode.
func (s *Store) Commit(ctx context.Context) error {
	open, known, err := s.inTransaction()
	if err != nil {
		return fmt.Errorf("check transaction state: %w", err)
	}
	if known && !open {
		return nil
	}

	_, err = s.conn.ExecContext(ctx, "COMMIT")
	switch {
	case err == nil:
		return nil
	case !known && isNoActiveTransaction(err):
		return nil
	default:
		return fmt.Errorf("sqlite commit: %w", err)
	}
}

type autoCommitter interface {
	AutoCommit() bool
}

// inTransaction asks the driver connection whether a transaction is open.
// known is false when the driver cannot tell (modernc.org/sqlite).
func (s *Store) inTransaction() (open bool, known bool, err error) {
	err = s.conn.Raw(func(driverConn any) error {
		if c, ok := driverConn.(autoCommitter); ok {
			open, known = !c.AutoCommit(), true
		}
		return nil
	})

	return open, known, err
}

func isNoActiveTransaction(err error) bool {
	return strings.Contains(err.Error(), "no transaction is active")
}

func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var tables []string
	err := s.conn.SelectContext(ctx, &tables, `
		select name from sqlite_master
		where type = 'table' and name not like 'sqlite_%'
		order by name
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}

	return tables, nil
}
