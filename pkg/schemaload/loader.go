package schemaload

import (
	"codeberg.org/miketth/schemaload/pkg/statements"
	"codeberg.org/miketth/schemaload/pkg/store/sqlite"
	"context"
	"fmt"
	"go.uber.org/zap"
	"os"
)

const (
	DefaultSchemaPath   = "schema.up.sql"
	DefaultDatabasePath = "test.db"
)

// Config describes one load. Delimiter has no default: an empty one is
// rejected, callers wanting the usual behavior pass
// statements.DefaultDelimiter. DumpPath, if set, receives the resulting schema
// after a successful load.
type Config struct {
	SchemaPath   string
	DatabasePath string
	Driver       string
	Delimiter    string
	ForeignKeys  bool
	DumpPath     string
}

// Result.Applied counts every non-empty fragment that was executed, including
// fragments holding only a comment.
type Result struct {
	SchemaPath   string
	DatabasePath string
	Applied      int
}

func (c Config) withDefaults() Config {
	if c.SchemaPath == "" {
		c.SchemaPath = DefaultSchemaPath
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.Driver == "" {
		c.Driver = sqlite.DriverCgo
	}
	return c
}

// Load reads the schema file, applies its statements to the database in file
// order and commits. The schema file is read completely before the database
// is opened, so a missing schema never creates or touches the database file.
//
// There is no rollback: when a statement fails, the ones before it stay
// applied and a *StatementError is returned.
func Load(ctx context.Context, cfg Config, log *zap.SugaredLogger) (res *Result, err error) {
	cfg = cfg.withDefaults()

	stmts, err := readSchema(cfg.SchemaPath, cfg.Delimiter)
	if err != nil {
		return nil, err
	}
	log.Debugw("read schema", "path", cfg.SchemaPath, "statements", len(stmts))

	store, err := openDatabase(ctx, sqlite.Config{
		Driver:      cfg.Driver,
		Path:        cfg.DatabasePath,
		ForeignKeys: cfg.ForeignKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close database: %w", closeErr)
		}
	}()

	applied, err := Apply(ctx, store, stmts, log)
	if err != nil {
		return nil, err
	}

	if err := store.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if cfg.DumpPath != "" {
		if err := dumpSchema(ctx, store, cfg.DumpPath); err != nil {
			return nil, fmt.Errorf("dump schema: %w", err)
		}
		log.Infow("dumped schema", "path", cfg.DumpPath)
	}

	return &Result{
		SchemaPath:   cfg.SchemaPath,
		DatabasePath: cfg.DatabasePath,
		Applied:      applied,
	}, nil
}

var openDatabase = func(ctx context.Context, cfg sqlite.Config) (Database, error) {
	store, err := sqlite.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Apply executes stmts in order and stops at the first failure.
func Apply(ctx context.Context, db StatementExecutor, stmts []string, log *zap.SugaredLogger) (int, error) {
	for i, stmt := range stmts {
		log.Debugw("executing statement", "index", i+1, "statement", stmt)

		if err := db.Exec(ctx, stmt); err != nil {
			return i, &StatementError{Index: i + 1, Statement: stmt, Err: err}
		}
	}

	return len(stmts), nil
}

func readSchema(path, delimiter string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer file.Close()

	stmts, err := statements.Split(file, delimiter)
	if err != nil {
		return nil, fmt.Errorf("split schema: %w", err)
	}

	return stmts, nil
}

func dumpSchema(ctx context.Context, store Database, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if err := store.DumpSchema(ctx, file); err != nil {
		return err
	}

	return file.Close()
}
