package sqlite

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, driver string) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(context.Background(), Config{Driver: driver, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, path
}

func TestOpenCreatesFile(t *testing.T) {
	for _, driver := range []string{DriverCgo, DriverPure} {
		t.Run(driver, func(t *testing.T) {
			_, path := openTestStore(t, driver)

			_, err := os.Stat(path)
			require.NoError(t, err)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	_, err := Open(context.Background(), Config{Driver: "postgres", Path: path})
	require.ErrorIs(t, err, ErrUnknownDriver)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestOpenForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := Open(ctx, Config{Path: path, ForeignKeys: true})
	require.NoError(t, err)
	defer store.Close()

	var enabled int
	require.NoError(t, store.conn.GetContext(ctx, &enabled, "PRAGMA foreign_keys"))
	require.Equal(t, 1, enabled)
}

func TestExecAndTables(t *testing.T) {
	for _, driver := range []string{DriverCgo, DriverPure} {
		t.Run(driver, func(t *testing.T) {
			store, _ := openTestStore(t, driver)
			ctx := context.Background()

			tables, err := store.Tables(ctx)
			require.NoError(t, err)
			require.Empty(t, tables)

			require.NoError(t, store.Exec(ctx, "create table b (id integer primary key)"))
			require.NoError(t, store.Exec(ctx, "create table a (id integer primary key)"))

			tables, err = store.Tables(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{"a", "b"}, tables)

			err = store.Exec(ctx, "create table a (id integer primary key)")
			require.Error(t, err)
		})
	}
}

func TestCommitWithoutTransaction(t *testing.T) {
	for _, driver := range []string{DriverCgo, DriverPure} {
		t.Run(driver, func(t *testing.T) {
			store, _ := openTestStore(t, driver)
			ctx := context.Background()

			require.NoError(t, store.Exec(ctx, "create table a (id integer)"))
			require.NoError(t, store.Commit(ctx))
			require.NoError(t, store.Commit(ctx))
		})
	}
}

func TestCommitOpenTransaction(t *testing.T) {
	for _, driver := range []string{DriverCgo, DriverPure} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			store, path := openTestStore(t, driver)

			require.NoError(t, store.Exec(ctx, "begin"))
			require.NoError(t, store.Exec(ctx, "create table a (id integer)"))

			open, known, err := store.inTransaction()
			require.NoError(t, err)
			if known {
				require.True(t, open)
			}

			require.NoError(t, store.Commit(ctx))

			// a second begin only succeeds once the first transaction is committed
			require.NoError(t, store.Exec(ctx, "begin"))
			require.NoError(t, store.Exec(ctx, "rollback"))

			require.NoError(t, store.Close())

			reopened, err := Open(ctx, Config{Driver: driver, Path: path})
			require.NoError(t, err)
			defer reopened.Close()

			tables, err := reopened.Tables(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{"a"}, tables)
		})
	}
}

func TestIsNoActiveTransaction(t *testing.T) {
	require.False(t, isNoActiveTransaction(errors.New("database is locked")))
	require.True(t, isNoActiveTransaction(errors.New("SQL logic error: cannot commit - no transaction is active (1)")))
}

func TestDumpSchema(t *testing.T) {
	store, _ := openTestStore(t, DriverCgo)
	ctx := context.Background()

	require.NoError(t, store.Exec(ctx, "create table users (username text primary key)"))
	require.NoError(t, store.Exec(ctx, "create index users_lower on users (lower(username))"))

	var buf bytes.Buffer
	require.NoError(t, store.DumpSchema(ctx, &buf))

	require.Equal(t,
		"CREATE TABLE users (username text primary key);\n\n"+
			"CREATE INDEX users_lower on users (lower(username));\n\n",
		buf.String(),
	)
}
