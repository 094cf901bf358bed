package schemaload

import (
	"context"
	"io"
)

// StatementExecutor is the part of a database connection the loader applies
// statements through.
type StatementExecutor interface {
	Exec(ctx context.Context, statement string) error
}

// Database is the connection a load owns from open to close.
type Database interface {
	StatementExecutor
	Commit(ctx context.Context) error
	DumpSchema(ctx context.Context, w io.Writer) error
	Close() error
}
