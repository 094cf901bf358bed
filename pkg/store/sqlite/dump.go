package sqlite

import (
	"context"
	"fmt"
	"io"
)

const (
	dumpTablesQuery = `
		select sql from sqlite_master
		where type = 'table' and sql is not null and name not like 'sqlite_%'
		order by rowid
	`
	dumpRestQuery = `
		select sql from sqlite_master
		where type != 'table' and sql is not null
		order by rowid
	`
)

// DumpSchema writes the DDL stored in sqlite_master to w, tables first.
func (s *Store) DumpSchema(ctx context.Context, w io.Writer) error {
	var tables []string
	if err := s.conn.SelectContext(ctx, &tables, dumpTablesQuery); err != nil {
		return fmt.Errorf("dump tables: %w", err)
	}

	var rest []string
	if err := s.conn.SelectContext(ctx, &rest, dumpRestQuery); err != nil {
		return fmt.Errorf("dump non-table objects: %w", err)
	}

	for _, statement := range append(tables, rest...) {
		if _, err := fmt.Fprintf(w, "%s;\n\n", statement); err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
	}

	return nil
}
