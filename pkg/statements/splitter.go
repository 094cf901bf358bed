package statements

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/golang-migrate/migrate/v4/database/multistmt"
	"io"
	"strings"
)

const DefaultDelimiter = ";"

var ErrEmptyDelimiter = errors.New("delimiter must not be empty")

// Split reads r fully and cuts it into statements on every occurrence of
// delimiter. Fragments are trimmed and empty ones are dropped.
//
// The split is purely textual: a delimiter inside a string literal or a
// comment still ends the statement.
func Split(r io.Reader, delimiter string) ([]string, error) {
	if delimiter == "" {
		return nil, ErrEmptyDelimiter
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}

	maxSize := len(data) + len(delimiter) + 1
	if maxSize < multistmt.StartBufSize {
		maxSize = multistmt.StartBufSize
	}

	var out []string
	err = multistmt.Parse(bytes.NewReader(data), []byte(delimiter), maxSize, func(fragment []byte) bool {
		stmt := strings.TrimSpace(strings.TrimSuffix(string(fragment), delimiter))
		if stmt != "" {
			out = append(out, stmt)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("parse statements: %w", err)
	}

	return out, nil
}
