package schemaload

import "fmt"

// StatementError reports the statement the database engine rejected.
// Statements before it have already been applied.
type StatementError struct {
	// Index is 1-based, in file order.
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d (%q): %v", e.Index, e.Statement, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}
