package sqlparse

import "fmt"

// ParseError is returned when query text cannot be turned into a query
// model: a syntax error, an unsupported statement, or a predicate that
// references a table the query does not declare.
type ParseError struct {
	Query   string // Query text, truncated for display
	Message string
	Err     error // Underlying parser error, nil for semantic problems
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %q: %s: %v", e.Query, e.Message, e.Err)
	}
	return fmt.Sprintf("parse %q: %s", e.Query, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const maxQueryDisplay = 60

func newParseError(sql, msg string, err error) *ParseError {
	display := sql
	if r := []rune(display); len(r) > maxQueryDisplay {
		display = string(r[:maxQueryDisplay]) + "..."
	}
	return &ParseError{Query: display, Message: msg, Err: err}
}
