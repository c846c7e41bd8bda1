package querymodel

import (
	"errors"
	"fmt"
)

// SchemaAmbiguityError reports that the key-role relationship of a join
// edge cannot be determined.
//
// It is fatal for hint generation of the query it was raised for and is
// never retried. Callers processing a workload treat it as a per-row
// failure.
type SchemaAmbiguityError struct {
	// Edge is the join edge whose roles could not be resolved.
	Edge JoinEdge

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *SchemaAmbiguityError) Error() string {
	return fmt.Sprintf("schema ambiguity on join %s: %s", e.Edge, e.Reason)
}

// NewSchemaAmbiguityError creates a SchemaAmbiguityError for edge.
func NewSchemaAmbiguityError(edge JoinEdge, reason string) *SchemaAmbiguityError {
	return &SchemaAmbiguityError{Edge: edge, Reason: reason}
}

// IsSchemaAmbiguity returns true if err is or wraps a SchemaAmbiguityError.
func IsSchemaAmbiguity(err error) bool {
	var se *SchemaAmbiguityError
	return errors.As(err, &se)
}

// BuildError reports a structurally invalid query handed to Builder.Build.
type BuildError struct {
	Block   string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build query model: %s: %s", e.Block, e.Message)
}
