// Package capability implements the invocable-by-name contract shared by raw
// tools and team facades: anything with a name, an argument schema and an
// Invoke function. The supervisor's act step is oblivious to which kind of
// capability it is calling.
package capability

import (
	"context"
	"fmt"

	"github.com/hupe1980/supportmesh/internal/schema"
)

// Capability is a callable unit of work exposed to the decision oracle.
//
// Implementations should:
//   - Provide clear, descriptive names and descriptions (snake_case names)
//   - Define a JSON schema for their arguments
//   - Return errors instead of panicking; callers record failures as data
//   - Be safe for concurrent use
type Capability interface {
	// Name returns the unique identifier for this capability.
	Name() string

	// Description is provided to the oracle so it can decide when to delegate.
	Description() string

	// Schema returns a JSON schema describing the expected arguments.
	Schema() map[string]any

	// Invoke executes the capability with validated arguments. The returned
	// payload must be JSON-serializable.
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// Definition is the declarative view of a capability handed to the oracle.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// ValidationError re-exports the schema validation error for callers that
// need to inspect the failing field.
type ValidationError = schema.ValidationError

// Error represents a failure during capability execution with a code for
// categorization.
type Error struct {
	Capability string `json:"capability"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

// Error codes used by the built-in capability implementations.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("capability error [%s] in %s: %s", e.Code, e.Capability, e.Message)
	}
	return fmt.Sprintf("capability error in %s: %s", e.Capability, e.Message)
}

// NewError creates an Error with the given details.
func NewError(capability, message, code string) *Error {
	return &Error{Capability: capability, Message: message, Code: code}
}
