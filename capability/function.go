package capability

import (
	"context"
	"fmt"

	"github.com/hupe1980/supportmesh/internal/schema"
)

// Function adapts a plain Go function into a Capability. Arguments are
// validated against the declared schema before the function runs, and errors
// are normalized to *Error with consistent codes:
//
//	validation failure -> CodeValidation
//	other error        -> CodeExecution
//	*Error             -> forwarded unchanged
//
// A Function has no mutable state after construction and is safe for
// concurrent use.
type Function struct {
	name        string
	description string
	argSchema   map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunction constructs a Function from an explicit schema and implementation.
func NewFunction(
	name, description string,
	argSchema map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *Function {
	return &Function{name: name, description: description, argSchema: argSchema, fn: fn}
}

// NewFunctionFromStruct derives the argument schema from a struct via
// reflection, equivalent to schema.FromStruct(structType).
//
// Example:
//
//	type orderArgs struct {
//	  TrackingNo string `json:"tracking_no" description:"Order tracking number"`
//	}
//
//	cap := capability.NewFunctionFromStruct(
//	  "get_order_status",
//	  "Retrieve the current status of an order",
//	  orderArgs{},
//	  func(ctx context.Context, args map[string]any) (any, error) { ... },
//	)
func NewFunctionFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *Function {
	return NewFunction(name, description, schema.FromStruct(structType), fn)
}

// Name returns the unique capability name.
func (f *Function) Name() string { return f.name }

// Description returns the short description exposed to the oracle.
func (f *Function) Description() string { return f.description }

// Schema returns the JSON schema describing expected arguments.
func (f *Function) Schema() map[string]any { return f.argSchema }

// Invoke validates args against the declared schema then runs the function.
func (f *Function) Invoke(ctx context.Context, args map[string]any) (any, error) {
	if err := schema.Validate(args, f.argSchema); err != nil {
		return nil, &Error{
			Capability: f.name,
			Message:    fmt.Sprintf("argument validation failed: %v", err),
			Code:       CodeValidation,
		}
	}

	result, err := f.fn(ctx, args)
	if err != nil {
		if capErr, ok := err.(*Error); ok {
			return nil, capErr
		}
		return nil, &Error{Capability: f.name, Message: err.Error(), Code: CodeExecution}
	}
	return result, nil
}
