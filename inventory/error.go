package inventory

import "github.com/a-delannoy/yaani/pkg"

// Predefined errors (sentinel values).
var (
	// ErrUndefinedVariable reports a stack referencing a variable that
	// the sub_import block never declares.
	ErrUndefinedVariable = pkg.NewError("undefined sub-import variable")

	// ErrUnresolvedFilter reports a sub-import filter expression that
	// resolved to nothing against its parent context.
	ErrUnresolvedFilter = pkg.NewError("unresolved sub-import filter")

	// ErrDuplicateIndex reports two sibling sub-import entities sharing
	// the same index field value.
	ErrDuplicateIndex = pkg.NewError("duplicate sub-import index")

	// ErrMissingIndex reports a fetched entity lacking the declared
	// index field.
	ErrMissingIndex = pkg.NewError("missing sub-import index field")
)
