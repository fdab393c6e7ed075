package lang

import (
	"log/slog"

	"github.com/a-delannoy/yaani/pkg"
)

// Predefined errors (sentinel values).
var (
	// ErrSyntax reports a malformed key-path expression or stack string.
	// Attached attributes identify the offending input and position.
	ErrSyntax = pkg.NewError("syntax error")

	// ErrUnknownNamespace reports a namespace selector that names none of
	// the registered namespaces.
	ErrUnknownNamespace = pkg.NewError("unknown namespace")

	// ErrUnresolvedKeyPath reports a key missing from a non-null container
	// before the end of the path.
	ErrUnresolvedKeyPath = pkg.NewError("key path resolution failed")

	// ErrInvalidPattern reports a substitution pattern that does not
	// compile as a regular expression.
	ErrInvalidPattern = pkg.NewError("invalid substitution pattern")
)

// syntaxErr builds an ErrSyntax instance locating the failure within the
// input being parsed.
func syntaxErr(input string, pos int, what string) *pkg.Error {
	return ErrSyntax.With(
		slog.String("input", input),
		slog.Int("col", pos+1),
		slog.String("expected", what),
	)
}
