package lang

// Namespace selector tokens accepted inside angle brackets.
const (
	NamespaceBuild  = "b"
	NamespaceImport = "i"
	NamespaceSub    = "s"
)

// DefaultNamespace is used when a key path omits its selector.
const DefaultNamespace = NamespaceImport

// WildcardKey short-circuits resolution to the current container when it
// appears as the terminal key of a path.
const WildcardKey = "ALL"

// Expr is a parsed key-path expression. Implementations are immutable
// once returned by [ParseExpr]; the same Expr may be evaluated against
// any number of namespace sets.
type Expr interface {
	expr()
}

// KeyPath is an ordered, non-empty sequence of field names to walk,
// rooted at the namespace named by Namespace.
type KeyPath struct {
	Namespace string
	Keys      []string
}

// DefaultKey evaluates Primary and, when it yields null, evaluates and
// returns Fallback instead. The grammar restricts the fallback to a plain
// key path; defaults do not nest.
type DefaultKey struct {
	Primary  Expr
	Fallback *KeyPath
}

// Substitution applies a regular-expression rewrite to the string value
// of Source. A positive Count limits the number of replaced occurrences;
// zero or negative replaces every one. Flags is accepted by the grammar for
// compatibility with existing configurations and has no effect on
// evaluation.
type Substitution struct {
	Source      Expr
	Pattern     string
	Replacement string
	Count       int
	Flags       int
}

func (*KeyPath) expr()      {}
func (*DefaultKey) expr()   {}
func (*Substitution) expr() {}
