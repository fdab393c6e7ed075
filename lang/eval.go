package lang

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Namespaces maps selector tokens to the namespace roots available
// during evaluation. A nil root behaves as a null container: every key
// walk through it yields null.
type Namespaces map[string]map[string]any

// Resolve walks the expression against the given namespaces and returns
// the resolved value, or nil when the path vacuously misses (an absent
// terminal key, or any null container along the way).
//
// Evaluation is deterministic and free of side effects: the same
// expression against the same namespace values always yields the same
// result.
func Resolve(expr Expr, ns Namespaces) (any, error) {
	switch e := expr.(type) {
	case *KeyPath:
		return resolveKeyPath(e, ns)

	case *DefaultKey:
		return resolveDefaultKey(e, ns)

	case *Substitution:
		return resolveSubstitution(e, ns)

	default:
		return nil, ErrUnresolvedKeyPath.With(
			slog.String("expr", fmt.Sprintf("%T", expr)),
		)
	}
}

// resolveKeyPath starts at the selected namespace and indexes into the
// current container one key at a time.
//
// A null container at any step resolves to null immediately. A key
// absent from the terminal position resolves to null. A key absent
// before the terminal position is an error: the configuration named a
// parent that the data does not have. The wildcard terminal returns the
// current container itself.
func resolveKeyPath(kp *KeyPath, ns Namespaces) (any, error) {
	root, ok := ns[kp.Namespace]
	if !ok {
		return nil, ErrUnknownNamespace.With(
			slog.String("namespace", kp.Namespace),
		)
	}

	var current any
	if root != nil {
		current = root
	}

	last := len(kp.Keys) - 1

	for i, key := range kp.Keys {
		if current == nil {
			return nil, nil
		}

		container, ok := current.(map[string]any)
		if !ok {
			// Scalar reached before the path was exhausted.
			if i == last {
				if key == WildcardKey {
					return current, nil
				}

				return nil, nil
			}

			return nil, unresolvedErr(kp, key)
		}

		if value, exists := container[key]; exists {
			current = value

			continue
		}

		if i == last {
			if key == WildcardKey {
				return current, nil
			}

			return nil, nil
		}

		return nil, unresolvedErr(kp, key)
	}

	return current, nil
}

// resolveDefaultKey returns the primary value unless it is null, in
// which case the fallback key path is resolved instead. The fallback is
// never evaluated when the primary yields a value, so a broken fallback
// stays invisible until it is needed.
func resolveDefaultKey(dk *DefaultKey, ns Namespaces) (any, error) {
	value, err := Resolve(dk.Primary, ns)
	if err != nil {
		return nil, err
	}

	if value != nil {
		return value, nil
	}

	return resolveKeyPath(dk.Fallback, ns)
}

// resolveSubstitution applies the regular-expression rewrite to the
// source value. A null source propagates as null without error.
func resolveSubstitution(sub *Substitution, ns Namespaces) (any, error) {
	value, err := Resolve(sub.Source, ns)
	if err != nil {
		return nil, err
	}

	if value == nil {
		return nil, nil
	}

	re, err := regexp.Compile(sub.Pattern)
	if err != nil {
		return nil, ErrInvalidPattern.Wrap(err).With(
			slog.String("pattern", sub.Pattern),
		)
	}

	return replaceLimit(re, stringify(value), sub.Replacement, sub.Count), nil
}

// replaceLimit is re.ReplaceAllString with an occurrence limit. Only a
// positive limit restricts replacement; zero and negative counts replace
// every match.
func replaceLimit(re *regexp.Regexp, src, repl string, limit int) string {
	if limit <= 0 {
		limit = -1
	}

	matches := re.FindAllStringSubmatchIndex(src, limit)
	if matches == nil {
		return src
	}

	var b strings.Builder

	prev := 0

	for _, m := range matches {
		b.WriteString(src[prev:m[0]])
		b.Write(re.ExpandString(nil, repl, src, m))

		prev = m[1]
	}

	b.WriteString(src[prev:])

	return b.String()
}

// stringify renders a resolved value as the string input of sub().
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}

func unresolvedErr(kp *KeyPath, key string) error {
	return ErrUnresolvedKeyPath.With(
		slog.String("key", key),
		slog.String("path", strings.Join(kp.Keys, ".")),
		slog.String("namespace", kp.Namespace),
	)
}
