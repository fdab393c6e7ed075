package inventory

import (
	"context"
	"log/slog"
	"sort"

	"github.com/a-delannoy/yaani/config"
	"github.com/a-delannoy/yaani/lang"
	"github.com/a-delannoy/yaani/log"
	"github.com/a-delannoy/yaani/netbox"
)

// subImporter resolves sub_import blocks: chained joins of a parent
// entity to related directory entities, nested per the declared stack.
type subImporter struct {
	dir    netbox.Directory
	logger log.Logger
}

// run executes one sub_import block for a parent entity, merging the
// joined entity tree into the shared sub namespace root.
//
// The stack variables are processed left to right over an explicit
// expansion set of containers, initially just the root. The first hop
// resolves its filters against the parent entity's fields; every later
// hop resolves them against the container being expanded, so grandparent
// fields are out of reach past hop one. Each fetched entity is indexed
// under its declared index field inside every expanded container, and
// the fetched entities become the next hop's expansion set.
func (s *subImporter) run(
	ctx context.Context,
	si *config.SubImport,
	parent netbox.Entity,
	root map[string]any,
) error {
	stack, err := lang.ParseStack(si.Stack)
	if err != nil {
		return err
	}

	specs := varSpecs(si.Vars)
	expand := []map[string]any{root}

	for hop, name := range stack {
		spec, ok := specs[name]
		if !ok {
			return ErrUndefinedVariable.With(
				slog.String("stack", si.Stack),
				slog.String("variable", name),
			)
		}

		var next []map[string]any

		for _, container := range expand {
			scope := container
			if hop == 0 {
				scope = parent
			}

			entities, err := s.fetch(ctx, name, spec, scope)
			if err != nil {
				return err
			}

			children := make(map[string]any, len(entities))

			for _, entity := range entities {
				idx, ok := entity[spec.Index]
				if !ok {
					return ErrMissingIndex.With(
						slog.String("variable", name),
						slog.String("index", spec.Index),
					)
				}

				key := netbox.FormatValue(idx)

				if _, dup := children[key]; dup {
					return ErrDuplicateIndex.With(
						slog.String("variable", name),
						slog.String("index", spec.Index),
						slog.String("value", key),
					)
				}

				children[key] = map[string]any(entity)
				next = append(next, entity)
			}

			container[name] = children
		}

		expand = next
	}

	return nil
}

// fetch resolves the variable's filter expressions against the given
// context and queries the directory. An identifier filter selects the
// single-entity fetch; otherwise the filter arguments go out as a list
// query, or the whole endpoint is listed when no filter is declared.
func (s *subImporter) fetch(
	ctx context.Context,
	name string,
	spec config.VarSpec,
	evalCtx map[string]any,
) ([]netbox.Entity, error) {
	ep, err := s.dir.Endpoint(spec.Application, spec.Type)
	if err != nil {
		return nil, err
	}

	args := make(map[string]any, len(spec.Filter))

	for _, field := range sortedKeys(spec.Filter) {
		expr, err := lang.ParseExpr(spec.Filter[field])
		if err != nil {
			return nil, err
		}

		value, err := lang.Resolve(expr, lang.Namespaces{
			lang.NamespaceImport: evalCtx,
		})
		if err != nil {
			return nil, err
		}

		if value == nil {
			return nil, ErrUnresolvedFilter.With(
				slog.String("variable", name),
				slog.String("field", field),
				slog.String("expression", spec.Filter[field]),
			)
		}

		args[field] = value
	}

	s.logger.TraceContext(ctx, "sub-import fetch",
		slog.String("variable", name),
		slog.String("application", spec.Application),
		slog.String("type", spec.Type),
		slog.Int("filters", len(args)),
	)

	if id, ok := args["id"]; ok {
		entity, err := ep.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		return []netbox.Entity{entity}, nil
	}

	if len(args) == 0 {
		return ep.All(ctx)
	}

	return ep.Filter(ctx, args)
}

// varSpecs flattens the ordered single-entry variable definitions into a
// lookup table. Definition order carries no meaning, only the stack
// order does.
func varSpecs(vars []map[string]config.VarSpec) map[string]config.VarSpec {
	specs := make(map[string]config.VarSpec, len(vars))

	for _, entry := range vars {
		for name, spec := range entry {
			specs[name] = spec
		}
	}

	return specs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
