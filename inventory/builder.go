package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a-delannoy/yaani/config"
	"github.com/a-delannoy/yaani/lang"
	"github.com/a-delannoy/yaani/log"
	"github.com/a-delannoy/yaani/netbox"
)

// Builder assembles the inventory document from the configured import
// statements and a directory handle.
type Builder struct {
	cfg    *config.Config
	sub    *subImporter
	logger log.Logger
}

// NewBuilder creates a builder over the given configuration and
// directory.
func NewBuilder(cfg *config.Config, dir netbox.Directory) *Builder {
	logger := log.Default()

	return &Builder{
		cfg:    cfg,
		sub:    &subImporter{dir: dir, logger: logger},
		logger: logger,
	}
}

// BuildList runs a full build pass: every import statement, every
// matching entity. When the configuration has no import section, the
// device endpoint is imported with default options.
func (b *Builder) BuildList(ctx context.Context) (map[string]any, error) {
	stmts := b.cfg.Statements()
	if len(stmts) == 0 {
		stmts = []config.Statement{{
			Application: "dcim",
			Type:        "devices",
			Options:     &config.ImportOptions{},
		}}
	}

	inv := New()

	for _, stmt := range stmts {
		entities, err := b.list(ctx, stmt)
		if err != nil {
			return nil, err
		}

		b.logger.DebugContext(ctx, "importing entities",
			slog.String("application", stmt.Application),
			slog.String("type", stmt.Type),
			slog.Int("count", len(entities)),
		)

		for _, entity := range entities {
			if err := b.addElement(ctx, inv, stmt, entity); err != nil {
				return nil, err
			}
		}
	}

	return inv.Document(), nil
}

// BuildHost resolves the variables of a single host, looked up by name
// as a device. An unknown host yields an empty mapping, not an error.
func (b *Builder) BuildHost(
	ctx context.Context,
	host string,
) (map[string]any, error) {
	ep, err := b.sub.dir.Endpoint("dcim", "devices")
	if err != nil {
		return nil, err
	}

	entities, err := ep.Filter(ctx, map[string]any{"name": host})
	if err != nil {
		return nil, err
	}

	// The directory may return loose matches; only the entity whose
	// resolved identifier equals the requested host counts.
	for _, entity := range entities {
		if identifier("devices", entity) != host {
			continue
		}

		vars, _, err := b.elementVars(ctx, b.cfg.DeviceOptions(), entity)
		if err != nil {
			return nil, err
		}

		return vars, nil
	}

	b.logger.DebugContext(ctx, "host not found", slog.String("host", host))

	return map[string]any{}, nil
}

// list fetches the entities of one import statement, filtered when the
// statement declares filters. An identifier filter selects the
// single-entity fetch, as in the sub-import engine.
func (b *Builder) list(
	ctx context.Context,
	stmt config.Statement,
) ([]netbox.Entity, error) {
	ep, err := b.sub.dir.Endpoint(stmt.Application, stmt.Type)
	if err != nil {
		return nil, err
	}

	filters := stmt.Options.Filters

	if id, ok := filters["id"]; ok {
		entity, err := ep.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		return []netbox.Entity{entity}, nil
	}

	if len(filters) > 0 {
		return ep.Filter(ctx, filters)
	}

	return ep.All(ctx)
}

// addElement records one entity in the inventory: identifier, host
// variables, and group memberships.
func (b *Builder) addElement(
	ctx context.Context,
	inv *Inventory,
	stmt config.Statement,
	entity netbox.Entity,
) error {
	id := identifier(stmt.Type, entity)

	vars, ns, err := b.elementVars(ctx, stmt.Options, entity)
	if err != nil {
		b.logger.ErrorContext(ctx, "element failed", slog.String("host", id))

		return err
	}

	inv.SetHostVars(id, vars)
	inv.AddToGroup(stmt.Type, id)
	inv.AddToGroup("all", id)

	for _, expr := range stmt.Options.GroupBy {
		if expr == "tags" {
			for _, tag := range tagNames(entity["tags"]) {
				inv.AddToGroup(stmt.Options.GroupPrefix+tag, id)
			}

			continue
		}

		value, err := resolve(expr, ns)
		if err != nil {
			return err
		}

		if value == nil {
			continue
		}

		name := stmt.Options.GroupPrefix + netbox.FormatValue(value)
		inv.AddToGroup(name, id)
	}

	return nil
}

// elementVars resolves the sub-imports and host variable declarations of
// one entity. It returns the finished build namespace along with the
// full namespace set, which group expressions evaluate against.
func (b *Builder) elementVars(
	ctx context.Context,
	opts *config.ImportOptions,
	entity netbox.Entity,
) (map[string]any, lang.Namespaces, error) {
	subRoot := make(map[string]any)

	for _, si := range opts.SubImports {
		if err := b.sub.run(ctx, si, entity, subRoot); err != nil {
			return nil, nil, err
		}
	}

	build := make(map[string]any)

	ns := lang.Namespaces{
		lang.NamespaceBuild:  build,
		lang.NamespaceImport: entity,
		lang.NamespaceSub:    subRoot,
	}

	// Declarations resolve in order so later ones can read earlier
	// results through the b selector.
	for _, entry := range opts.HostVars {
		for name, expr := range entry {
			value, err := resolve(expr, ns)
			if err != nil {
				return nil, nil, err
			}

			build[name] = value
		}
	}

	return build, ns, nil
}

func resolve(input string, ns lang.Namespaces) (any, error) {
	expr, err := lang.ParseExpr(input)
	if err != nil {
		return nil, err
	}

	return lang.Resolve(expr, ns)
}

// identifier derives the inventory host identifier of an entity: its
// name field when non-empty, otherwise "{type}_{id}".
func identifier(typ string, entity netbox.Entity) string {
	if name, ok := entity["name"].(string); ok && name != "" {
		return name
	}

	return fmt.Sprintf("%s_%s", typ, netbox.FormatValue(entity["id"]))
}

// tagNames extracts group names from an entity's tags field, accepting
// both plain string tags and tag objects carrying a slug or name.
func tagNames(tags any) []string {
	list, ok := tags.([]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(list))

	for _, tag := range list {
		switch t := tag.(type) {
		case string:
			names = append(names, t)

		case map[string]any:
			if slug, ok := t["slug"].(string); ok && slug != "" {
				names = append(names, slug)
			} else if name, ok := t["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		}
	}

	return names
}
