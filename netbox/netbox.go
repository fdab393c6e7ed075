// Package netbox models the external directory service the inventory is
// built from: a NetBox REST API exposing, per (application, type) pair,
// the three query operations the core needs.
package netbox

import (
	"context"
	"log/slog"

	"github.com/a-delannoy/yaani/config"
	"github.com/a-delannoy/yaani/pkg"
)

// Predefined errors (sentinel values).
var (
	// ErrUnknownEndpoint reports an (application, type) pair that was
	// never registered at configuration-load time.
	ErrUnknownEndpoint = pkg.NewError("unknown directory endpoint")

	// ErrRequest reports a transport failure talking to the directory.
	ErrRequest = pkg.NewError("directory request failed")

	// ErrStatus reports a non-2xx response from the directory.
	ErrStatus = pkg.NewError("unexpected directory response status")

	// ErrDecode reports a response body that is not the expected JSON.
	ErrDecode = pkg.NewError("invalid directory response body")
)

// Entity is an opaque record returned by the directory service. Field
// values are scalars, nested mappings, or null.
type Entity = map[string]any

// Endpoint is the capability interface for one (application, type) pair.
// All queries block until the directory responds; cancellation and
// timeouts travel through the context.
type Endpoint interface {
	// All fetches every entity of the endpoint.
	All(ctx context.Context) ([]Entity, error)

	// Filter fetches the entities matching the given field arguments.
	Filter(ctx context.Context, args map[string]any) ([]Entity, error)

	// Get fetches exactly one entity by identifier.
	Get(ctx context.Context, id any) (Entity, error)
}

// Opener creates endpoints for (application, type) pairs. It is
// implemented by [Client].
type Opener interface {
	Open(application, objectType string) Endpoint
}

// Directory resolves (application, type) pairs to endpoint handles.
type Directory interface {
	Endpoint(application, objectType string) (Endpoint, error)
}

// Registry is a Directory backed by a lookup table resolved once at
// configuration-load time. Pairs the configuration never names are not
// resolvable, which surfaces stray references as typed errors instead of
// late transport failures.
type Registry struct {
	endpoints map[[2]string]Endpoint
}

// NewRegistry resolves every (application, type) pair named by the
// configuration, both in the import section and in sub-import variable
// definitions, against the given opener. The dcim/devices pair is always
// registered: host mode resolves hosts as devices even without an import
// section.
func NewRegistry(opener Opener, cfg *config.Config) *Registry {
	r := &Registry{endpoints: make(map[[2]string]Endpoint)}

	r.register(opener, "dcim", "devices")

	for _, stmt := range cfg.Statements() {
		r.register(opener, stmt.Application, stmt.Type)

		for _, si := range stmt.Options.SubImports {
			for _, entry := range si.Vars {
				for _, spec := range entry {
					r.register(opener, spec.Application, spec.Type)
				}
			}
		}
	}

	return r
}

func (r *Registry) register(opener Opener, app, typ string) {
	key := [2]string{app, typ}
	if _, ok := r.endpoints[key]; !ok {
		r.endpoints[key] = opener.Open(app, typ)
	}
}

// Endpoint implements Directory.
func (r *Registry) Endpoint(app, typ string) (Endpoint, error) {
	ep, ok := r.endpoints[[2]string{app, typ}]
	if !ok {
		return nil, ErrUnknownEndpoint.With(
			slog.String("application", app),
			slog.String("type", typ),
		)
	}

	return ep, nil
}
