// Package inventory builds the grouped, variable-annotated inventory
// document out of directory entities: it runs sub-import joins, resolves
// host variable expressions across the build, import, and sub
// namespaces, and places each host into its groups.
package inventory

// Inventory accumulates group memberships and per-host variables over
// one build pass. Group host lists keep insertion order and hold each
// identifier at most once.
type Inventory struct {
	groups   map[string]*group
	hostvars map[string]map[string]any
}

type group struct {
	seen  map[string]bool
	hosts []string
}

// New creates an empty inventory.
func New() *Inventory {
	return &Inventory{
		groups:   make(map[string]*group),
		hostvars: make(map[string]map[string]any),
	}
}

// AddToGroup places a host identifier into a group. Adding the same
// identifier to the same group again is a no-op.
func (v *Inventory) AddToGroup(name, host string) {
	g, ok := v.groups[name]
	if !ok {
		g = &group{seen: make(map[string]bool)}
		v.groups[name] = g
	}

	if !g.seen[host] {
		g.seen[host] = true
		g.hosts = append(g.hosts, host)
	}
}

// SetHostVars records the resolved variable mapping of a host.
func (v *Inventory) SetHostVars(host string, vars map[string]any) {
	v.hostvars[host] = vars
}

// HostVars returns the recorded variable mapping of a host, or nil when
// the host is unknown.
func (v *Inventory) HostVars(host string) map[string]any {
	return v.hostvars[host]
}

// Document renders the inventory as the structure Ansible expects: one
// key per group holding its host list, plus the _meta.hostvars mapping.
func (v *Inventory) Document() map[string]any {
	doc := make(map[string]any, len(v.groups)+1)

	for name, g := range v.groups {
		doc[name] = map[string]any{"hosts": g.hosts}
	}

	hostvars := make(map[string]any, len(v.hostvars))
	for host, vars := range v.hostvars {
		hostvars[host] = vars
	}

	doc["_meta"] = map[string]any{"hostvars": hostvars}

	return doc
}
