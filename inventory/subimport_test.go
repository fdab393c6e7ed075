package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/a-delannoy/yaani/config"
	"github.com/a-delannoy/yaani/netbox"
)

// fakeEndpoint serves canned entities and matches Filter arguments
// against top-level fields.
type fakeEndpoint struct {
	entities []netbox.Entity

	filterCalls []map[string]any
	getCalls    []any
}

func (e *fakeEndpoint) All(context.Context) ([]netbox.Entity, error) {
	return e.entities, nil
}

func (e *fakeEndpoint) Filter(
	_ context.Context,
	args map[string]any,
) ([]netbox.Entity, error) {
	e.filterCalls = append(e.filterCalls, args)

	var out []netbox.Entity

	for _, ent := range e.entities {
		match := true

		for field, want := range args {
			if netbox.FormatValue(ent[field]) != netbox.FormatValue(want) {
				match = false

				break
			}
		}

		if match {
			out = append(out, ent)
		}
	}

	return out, nil
}

func (e *fakeEndpoint) Get(_ context.Context, id any) (netbox.Entity, error) {
	e.getCalls = append(e.getCalls, id)

	for _, ent := range e.entities {
		if netbox.FormatValue(ent["id"]) == netbox.FormatValue(id) {
			return ent, nil
		}
	}

	return nil, netbox.ErrStatus
}

type fakeDir map[string]*fakeEndpoint

func (d fakeDir) Endpoint(app, typ string) (netbox.Endpoint, error) {
	ep, ok := d[app+"/"+typ]
	if !ok {
		return nil, netbox.ErrUnknownEndpoint
	}

	return ep, nil
}

func testParent() netbox.Entity {
	return netbox.Entity{
		"id":   int64(1),
		"name": "sw1",
		"primary_ip": map[string]any{
			"id": int64(10),
		},
	}
}

func interfaceEntities() []netbox.Entity {
	return []netbox.Entity{
		{"id": int64(100), "name": "eth0", "device_id": int64(1)},
		{"id": int64(101), "name": "eth1", "device_id": int64(1)},
	}
}

func TestSubImportSingleHop(t *testing.T) {
	dir := fakeDir{
		"dcim/interfaces": &fakeEndpoint{entities: interfaceEntities()},
	}

	si := &config.SubImport{
		Stack: "interfaces",
		Vars: []map[string]config.VarSpec{{
			"interfaces": {
				Application: "dcim",
				Type:        "interfaces",
				Index:       "name",
				Filter:      map[string]string{"device_id": "id"},
			},
		}},
	}

	root := make(map[string]any)
	sub := &subImporter{dir: dir}

	if err := sub.run(context.Background(), si, testParent(), root); err != nil {
		t.Fatalf("run: unexpected error: %v", err)
	}

	joined, ok := root["interfaces"].(map[string]any)
	if !ok {
		t.Fatalf("root[interfaces] = %T, want map", root["interfaces"])
	}

	if len(joined) != 2 {
		t.Fatalf("joined entities = %d, want 2", len(joined))
	}

	eth0, ok := joined["eth0"].(map[string]any)
	if !ok {
		t.Fatalf("joined[eth0] = %T, want map", joined["eth0"])
	}

	if id := eth0["id"]; id != int64(100) {
		t.Errorf("eth0 id = %v, want 100", id)
	}
}

func TestSubImportTwoHops(t *testing.T) {
	dir := fakeDir{
		"dcim/interfaces": &fakeEndpoint{entities: interfaceEntities()},
		"ipam/ip_addresses": &fakeEndpoint{entities: []netbox.Entity{
			{"id": int64(200), "address": "10.0.0.1/24", "interface_id": int64(100)},
			{"id": int64(201), "address": "10.0.0.2/24", "interface_id": int64(101)},
		}},
	}

	si := &config.SubImport{
		Stack: "interfaces.ip",
		Vars: []map[string]config.VarSpec{
			{"interfaces": {
				Application: "dcim",
				Type:        "interfaces",
				Index:       "name",
				Filter:      map[string]string{"device_id": "id"},
			}},
			{"ip": {
				Application: "ipam",
				Type:        "ip_addresses",
				Index:       "address",
				// Past hop one the filter context is the joined
				// interface itself, not the device.
				Filter: map[string]string{"interface_id": "id"},
			}},
		},
	}

	root := make(map[string]any)
	sub := &subImporter{dir: dir}

	if err := sub.run(context.Background(), si, testParent(), root); err != nil {
		t.Fatalf("run: unexpected error: %v", err)
	}

	eth0 := root["interfaces"].(map[string]any)["eth0"].(map[string]any)

	ips, ok := eth0["ip"].(map[string]any)
	if !ok {
		t.Fatalf("eth0[ip] = %T, want map", eth0["ip"])
	}

	addr, ok := ips["10.0.0.1/24"].(map[string]any)
	if !ok {
		t.Fatalf("ip keys = %v, want 10.0.0.1/24 present", ips)
	}

	if id := addr["id"]; id != int64(200) {
		t.Errorf("joined ip id = %v, want 200", id)
	}

	eth1 := root["interfaces"].(map[string]any)["eth1"].(map[string]any)
	if _, ok := eth1["ip"].(map[string]any)["10.0.0.2/24"]; !ok {
		t.Errorf("eth1 missing its own joined address")
	}
}

func TestSubImportIDFilterUsesGet(t *testing.T) {
	ep := &fakeEndpoint{entities: []netbox.Entity{
		{"id": int64(10), "address": "192.0.2.1/31"},
	}}
	dir := fakeDir{"ipam/ip_addresses": ep}

	si := &config.SubImport{
		Stack: "address",
		Vars: []map[string]config.VarSpec{{
			"address": {
				Application: "ipam",
				Type:        "ip_addresses",
				Index:       "address",
				Filter:      map[string]string{"id": "primary_ip.id"},
			},
		}},
	}

	root := make(map[string]any)
	sub := &subImporter{dir: dir}

	if err := sub.run(context.Background(), si, testParent(), root); err != nil {
		t.Fatalf("run: unexpected error: %v", err)
	}

	if len(ep.getCalls) != 1 || len(ep.filterCalls) != 0 {
		t.Errorf("calls: get=%d filter=%d, want the single-entity fetch",
			len(ep.getCalls), len(ep.filterCalls))
	}

	if _, ok := root["address"].(map[string]any)["192.0.2.1/31"]; !ok {
		t.Errorf("joined address missing from root: %v", root)
	}
}

func TestSubImportErrors(t *testing.T) {
	interfaces := &config.VarSpec{
		Application: "dcim",
		Type:        "interfaces",
		Index:       "name",
		Filter:      map[string]string{"device_id": "id"},
	}

	for _, tt := range []struct {
		name     string
		stack    string
		vars     []map[string]config.VarSpec
		entities []netbox.Entity
		want     error
	}{
		{
			name:  "undeclared stack variable",
			stack: "missing",
			vars: []map[string]config.VarSpec{
				{"interfaces": *interfaces},
			},
			want: ErrUndefinedVariable,
		},
		{
			name:  "filter resolves to nothing",
			stack: "interfaces",
			vars: []map[string]config.VarSpec{{
				"interfaces": {
					Application: "dcim",
					Type:        "interfaces",
					Index:       "name",
					Filter:      map[string]string{"device_id": "no_such_field"},
				},
			}},
			want: ErrUnresolvedFilter,
		},
		{
			name:  "sibling index collision",
			stack: "interfaces",
			vars: []map[string]config.VarSpec{
				{"interfaces": *interfaces},
			},
			entities: []netbox.Entity{
				{"id": int64(100), "name": "eth0", "device_id": int64(1)},
				{"id": int64(101), "name": "eth0", "device_id": int64(1)},
			},
			want: ErrDuplicateIndex,
		},
		{
			name:  "entity lacks index field",
			stack: "interfaces",
			vars: []map[string]config.VarSpec{
				{"interfaces": *interfaces},
			},
			entities: []netbox.Entity{
				{"id": int64(100), "device_id": int64(1)},
			},
			want: ErrMissingIndex,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			entities := tt.entities
			if entities == nil {
				entities = interfaceEntities()
			}

			dir := fakeDir{"dcim/interfaces": &fakeEndpoint{entities: entities}}
			sub := &subImporter{dir: dir}

			si := &config.SubImport{Stack: tt.stack, Vars: tt.vars}

			err := sub.run(context.Background(), si, testParent(), make(map[string]any))
			if !errors.Is(err, tt.want) {
				t.Errorf("run: err = %v, want %v", err, tt.want)
			}
		})
	}
}
