package config

import (
	"errors"
	"testing"

	"github.com/a-delannoy/yaani/pkg"
)

const validDoc = `
netbox:
  api:
    url: http://netbox.example.com
    token: s3cret
    private_key_file: /etc/yaani/netbox.pem
    ssl_verify: false
  import:
    dcim:
      devices:
        filters:
          site: dc1
        group_by:
          - tags
        group_prefix: tag_
        host_vars:
          - role: device_role.slug
        sub_import:
          - stack: interfaces
            vars:
              - interfaces:
                  application: dcim
                  type: interfaces
                  index: name
                  filter:
                    device_id: id
      racks: {}
    virtualization:
      virtual_machines: {}
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}

	if cfg.NetBox.API.Token != "s3cret" {
		t.Errorf("token = %q, want s3cret", cfg.NetBox.API.Token)
	}

	if cfg.NetBox.API.PrivateKeyFile != "/etc/yaani/netbox.pem" {
		t.Errorf("private_key_file = %q, want the configured path",
			cfg.NetBox.API.PrivateKeyFile)
	}

	if cfg.NetBox.API.VerifySSL() {
		t.Error("VerifySSL() = true, want false (disabled explicitly)")
	}

	stmts := cfg.Statements()
	if len(stmts) != 3 {
		t.Fatalf("statements = %d, want 3", len(stmts))
	}

	// Document order survives decoding.
	want := [][2]string{
		{"dcim", "devices"},
		{"dcim", "racks"},
		{"virtualization", "virtual_machines"},
	}
	for i, w := range want {
		if stmts[i].Application != w[0] || stmts[i].Type != w[1] {
			t.Errorf("statement %d = %s/%s, want %s/%s",
				i, stmts[i].Application, stmts[i].Type, w[0], w[1])
		}
	}

	devices := stmts[0].Options
	if devices.GroupPrefix != "tag_" {
		t.Errorf("group_prefix = %q, want tag_", devices.GroupPrefix)
	}

	if len(devices.SubImports) != 1 || devices.SubImports[0].Stack != "interfaces" {
		t.Errorf("sub_import not decoded: %+v", devices.SubImports)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("netbox:\n  api:\n    url: http://netbox.example.com\n"))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}

	if !cfg.NetBox.API.VerifySSL() {
		t.Error("VerifySSL() = false, want true by default")
	}

	if len(cfg.Statements()) != 0 {
		t.Errorf("statements = %v, want none", cfg.Statements())
	}

	if opts := cfg.DeviceOptions(); len(opts.HostVars) != 0 {
		t.Errorf("DeviceOptions() = %+v, want empty options", opts)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "not yaml",
			doc:  "netbox: [",
			want: ErrDecode,
		},
		{
			name: "unknown field",
			doc:  "netbox:\n  api:\n    url: http://x\n  imports: {}\n",
			want: ErrDecode,
		},
		{
			name: "missing url",
			doc:  "netbox:\n  api:\n    token: t\n",
			want: ErrValidate,
		},
		{
			name: "null import options",
			doc:  "netbox:\n  api:\n    url: http://x\n  import:\n    dcim:\n      devices:\n",
			want: ErrValidate,
		},
		{
			name: "multi-entry host_vars",
			doc: `
netbox:
  api:
    url: http://x
  import:
    dcim:
      devices:
        host_vars:
          - role: device_role.slug
            site: site.slug
`,
			want: ErrValidate,
		},
		{
			name: "sub_import without stack",
			doc: `
netbox:
  api:
    url: http://x
  import:
    dcim:
      devices:
        sub_import:
          - vars:
              - v:
                  application: dcim
                  type: interfaces
                  index: name
`,
			want: ErrValidate,
		},
		{
			name: "sub_import var without index",
			doc: `
netbox:
  api:
    url: http://x
  import:
    dcim:
      devices:
        sub_import:
          - stack: v
            vars:
              - v:
                  application: dcim
                  type: interfaces
`,
			want: ErrValidate,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, tt.want) {
				t.Errorf("Parse: err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(pkg.EnvConfigFile, "")

	if got := Path(); got != pkg.DefaultConfigFile {
		t.Errorf("Path() = %q, want %q", got, pkg.DefaultConfigFile)
	}

	t.Setenv(pkg.EnvConfigFile, "/etc/yaani/netbox.yml")

	if got := Path(); got != "/etc/yaani/netbox.yml" {
		t.Errorf("Path() = %q, want the environment override", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/nonesuch.yml"); !errors.Is(err, ErrRead) {
		t.Errorf("Load: err = %v, want ErrRead", err)
	}
}
