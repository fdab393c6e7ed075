package config

import (
	"bytes"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/a-delannoy/yaani/pkg"
)

// Predefined errors (sentinel values).
var (
	ErrRead     = pkg.NewError("cannot open configuration file")
	ErrDecode   = pkg.NewError("unable to parse configuration file")
	ErrValidate = pkg.NewError("invalid configuration")
)

// Config is the root of the configuration file.
type Config struct {
	NetBox NetBox `yaml:"netbox"`

	// statements holds the import section flattened to an ordered list
	// of (application, type) statements, in document order.
	statements []Statement
}

// NetBox holds the api connection section and the import section.
type NetBox struct {
	API    API                                  `yaml:"api"`
	Import map[string]map[string]*ImportOptions `yaml:"import"`
}

// API describes how to reach the NetBox REST API. PrivateKey and
// PrivateKeyFile unlock NetBox secrets endpoints; they are accepted so
// existing configuration files keep decoding, but no import here reads
// secrets.
type API struct {
	URL            string `yaml:"url"`
	Token          string `yaml:"token"`
	PrivateKey     string `yaml:"private_key"`
	PrivateKeyFile string `yaml:"private_key_file"`
	SSLVerify      *bool  `yaml:"ssl_verify"`
}

// VerifySSL reports whether TLS certificates must be verified.
// Verification is on unless the configuration disables it explicitly.
func (a API) VerifySSL() bool {
	return a.SSLVerify == nil || *a.SSLVerify
}

// ImportOptions refine one (application, type) import statement.
type ImportOptions struct {
	Filters     map[string]any      `yaml:"filters"`
	GroupBy     []string            `yaml:"group_by"`
	GroupPrefix string              `yaml:"group_prefix"`
	HostVars    []map[string]string `yaml:"host_vars"`
	SubImports  []*SubImport        `yaml:"sub_import"`
}

// SubImport joins an entity to related entities through a chain of
// declared variables.
type SubImport struct {
	Stack string               `yaml:"stack"`
	Vars  []map[string]VarSpec `yaml:"vars"`
}

// VarSpec defines one sub-import variable: where to fetch the joined
// entities, which field indexes them, and how to derive the filter
// arguments from the parent namespace.
type VarSpec struct {
	Application string            `yaml:"application"`
	Type        string            `yaml:"type"`
	Index       string            `yaml:"index"`
	Filter      map[string]string `yaml:"filter"`
}

// Statement is one flattened import statement.
type Statement struct {
	Application string
	Type        string
	Options     *ImportOptions
}

// Statements returns the import statements in the order they appear in
// the configuration file. The result is empty when the import section is
// absent.
func (c *Config) Statements() []Statement {
	return c.statements
}

// DeviceOptions returns the dcim/devices import options, or empty
// options when none are configured. Host mode always resolves a host as
// a device.
func (c *Config) DeviceOptions() *ImportOptions {
	for _, stmt := range c.statements {
		if stmt.Application == "dcim" && stmt.Type == "devices" {
			return stmt.Options
		}
	}

	return &ImportOptions{}
}

// Path returns the configuration file path from the environment, or the
// default when the variable is unset.
func Path() string {
	if path := os.Getenv(pkg.EnvConfigFile); path != "" {
		return path
	}

	return pkg.DefaultConfigFile
}

// Load reads, decodes, and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrRead.Wrap(err)
	}

	return Parse(data)
}

// Parse decodes and validates configuration file content.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, ErrDecode.Wrap(err)
	}

	order, err := importOrder(data)
	if err != nil {
		return nil, err
	}

	cfg.statements = make([]Statement, 0, len(order))

	for _, key := range order {
		cfg.statements = append(cfg.statements, Statement{
			Application: key[0],
			Type:        key[1],
			Options:     cfg.NetBox.Import[key[0]][key[1]],
		})
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// importOrder re-reads the document with ordered maps to recover the
// (application, type) sequence as written. Plain struct decoding loses
// mapping order, and the build pass must stay deterministic.
func importOrder(data []byte) ([][2]string, error) {
	var doc any

	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.UseOrderedMap())
	if err := dec.Decode(&doc); err != nil {
		return nil, ErrDecode.Wrap(err)
	}

	imports := orderedGet(orderedGet(doc, "netbox"), "import")

	section, ok := imports.(yaml.MapSlice)
	if !ok {
		return nil, nil
	}

	var order [][2]string

	for _, app := range section {
		appName, ok := app.Key.(string)
		if !ok {
			continue
		}

		types, ok := app.Value.(yaml.MapSlice)
		if !ok {
			continue
		}

		for _, typ := range types {
			if typeName, ok := typ.Key.(string); ok {
				order = append(order, [2]string{appName, typeName})
			}
		}
	}

	return order, nil
}

func orderedGet(doc any, key string) any {
	ms, ok := doc.(yaml.MapSlice)
	if !ok {
		return nil
	}

	for _, item := range ms {
		if item.Key == key {
			return item.Value
		}
	}

	return nil
}

// validate applies the semantic rules of the configuration surface:
// the api url is required, list sections must not be empty, and every
// single-entry mapping must hold exactly one entry.
func (c *Config) validate() error {
	if c.NetBox.API.URL == "" {
		return ErrValidate.With(slog.String("missing", "netbox.api.url"))
	}

	for _, stmt := range c.statements {
		if stmt.Options == nil {
			return ErrValidate.With(
				slog.String("application", stmt.Application),
				slog.String("type", stmt.Type),
				slog.String("missing", "import options"),
			)
		}

		if err := stmt.Options.validate(stmt.Application, stmt.Type); err != nil {
			return err
		}
	}

	return nil
}

func (o *ImportOptions) validate(app, typ string) error {
	where := []slog.Attr{
		slog.String("application", app),
		slog.String("type", typ),
	}

	for _, entry := range o.HostVars {
		if len(entry) != 1 {
			return ErrValidate.With(where...).With(
				slog.String("section", "host_vars"),
				slog.Int("entries", len(entry)),
			)
		}
	}

	for _, group := range o.GroupBy {
		if group == "" {
			return ErrValidate.With(where...).With(
				slog.String("section", "group_by"),
				slog.String("reason", "empty group expression"),
			)
		}
	}

	for _, si := range o.SubImports {
		if si.Stack == "" {
			return ErrValidate.With(where...).With(
				slog.String("section", "sub_import"),
				slog.String("missing", "stack"),
			)
		}

		if len(si.Vars) == 0 {
			return ErrValidate.With(where...).With(
				slog.String("section", "sub_import"),
				slog.String("missing", "vars"),
			)
		}

		for _, entry := range si.Vars {
			if len(entry) != 1 {
				return ErrValidate.With(where...).With(
					slog.String("section", "sub_import.vars"),
					slog.Int("entries", len(entry)),
				)
			}

			for name, spec := range entry {
				if err := spec.validate(name); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (v VarSpec) validate(name string) error {
	missing := ""

	switch {
	case v.Application == "":
		missing = "application"
	case v.Type == "":
		missing = "type"
	case v.Index == "":
		missing = "index"
	}

	if missing != "" {
		return ErrValidate.With(
			slog.String("section", "sub_import.vars"),
			slog.String("var", name),
			slog.String("missing", missing),
		)
	}

	return nil
}
