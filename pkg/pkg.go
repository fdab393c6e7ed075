//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
)

// Version is the semantic version of the yaani module embedded at build time.
//
//go:embed VERSION
var Version string

const (
	// Name is the canonical command and module identifier used across the
	// project. It appears in help text and default config lookups.
	Name = "yaani"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Yet another Ansible NetBox inventory"
)

// EnvConfigFile is the environment variable consulted for the configuration
// file path when --config-file is not given.
const EnvConfigFile = "NETBOX_CONFIG_FILE"

// DefaultConfigFile is the fallback configuration file path.
const DefaultConfigFile = "netbox.yml"
