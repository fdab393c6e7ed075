// Package cli wires the command-line surface: flag parsing, logger and
// profiler setup, configuration loading, and inventory output.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/a-delannoy/yaani/config"
	"github.com/a-delannoy/yaani/inventory"
	"github.com/a-delannoy/yaani/netbox"
	"github.com/a-delannoy/yaani/pkg"
)

// CLI is the top-level command-line interface for yaani.
type CLI struct {
	Log     logConfig     `embed:"" group:"log"     prefix:"log-"`
	Profile profileConfig `embed:"" group:"profile" prefix:"profile-"`

	ConfigFile string `default:"${config_file}" help:"Path of the configuration file." short:"c" type:"path"`

	List bool   `help:"Output the complete inventory document." xor:"mode"`
	Host string `help:"Output the variables of a single host."  xor:"mode" placeholder:"NAME"`

	Version kong.VersionFlag `help:"Print version information and quit."`

	output io.Writer
}

// Run executes the yaani CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	cli := CLI{output: os.Stdout}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless
	// of flag position. TextUnmarshaler on logFormat/logLevel handles
	// those flags during normal parsing, but this early scan also catches
	// boolean flags like --log-caller.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Profile.group()},
		),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact: true,
				Summary: true,
			}),
		kong.Vars{
			"config_file": config.Path(),
			"version":     pkg.Name + " " + strings.TrimSpace(pkg.Version),
		},
	)
	if err != nil {
		return err
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// No-op unless a profiling mode was selected.
	defer cli.Profile.start(ctx)()

	return cli.execute(ctx)
}

// execute runs the selected inventory mode. Without --list or --host the
// output is an empty document; dynamic inventory callers always pass one
// of the two.
func (c *CLI) execute(ctx context.Context) error {
	if !c.List && c.Host == "" {
		return c.write(map[string]any{})
	}

	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return err
	}

	client := netbox.NewClient(cfg.NetBox.API)
	builder := inventory.NewBuilder(cfg, netbox.NewRegistry(client, cfg))

	var doc map[string]any

	if c.List {
		doc, err = builder.BuildList(ctx)
	} else {
		doc, err = builder.BuildHost(ctx, c.Host)
	}

	if err != nil {
		return err
	}

	return c.write(doc)
}

// write renders a document as JSON on the output stream. Map keys are
// sorted so repeated runs over identical data emit identical bytes.
func (c *CLI) write(doc map[string]any) error {
	out := c.output
	if out == nil {
		out = os.Stdout
	}

	_, err := fmt.Fprintln(out, oj.JSON(doc, &ojg.Options{Sort: true, Indent: 4}))

	return err
}
