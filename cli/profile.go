package cli

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"

	"github.com/a-delannoy/yaani/log"
)

type profileConfig struct {
	Mode string `default:"off" enum:"off,cpu,mem,trace" help:"Enable runtime profiling."`
	Dir  string `default:"."                            help:"Profile output directory."`
}

func (*profileConfig) group() kong.Group {
	var group kong.Group

	group.Key = "profile"
	group.Title = "Profiling options"

	return group
}

// start begins profiling when a mode is selected and returns the stop
// function. The returned function is a no-op when profiling is off.
func (f *profileConfig) start(ctx context.Context) func() {
	if f.Mode == "off" || f.Mode == "" {
		return func() {}
	}

	opts := []func(*profile.Profile){
		profile.ProfilePath(f.Dir),
		profile.Quiet,
	}

	switch f.Mode {
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfile)
	case "trace":
		opts = append(opts, profile.TraceProfile)
	}

	log.DebugContext(ctx, "profiling started",
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
	)

	return profile.Start(opts...).Stop
}
