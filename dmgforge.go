// Package dmgforge packages an application bundle into a compressed,
// optionally styled disk-image installer. This file wires the default
// collaborators; the pipeline itself lives in the dmg package.
package dmgforge

import (
	"context"
	"log/slog"

	"github.com/soracane/dmgforge/dmg"
	"github.com/soracane/dmgforge/internal/background"
	"github.com/soracane/dmgforge/internal/command"
	"github.com/soracane/dmgforge/internal/finder"
	"github.com/soracane/dmgforge/internal/hdiutil"
	"github.com/soracane/dmgforge/internal/logging"
	"github.com/soracane/dmgforge/internal/staging"
	"github.com/soracane/dmgforge/layout"
	"github.com/soracane/dmgforge/progress"
)

// Options tune the default wiring.
type Options struct {
	Logger *slog.Logger
	// Layout overrides the stock window geometry.
	Layout layout.Spec
	// StagingParent is where staging areas are allocated; empty means the
	// system temp directory.
	StagingParent string
	// InstallTarget overrides the directory the shortcut points at.
	InstallTarget string
}

// Build runs one installer build with default options. Progress events are
// delivered to sink in pipeline order; the returned path is the produced
// artifact.
func Build(ctx context.Context, req dmg.Request, sink progress.Sink) (string, error) {
	return BuildWithOptions(ctx, req, sink, Options{})
}

// BuildWithOptions runs one installer build using the provided options.
func BuildWithOptions(ctx context.Context, req dmg.Request, sink progress.Sink, opts Options) (string, error) {
	logger := logging.Ensure(opts.Logger)
	runner := command.ExecRunner{}

	service := newService(logger, runner, opts)
	return service.Run(ctx, req, sink)
}

// newService assembles a pipeline service from the default collaborators.
func newService(logger *slog.Logger, runner command.Runner, opts Options) *dmg.Service {
	logger = logging.Ensure(logger)

	spec := opts.Layout
	if spec == (layout.Spec{}) {
		spec = layout.Default()
	}

	return &dmg.Service{
		Logger: logger.With("service", "dmg"),
		Preparer: &staging.Preparer{
			Parent:        opts.StagingParent,
			InstallTarget: opts.InstallTarget,
			Logger:        logger,
		},
		Tool: &hdiutil.Tool{
			Runner: runner,
			Logger: logger,
		},
		Styler: &finder.Configurator{
			Runner: runner,
			Logger: logger,
		},
		Layout:           spec,
		RenderBackground: background.RenderPNG,
	}
}
