package dmg

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/soracane/dmgforge/internal/bundle"
	"github.com/soracane/dmgforge/layout"
	"github.com/soracane/dmgforge/progress"
)

// Service runs the build pipeline: validate → stage → (render, style) →
// image. Collaborators are injected; zero-value optional fields fall back to
// sane defaults.
type Service struct {
	Logger   *slog.Logger
	Preparer EnvironmentPreparer
	Tool     ImageTool
	// Styler is only consulted on the styled path.
	Styler Styler
	Layout layout.Spec

	// RenderBackground produces the encoded background image for the layout.
	RenderBackground func(layout.Spec) ([]byte, error)
	// FreeSpace reports the usable bytes on the filesystem holding dir.
	// Defaults to a statfs probe.
	FreeSpace func(dir string) (uint64, error)
}

// Run executes one build and returns the artifact path. Progress events are
// delivered to sink in pipeline order from a single dispatcher goroutine; the
// staging area is removed on every exit path.
func (s *Service) Run(ctx context.Context, req Request, sink progress.Sink) (artifact string, err error) {
	logger := s.logger().With("source", req.SourcePath, "destination", req.DestinationPath)

	reporter := progress.NewReporter(sink)
	defer reporter.Close()

	if err := req.Validate(); err != nil {
		return "", StagingError("invalid request", err)
	}

	reporter.Report(progress.StageValidate, "validating application bundle")
	if err := bundle.Validate(req.SourcePath); err != nil {
		return "", InvalidBundleError(err)
	}

	volumeName := req.VolumeName
	if volumeName == "" {
		volumeName = bundle.DisplayName(req.SourcePath)
	}
	logger = logger.With("volume", volumeName)
	logger.Info("starting installer build", "styled", req.Styled)

	reporter.Report(progress.StageStaging, "preparing staging area")
	env, err := s.Preparer.Prepare(ctx, req)
	if err != nil {
		return "", err
	}
	defer func() {
		if cleanupErr := env.Cleanup(); cleanupErr != nil {
			logger.Warn("staging cleanup failed", "error", cleanupErr)
		}
	}()
	logger.Info("staging area prepared", "content_dir", env.ContentDir())

	if err := s.preflightSpace(env.ContentDir(), req); err != nil {
		return "", err
	}

	var backgroundPNG []byte
	if req.Styled {
		reporter.Report(progress.StageRender, "rendering background image")
		backgroundPNG, err = s.renderBackground()
		if err != nil {
			return "", RenderError(err)
		}
	}

	builder := &imageBuilder{
		tool:       s.Tool,
		styler:     s.Styler,
		layout:     s.effectiveLayout(),
		background: backgroundPNG,
		reporter:   reporter,
		logger:     logger.With("component", "image_builder"),
	}

	artifact, err = builder.Build(ctx, env, req.DestinationPath, volumeName, req.Styled)
	if err != nil {
		logger.Error("build failed", "error", err, "state", builder.state.String())
		return "", err
	}

	reporter.Report(progress.StageDone, fmt.Sprintf("installer written to %s", artifact))
	logger.Info("installer build finished", "artifact", artifact)
	return artifact, nil
}

// preflightSpace fails the build early when the destination filesystem cannot
// hold the intermediates plus the final artifact.
func (s *Service) preflightSpace(contentDir string, req Request) error {
	probe := s.FreeSpace
	if probe == nil {
		probe = freeSpace
	}

	used, err := treeSize(contentDir)
	if err != nil {
		return StagingError("measure staged content", err)
	}

	const slack = 64 << 20
	need := uint64(used) + slack
	if req.Styled {
		// Read-write intermediate plus the compressed result.
		need += uint64(used)
	}

	free, err := probe(filepath.Dir(req.DestinationPath))
	if err != nil {
		// A failed probe is not fatal: the tool will surface the real error.
		s.logger().Debug("free space probe failed", "error", err)
		return nil
	}
	if free < need {
		return StagingError(
			fmt.Sprintf("destination filesystem has %d bytes free, build needs about %d", free, need),
			nil,
		)
	}
	return nil
}

func (s *Service) renderBackground() ([]byte, error) {
	if s.RenderBackground == nil {
		return nil, fmt.Errorf("no background renderer configured")
	}
	return s.RenderBackground(s.effectiveLayout())
}

func (s *Service) effectiveLayout() layout.Spec {
	if s.Layout == (layout.Spec{}) {
		return layout.Default()
	}
	return s.Layout
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
