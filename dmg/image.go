package dmg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/soracane/dmgforge/layout"
	"github.com/soracane/dmgforge/progress"
)

// imageState tracks the disk-image lifecycle. The styled path walks
// idle → createdRW → mounted → styled → unmounted → compressed → done;
// the unstyled fast path is idle → createdRO → done.
type imageState int

const (
	stateIdle imageState = iota
	stateCreatedRW
	stateCreatedRO
	stateMounted
	stateStyled
	stateUnmounted
	stateCompressed
	stateDone
)

func (s imageState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCreatedRW:
		return "created-rw"
	case stateCreatedRO:
		return "created-ro"
	case stateMounted:
		return "mounted"
	case stateStyled:
		return "styled"
	case stateUnmounted:
		return "unmounted"
	case stateCompressed:
		return "compressed"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// imageBuilder drives the external disk-image utility for one build.
type imageBuilder struct {
	tool       ImageTool
	styler     Styler
	layout     layout.Spec
	background []byte
	reporter   *progress.Reporter
	logger     *slog.Logger

	state imageState
}

// Build produces the final image at destination from the prepared
// environment. On the styled path the mounted volume is always detached once
// attached, even when styling fails, and compression is still attempted so a
// diagnostic-rich partial failure does not leak a mounted volume.
func (b *imageBuilder) Build(ctx context.Context, env Environment, destination, volumeName string, styled bool) (string, error) {
	// A stale artifact from a prior failed run must never survive.
	if err := os.Remove(destination); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", StagingError("clear destination", err)
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return "", StagingError("ensure destination directory", err)
	}

	if !styled {
		return b.buildPlain(ctx, env, destination, volumeName)
	}
	return b.buildStyled(ctx, env, destination, volumeName)
}

func (b *imageBuilder) buildPlain(ctx context.Context, env Environment, destination, volumeName string) (string, error) {
	b.reporter.Report(progress.StageCreateImage, fmt.Sprintf("creating compressed image %s", filepath.Base(destination)))

	output, err := b.tool.Create(ctx, volumeName, env.ContentDir(), FormatCompressed, destination)
	b.forward(output)
	if err != nil {
		return "", err
	}
	b.transition(stateCreatedRO)
	b.transition(stateDone)
	return destination, nil
}

func (b *imageBuilder) buildStyled(ctx context.Context, env Environment, destination, volumeName string) (string, error) {
	rwImage := filepath.Join(env.ScratchDir(), "rw.dmg")

	b.reporter.Report(progress.StageCreateImage, "creating read-write intermediate image")
	output, err := b.tool.Create(ctx, volumeName, env.ContentDir(), FormatReadWrite, rwImage)
	b.forward(output)
	if err != nil {
		return "", err
	}
	b.transition(stateCreatedRW)

	mountPoint := filepath.Join(env.ScratchDir(), mountName(volumeName))
	b.reporter.Report(progress.StageMount, fmt.Sprintf("attaching volume %q", volumeName))
	output, err = b.tool.Attach(ctx, rwImage, mountPoint)
	b.forward(output)
	if err != nil {
		return "", err
	}
	b.transition(stateMounted)

	// Styling failures are recoverable for teardown purposes: the volume is
	// still detached and compression still attempted, but the build reports
	// the styling error.
	b.reporter.Report(progress.StageStyle, "applying window layout")
	styleErr := b.style(ctx, StyleTarget{
		MountPoint:   mountPoint,
		VolumeName:   volumeName,
		BundleItem:   env.BundleName(),
		ShortcutItem: env.ShortcutName(),
	})
	if styleErr == nil {
		b.transition(stateStyled)
	} else {
		b.logger.Warn("styling failed, continuing teardown", "error", styleErr)
	}

	b.reporter.Report(progress.StageUnmount, "detaching volume")
	if err := b.detach(ctx, mountPoint); err != nil {
		if styleErr != nil {
			return "", styleErr
		}
		return "", err
	}
	b.transition(stateUnmounted)

	b.reporter.Report(progress.StageCompress, fmt.Sprintf("compressing image to %s", filepath.Base(destination)))
	output, err = b.tool.Convert(ctx, rwImage, destination)
	b.forward(output)
	if err != nil {
		if styleErr != nil {
			return "", styleErr
		}
		return "", err
	}
	b.transition(stateCompressed)

	if styleErr != nil {
		return "", styleErr
	}
	b.transition(stateDone)
	return destination, nil
}

// style copies the rendered background into the hidden directory on the
// mounted volume and hands the volume to the view configurator.
func (b *imageBuilder) style(ctx context.Context, target StyleTarget) error {
	backgroundDir := filepath.Join(target.MountPoint, b.layout.BackgroundDir)
	if err := os.MkdirAll(backgroundDir, 0o755); err != nil {
		return StylingError(fmt.Errorf("create background directory: %w", err))
	}
	backgroundPath := filepath.Join(backgroundDir, b.layout.BackgroundFile)
	if err := os.WriteFile(backgroundPath, b.background, 0o644); err != nil {
		return StylingError(fmt.Errorf("write background image: %w", err))
	}
	return b.styler.Style(ctx, target, b.layout)
}

// detach unmounts the volume, falling back to a forced detach before
// propagating the original failure. The fallback runs even when ctx is
// already cancelled so an aborted build cannot leak a mounted volume.
func (b *imageBuilder) detach(ctx context.Context, mountPoint string) error {
	output, err := b.tool.Detach(ctx, mountPoint, false)
	b.forward(output)
	if err == nil {
		return nil
	}

	forcedOutput, forcedErr := b.tool.Detach(context.WithoutCancel(ctx), mountPoint, true)
	b.forward(forcedOutput)
	if forcedErr == nil {
		return nil
	}
	return err
}

func (b *imageBuilder) transition(next imageState) {
	b.logger.Debug("image state transition", "from", b.state.String(), "to", next.String())
	b.state = next
}

// forward relays external tool output verbatim so the caller keeps the
// diagnostic even when the invocation failed.
func (b *imageBuilder) forward(output string) {
	if strings.TrimSpace(output) == "" {
		return
	}
	b.reporter.Report(progress.StageToolOutput, output)
}

// mountName derives a deterministic mount directory name from the volume
// name. Uniqueness across concurrent builds comes from the scratch directory
// it is joined under.
func mountName(volumeName string) string {
	const maxLen = 32

	var b strings.Builder
	for _, r := range volumeName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		if b.Len() >= maxLen {
			break
		}
	}
	if b.Len() == 0 {
		return "volume"
	}
	return b.String()
}
