// Package hdiutil wraps the external disk-image utility. Every subcommand
// reports its exit status and combined output; a nonzero exit is fatal to the
// build and carries the verbatim tool output.
package hdiutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soracane/dmgforge/dmg"
	"github.com/soracane/dmgforge/internal/command"
	"github.com/soracane/dmgforge/internal/logging"
)

// Ensure Tool satisfies the pipeline's image tool interface.
var _ dmg.ImageTool = (*Tool)(nil)

const defaultBinary = "hdiutil"

// Tool runs disk-image subcommands through the shared command runner.
type Tool struct {
	Runner command.Runner
	Logger *slog.Logger
	// Binary overrides the utility name, used by tests.
	Binary string
}

// Create builds an image of the requested format from srcDir.
func (t *Tool) Create(ctx context.Context, volumeName, srcDir, format, outPath string) (string, error) {
	return t.run(ctx, "create",
		"create",
		"-volname", volumeName,
		"-srcfolder", srcDir,
		"-ov",
		"-fs", "HFS+",
		"-format", format,
		outPath,
	)
}

// Attach mounts the image at mountPoint without surfacing it in the desktop
// shell's sidebar.
func (t *Tool) Attach(ctx context.Context, imagePath, mountPoint string) (string, error) {
	return t.run(ctx, "attach",
		"attach", imagePath,
		"-mountpoint", mountPoint,
		"-nobrowse",
		"-noverify",
		"-noautoopen",
	)
}

// Detach unmounts the volume at mountPoint, forcibly when force is set.
func (t *Tool) Detach(ctx context.Context, mountPoint string, force bool) (string, error) {
	args := []string{"detach", mountPoint}
	if force {
		args = append(args, "-force")
	}
	return t.run(ctx, "detach", args...)
}

// Convert re-encodes the image as the final compressed read-only artifact.
func (t *Tool) Convert(ctx context.Context, imagePath, outPath string) (string, error) {
	return t.run(ctx, "convert",
		"convert", imagePath,
		"-format", dmg.FormatCompressed,
		"-imagekey", "zlib-level=9",
		"-ov",
		"-o", outPath,
	)
}

func (t *Tool) run(ctx context.Context, operation string, args ...string) (string, error) {
	binary := t.Binary
	if binary == "" {
		binary = defaultBinary
	}

	logger := logging.Ensure(t.Logger).With("component", "hdiutil", "operation", operation)
	logger.Debug("running disk-image utility", "args", fmt.Sprint(args))

	result, err := t.Runner.Run(ctx, binary, args...)
	if err != nil {
		return result.Output, dmg.ToolError(operation, -1, err.Error())
	}
	if result.ExitCode != 0 {
		logger.Warn("disk-image utility failed", "exit_code", result.ExitCode)
		return result.Output, dmg.ToolError(operation, result.ExitCode, result.Output)
	}
	return result.Output, nil
}
