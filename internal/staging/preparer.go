package staging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/soracane/dmgforge/dmg"
	"github.com/soracane/dmgforge/internal/logging"
)

// Ensure Preparer satisfies the pipeline's preparer interface.
var _ dmg.EnvironmentPreparer = (*Preparer)(nil)

// Preparer provisions a staging area for a build request.
type Preparer struct {
	// Parent is where staging areas are allocated; empty means the system
	// temp directory.
	Parent string
	// InstallTarget overrides the fixed install directory the shortcut
	// points at. Empty means /Applications.
	InstallTarget string
	Logger        *slog.Logger
}

// Prepare populates a fresh staging area: bundle copy, optional shortcut
// link, optional generated text documents. The area is torn down here on any
// partial failure; otherwise ownership passes to the returned environment.
func (p *Preparer) Prepare(ctx context.Context, req dmg.Request) (dmg.Environment, error) {
	logger := logging.Ensure(p.Logger).With("component", "staging")

	if err := ctx.Err(); err != nil {
		return nil, dmg.StagingError("build cancelled", err)
	}

	area, err := New(p.Parent)
	if err != nil {
		return nil, dmg.StagingError("allocate staging area", err)
	}
	logger = logger.With("staging_dir", area.Root())

	owned := false
	defer func() {
		if !owned {
			if removeErr := area.Remove(); removeErr != nil {
				logger.Warn("staging cleanup after failed prepare", "error", removeErr)
			}
		}
	}()

	bundleName, err := area.CopyBundle(req.SourcePath)
	if err != nil {
		return nil, dmg.CopyError(err)
	}
	logger.Info("bundle staged", "bundle", bundleName)

	shortcutName := ""
	if req.IncludeShortcut {
		if err := area.CreateShortcut(p.InstallTarget); err != nil {
			return nil, dmg.ShortcutError(err)
		}
		shortcutName = ShortcutName
		if p.InstallTarget != "" {
			shortcutName = lastPathElement(p.InstallTarget)
		}
	}

	if req.IncludeSystemRequirements && req.SystemRequirements != "" {
		if err := area.WriteText(SystemRequirementsName, req.SystemRequirements); err != nil {
			return nil, dmg.FileWriteError(SystemRequirementsName, err)
		}
	}

	switch {
	case req.ReadmeFile != "":
		if err := area.ImportText(ReadmeName, req.ReadmeFile); err != nil {
			return nil, dmg.FileWriteError(ReadmeName, err)
		}
	case req.ReadmeText != "":
		if err := area.WriteText(ReadmeName, req.ReadmeText); err != nil {
			return nil, dmg.FileWriteError(ReadmeName, err)
		}
	}

	owned = true
	return &environment{area: area, bundleName: bundleName, shortcutName: shortcutName}, nil
}

var _ dmg.Environment = (*environment)(nil)

type environment struct {
	area         *Area
	bundleName   string
	shortcutName string
}

func (e *environment) ContentDir() string   { return e.area.ContentDir() }
func (e *environment) ScratchDir() string   { return e.area.ScratchDir() }
func (e *environment) BundleName() string   { return e.bundleName }
func (e *environment) ShortcutName() string { return e.shortcutName }
func (e *environment) Cleanup() error       { return e.area.Remove() }

func lastPathElement(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
