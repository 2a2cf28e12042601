package dmg

import (
	"context"

	"github.com/soracane/dmgforge/layout"
)

// Environment is a prepared staging area. It owns everything beneath it and
// is removed by Cleanup on every pipeline exit path.
type Environment interface {
	// ContentDir holds the material that becomes the volume's content.
	ContentDir() string
	// ScratchDir holds build intermediates (read-write image, mount point).
	ScratchDir() string
	// BundleName is the top-level name of the staged bundle item.
	BundleName() string
	// ShortcutName is the name of the staged install-location link, or ""
	// when none was requested.
	ShortcutName() string
	Cleanup() error
}

// EnvironmentPreparer provisions the staging area for a request: bundle copy,
// optional shortcut link, optional generated text documents.
type EnvironmentPreparer interface {
	Prepare(ctx context.Context, req Request) (Environment, error)
}

// ImageTool drives the external disk-image utility. Each method returns the
// tool's combined stdout and stderr, which is forwarded to the progress sink
// whether or not the call failed.
type ImageTool interface {
	Create(ctx context.Context, volumeName, srcDir, format, outPath string) (string, error)
	Attach(ctx context.Context, imagePath, mountPoint string) (string, error)
	Detach(ctx context.Context, mountPoint string, force bool) (string, error)
	Convert(ctx context.Context, imagePath, outPath string) (string, error)
}

// StyleTarget identifies the mounted volume handed to the Styler.
type StyleTarget struct {
	MountPoint string
	VolumeName string
	// BundleItem is the staged bundle's top-level name on the volume.
	BundleItem string
	// ShortcutItem is the install-location link name, or "" when absent.
	ShortcutItem string
}

// Styler applies the window layout to the mounted volume.
type Styler interface {
	Style(ctx context.Context, target StyleTarget, spec layout.Spec) error
}
