package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	spec := Default()
	require.NoError(t, spec.Validate())
	require.Equal(t, 540, spec.WindowWidth)
	require.Equal(t, 380, spec.WindowHeight)
	require.Equal(t, 128, spec.IconSize)
	require.Equal(t, Point{X: 130, Y: 190}, spec.BundleIcon)
	require.Equal(t, Point{X: 410, Y: 190}, spec.ShortcutIcon)
}

func TestLoadAppliesOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "layout.yaml")
	content := "window_width: 600\nbundle_icon:\n  x: 140\n  y: 200\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	spec, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 600, spec.WindowWidth)
	require.Equal(t, Point{X: 140, Y: 200}, spec.BundleIcon)

	// Untouched fields keep their defaults.
	require.Equal(t, Default().WindowHeight, spec.WindowHeight)
	require.Equal(t, Default().ShortcutIcon, spec.ShortcutIcon)
}

func TestLoadRejectsInvalidGeometry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("icon_size: -4\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsOutOfWindowIcon(t *testing.T) {
	t.Parallel()

	spec := Default()
	spec.ShortcutIcon = Point{X: 900, Y: 190}
	require.Error(t, spec.Validate())
}

func TestBackgroundPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, ".background/background.png", Default().BackgroundPath())
}
