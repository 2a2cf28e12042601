package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsBundleDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Demo.app")
	require.NoError(t, os.Mkdir(path, 0o755))

	require.NoError(t, Validate(path))
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	plainDir := filepath.Join(tempDir, "Demo")
	require.NoError(t, os.Mkdir(plainDir, 0o755))

	appFile := filepath.Join(tempDir, "Demo2.app")
	require.NoError(t, os.WriteFile(appFile, []byte("not a directory"), 0o644))

	cases := map[string]string{
		"empty path":          "",
		"missing extension":   plainDir,
		"nonexistent path":    filepath.Join(tempDir, "Ghost.app"),
		"regular file bundle": appFile,
	}

	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, Validate(path))
		})
	}
}

func TestNameAndDisplayName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Demo.app", Name("/tmp/builds/Demo.app/"))
	require.Equal(t, "Demo", DisplayName("/tmp/builds/Demo.app"))
}
