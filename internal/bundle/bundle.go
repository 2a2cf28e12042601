// Package bundle validates application bundle sources.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the directory suffix expected of an application bundle.
const Extension = ".app"

// Validate confirms that path names a well-formed bundle: it must carry the
// bundle extension and be an existing directory. Validate never writes to the
// filesystem.
func Validate(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("bundle path is empty")
	}
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return fmt.Errorf("%q does not have the %s extension", path, Extension)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat bundle %q: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("bundle %q is not a directory", path)
	}
	return nil
}

// Name returns the bundle's top-level name, e.g. "MyApp.app".
func Name(path string) string {
	return filepath.Base(filepath.Clean(path))
}

// DisplayName returns the bundle name without the extension, used as the
// default volume name.
func DisplayName(path string) string {
	name := Name(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
