// Package staging owns the temporary working directory a build assembles the
// volume content in. The area is exclusively owned by one build and removed
// unconditionally when the pipeline exits.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Conventional names of generated volume items.
const (
	ShortcutName           = "Applications"
	InstallTarget          = "/Applications"
	ReadmeName             = "README.txt"
	SystemRequirementsName = "System Requirements.txt"
)

// Area is a uniquely named staging directory. Content destined for the
// volume lives under ContentDir; build intermediates under ScratchDir.
type Area struct {
	root    string
	content string
	scratch string
}

// New allocates a fresh area under parent, or the system temp directory when
// parent is empty.
func New(parent string) (*Area, error) {
	if parent == "" {
		parent = os.TempDir()
	}

	root := filepath.Join(parent, "dmgforge-"+uuid.NewString())
	area := &Area{
		root:    root,
		content: filepath.Join(root, "content"),
		scratch: filepath.Join(root, "scratch"),
	}

	for _, dir := range []string{area.content, area.scratch} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("create staging directory: %w", err)
		}
	}
	return area, nil
}

// Root returns the area's top-level directory.
func (a *Area) Root() string { return a.root }

// ContentDir returns the directory that becomes the volume content.
func (a *Area) ContentDir() string { return a.content }

// ScratchDir returns the directory for build intermediates.
func (a *Area) ScratchDir() string { return a.scratch }

// Remove deletes the area and everything beneath it.
func (a *Area) Remove() error {
	if a == nil || a.root == "" {
		return nil
	}
	if err := os.RemoveAll(a.root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove staging directory: %w", err)
	}
	return nil
}

// CopyBundle mirrors the bundle directory into the content area, preserving
// structure, permissions and internal symlinks. The source is never mutated.
// It returns the staged top-level name.
func (a *Area) CopyBundle(src string) (string, error) {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return "", fmt.Errorf("resolve bundle path %q: %w", src, err)
	}

	name := filepath.Base(srcAbs)
	if err := copyTree(srcAbs, filepath.Join(a.content, name)); err != nil {
		return "", fmt.Errorf("copy bundle %q: %w", srcAbs, err)
	}
	return name, nil
}

// CreateShortcut links the conventional install-location name to target
// inside the content area. The link does not own its target.
func (a *Area) CreateShortcut(target string) error {
	if target == "" {
		target = InstallTarget
	}
	linkPath := filepath.Join(a.content, filepath.Base(target))
	if err := os.Symlink(target, linkPath); err != nil {
		return fmt.Errorf("create shortcut to %q: %w", target, err)
	}
	return nil
}

// WriteText writes a UTF-8 text document into the content area atomically:
// the content lands in a temp file first and is renamed into place, so a
// crash never leaves a truncated document.
func (a *Area) WriteText(name, content string) error {
	tmp, err := os.CreateTemp(a.scratch, "text-*")
	if err != nil {
		return fmt.Errorf("stage text %q: %w", name, err)
	}

	_, writeErr := io.WriteString(tmp, content)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("stage text %q: %w", name, err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("stage text %q: %w", name, err)
	}

	final := filepath.Join(a.content, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("place text %q: %w", name, err)
	}
	return nil
}

// ImportText reads a user-supplied text file, re-encodes it as UTF-8 and
// writes it into the content area under name.
func (a *Area) ImportText(name, srcPath string) error {
	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read text source %q: %w", srcPath, err)
	}
	text, err := DecodeText(raw)
	if err != nil {
		return fmt.Errorf("decode text source %q: %w", srcPath, err)
	}
	return a.WriteText(name, text)
}

func copyTree(srcDir, dstDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstDir, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := info.Mode()

		switch {
		case d.IsDir():
			return os.MkdirAll(target, mode.Perm())
		case mode&os.ModeSymlink != 0:
			// Bundles routinely contain relative framework links; recreate
			// them verbatim.
			dest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(dest, target)
		case mode.IsRegular():
			return copyFile(path, target, mode.Perm())
		default:
			return fmt.Errorf("unsupported file type %s at %s", mode, path)
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
