// Package layout defines the window and icon geometry shared by the
// background renderer and the Finder view configurator. Both consume the same
// immutable Spec so the drawn indicator and the pinned icon positions cannot
// drift apart.
package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Point is a coordinate in Finder window space (origin bottom-left).
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Spec is the geometry of the installer window.
type Spec struct {
	WindowOrigin Point `yaml:"window_origin"`
	WindowWidth  int   `yaml:"window_width"`
	WindowHeight int   `yaml:"window_height"`
	IconSize     int   `yaml:"icon_size"`

	// BundleIcon is the slot of the staged application bundle, ShortcutIcon
	// the slot of the install-target link.
	BundleIcon   Point `yaml:"bundle_icon"`
	ShortcutIcon Point `yaml:"shortcut_icon"`

	// ArrowMargin is the gap kept between each icon slot edge and the drawn
	// indicator.
	ArrowMargin int `yaml:"arrow_margin"`

	BackgroundDir  string `yaml:"background_dir"`
	BackgroundFile string `yaml:"background_file"`
}

// Default returns the stock installer geometry.
func Default() Spec {
	return Spec{
		WindowOrigin:   Point{X: 400, Y: 160},
		WindowWidth:    540,
		WindowHeight:   380,
		IconSize:       128,
		BundleIcon:     Point{X: 130, Y: 190},
		ShortcutIcon:   Point{X: 410, Y: 190},
		ArrowMargin:    20,
		BackgroundDir:  ".background",
		BackgroundFile: "background.png",
	}
}

// Load reads a YAML override file on top of the default geometry.
func Load(path string) (Spec, error) {
	spec := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read layout file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return Spec{}, fmt.Errorf("parse layout file %q: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, fmt.Errorf("layout file %q: %w", path, err)
	}
	return spec, nil
}

// Validate reports whether the geometry is internally consistent.
func (s Spec) Validate() error {
	if s.WindowWidth <= 0 || s.WindowHeight <= 0 {
		return fmt.Errorf("window size %dx%d is not positive", s.WindowWidth, s.WindowHeight)
	}
	if s.IconSize <= 0 {
		return fmt.Errorf("icon size %d is not positive", s.IconSize)
	}
	if s.ArrowMargin < 0 {
		return fmt.Errorf("arrow margin %d is negative", s.ArrowMargin)
	}
	for name, p := range map[string]Point{"bundle icon": s.BundleIcon, "shortcut icon": s.ShortcutIcon} {
		if p.X < 0 || p.X > s.WindowWidth || p.Y < 0 || p.Y > s.WindowHeight {
			return fmt.Errorf("%s position (%d,%d) lies outside the %dx%d window",
				name, p.X, p.Y, s.WindowWidth, s.WindowHeight)
		}
	}
	if s.BackgroundDir == "" || s.BackgroundFile == "" {
		return fmt.Errorf("background directory and file names must not be empty")
	}
	return nil
}

// BackgroundPath returns the volume-relative path of the background image.
func (s Spec) BackgroundPath() string {
	return s.BackgroundDir + "/" + s.BackgroundFile
}

// Marshal renders the spec as YAML, suitable as a starting point for an
// override file.
func (s Spec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
