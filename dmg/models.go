// Package dmg implements the staged pipeline that assembles a compressed,
// optionally styled disk-image installer from an application bundle.
package dmg

import (
	"fmt"
	"strings"
)

// Disk image formats handed to the external utility.
const (
	// FormatReadWrite is the uncompressed read-write intermediate used on the
	// styled path.
	FormatReadWrite = "UDRW"
	// FormatCompressed is the final read-only artifact format.
	FormatCompressed = "UDZO"
)

// Request describes one build. It is immutable once the pipeline starts.
type Request struct {
	// SourcePath is the application bundle directory to package.
	SourcePath string
	// DestinationPath is where the finished image is written. An existing
	// file at this path is overwritten.
	DestinationPath string
	// VolumeName is the display name of the mounted installer volume.
	// Defaults to the bundle name without its extension.
	VolumeName string

	// Styled selects the mount-and-style path: background image, pinned icon
	// positions, Finder view configuration. When false the image is created
	// compressed in one step.
	Styled bool
	// IncludeShortcut adds a link to the install location next to the bundle.
	IncludeShortcut bool

	// SystemRequirements, when non-empty and IncludeSystemRequirements is
	// set, is written to the volume as a text document.
	IncludeSystemRequirements bool
	SystemRequirements        string

	// ReadmeText and ReadmeFile are mutually exclusive README sources: a
	// literal string, or a file whose text is re-encoded as UTF-8. An empty
	// ReadmeText writes nothing.
	ReadmeText string
	ReadmeFile string
}

// Validate reports request-level problems that are independent of the
// filesystem.
func (r Request) Validate() error {
	if strings.TrimSpace(r.SourcePath) == "" {
		return fmt.Errorf("source path is required")
	}
	if strings.TrimSpace(r.DestinationPath) == "" {
		return fmt.Errorf("destination path is required")
	}
	if r.ReadmeText != "" && r.ReadmeFile != "" {
		return fmt.Errorf("readme text and readme file are mutually exclusive")
	}
	return nil
}
