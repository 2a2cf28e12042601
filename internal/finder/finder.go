// Package finder applies the installer window layout to a mounted volume by
// scripting the desktop shell.
package finder

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/soracane/dmgforge/dmg"
	"github.com/soracane/dmgforge/internal/command"
	"github.com/soracane/dmgforge/internal/logging"
	"github.com/soracane/dmgforge/layout"
)

// Ensure Configurator satisfies the pipeline's styler interface.
var _ dmg.Styler = (*Configurator)(nil)

const scripterBinary = "osascript"

// viewScript is the single scripted sequence applied to the volume window:
// icon view, chrome off, fixed bounds, manual arrangement, background image,
// pinned icon positions, then a close/reopen cycle so Finder persists the
// layout to the volume's store.
var viewScript = template.Must(template.New("finder-view").Parse(`tell application "Finder"
	tell disk "{{.VolumeName}}"
		open
		set current view of container window to icon view
		set toolbar visible of container window to false
		set statusbar visible of container window to false
		set the bounds of container window to { {{.Left}}, {{.Top}}, {{.Right}}, {{.Bottom}} }
		set viewOptions to the icon view options of container window
		set arrangement of viewOptions to not arranged
		set icon size of viewOptions to {{.IconSize}}
		set background picture of viewOptions to file "{{.BackgroundFile}}" of folder "{{.BackgroundDir}}"
		set position of item "{{.BundleItem}}" of container window to { {{.BundleX}}, {{.BundleY}} }
{{- if .ShortcutItem}}
		set position of item "{{.ShortcutItem}}" of container window to { {{.ShortcutX}}, {{.ShortcutY}} }
{{- end}}
		close
		open
		update without registering applications
		delay 1
		close
	end tell
end tell
`))

type viewScriptData struct {
	VolumeName     string
	Left, Top      int
	Right, Bottom  int
	IconSize       int
	BackgroundDir  string
	BackgroundFile string
	BundleItem     string
	BundleX        int
	BundleY        int
	ShortcutItem   string
	ShortcutX      int
	ShortcutY      int
}

// Configurator issues layout commands through the desktop scripting
// interface.
type Configurator struct {
	Runner command.Runner
	Logger *slog.Logger
}

// Style renders the view script for the target volume and runs it. A nonzero
// exit, including the ones produced by headless sessions without a desktop
// shell, is reported as a styling failure.
func (c *Configurator) Style(ctx context.Context, target dmg.StyleTarget, spec layout.Spec) error {
	logger := logging.Ensure(c.Logger).With("component", "finder", "volume", target.VolumeName)

	script, err := RenderScript(target, spec)
	if err != nil {
		return dmg.StylingError(err)
	}

	logger.Debug("running view configuration script", "bytes", len(script))
	result, err := c.Runner.RunInput(ctx, script, scripterBinary, "-")
	if err != nil {
		return dmg.StylingError(err)
	}
	if result.ExitCode != 0 {
		return dmg.StylingError(fmt.Errorf(
			"%s exited with status %d: %s", scripterBinary, result.ExitCode, result.Output))
	}

	logger.Info("window layout applied")
	return nil
}

// RenderScript produces the script payload without running it.
func RenderScript(target dmg.StyleTarget, spec layout.Spec) (string, error) {
	if target.VolumeName == "" {
		return "", fmt.Errorf("volume name is required")
	}
	if target.BundleItem == "" {
		return "", fmt.Errorf("bundle item name is required")
	}

	data := viewScriptData{
		VolumeName:     target.VolumeName,
		Left:           spec.WindowOrigin.X,
		Top:            spec.WindowOrigin.Y,
		Right:          spec.WindowOrigin.X + spec.WindowWidth,
		Bottom:         spec.WindowOrigin.Y + spec.WindowHeight,
		IconSize:       spec.IconSize,
		BackgroundDir:  spec.BackgroundDir,
		BackgroundFile: spec.BackgroundFile,
		BundleItem:     target.BundleItem,
		BundleX:        spec.BundleIcon.X,
		BundleY:        spec.BundleIcon.Y,
		ShortcutItem:   target.ShortcutItem,
		ShortcutX:      spec.ShortcutIcon.X,
		ShortcutY:      spec.ShortcutIcon.Y,
	}

	var rendered bytes.Buffer
	if err := viewScript.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("render view script: %w", err)
	}
	return rendered.String(), nil
}
