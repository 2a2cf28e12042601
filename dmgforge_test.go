package dmgforge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soracane/dmgforge/dmg"
	"github.com/soracane/dmgforge/internal/command"
	"github.com/soracane/dmgforge/progress"
)

// scriptedHost fakes the host tools: hdiutil subcommands are simulated on the
// local filesystem and osascript invocations are recorded.
type scriptedHost struct {
	scripts []string
	history []string
}

func (h *scriptedHost) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	return h.RunInput(ctx, "", name, args...)
}

func (h *scriptedHost) RunInput(_ context.Context, input string, name string, args ...string) (command.Result, error) {
	switch name {
	case "osascript":
		h.history = append(h.history, "osascript")
		h.scripts = append(h.scripts, input)
		return command.Result{}, nil
	case "hdiutil":
		sub := args[0]
		h.history = append(h.history, "hdiutil "+sub)
		switch sub {
		case "create":
			return h.create(args)
		case "attach":
			return command.Result{}, os.MkdirAll(flagValue(args, "-mountpoint"), 0o755)
		case "detach":
			return command.Result{}, os.RemoveAll(args[1])
		case "convert":
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return command.Result{ExitCode: 1, Output: err.Error()}, nil
			}
			return command.Result{}, os.WriteFile(flagValue(args, "-o"), raw, 0o644)
		}
	}
	return command.Result{ExitCode: 127, Output: "unknown tool " + name}, nil
}

func (h *scriptedHost) create(args []string) (command.Result, error) {
	srcDir := flagValue(args, "-srcfolder")
	if _, err := os.Stat(srcDir); err != nil {
		return command.Result{ExitCode: 1, Output: err.Error()}, nil
	}
	outPath := args[len(args)-1]
	content := fmt.Sprintf("dmg volname=%s format=%s", flagValue(args, "-volname"), flagValue(args, "-format"))
	return command.Result{Output: "created: " + outPath}, os.WriteFile(outPath, []byte(content), 0o644)
}

func flagValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeBundle(t *testing.T, parent string) string {
	t.Helper()

	root := filepath.Join(parent, "Demo.app")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Contents", "MacOS"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Contents", "Info.plist"), []byte("<plist/>"), 0o644))
	return root
}

func TestStyledBuildAgainstScriptedHost(t *testing.T) {
	t.Parallel()

	host := &scriptedHost{}
	stagingParent := t.TempDir()
	destination := filepath.Join(t.TempDir(), "Demo.dmg")

	service := newService(nil, host, Options{StagingParent: stagingParent})

	var stages []progress.Stage
	artifact, err := service.Run(context.Background(), dmg.Request{
		SourcePath:      writeBundle(t, t.TempDir()),
		DestinationPath: destination,
		Styled:          true,
		IncludeShortcut: true,
		ReadmeText:      "Drag Demo.app onto Applications.\n",
	}, func(event progress.Event) {
		stages = append(stages, event.Stage)
	})
	require.NoError(t, err)
	require.FileExists(t, artifact)

	require.Equal(t, []string{
		"hdiutil create",
		"hdiutil attach",
		"osascript",
		"hdiutil detach",
		"hdiutil convert",
	}, host.history)

	require.Len(t, host.scripts, 1)
	require.Contains(t, host.scripts[0], `tell disk "Demo"`)
	require.Contains(t, host.scripts[0], `"Applications"`)

	require.Contains(t, stages, progress.StageRender)
	require.Contains(t, stages, progress.StageStyle)
	require.Equal(t, progress.StageDone, stages[len(stages)-1])

	entries, err := os.ReadDir(stagingParent)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestBuildRejectsInvalidBundle(t *testing.T) {
	t.Parallel()

	_, err := Build(context.Background(), dmg.Request{
		SourcePath:      filepath.Join(t.TempDir(), "Missing.app"),
		DestinationPath: filepath.Join(t.TempDir(), "out.dmg"),
	}, nil)
	require.Equal(t, dmg.ErrInvalidBundle, dmg.KindOf(err))
}
