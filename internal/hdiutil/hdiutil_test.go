package hdiutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soracane/dmgforge/dmg"
	"github.com/soracane/dmgforge/internal/command"
)

type stubRunner struct {
	result command.Result
	err    error

	name string
	args []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) (command.Result, error) {
	s.name = name
	s.args = args
	return s.result, s.err
}

func (s *stubRunner) RunInput(ctx context.Context, _ string, name string, args ...string) (command.Result, error) {
	return s.Run(ctx, name, args...)
}

func TestCreateArguments(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{result: command.Result{Output: "created: /tmp/out.dmg"}}
	tool := &Tool{Runner: runner}

	output, err := tool.Create(context.Background(), "Demo", "/tmp/stage/content", dmg.FormatReadWrite, "/tmp/rw.dmg")
	require.NoError(t, err)
	require.Equal(t, "created: /tmp/out.dmg", output)
	require.Equal(t, "hdiutil", runner.name)
	require.Equal(t, []string{
		"create",
		"-volname", "Demo",
		"-srcfolder", "/tmp/stage/content",
		"-ov",
		"-fs", "HFS+",
		"-format", "UDRW",
		"/tmp/rw.dmg",
	}, runner.args)
}

func TestAttachArguments(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	tool := &Tool{Runner: runner}

	_, err := tool.Attach(context.Background(), "/tmp/rw.dmg", "/tmp/mnt/Demo")
	require.NoError(t, err)
	require.Equal(t, []string{
		"attach", "/tmp/rw.dmg",
		"-mountpoint", "/tmp/mnt/Demo",
		"-nobrowse", "-noverify", "-noautoopen",
	}, runner.args)
}

func TestDetachForceFlag(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	tool := &Tool{Runner: runner}

	_, err := tool.Detach(context.Background(), "/tmp/mnt/Demo", false)
	require.NoError(t, err)
	require.Equal(t, []string{"detach", "/tmp/mnt/Demo"}, runner.args)

	_, err = tool.Detach(context.Background(), "/tmp/mnt/Demo", true)
	require.NoError(t, err)
	require.Equal(t, []string{"detach", "/tmp/mnt/Demo", "-force"}, runner.args)
}

func TestConvertArguments(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	tool := &Tool{Runner: runner}

	_, err := tool.Convert(context.Background(), "/tmp/rw.dmg", "/tmp/final.dmg")
	require.NoError(t, err)
	require.Equal(t, []string{
		"convert", "/tmp/rw.dmg",
		"-format", "UDZO",
		"-imagekey", "zlib-level=9",
		"-ov",
		"-o", "/tmp/final.dmg",
	}, runner.args)
}

func TestNonZeroExitCarriesCodeAndOutput(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{result: command.Result{
		ExitCode: 16,
		Output:   "hdiutil: create failed - Resource busy\n",
	}}
	tool := &Tool{Runner: runner}

	output, err := tool.Create(context.Background(), "Demo", "/src", dmg.FormatCompressed, "/out.dmg")
	require.Equal(t, "hdiutil: create failed - Resource busy\n", output)
	require.Error(t, err)

	var buildErr *dmg.Error
	require.True(t, errors.As(err, &buildErr))
	require.Equal(t, dmg.ErrImageToolFailed, buildErr.Kind)
	require.Equal(t, 16, buildErr.ExitCode)
	require.Equal(t, "hdiutil: create failed - Resource busy\n", buildErr.Output)
}

func TestRunnerFailureIsToolError(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: errors.New("run hdiutil: executable file not found")}
	tool := &Tool{Runner: runner}

	_, err := tool.Attach(context.Background(), "/img", "/mnt")
	require.Equal(t, dmg.ErrImageToolFailed, dmg.KindOf(err))
}

func TestBinaryOverride(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	tool := &Tool{Runner: runner, Binary: "/opt/bin/hdiutil"}

	_, err := tool.Detach(context.Background(), "/mnt", false)
	require.NoError(t, err)
	require.Equal(t, "/opt/bin/hdiutil", runner.name)
}
