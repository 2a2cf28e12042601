package macho

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soracane/dmgforge/internal/command"
)

type stubRunner struct {
	result command.Result
	err    error
}

func (s stubRunner) Run(context.Context, string, ...string) (command.Result, error) {
	return s.result, s.err
}

func (s stubRunner) RunInput(context.Context, string, string, ...string) (command.Result, error) {
	return s.result, s.err
}

func TestParseReportFatBinary(t *testing.T) {
	t.Parallel()

	report := "Architectures in the fat file: /Applications/Demo.app/Contents/MacOS/Demo are: x86_64 arm64"
	archs, err := ParseReport(report)
	require.NoError(t, err)
	require.Equal(t, []Architecture{X86_64, ARM64}, archs)
}

func TestParseReportThinBinary(t *testing.T) {
	t.Parallel()

	report := "Non-fat file: /usr/local/bin/demo is architecture: arm64"
	archs, err := ParseReport(report)
	require.NoError(t, err)
	require.Equal(t, []Architecture{ARM64}, archs)
}

func TestParseReportRejectsGarbage(t *testing.T) {
	t.Parallel()

	for name, report := range map[string]string{
		"empty":        "",
		"prose":        "no architectures here",
		"unknown arch": "Non-fat file: /bin/x is architecture: mips",
		"empty list":   "Architectures in the fat file: /bin/x are: ",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReport(report)
			require.Error(t, err)
		})
	}
}

func TestNormalizeAliases(t *testing.T) {
	t.Parallel()

	require.Equal(t, X86_64, Normalize("AMD64"))
	require.Equal(t, ARM64, Normalize(" aarch64 "))
	require.Equal(t, I386, Normalize("i686"))
	require.Equal(t, Architecture(""), Normalize("riscv64"))
}

func TestParseUnsupportedListsSupportedSet(t *testing.T) {
	t.Parallel()

	_, err := Parse("riscv64")
	require.Error(t, err)
	require.Contains(t, err.Error(), "x86_64")
}

func TestInspectUsesRunner(t *testing.T) {
	t.Parallel()

	runner := stubRunner{result: command.Result{
		Output: "Architectures in the fat file: /bin/demo are: x86_64 arm64e\n",
	}}
	archs, err := Inspect(context.Background(), runner, "/bin/demo")
	require.NoError(t, err)
	require.Equal(t, []Architecture{X86_64, ARM64E}, archs)
}

func TestInspectToolFailure(t *testing.T) {
	t.Parallel()

	runner := stubRunner{result: command.Result{
		ExitCode: 1,
		Output:   "fatal error: lipo: can't open input file",
	}}
	_, err := Inspect(context.Background(), runner, "/bin/demo")
	require.Error(t, err)
	require.Contains(t, err.Error(), "can't open input file")
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	for _, arch := range Supported() {
		require.True(t, arch.IsValid(), arch)
	}
	require.False(t, Architecture("mips").IsValid())
}
