// Package macho reports the instruction-set architectures an executable was
// built for, by parsing the fixed-format report of the host's binary
// inspection tool.
package macho

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/soracane/dmgforge/internal/command"
)

// Architecture defines the set of values the inspection tool reports.
type Architecture string

const (
	X86_64 Architecture = "x86_64"
	ARM64  Architecture = "arm64"
	ARM64E Architecture = "arm64e"
	I386   Architecture = "i386"
	PPC    Architecture = "ppc"
	PPC64  Architecture = "ppc64"
)

// Supported returns the full list of recognized architectures.
func Supported() []Architecture {
	return []Architecture{X86_64, ARM64, ARM64E, I386, PPC, PPC64}
}

// IsValid reports whether a matches a recognized architecture value.
func (a Architecture) IsValid() bool {
	switch a {
	case X86_64, ARM64, ARM64E, I386, PPC, PPC64:
		return true
	default:
		return false
	}
}

// String returns the architecture as string.
func (a Architecture) String() string {
	return string(a)
}

// Parse returns the canonical Architecture for the provided string or an
// error if unsupported.
func Parse(value string) (Architecture, error) {
	if arch := Normalize(value); arch != "" {
		return arch, nil
	}
	return "", fmt.Errorf("unsupported architecture %q (supported: %s)", value, strings.Join(supportedStrings(), ", "))
}

// Normalize maps a possibly ambiguous string into a canonical Architecture.
// Returns "" when the string cannot be normalized.
func Normalize(value string) Architecture {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(X86_64), "x86-64", "amd64":
		return X86_64
	case string(ARM64), "aarch64":
		return ARM64
	case string(ARM64E):
		return ARM64E
	case string(I386), "x86", "i486", "i586", "i686", "386":
		return I386
	case string(PPC), "powerpc", "ppc7400", "ppc970":
		return PPC
	case string(PPC64), "powerpc64", "ppc970-64":
		return PPC64
	default:
		return ""
	}
}

const inspectorBinary = "lipo"

// Inspect runs the binary inspection tool against the executable and returns
// the architectures it reports.
func Inspect(ctx context.Context, runner command.Runner, executablePath string) ([]Architecture, error) {
	result, err := runner.Run(ctx, inspectorBinary, "-info", executablePath)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%s exited with status %d: %s",
			inspectorBinary, result.ExitCode, strings.TrimSpace(result.Output))
	}
	return ParseReport(result.Output)
}

// ParseReport extracts architectures from the tool's report. Two report
// shapes exist: fat binaries end in "are: <space-separated list>", thin
// binaries in "is architecture: <single-name>".
func ParseReport(report string) ([]Architecture, error) {
	report = strings.TrimSpace(report)

	if _, list, found := strings.Cut(report, "are: "); found {
		names := strings.Fields(list)
		if len(names) == 0 {
			return nil, fmt.Errorf("report names no architectures: %q", report)
		}
		architectures := make([]Architecture, 0, len(names))
		for _, name := range names {
			arch, err := Parse(name)
			if err != nil {
				return nil, err
			}
			architectures = append(architectures, arch)
		}
		return architectures, nil
	}

	if _, name, found := strings.Cut(report, "is architecture: "); found {
		arch, err := Parse(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		return []Architecture{arch}, nil
	}

	return nil, fmt.Errorf("unrecognized architecture report: %q", report)
}

func supportedStrings() []string {
	all := Supported()
	out := make([]string, 0, len(all))
	for _, a := range all {
		out = append(out, a.String())
	}
	sort.Strings(out)
	return out
}
