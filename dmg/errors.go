package dmg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a build failure. Every kind is terminal for the build
// in progress; nothing is retried internally.
type ErrorKind int

const (
	ErrInvalidBundle ErrorKind = iota + 1
	ErrStagingFailed
	ErrCopyFailed
	ErrShortcutFailed
	ErrFileWriteFailed
	ErrImageToolFailed
	ErrStylingFailed
	ErrRenderFailed
)

// String returns a stable label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidBundle:
		return "invalid bundle"
	case ErrStagingFailed:
		return "staging failed"
	case ErrCopyFailed:
		return "copy failed"
	case ErrShortcutFailed:
		return "shortcut failed"
	case ErrFileWriteFailed:
		return "file write failed"
	case ErrImageToolFailed:
		return "image tool failed"
	case ErrStylingFailed:
		return "styling failed"
	case ErrRenderFailed:
		return "render failed"
	default:
		return "build failed"
	}
}

// Error is the typed failure surfaced by the pipeline. The most specific
// diagnostic available is attached: the wrapped cause for filesystem kinds,
// exit code and combined output for external tool kinds.
type Error struct {
	Kind     ErrorKind
	Message  string
	Filename string
	ExitCode int
	Output   string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Filename != "" {
		fmt.Fprintf(&b, " (%s)", e.Filename)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Kind == ErrImageToolFailed {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
		if out := strings.TrimSpace(e.Output); out != "" {
			b.WriteString(": ")
			b.WriteString(out)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind from err, or 0 when err carries none.
func KindOf(err error) ErrorKind {
	var buildErr *Error
	if errors.As(err, &buildErr) {
		return buildErr.Kind
	}
	return 0
}

// InvalidBundleError reports a source that is not a well-formed bundle.
func InvalidBundleError(cause error) *Error {
	return &Error{Kind: ErrInvalidBundle, Err: cause}
}

// StagingError reports a failure to allocate or preflight the staging area.
func StagingError(message string, cause error) *Error {
	return &Error{Kind: ErrStagingFailed, Message: message, Err: cause}
}

// CopyError reports a failed bundle copy.
func CopyError(cause error) *Error {
	return &Error{Kind: ErrCopyFailed, Err: cause}
}

// ShortcutError reports a failed install-target link.
func ShortcutError(cause error) *Error {
	return &Error{Kind: ErrShortcutFailed, Err: cause}
}

// FileWriteError reports a failed auxiliary text write.
func FileWriteError(filename string, cause error) *Error {
	return &Error{Kind: ErrFileWriteFailed, Filename: filename, Err: cause}
}

// ToolError reports a disk-image utility invocation that exited non-zero.
func ToolError(operation string, exitCode int, output string) *Error {
	return &Error{Kind: ErrImageToolFailed, Message: operation, ExitCode: exitCode, Output: output}
}

// StylingError reports a failed Finder view configuration.
func StylingError(cause error) *Error {
	return &Error{Kind: ErrStylingFailed, Err: cause}
}

// RenderError reports a failed background render.
func RenderError(cause error) *Error {
	return &Error{Kind: ErrRenderFailed, Err: cause}
}
