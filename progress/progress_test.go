package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReporterDeliversInOrder(t *testing.T) {
	t.Parallel()

	// No locking around seen: the sink contract guarantees single-goroutine
	// delivery, and Close() happens-before the assertions below.
	var seen []Event
	reporter := NewReporter(func(event Event) {
		seen = append(seen, event)
	})

	reporter.Report(StageValidate, "checking bundle")
	reporter.Report(StageStaging, "copying")
	reporter.Report(StageDone, "")
	reporter.Close()

	require.Equal(t, []Event{
		{Stage: StageValidate, Message: "checking bundle"},
		{Stage: StageStaging, Message: "copying"},
		{Stage: StageDone},
	}, seen)
}

func TestReporterNilSink(t *testing.T) {
	t.Parallel()

	reporter := NewReporter(nil)
	reporter.Report(StageMount, "ignored")
	reporter.Close()
}

func TestReporterCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	reporter := NewReporter(func(Event) {})
	reporter.Report(StageCompress, "x")
	reporter.Close()
	reporter.Close()
}

func TestNilReporterIsSafe(t *testing.T) {
	t.Parallel()

	var reporter *Reporter
	reporter.Report(StageStyle, "dropped")
	reporter.Close()
}

func TestStageLabels(t *testing.T) {
	t.Parallel()

	stages := []Stage{
		StageValidate, StageStaging, StageRender, StageCreateImage, StageMount,
		StageStyle, StageUnmount, StageCompress, StageToolOutput, StageDone,
	}
	seen := map[string]bool{}
	for _, stage := range stages {
		label := stage.String()
		require.NotEqual(t, "unknown", label)
		require.False(t, seen[label], "duplicate label %q", label)
		seen[label] = true
	}
	require.Equal(t, "unknown", Stage(99).String())
}
