// Package report aggregates job outcomes into a run verdict and renders it.
package report

import (
	"fmt"
	"time"

	"github.com/matrixci/matrixci/internal/executor"
	"github.com/matrixci/matrixci/internal/output"
)

// Verdict is the overall result of an execution run.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Failure describes one non-success outcome. Every failing target is
// recorded, never just the first: different targets commonly fail for
// different, target-specific reasons.
type Failure struct {
	Target string
	Status executor.Status
	Step   int // Failing step index; -1 when not applicable
	Reason string
}

// Run is the sealed record of one execution run. It is created by the
// aggregator once all dispatched jobs have reached terminal states and is
// immutable thereafter.
type Run struct {
	Name      string
	Trigger   string
	Group     string
	Outcomes  []executor.Outcome
	Verdict   Verdict
	Failures  []Failure
	CacheHits int
	StartTime time.Time
	Duration  time.Duration
}

// Aggregate applies the all-must-pass policy to a set of outcomes.
// Verdict is Pass iff every outcome is Success; Failed, Cancelled,
// TimedOut, and Unresolved all yield Fail.
func Aggregate(outcomes []executor.Outcome) (Verdict, []Failure) {
	verdict := VerdictPass
	var failures []Failure

	for _, o := range outcomes {
		if o.Status == executor.StatusSuccess {
			continue
		}
		verdict = VerdictFail

		reason := string(o.Status)
		if o.Err != nil {
			reason = o.Err.Error()
		}
		failures = append(failures, Failure{
			Target: o.Job.Target,
			Status: o.Status,
			Step:   o.FailedStep,
			Reason: reason,
		})
	}

	return verdict, failures
}

// Seal builds the immutable run record from collected outcomes.
func Seal(name, trigger, group string, outcomes []executor.Outcome, cacheHits int, start time.Time) *Run {
	verdict, failures := Aggregate(outcomes)
	return &Run{
		Name:      name,
		Trigger:   trigger,
		Group:     group,
		Outcomes:  outcomes,
		Verdict:   verdict,
		Failures:  failures,
		CacheHits: cacheHits,
		StartTime: start,
		Duration:  time.Since(start),
	}
}

// Print renders the run summary: one line per target, pass/fail rollup,
// cache and timing detail, and the final verdict.
func Print(run *Run, out *output.Writer) {
	out.SummaryHeader("Matrix Summary")

	out.SummarySectionLabel("Targets:")
	for _, o := range run.Outcomes {
		detail := ""
		if o.Status != executor.StatusSuccess {
			detail = describeOutcome(o)
		}
		out.SummaryAction(o.Job.ID, o.Status == executor.StatusSuccess, FormatDuration(o.Duration), detail)
	}
	out.Println("")

	passed := len(run.Outcomes) - len(run.Failures)
	out.SummaryPassed("Passed", fmt.Sprintf("%d/%d", passed, len(run.Outcomes)))
	if len(run.Failures) > 0 {
		out.SummaryFailed("Failed", fmt.Sprintf("%d/%d", len(run.Failures), len(run.Outcomes)))
	}
	out.SummaryItem("Cache hits", fmt.Sprintf("%d/%d", run.CacheHits, len(run.Outcomes)))
	out.SummaryItem("Duration", FormatDuration(run.Duration))

	if run.Verdict == VerdictPass {
		out.FinalSuccess("All %d jobs passed.", len(run.Outcomes))
	} else {
		out.FinalFailure("%d of %d jobs did not pass.", len(run.Failures), len(run.Outcomes))
	}
}

// describeOutcome renders a one-line diagnostic for a non-success outcome.
func describeOutcome(o executor.Outcome) string {
	switch o.Status {
	case executor.StatusFailed:
		if o.FailedStep >= 0 && o.FailedStep < len(o.Job.Steps) {
			return fmt.Sprintf("step %s failed", o.Job.Steps[o.FailedStep].Name)
		}
		return "failed"
	case executor.StatusTimedOut:
		return "timed out"
	case executor.StatusCancelled:
		return "cancelled"
	case executor.StatusUnresolved:
		return "toolchain unavailable"
	}
	return string(o.Status)
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
