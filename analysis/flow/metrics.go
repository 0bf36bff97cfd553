package flow

import (
	"fmt"
	"time"
)

// Encoding of analysis outcomes.
var (
	OUTCOME_FINDINGS    = "Findings"
	OUTCOME_NO_FINDINGS = "No findings"
	OUTCOME_UNRELIABLE  = "Unreliable"
	OUTCOME_PANIC       = "Panicked"
	OUTCOME_SKIP        = "Skipped"
)

// Metrics records how the analysis of one function went.
type Metrics struct {
	Outcome  string
	time     time.Duration
	timer    time.Time
	errorMsg interface{}
	// iterations counts the basic block visits of the fixpoint.
	iterations int
}

// TimerStart starts a timer before the analysis runs.
func (m *Metrics) TimerStart() {
	if m == nil {
		return
	}

	m.timer = time.Now()
}

// timerStop stops the timer and registers the duration of the analysis.
func (m *Metrics) timerStop() {
	if m == nil {
		return
	}

	m.time = time.Since(m.timer)
}

// Performance logs how fast the analysis ran.
func (m *Metrics) Performance() string {
	if m == nil {
		return "- no metrics gathered -"
	}

	return m.time.String()
}

// Iterations is the number of basic block visits needed to reach the fixpoint.
func (m *Metrics) Iterations() int {
	if m == nil {
		return 0
	}
	return m.iterations
}

// Skip records that the analysis was abandoned before it ran.
func (m *Metrics) Skip(reason interface{}) {
	if m == nil || m.Outcome != "" {
		return
	}

	m.Outcome = OUTCOME_SKIP
	m.errorMsg = reason
}

// Panic records that the analysis threw an exception.
func (m *Metrics) Panic(err interface{}) {
	if m == nil || m.Outcome != "" {
		return
	}

	m.Outcome = OUTCOME_PANIC
	m.timerStop()
	m.errorMsg = err
}

// Unreliable records that the analysis completed, but met facts it could
// not evaluate. Its findings may be incomplete.
func (m *Metrics) Unreliable(err error) {
	if m == nil || m.Outcome != "" {
		return
	}

	m.Outcome = OUTCOME_UNRELIABLE
	m.timerStop()
	m.errorMsg = err
}

// Done records that the analysis is done, and whether it reported findings.
func (m *Metrics) Done(findings int) {
	if m == nil || m.Outcome != "" {
		return
	}

	m.timerStop()
	if findings > 0 {
		m.Outcome = OUTCOME_FINDINGS
	} else {
		m.Outcome = OUTCOME_NO_FINDINGS
	}
}

// Reliable is true if the analysis ran to completion on well-formed facts.
func (m *Metrics) Reliable() bool {
	return m != nil && (m.Outcome == OUTCOME_FINDINGS || m.Outcome == OUTCOME_NO_FINDINGS)
}

// Error prints the error message resulting from running the analysis.
func (m *Metrics) Error() string {
	if m == nil || m.errorMsg == nil {
		return ""
	}

	return fmt.Sprint(m.errorMsg)
}
