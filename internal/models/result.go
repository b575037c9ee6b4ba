package models

import (
	"time"

	"github.com/adyen/productprobe/internal/outcome"
)

// Verdict is the pass/fail judgement of one scenario
type Verdict string

// Verdicts
const (
	VerdictPass    Verdict = "pass"
	VerdictFail    Verdict = "fail"
	VerdictWarning Verdict = "warning"
)

// Expectation is what a scenario asserts about its outcome
type Expectation int

// Expectations
const (
	// ExpectCreated fails unless the browser left the form.
	ExpectCreated Expectation = iota
	// Probe records the outcome without a fixed expectation.
	Probe
	// WarnIfCreated flags a creation that the application should have rejected.
	WarnIfCreated
	// ExpectErrorMessage asserts that a validation message is shown.
	ExpectErrorMessage
)

func (e Expectation) String() string {
	switch e {
	case ExpectCreated:
		return "expect-created"
	case Probe:
		return "probe"
	case WarnIfCreated:
		return "warn-if-created"
	case ExpectErrorMessage:
		return "expect-error-message"
	default:
		return "unknown"
	}
}

// Judge derives the verdict for an observed outcome. ExpectErrorMessage is judged on the page
// content, not the outcome, and always yields VerdictPass here.
func (e Expectation) Judge(o outcome.Outcome) Verdict {
	switch e {
	case ExpectCreated:
		if o == outcome.Created {
			return VerdictPass
		}
		return VerdictFail
	case WarnIfCreated:
		if o == outcome.StayedOnForm {
			return VerdictPass
		}
		return VerdictWarning
	default:
		return VerdictPass
	}
}

// ScenarioResult is the recorded result of one scenario execution
type ScenarioResult struct {
	ID             string
	RunID          string
	Scenario       string
	Outcome        outcome.Outcome
	Verdict        Verdict
	FinalURL       string
	Message        string
	Phase          string
	ScreenshotPath string
	StartedAt      time.Time
	Duration       time.Duration
}

// IsFailed returns true if the scenario failed
func (r *ScenarioResult) IsFailed() bool {
	return r.Verdict == VerdictFail
}

// IsWarning returns true if the scenario passed with a warning
func (r *ScenarioResult) IsWarning() bool {
	return r.Verdict == VerdictWarning
}
