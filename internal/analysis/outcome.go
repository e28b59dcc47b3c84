// Package analysis obtains AI quality verdicts for argument texts and steel-man
// reformulations. Provider output is parsed into canonical models through an
// explicit step that fails closed into an Unavailable outcome.
package analysis

import "debate-forum/internal/models"

// DefaultFailureReason is reported when no more specific reason is known.
const DefaultFailureReason = "Analyse fehlgeschlagen."

type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

// Outcome is the result of a quality analysis. Analysis is set only when
// Status is StatusAvailable.
type Outcome struct {
	Status   Status                  `json:"status"`
	Analysis *models.QualityAnalysis `json:"analysis,omitempty"`
	Reason   string                  `json:"reason,omitempty"`
}

func Available(a models.QualityAnalysis) Outcome {
	return Outcome{Status: StatusAvailable, Analysis: &a}
}

func Unavailable(reason string) Outcome {
	if reason == "" {
		reason = DefaultFailureReason
	}
	return Outcome{Status: StatusUnavailable, Reason: reason}
}

func (o Outcome) IsAvailable() bool {
	return o.Status == StatusAvailable && o.Analysis != nil
}

type SteelmanOutcome struct {
	Status  Status                  `json:"status"`
	Verdict *models.SteelmanVerdict `json:"verdict,omitempty"`
	Reason  string                  `json:"reason,omitempty"`
}

func SteelmanJudged(v models.SteelmanVerdict) SteelmanOutcome {
	return SteelmanOutcome{Status: StatusAvailable, Verdict: &v}
}

func SteelmanUnavailable(reason string) SteelmanOutcome {
	if reason == "" {
		reason = DefaultFailureReason
	}
	return SteelmanOutcome{Status: StatusUnavailable, Reason: reason}
}

// Accepted is false for unavailable outcomes.
func (o SteelmanOutcome) Accepted() bool {
	return o.Status == StatusAvailable && o.Verdict != nil && o.Verdict.Accepted
}
