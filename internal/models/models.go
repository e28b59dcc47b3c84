package models

// EvidenceStatus, SpecificityStatus and the fallacy name form the canonical
// vocabulary of a quality analysis. Wire-level German or English tokens are
// normalized to these values by the analysis package.
type EvidenceStatus string

const (
	EvidencePresent EvidenceStatus = "present"
	EvidenceAbsent  EvidenceStatus = "absent"
)

type SpecificityStatus string

const (
	SpecificityConcrete SpecificityStatus = "concrete"
	SpecificityVague    SpecificityStatus = "vague"
)

// RelevanceDimension carries the 1..5 relevance score.
type RelevanceDimension struct {
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

type EvidenceDimension struct {
	Status        EvidenceStatus `json:"status"`
	Justification string         `json:"justification"`
}

type SpecificityDimension struct {
	Status        SpecificityStatus `json:"status"`
	Justification string            `json:"justification"`
}

// FallacyDimension names the fallacy found, if any. An empty Name means no fallacy.
type FallacyDimension struct {
	Name          string `json:"name,omitempty"`
	Justification string `json:"justification"`
}

func (f FallacyDimension) Present() bool {
	return f.Name != ""
}

// QualityAnalysis is the ephemeral four-dimension verdict on an argument text.
type QualityAnalysis struct {
	Relevance   RelevanceDimension   `json:"relevance"`
	Evidence    EvidenceDimension    `json:"evidence"`
	Specificity SpecificityDimension `json:"specificity"`
	Fallacy     FallacyDimension     `json:"fallacy"`
}

// SteelmanVerdict is the structured judgment on a reformulation of an opposing argument.
type SteelmanVerdict struct {
	Accepted  bool   `json:"accepted"`
	Rationale string `json:"rationale"`
}

// ChangeEvent is pushed to real-time subscribers of a debate. Receivers are
// expected to re-fetch the affected collection.
type ChangeEvent struct {
	Type     string `json:"type"`
	DebateID string `json:"debateId"`
	EntityID string `json:"entityId,omitempty"`
}

const (
	EventArgumentsChanged  = "arguments_changed"
	EventRatingsChanged    = "ratings_changed"
	EventReputationChanged = "reputation_changed"
)
