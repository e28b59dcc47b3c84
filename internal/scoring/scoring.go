// Package scoring turns a four-dimension quality analysis into a 0..100 score.
package scoring

import (
	"math"

	"debate-forum/internal/models"
)

const (
	relevanceWeight   = 40
	evidenceWeight    = 25
	specificityWeight = 20
	noFallacyWeight   = 15

	maxRelevance = 5

	HighQualityThreshold = 70
	WarnThreshold        = 30
)

type Tier string

const (
	TierHigh    Tier = "high"
	TierWarn    Tier = "warn"
	TierBlocked Tier = "blocked"
)

// CalculateQualityScore is pure; out-of-range relevance is clamped to [0,5].
func CalculateQualityScore(a models.QualityAnalysis) int {
	relevance := a.Relevance.Score
	if relevance < 0 {
		relevance = 0
	}
	if relevance > maxRelevance {
		relevance = maxRelevance
	}

	sum := float64(relevance) / maxRelevance * relevanceWeight
	if a.Evidence.Status == models.EvidencePresent {
		sum += evidenceWeight
	}
	if a.Specificity.Status == models.SpecificityConcrete {
		sum += specificityWeight
	}
	if !a.Fallacy.Present() {
		sum += noFallacyWeight
	}

	score := int(math.Round(sum))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Classify maps a score to its tier using the default thresholds.
func Classify(score int) Tier {
	return ClassifyWith(score, WarnThreshold)
}

// ClassifyWith uses blockBelow as the lower bound of the warn band.
func ClassifyWith(score, blockBelow int) Tier {
	switch {
	case score >= HighQualityThreshold:
		return TierHigh
	case score >= blockBelow:
		return TierWarn
	default:
		return TierBlocked
	}
}
