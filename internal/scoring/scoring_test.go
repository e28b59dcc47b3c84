package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"debate-forum/internal/models"
)

func analysis(relevance int, evidence models.EvidenceStatus, specificity models.SpecificityStatus, fallacy string) models.QualityAnalysis {
	return models.QualityAnalysis{
		Relevance:   models.RelevanceDimension{Score: relevance},
		Evidence:    models.EvidenceDimension{Status: evidence},
		Specificity: models.SpecificityDimension{Status: specificity},
		Fallacy:     models.FallacyDimension{Name: fallacy},
	}
}

func TestWorkedExamples(t *testing.T) {
	tests := []struct {
		name     string
		analysis models.QualityAnalysis
		want     int
	}{
		{"perfect", analysis(5, models.EvidencePresent, models.SpecificityConcrete, ""), 100},
		{"worst", analysis(1, models.EvidenceAbsent, models.SpecificityVague, "SomeFallacy"), 8},
		{"mixed", analysis(3, models.EvidencePresent, models.SpecificityVague, ""), 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateQualityScore(tt.analysis))
		})
	}
}

func TestMalformedRelevanceIsClamped(t *testing.T) {
	assert.Equal(t, 100, CalculateQualityScore(analysis(9, models.EvidencePresent, models.SpecificityConcrete, "")))
	assert.Equal(t, 0, CalculateQualityScore(analysis(-3, models.EvidenceAbsent, models.SpecificityVague, "Strawman")))
	assert.Equal(t, 0, CalculateQualityScore(models.QualityAnalysis{Fallacy: models.FallacyDimension{Name: "x"}}))
}

var (
	evidenceValues    = []models.EvidenceStatus{models.EvidenceAbsent, models.EvidencePresent}
	specificityValues = []models.SpecificityStatus{models.SpecificityVague, models.SpecificityConcrete}
	fallacyValues     = []string{"Ad hominem", ""}
)

// Covers the whole valid input domain: bounded, deterministic and monotone in every dimension.
func TestScoreProperties(t *testing.T) {
	for r := 1; r <= 5; r++ {
		for ei, e := range evidenceValues {
			for si, s := range specificityValues {
				for fi, f := range fallacyValues {
					a := analysis(r, e, s, f)
					score := CalculateQualityScore(a)
					assert.GreaterOrEqual(t, score, 0)
					assert.LessOrEqual(t, score, 100)
					assert.Equal(t, score, CalculateQualityScore(a))

					if r < 5 {
						assert.GreaterOrEqual(t, CalculateQualityScore(analysis(r+1, e, s, f)), score)
					}
					if ei == 0 {
						assert.GreaterOrEqual(t, CalculateQualityScore(analysis(r, evidenceValues[1], s, f)), score)
					}
					if si == 0 {
						assert.GreaterOrEqual(t, CalculateQualityScore(analysis(r, e, specificityValues[1], f)), score)
					}
					if fi == 0 {
						assert.GreaterOrEqual(t, CalculateQualityScore(analysis(r, e, s, fallacyValues[1])), score)
					}
				}
			}
		}
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, TierHigh, Classify(100))
	assert.Equal(t, TierHigh, Classify(70))
	assert.Equal(t, TierWarn, Classify(69))
	assert.Equal(t, TierWarn, Classify(30))
	assert.Equal(t, TierBlocked, Classify(29))
	assert.Equal(t, TierBlocked, Classify(0))

	assert.Equal(t, TierWarn, ClassifyWith(20, 10))
	assert.Equal(t, TierBlocked, ClassifyWith(40, 50))
}
