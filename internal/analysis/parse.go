package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"debate-forum/internal/models"
)

// wireDimension accepts both the German and the English field names.
type wireDimension struct {
	Score         *float64 `json:"score"`
	Status        *string  `json:"status"`
	Begruendung   string   `json:"begruendung"`
	Justification string   `json:"justification"`
}

func (d *wireDimension) justification() string {
	if d.Justification != "" {
		return d.Justification
	}
	return d.Begruendung
}

type wireAnalysis struct {
	Relevanz        *wireDimension `json:"relevanz"`
	Relevance       *wireDimension `json:"relevance"`
	Substantiierung *wireDimension `json:"substantiierung"`
	Evidence        *wireDimension `json:"evidence"`
	Spezifitaet     *wireDimension `json:"spezifitaet"`
	Specificity     *wireDimension `json:"specificity"`
	Fehlschluss     *wireDimension `json:"fehlschluss"`
	Fallacy         *wireDimension `json:"fallacy"`
	Error           *string        `json:"error"`
}

func pick(a, b *wireDimension) *wireDimension {
	if a != nil {
		return a
	}
	return b
}

// ParseAnalysis decodes a provider response. Both `{"analysis": {...}}` and a
// bare analysis object are accepted. Any missing dimension, unknown status or
// out-of-range relevance yields an Unavailable outcome.
func ParseAnalysis(raw []byte) Outcome {
	body, err := extractObject(raw)
	if err != nil {
		return Unavailable("")
	}

	var envelope struct {
		Analysis *wireAnalysis `json:"analysis"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Unavailable("")
	}
	w := envelope.Analysis
	if w == nil {
		w = &wireAnalysis{}
		if err := json.Unmarshal(body, w); err != nil {
			return Unavailable("")
		}
	}
	if w.Error != nil {
		return Unavailable(strings.TrimSpace(*w.Error))
	}

	a, err := normalize(w)
	if err != nil {
		return Unavailable("")
	}
	return Available(a)
}

func normalize(w *wireAnalysis) (models.QualityAnalysis, error) {
	var a models.QualityAnalysis

	rel := pick(w.Relevanz, w.Relevance)
	if rel == nil || rel.Score == nil {
		return a, fmt.Errorf("relevance score missing")
	}
	score := *rel.Score
	if score != math.Trunc(score) || score < 1 || score > 5 {
		return a, fmt.Errorf("relevance score %v out of range", score)
	}
	a.Relevance = models.RelevanceDimension{Score: int(score), Justification: rel.justification()}

	ev := pick(w.Substantiierung, w.Evidence)
	if ev == nil || ev.Status == nil {
		return a, fmt.Errorf("evidence status missing")
	}
	evidence, ok := normalizeEvidence(*ev.Status)
	if !ok {
		return a, fmt.Errorf("unknown evidence status %q", *ev.Status)
	}
	a.Evidence = models.EvidenceDimension{Status: evidence, Justification: ev.justification()}

	sp := pick(w.Spezifitaet, w.Specificity)
	if sp == nil || sp.Status == nil {
		return a, fmt.Errorf("specificity status missing")
	}
	specificity, ok := normalizeSpecificity(*sp.Status)
	if !ok {
		return a, fmt.Errorf("unknown specificity status %q", *sp.Status)
	}
	a.Specificity = models.SpecificityDimension{Status: specificity, Justification: sp.justification()}

	fa := pick(w.Fehlschluss, w.Fallacy)
	if fa == nil || fa.Status == nil {
		return a, fmt.Errorf("fallacy status missing")
	}
	a.Fallacy = models.FallacyDimension{Name: normalizeFallacy(*fa.Status), Justification: fa.justification()}

	return a, nil
}

func normalizeEvidence(s string) (models.EvidenceStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vorhanden", "present":
		return models.EvidencePresent, true
	case "fehlt", "nicht vorhanden", "keine", "absent", "missing":
		return models.EvidenceAbsent, true
	}
	return "", false
}

func normalizeSpecificity(s string) (models.SpecificityStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "konkret", "concrete":
		return models.SpecificityConcrete, true
	case "vage", "vague", "unspezifisch":
		return models.SpecificityVague, true
	}
	return "", false
}

// normalizeFallacy returns "" when no fallacy was found.
func normalizeFallacy(s string) string {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "", "keiner", "keine", "kein", "none":
		return ""
	}
	return trimmed
}

type wireSteelman struct {
	Accepted  *bool  `json:"accepted"`
	Rationale string `json:"rationale"`
}

// ParseSteelman decodes `{"accepted": bool, "rationale": string}`, optionally
// wrapped in a "validation" object. A missing verdict is Unavailable.
func ParseSteelman(raw []byte) SteelmanOutcome {
	body, err := extractObject(raw)
	if err != nil {
		return SteelmanUnavailable("")
	}

	var envelope struct {
		Validation *wireSteelman `json:"validation"`
		Error      *string       `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return SteelmanUnavailable("")
	}
	if envelope.Error != nil {
		return SteelmanUnavailable(strings.TrimSpace(*envelope.Error))
	}
	w := envelope.Validation
	if w == nil {
		w = &wireSteelman{}
		if err := json.Unmarshal(body, w); err != nil {
			return SteelmanUnavailable("")
		}
	}
	if w.Accepted == nil {
		return SteelmanUnavailable("")
	}
	return SteelmanJudged(models.SteelmanVerdict{Accepted: *w.Accepted, Rationale: strings.TrimSpace(w.Rationale)})
}

// extractObject trims markdown fences and surrounding prose that models tend
// to add around a JSON object.
func extractObject(raw []byte) ([]byte, error) {
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	return raw[start : end+1], nil
}
