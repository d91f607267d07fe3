package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	SummaryPlaceholder  = "Summary was not provided by the analysis."
	ResearchPlaceholder = "Research notes were not provided by the analysis."
)

// ErrUnparseableResponse means the reply held no decodable JSON object.
var ErrUnparseableResponse = errors.New("LLM response did not contain a JSON object")

// ParseTier tells how far a parsed payload can be trusted.
type ParseTier string

const (
	// ParseStrict: every field present had the expected type.
	ParseStrict ParseTier = "strict"
	// ParseCoerced: some fields were replaced by null or placeholder text.
	ParseCoerced ParseTier = "coerced"
)

// ScoringPayload is the normalized LLM assessment. Scores are in [0,100] or nil.
type ScoringPayload struct {
	InvestmentRating *float64
	MarketPotential  *float64
	TeamCompetency   *float64
	TechInnovation   *float64
	BusinessModel    *float64
	ExecutionRisk    *float64
	Score            *float64
	Summary          string
	Research         string
}

// ParseOutcome is a payload tagged with the validation tier that produced it.
type ParseOutcome struct {
	Tier     ParseTier
	Payload  ScoringPayload
	Warnings []string
}

// Clamp limits x to [0,100].
func Clamp(x float64) float64 {
	return math.Max(0, math.Min(100, x))
}

// ExtractJSONObject returns the first balanced {...} substring of text,
// ignoring braces inside JSON strings.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
		// Unbalanced from this brace; try the next one.
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

type scoreField struct {
	key     string
	aliases []string
	target  func(*ScoringPayload) **float64
}

var scoreFields = []scoreField{
	{"investment_rating", []string{"investmentRating"}, func(p *ScoringPayload) **float64 { return &p.InvestmentRating }},
	{"market_potential", []string{"marketPotential"}, func(p *ScoringPayload) **float64 { return &p.MarketPotential }},
	{"team_competency", []string{"teamCompetency"}, func(p *ScoringPayload) **float64 { return &p.TeamCompetency }},
	{"tech_innovation", []string{"techInnovation"}, func(p *ScoringPayload) **float64 { return &p.TechInnovation }},
	{"business_model", []string{"businessModel"}, func(p *ScoringPayload) **float64 { return &p.BusinessModel }},
	{"execution_risk", []string{"executionRisk"}, func(p *ScoringPayload) **float64 { return &p.ExecutionRisk }},
	{"score", []string{"overall_score", "overallScore"}, func(p *ScoringPayload) **float64 { return &p.Score }},
}

func lookup(obj map[string]interface{}, key string, aliases []string) (interface{}, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for _, a := range aliases {
		if v, ok := obj[a]; ok {
			return v, true
		}
	}
	return nil, false
}

// ParseScoringResponse extracts and validates the assessment in an LLM reply.
// Strict validation is tried first; a usable object that fails it is coerced
// field by field and reported as ParseCoerced with warnings.
func ParseScoringResponse(text string) (*ParseOutcome, error) {
	raw, ok := ExtractJSONObject(text)
	if !ok {
		return nil, ErrUnparseableResponse
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableResponse, err)
	}

	out := &ParseOutcome{Tier: ParseStrict}

	for _, f := range scoreFields {
		v, present := lookup(obj, f.key, f.aliases)
		if !present || v == nil {
			continue
		}
		n, isNumber := v.(float64)
		if !isNumber {
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s is not a number; set to null", f.key))
			continue
		}
		clamped := Clamp(n)
		*f.target(&out.Payload) = &clamped
	}

	out.Payload.Summary = stringField(obj, "summary", SummaryPlaceholder, &out.Warnings)
	out.Payload.Research = stringField(obj, "research", ResearchPlaceholder, &out.Warnings)

	if len(out.Warnings) > 0 {
		out.Tier = ParseCoerced
	}
	return out, nil
}

func stringField(obj map[string]interface{}, key, placeholder string, warnings *[]string) string {
	v, present := obj[key]
	if !present || v == nil {
		*warnings = append(*warnings, key+" is missing; placeholder used")
		return placeholder
	}
	s, ok := v.(string)
	if !ok {
		*warnings = append(*warnings, key+" is not a string; placeholder used")
		return placeholder
	}
	if strings.TrimSpace(s) == "" {
		*warnings = append(*warnings, key+" is empty; placeholder used")
		return placeholder
	}
	return s
}

// AggregateScore is the payload's own score when given, otherwise the mean of
// the available metrics with execution risk inverted (lower risk scores higher).
func AggregateScore(p ScoringPayload) *float64 {
	if p.Score != nil {
		v := Clamp(*p.Score)
		return &v
	}
	var sum float64
	var n int
	for _, m := range []*float64{p.InvestmentRating, p.MarketPotential, p.TeamCompetency, p.TechInnovation, p.BusinessModel} {
		if m != nil {
			sum += Clamp(*m)
			n++
		}
	}
	if p.ExecutionRisk != nil {
		sum += 100 - Clamp(*p.ExecutionRisk)
		n++
	}
	if n == 0 {
		return nil
	}
	v := math.Round(sum/float64(n)*10) / 10
	return &v
}

func float64Ptr(v float64) *float64 { return &v }

// FallbackPayload is the deterministic record stored when the LLM cannot be used.
func FallbackPayload() ScoringPayload {
	return ScoringPayload{
		InvestmentRating: float64Ptr(50),
		MarketPotential:  float64Ptr(50),
		TeamCompetency:   float64Ptr(50),
		TechInnovation:   float64Ptr(50),
		BusinessModel:    float64Ptr(50),
		ExecutionRisk:    float64Ptr(50),
		Score:            float64Ptr(50),
		Summary:          "Automated analysis is currently unavailable. These placeholder scores were generated without AI review and should not be used for investment decisions.",
		Research:         "No research was performed. Request a new scoring with force enabled once the analysis service is available.",
	}
}
