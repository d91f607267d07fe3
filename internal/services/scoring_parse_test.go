package services

import (
	"errors"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-5, 0},
		{150, 100},
		{42.3, 42.3},
		{0, 0},
		{100, 100},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"surrounded", "Here you go:\n{\"a\":{\"b\":2}}\nThanks", `{"a":{"b":2}}`, true},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"brace in string", `{"s":"}{"}`, `{"s":"}{"}`, true},
		{"escaped quote", `{"s":"a\"}"}`, `{"s":"a\"}"}`, true},
		{"none", "no json here", "", false},
		{"unbalanced", "{ {", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractJSONObject(%q) = %q, %v; expected %q, %v", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseScoringResponse_Strict(t *testing.T) {
	text := "```json\n" + `{"investment_rating": 80, "market_potential": 150, "team_competency": -5,
"tech_innovation": 42.3, "business_model": 60, "execution_risk": 30, "score": 71,
"summary": "Strong team.", "research": "Competitors exist."}` + "\n```"

	out, err := ParseScoringResponse(text)
	if err != nil {
		t.Fatalf("ParseScoringResponse() error = %v", err)
	}
	if out.Tier != ParseStrict {
		t.Errorf("Tier = %q, expected strict (warnings: %v)", out.Tier, out.Warnings)
	}
	p := out.Payload
	if *p.MarketPotential != 100 || *p.TeamCompetency != 0 || *p.TechInnovation != 42.3 {
		t.Errorf("scores not clamped: %v %v %v", *p.MarketPotential, *p.TeamCompetency, *p.TechInnovation)
	}
	if p.Summary != "Strong team." {
		t.Errorf("Summary = %q", p.Summary)
	}
}

func TestParseScoringResponse_Coerced(t *testing.T) {
	text := `{"investmentRating": 70, "market_potential": "high", "summary": ""}`

	out, err := ParseScoringResponse(text)
	if err != nil {
		t.Fatalf("ParseScoringResponse() error = %v", err)
	}
	if out.Tier != ParseCoerced {
		t.Errorf("Tier = %q, expected coerced", out.Tier)
	}
	if out.Payload.InvestmentRating == nil || *out.Payload.InvestmentRating != 70 {
		t.Error("camelCase alias should be accepted")
	}
	if out.Payload.MarketPotential != nil {
		t.Error("non-numeric score should become null")
	}
	if out.Payload.Summary != SummaryPlaceholder || out.Payload.Research != ResearchPlaceholder {
		t.Error("missing text fields should use placeholders")
	}
	if len(out.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", out.Warnings)
	}
}

func TestParseScoringResponse_NoObject(t *testing.T) {
	_, err := ParseScoringResponse("I cannot help with that.")
	if !errors.Is(err, ErrUnparseableResponse) {
		t.Errorf("expected ErrUnparseableResponse, got %v", err)
	}
}

func TestAggregateScore(t *testing.T) {
	if got := AggregateScore(ScoringPayload{Score: float64Ptr(120)}); got == nil || *got != 100 {
		t.Errorf("explicit score should be clamped, got %v", got)
	}

	p := ScoringPayload{
		InvestmentRating: float64Ptr(80),
		ExecutionRisk:    float64Ptr(30),
	}
	// (80 + (100-30)) / 2
	if got := AggregateScore(p); got == nil || *got != 75 {
		t.Errorf("AggregateScore = %v, expected 75", got)
	}

	if got := AggregateScore(ScoringPayload{}); got != nil {
		t.Errorf("empty payload should aggregate to nil, got %v", *got)
	}
}

func TestFallbackPayload(t *testing.T) {
	p := FallbackPayload()
	for _, v := range []*float64{p.InvestmentRating, p.MarketPotential, p.TeamCompetency, p.TechInnovation, p.BusinessModel, p.ExecutionRisk, p.Score} {
		if v == nil || *v != 50 {
			t.Fatalf("fallback scores should all be 50")
		}
	}
	if p.Summary == "" || p.Research == "" {
		t.Error("fallback text should be set")
	}
}
