package domain

import (
	"math"
	"strings"
)

// PricingRule prices a family of models. Match is compared as a
// case-insensitive substring of the reported model name. Rates are USD
// per one million tokens.
type PricingRule struct {
	Match         string
	InputPerMTok  float64
	OutputPerMTok float64
}

// PricingTable holds an ordered rule list evaluated top-down, plus a
// default applied when no rule matches. Order matters: put the most
// specific model names first.
type PricingTable struct {
	Rules   []PricingRule
	Default PricingRule
}

// Resolve returns the first rule whose Match appears in model.
func (t PricingTable) Resolve(model string) PricingRule {
	model = strings.ToLower(strings.TrimSpace(model))
	for _, rule := range t.Rules {
		match := strings.ToLower(strings.TrimSpace(rule.Match))
		if match == "" {
			continue
		}
		if strings.Contains(model, match) {
			return rule
		}
	}
	return t.Default
}

// CostCents prices a token count in integer cents, rounded half up.
func (t PricingTable) CostCents(model string, inputTokens, outputTokens int64) int64 {
	rule := t.Resolve(model)
	inputCost := float64(inputTokens) / 1_000_000 * rule.InputPerMTok
	outputCost := float64(outputTokens) / 1_000_000 * rule.OutputPerMTok
	return int64(math.Round((inputCost + outputCost) * 100))
}
