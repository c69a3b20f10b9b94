package adapters

import (
	"strings"

	"github.com/devcosts/devcosts/internal/config"
	"github.com/devcosts/devcosts/internal/provider/domain"
)

// Pricer layers runtime pricing overrides from pricing.yml over an
// adapter's built-in table. An override rule with an empty match
// replaces the table's default entry.
type Pricer struct {
	holder *config.PricingHolder
}

func NewPricer(holder *config.PricingHolder) *Pricer {
	return &Pricer{holder: holder}
}

func (p *Pricer) Table(provider string, builtin domain.PricingTable) domain.PricingTable {
	if p == nil || p.holder == nil {
		return builtin
	}

	var rules []domain.PricingRule
	def := builtin.Default
	overridden := false

	for _, rule := range p.holder.Get().Rules {
		if !strings.EqualFold(strings.TrimSpace(rule.Provider), provider) {
			continue
		}
		overridden = true
		if strings.TrimSpace(rule.Match) == "" {
			def = domain.PricingRule{
				InputPerMTok:  rule.InputPerMTok,
				OutputPerMTok: rule.OutputPerMTok,
			}
			continue
		}
		rules = append(rules, domain.PricingRule{
			Match:         rule.Match,
			InputPerMTok:  rule.InputPerMTok,
			OutputPerMTok: rule.OutputPerMTok,
		})
	}

	if !overridden {
		return builtin
	}
	return domain.PricingTable{Rules: rules, Default: def}
}
