// Package pricing applies prioritized modifier rules to a court's base price.
package pricing

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
)

// RuleSource loads the active pricing rules.
type RuleSource interface {
	ListActivePricingRules(ctx context.Context) ([]models.PricingRule, error)
}

type Quote struct {
	BasePrice    float64              `json:"basePrice"`
	FinalPrice   float64              `json:"finalPrice"`
	AppliedRules []models.AppliedRule `json:"appliedRules"`
}

type Evaluator struct {
	rules RuleSource
}

func NewEvaluator(rules RuleSource) *Evaluator {
	return &Evaluator{rules: rules}
}

// Evaluate prices one court hour. A rule lookup failure never blocks a
// booking: the quote degrades to the base price with no rules applied.
func (e *Evaluator) Evaluate(ctx context.Context, basePrice float64, category models.CourtCategory, date models.Date, start models.TimeOfDay) Quote {
	rules, err := e.rules.ListActivePricingRules(ctx)
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Float64("base_price", basePrice).
			Str("date", date.String()).
			Msg("Failed to load pricing rules, using base price")
		metrics.RecordPricingFallback()
		return baseQuote(basePrice)
	}
	return Apply(rules, basePrice, category, date, start)
}

// Apply runs the matching active rules in ascending priority. Each modifier
// acts on the running price, and the recorded amount is the delta it added.
func Apply(rules []models.PricingRule, basePrice float64, category models.CourtCategory, date models.Date, start models.TimeOfDay) Quote {
	ordered := make([]models.PricingRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Active {
			ordered = append(ordered, rule)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	quote := baseQuote(basePrice)
	price := basePrice
	for _, rule := range ordered {
		if !Matches(rule.Condition, category, date, start) {
			continue
		}
		delta := rule.Modifier.Delta(price)
		price += delta
		quote.AppliedRules = append(quote.AppliedRules, models.AppliedRule{
			RuleName: rule.Name,
			Modifier: delta,
		})
	}
	quote.FinalPrice = models.RoundPrice(price)
	return quote
}

// Matches reports whether a condition applies to the booking. Peak hours
// compare whole hours only.
func Matches(condition models.Condition, category models.CourtCategory, date models.Date, start models.TimeOfDay) bool {
	switch c := condition.(type) {
	case models.PeakHourCondition:
		return start.Hour() >= c.Start.Hour() && start.Hour() < c.End.Hour()
	case models.DaysCondition:
		return c.Contains(date.Weekday())
	case models.CourtCategoryCondition:
		return c.Category == category
	case models.DateRangeCondition:
		return c.Contains(date)
	default:
		return false
	}
}

func baseQuote(basePrice float64) Quote {
	return Quote{
		BasePrice:    basePrice,
		FinalPrice:   basePrice,
		AppliedRules: []models.AppliedRule{},
	}
}
