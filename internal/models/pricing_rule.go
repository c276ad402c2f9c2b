package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type RuleKind string

const (
	RulePeakHour      RuleKind = "peak_hour"
	RuleWeekend       RuleKind = "weekend"
	RuleCourtCategory RuleKind = "court_category"
	RuleDateRange     RuleKind = "date_range"
	RuleCustom        RuleKind = "custom"
)

// ParseRuleKind also accepts the legacy names court_type and holiday.
func ParseRuleKind(raw string) (RuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RulePeakHour):
		return RulePeakHour, nil
	case string(RuleWeekend):
		return RuleWeekend, nil
	case string(RuleCourtCategory), "court_type":
		return RuleCourtCategory, nil
	case string(RuleDateRange), "holiday":
		return RuleDateRange, nil
	case string(RuleCustom):
		return RuleCustom, nil
	default:
		return "", fmt.Errorf("unknown pricing rule kind %q", raw)
	}
}

type ModifierKind string

const (
	ModifierPercentage ModifierKind = "percentage"
	ModifierFixed      ModifierKind = "fixed"
)

func ParseModifierKind(raw string) (ModifierKind, error) {
	switch ModifierKind(strings.ToLower(strings.TrimSpace(raw))) {
	case ModifierPercentage:
		return ModifierPercentage, nil
	case ModifierFixed:
		return ModifierFixed, nil
	default:
		return "", fmt.Errorf("modifier type %q must be percentage or fixed", raw)
	}
}

type Modifier struct {
	Kind  ModifierKind `json:"type"`
	Value float64      `json:"value"`
}

// Delta is the amount the modifier adds to the running price.
func (m Modifier) Delta(current float64) float64 {
	switch m.Kind {
	case ModifierPercentage:
		return m.Value / 100 * current
	case ModifierFixed:
		return m.Value
	default:
		return 0
	}
}

// Condition is the kind-specific applicability predicate of a PricingRule.
// The set of implementations is closed: PeakHourCondition, DaysCondition,
// CourtCategoryCondition and DateRangeCondition.
type Condition interface {
	Kind() RuleKind
	isCondition()
}

// PeakHourCondition matches start hours in [Start.Hour(), End.Hour()).
// Minutes are ignored.
type PeakHourCondition struct {
	Start TimeOfDay `json:"startTime"`
	End   TimeOfDay `json:"endTime"`
}

// DaysCondition matches dates whose weekday is in Days (0 = Sunday).
type DaysCondition struct {
	Days []time.Weekday `json:"days"`
}

type CourtCategoryCondition struct {
	Category CourtCategory `json:"courtCategory"`
}

// DateRangeCondition matches dates in [Start, End] inclusive. Custom marks a
// rule created as kind custom, which shares the date-range predicate.
type DateRangeCondition struct {
	Start  Date `json:"startDate"`
	End    Date `json:"endDate"`
	Custom bool `json:"-"`
}

func (PeakHourCondition) Kind() RuleKind      { return RulePeakHour }
func (DaysCondition) Kind() RuleKind          { return RuleWeekend }
func (CourtCategoryCondition) Kind() RuleKind { return RuleCourtCategory }

func (c DateRangeCondition) Kind() RuleKind {
	if c.Custom {
		return RuleCustom
	}
	return RuleDateRange
}

func (PeakHourCondition) isCondition()      {}
func (DaysCondition) isCondition()          {}
func (CourtCategoryCondition) isCondition() {}
func (DateRangeCondition) isCondition()     {}

func (c DaysCondition) Contains(day time.Weekday) bool {
	for _, d := range c.Days {
		if d == day {
			return true
		}
	}
	return false
}

func (c DateRangeCondition) Contains(d Date) bool {
	return !d.Before(c.Start) && !d.After(c.End)
}

// DecodeCondition builds the Condition variant for kind from its JSON payload.
func DecodeCondition(kind RuleKind, raw []byte) (Condition, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch kind {
	case RulePeakHour:
		var c PeakHourCondition
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode peak_hour conditions: %w", err)
		}
		if c.End <= c.Start {
			return nil, fmt.Errorf("peak_hour endTime must be after startTime")
		}
		return c, nil
	case RuleWeekend:
		var c DaysCondition
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode weekend conditions: %w", err)
		}
		for _, d := range c.Days {
			if d < time.Sunday || d > time.Saturday {
				return nil, fmt.Errorf("weekend day %d must be between 0 and 6", d)
			}
		}
		return c, nil
	case RuleCourtCategory:
		var payload struct {
			Category  string `json:"courtCategory"`
			CourtType string `json:"courtType"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode court_category conditions: %w", err)
		}
		value := payload.Category
		if value == "" {
			value = payload.CourtType
		}
		category, err := ParseCourtCategory(value)
		if err != nil {
			return nil, err
		}
		return CourtCategoryCondition{Category: category}, nil
	case RuleDateRange, RuleCustom:
		var c DateRangeCondition
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode %s conditions: %w", kind, err)
		}
		if c.Start.IsZero() || c.End.IsZero() {
			return nil, fmt.Errorf("%s requires startDate and endDate", kind)
		}
		if c.End.Before(c.Start) {
			return nil, fmt.Errorf("%s endDate must not be before startDate", kind)
		}
		c.Custom = kind == RuleCustom
		return c, nil
	default:
		return nil, fmt.Errorf("unknown pricing rule kind %q", kind)
	}
}

type PricingRule struct {
	ID          int64
	Name        string
	Description string
	Condition   Condition
	Modifier    Modifier
	Active      bool
	Priority    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r PricingRule) Kind() RuleKind {
	if r.Condition == nil {
		return ""
	}
	return r.Condition.Kind()
}

type pricingRuleJSON struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Kind        string          `json:"type"`
	Conditions  json.RawMessage `json:"conditions"`
	Modifier    Modifier        `json:"modifier"`
	Active      bool            `json:"isActive"`
	Priority    int             `json:"priority"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (r PricingRule) MarshalJSON() ([]byte, error) {
	conditions, err := json.Marshal(r.Condition)
	if err != nil {
		return nil, fmt.Errorf("encode conditions: %w", err)
	}
	return json.Marshal(pricingRuleJSON{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Kind:        string(r.Kind()),
		Conditions:  conditions,
		Modifier:    r.Modifier,
		Active:      r.Active,
		Priority:    r.Priority,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	})
}

func (r *PricingRule) UnmarshalJSON(data []byte) error {
	var payload pricingRuleJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	kind, err := ParseRuleKind(payload.Kind)
	if err != nil {
		return err
	}
	condition, err := DecodeCondition(kind, payload.Conditions)
	if err != nil {
		return err
	}
	modifierKind, err := ParseModifierKind(string(payload.Modifier.Kind))
	if err != nil {
		return err
	}
	payload.Modifier.Kind = modifierKind
	*r = PricingRule{
		ID:          payload.ID,
		Name:        payload.Name,
		Description: payload.Description,
		Condition:   condition,
		Modifier:    payload.Modifier,
		Active:      payload.Active,
		Priority:    payload.Priority,
		CreatedAt:   payload.CreatedAt,
		UpdatedAt:   payload.UpdatedAt,
	}
	return nil
}
