package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codr1/Courtside/internal/models"
)

const pricingRuleColumns = `id, name, description, kind, conditions, modifier_type, modifier_value, is_active, priority, created_at, updated_at`

func scanPricingRule(row scanner) (models.PricingRule, error) {
	var (
		rule       models.PricingRule
		kind       string
		conditions string
	)
	if err := row.Scan(
		&rule.ID, &rule.Name, &rule.Description, &kind, &conditions, &rule.Modifier.Kind, &rule.Modifier.Value,
		&rule.Active, &rule.Priority, &rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return models.PricingRule{}, err
	}
	ruleKind, err := models.ParseRuleKind(kind)
	if err != nil {
		return models.PricingRule{}, err
	}
	rule.Condition, err = models.DecodeCondition(ruleKind, []byte(conditions))
	if err != nil {
		return models.PricingRule{}, fmt.Errorf("pricing rule %d: %w", rule.ID, err)
	}
	return rule, nil
}

func encodeCondition(condition models.Condition) (string, error) {
	if condition == nil {
		return "", fmt.Errorf("pricing rule condition is required")
	}
	data, err := json.Marshal(condition)
	if err != nil {
		return "", fmt.Errorf("encode conditions: %w", err)
	}
	return string(data), nil
}

func (q *Queries) CreatePricingRule(ctx context.Context, rule models.PricingRule) (models.PricingRule, error) {
	conditions, err := encodeCondition(rule.Condition)
	if err != nil {
		return models.PricingRule{}, err
	}
	now := time.Now().UTC()
	rule.CreatedAt, rule.UpdatedAt = now, now
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO pricing_rules (name, description, kind, conditions, modifier_type, modifier_value, is_active, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.Name, rule.Description, rule.Kind(), conditions, rule.Modifier.Kind, rule.Modifier.Value,
		rule.Active, rule.Priority, now, now,
	)
	if err != nil {
		return models.PricingRule{}, fmt.Errorf("insert pricing rule: %w", err)
	}
	rule.ID, err = result.LastInsertId()
	if err != nil {
		return models.PricingRule{}, fmt.Errorf("pricing rule id: %w", err)
	}
	return rule, nil
}

func (q *Queries) GetPricingRule(ctx context.Context, id int64) (models.PricingRule, error) {
	return scanPricingRule(q.db.QueryRowContext(ctx, `SELECT `+pricingRuleColumns+` FROM pricing_rules WHERE id = ?`, id))
}

// ListPricingRules orders by ascending priority, then id.
func (q *Queries) ListPricingRules(ctx context.Context, active *bool) ([]models.PricingRule, error) {
	w := &whereClause{}
	if active != nil {
		w.add("is_active = ?", *active)
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pricingRuleColumns+` FROM pricing_rules`+w.String()+` ORDER BY priority ASC, id ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list pricing rules: %w", err)
	}
	defer rows.Close()

	rules := []models.PricingRule{}
	for rows.Next() {
		rule, err := scanPricingRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (q *Queries) ListActivePricingRules(ctx context.Context) ([]models.PricingRule, error) {
	active := true
	return q.ListPricingRules(ctx, &active)
}

func (q *Queries) UpdatePricingRule(ctx context.Context, rule models.PricingRule) (int64, error) {
	conditions, err := encodeCondition(rule.Condition)
	if err != nil {
		return 0, err
	}
	result, err := q.db.ExecContext(ctx,
		`UPDATE pricing_rules SET name = ?, description = ?, kind = ?, conditions = ?, modifier_type = ?,
		 modifier_value = ?, is_active = ?, priority = ?, updated_at = ? WHERE id = ?`,
		rule.Name, rule.Description, rule.Kind(), conditions, rule.Modifier.Kind, rule.Modifier.Value,
		rule.Active, rule.Priority, time.Now().UTC(), rule.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update pricing rule: %w", err)
	}
	return rowsAffected(result, "update pricing rule")
}

func (q *Queries) DeletePricingRule(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM pricing_rules WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete pricing rule: %w", err)
	}
	return rowsAffected(result, "delete pricing rule")
}
