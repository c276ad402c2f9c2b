package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/models"
)

const (
	activeRulesKey  = "courtside:pricing:active_rules"
	defaultRulesTTL = 5 * time.Minute
)

// CachedRules keeps the active rule set in Redis. Any Redis failure falls
// through to the underlying source.
type CachedRules struct {
	source RuleSource
	client *redis.Client
	ttl    time.Duration
}

func NewCachedRules(source RuleSource, client *redis.Client, ttl time.Duration) *CachedRules {
	if ttl <= 0 {
		ttl = defaultRulesTTL
	}
	return &CachedRules{source: source, client: client, ttl: ttl}
}

func (c *CachedRules) ListActivePricingRules(ctx context.Context) ([]models.PricingRule, error) {
	logger := log.Ctx(ctx)

	payload, err := c.client.Get(ctx, activeRulesKey).Result()
	if err == nil {
		var rules []models.PricingRule
		if err := json.Unmarshal([]byte(payload), &rules); err == nil {
			return rules, nil
		}
		logger.Warn().Msg("Discarding unreadable cached pricing rules")
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn().Err(err).Msg("Pricing rule cache unavailable")
	}

	rules, err := c.source.ListActivePricingRules(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rules)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to encode pricing rules for cache")
		return rules, nil
	}
	if err := c.client.Set(ctx, activeRulesKey, string(data), c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache pricing rules")
	}
	return rules, nil
}

// Invalidate drops the cached rule set. Rule writes call it after commit.
func (c *CachedRules) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, activeRulesKey).Err(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to invalidate pricing rule cache")
	}
}
