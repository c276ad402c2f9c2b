package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"github.com/codr1/Courtside/internal/models"
)

func TestCachedRulesLoadsAndStoresOnMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	source := &stubRules{rules: []models.PricingRule{indoorRule(1, 100)}}
	payload, err := json.Marshal(source.rules)
	if err != nil {
		t.Fatalf("marshal rules: %v", err)
	}

	mock.ExpectGet(activeRulesKey).RedisNil()
	mock.ExpectSet(activeRulesKey, string(payload), time.Minute).SetVal("OK")

	rules, err := NewCachedRules(source, client, time.Minute).ListActivePricingRules(context.Background())
	if err != nil {
		t.Fatalf("ListActivePricingRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Name != "Indoor" {
		t.Fatalf("unexpected rules: %+v", rules)
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 source call, got %d", source.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet redis expectations: %v", err)
	}
}

func TestCachedRulesServesHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cached := []models.PricingRule{weekendRule(1, 30), indoorRule(2, 100)}
	payload, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshal rules: %v", err)
	}
	source := &stubRules{}

	mock.ExpectGet(activeRulesKey).SetVal(string(payload))

	rules, err := NewCachedRules(source, client, time.Minute).ListActivePricingRules(context.Background())
	if err != nil {
		t.Fatalf("ListActivePricingRules: %v", err)
	}
	if source.calls != 0 {
		t.Fatalf("expected cache hit to skip source, got %d calls", source.calls)
	}

	quote := Apply(rules, 500, models.CourtIndoor, models.MustDate("2024-06-15"), models.MustTimeOfDay("10:00"))
	assertPrice(t, "final price from cached rules", quote.FinalPrice, 750)
}

func TestCachedRulesFallsThroughOnRedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	source := &stubRules{rules: []models.PricingRule{}}

	mock.ExpectGet(activeRulesKey).SetErr(errors.New("connection refused"))
	mock.ExpectSet(activeRulesKey, "[]", defaultRulesTTL).SetErr(errors.New("connection refused"))

	rules, err := NewCachedRules(source, client, 0).ListActivePricingRules(context.Background())
	if err != nil {
		t.Fatalf("ListActivePricingRules: %v", err)
	}
	if len(rules) != 0 || source.calls != 1 {
		t.Fatalf("expected source fallback, got rules=%+v calls=%d", rules, source.calls)
	}
}

func TestCachedRulesPropagatesSourceError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	source := &stubRules{err: errors.New("store unreachable")}

	mock.ExpectGet(activeRulesKey).RedisNil()

	if _, err := NewCachedRules(source, client, time.Minute).ListActivePricingRules(context.Background()); err == nil {
		t.Fatalf("expected source error")
	}
}

func TestCachedRulesInvalidate(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectDel(activeRulesKey).SetVal(1)

	NewCachedRules(&stubRules{}, client, time.Minute).Invalidate(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet redis expectations: %v", err)
	}
}
