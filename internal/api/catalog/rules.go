package catalog

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/models"
)

const (
	msgRuleNotFound = "Pricing rule not found"
	maxRuleBody     = 64 << 10
)

// decodeRule reads a pricing rule body. isActive defaults to fallback when
// the body omits it.
func decodeRule(r *http.Request, fallback bool) (models.PricingRule, error) {
	if r.Body == nil {
		return models.PricingRule{}, apiutil.BadRequest("Invalid request body", nil)
	}
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRuleBody))
	if err != nil {
		return models.PricingRule{}, apiutil.BadRequest("Invalid request body", err)
	}

	var rule models.PricingRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return models.PricingRule{}, apiutil.BadRequest(err.Error(), err)
	}
	var probe struct {
		Active *bool `json:"isActive"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return models.PricingRule{}, apiutil.BadRequest("Invalid request body", err)
	}
	rule.Active = boolOr(probe.Active, fallback)

	if _, err := requireName(rule.Name); err != nil {
		return models.PricingRule{}, err
	}
	return rule, nil
}

// GET /api/v1/pricing-rules
func HandleListRules(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	active, err := apiutil.QueryBool(r, "isActive")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	rules, err := d.queries().ListPricingRules(r.Context(), active)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteList(w, r, rules)
}

// GET /api/v1/pricing-rules/{id}
func HandleGetRule(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	rule, err := d.queries().GetPricingRule(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgRuleNotFound))
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, rule)
}

// POST /api/v1/pricing-rules
func HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	if _, ok := apiutil.RequireAdmin(w, r); !ok {
		return
	}
	rule, err := decodeRule(r, true)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	created, err := d.queries().CreatePricingRule(r.Context(), rule)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	d.invalidateRules(r.Context())
	apiutil.WriteData(w, r, http.StatusCreated, created)
}

// PUT /api/v1/pricing-rules/{id}
func HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	if _, ok := apiutil.RequireAdmin(w, r); !ok {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	existing, err := d.queries().GetPricingRule(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgRuleNotFound))
		return
	}
	rule, err := decodeRule(r, existing.Active)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	rule.ID = id
	if _, err := d.queries().UpdatePricingRule(r.Context(), rule); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	d.invalidateRules(r.Context())

	updated, err := d.queries().GetPricingRule(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgRuleNotFound))
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, updated)
}

// DELETE /api/v1/pricing-rules/{id}
func HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	if _, ok := apiutil.RequireAdmin(w, r); !ok {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	deleted, err := d.queries().DeletePricingRule(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if deleted == 0 {
		apiutil.WriteError(w, r, notFound(msgRuleNotFound))
		return
	}
	d.invalidateRules(r.Context())
	apiutil.WriteMessage(w, r, http.StatusOK, "Pricing rule deleted")
}
