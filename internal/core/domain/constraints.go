package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Constraint names used as keys in the constraint mapping.
const (
	ConstraintDateRange       = "date_range"
	ConstraintKPIFormula      = "kpi_formula"
	ConstraintDiscountTier    = "discount_tier"
	ConstraintPolicyThreshold = "policy_threshold"
)

// DateRange is an inclusive date interval extracted from policy text.
// Start and End are kept as the normalized strings the planner accepted
// (ISO dates or "Month YYYY"); the query generator receives them as
// grounding text, not as parsed values.
type DateRange struct {
	Start string
	End   string
}

// Constraints is the typed constraint mapping produced by the planner.
// The zero value means "no constraints".
type Constraints struct {
	// DateRange bounds the query period, when present.
	DateRange *DateRange

	// KPIFormula is the documented formula for the KPI in question.
	KPIFormula string

	// DiscountTier names the applicable discount tier.
	DiscountTier string

	// PolicyThreshold is a numeric policy cutoff.
	PolicyThreshold *float64
}

// Empty reports whether no constraint was extracted.
func (c Constraints) Empty() bool {
	return c.DateRange == nil && c.KPIFormula == "" &&
		c.DiscountTier == "" && c.PolicyThreshold == nil
}

// Map renders the constraints as a name-to-value mapping. Used for trace
// summaries and tests; iteration order is not defined.
func (c Constraints) Map() map[string]string {
	m := make(map[string]string)
	if c.DateRange != nil {
		m[ConstraintDateRange] = fmt.Sprintf("%s..%s", c.DateRange.Start, c.DateRange.End)
	}
	if c.KPIFormula != "" {
		m[ConstraintKPIFormula] = c.KPIFormula
	}
	if c.DiscountTier != "" {
		m[ConstraintDiscountTier] = c.DiscountTier
	}
	if c.PolicyThreshold != nil {
		m[ConstraintPolicyThreshold] = fmt.Sprintf("%g", *c.PolicyThreshold)
	}
	return m
}

// GroundingText renders the constraints as deterministic prompt text for
// the query generator. Keys are emitted in sorted order so that two runs
// over the same state produce byte-identical grounding.
func (c Constraints) GroundingText() string {
	m := c.Map()
	if len(m) == 0 {
		return "No specific constraints."
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, m[k]))
	}
	return strings.Join(parts, "; ")
}
