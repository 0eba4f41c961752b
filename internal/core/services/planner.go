package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// dateLayouts are the date shapes the planner accepts from extraction.
var dateLayouts = []string{"2006-01-02", "2006-01", "January 2006", "Jan 2006"}

// Planner extracts structured constraints from retrieved text to ground
// query generation. Extraction is an external model call over the
// concatenated top-k text; this service normalizes the raw fields into
// the typed constraint mapping and discards malformed entries instead
// of propagating parse failures upward.
type Planner struct {
	extractor driven.ConstraintExtractor
}

// NewPlanner creates a constraint planner over an extractor.
func NewPlanner(extractor driven.ConstraintExtractor) *Planner {
	return &Planner{extractor: extractor}
}

// Plan derives constraints from the retrieval hits. An empty hit list,
// an extraction failure, or fully malformed output all yield empty
// constraints; planning never fails a question.
func (p *Planner) Plan(ctx context.Context, retrieved []domain.RetrievedChunk) domain.Constraints {
	if len(retrieved) == 0 {
		return domain.Constraints{}
	}

	var b strings.Builder
	for _, rc := range retrieved {
		b.WriteString(rc.Text)
		b.WriteString("\n\n")
	}

	raw, err := p.extractor.ExtractConstraints(ctx, strings.TrimSpace(b.String()))
	if err != nil {
		logger.Warn("Planner: extraction failed, continuing without constraints: %v", err)
		return domain.Constraints{}
	}

	constraints := normalizeConstraints(raw)
	logger.Debug("Planner: constraints=%s", constraints.GroundingText())
	return constraints
}

// normalizeConstraints converts raw extracted fields into the typed
// mapping, dropping anything that does not validate.
func normalizeConstraints(raw driven.RawConstraints) domain.Constraints {
	var c domain.Constraints

	start := cleanField(raw.DateStart)
	end := cleanField(raw.DateEnd)
	if validDate(start) && validDate(end) {
		c.DateRange = &domain.DateRange{Start: start, End: end}
	} else if start != "" || end != "" {
		logger.Debug("Planner: discarding malformed date range %q..%q", raw.DateStart, raw.DateEnd)
	}

	c.KPIFormula = cleanField(raw.KPIFormula)
	c.DiscountTier = cleanField(raw.DiscountTier)

	if threshold := cleanField(raw.PolicyThreshold); threshold != "" {
		trimmed := strings.TrimRight(strings.TrimLeft(threshold, "$"), "%")
		trimmed = strings.ReplaceAll(trimmed, ",", "")
		if v, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64); err == nil {
			c.PolicyThreshold = &v
		} else {
			logger.Debug("Planner: discarding non-numeric policy threshold %q", threshold)
		}
	}

	return c
}

// cleanField trims an extracted value and treats the usual model
// placeholders for absence as empty.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "none", "n/a", "null", "unknown", "not specified":
		return ""
	}
	return s
}

// validDate reports whether s matches one of the accepted date shapes.
func validDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
