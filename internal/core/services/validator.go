package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

// RepairTarget names the upstream stage a failed check re-invokes.
type RepairTarget int

// Repair targets, in escalation order: a query failure forces the whole
// query-then-synthesize path to rerun, everything else only needs a new
// synthesis.
const (
	RepairSynthesis RepairTarget = iota
	RepairQuery
)

// Issue is one failed validation check.
type Issue struct {
	// Check names the failed check: format, citations, query, synthesis.
	Check string

	// Detail is a human-readable description, fed into the repair
	// instruction and, on exhaustion, the failed record's explanation.
	Detail string

	// Target is the stage to re-invoke.
	Target RepairTarget
}

// Validator checks a draft answer against the question's format contract
// and citation requirements. It is pure: all inputs come from the
// workflow state, nothing is mutated.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs every check and returns the failed ones. An empty
// result means the draft is accepted.
func (v *Validator) Validate(state *domain.WorkflowState) []Issue {
	var issues []Issue

	// A query error invalidates the draft regardless of format or
	// citation correctness.
	if state.Mode.NeedsQuery() && state.QueryErr != nil {
		issues = append(issues, Issue{
			Check:  "query",
			Detail: "the SQL query failed: " + state.QueryErr.RawMessage,
			Target: RepairQuery,
		})
	}

	if issue := checkFormat(state.Question.FormatHint, state.Draft.Answer); issue != nil {
		issues = append(issues, *issue)
	}

	issues = append(issues, checkCitations(state)...)

	return issues
}

// checkFormat validates the answer against its format hint.
func checkFormat(hint domain.FormatHint, answer any) *Issue {
	fail := func(detail string) *Issue {
		return &Issue{Check: "format", Detail: detail, Target: RepairSynthesis}
	}

	switch hint {
	case domain.FormatNumber:
		s, ok := answer.(string)
		if !ok {
			return fail(fmt.Sprintf("final_answer must be a single number, got %T", answer))
		}
		if _, err := strconv.ParseFloat(cleanNumeric(s), 64); err != nil {
			return fail(fmt.Sprintf("final_answer %q does not parse as a number", s))
		}

	case domain.FormatList:
		items, ok := answer.([]string)
		if !ok {
			return fail(fmt.Sprintf("final_answer must be a list of strings, got %T", answer))
		}
		if len(items) == 0 {
			return fail("final_answer list is empty")
		}
		seen := make(map[string]struct{}, len(items))
		for _, item := range items {
			if strings.TrimSpace(item) == "" {
				return fail("final_answer list contains an empty item")
			}
			if _, dup := seen[item]; dup {
				return fail(fmt.Sprintf("final_answer list repeats %q", item))
			}
			seen[item] = struct{}{}
		}

	case domain.FormatText:
		s, ok := answer.(string)
		if !ok {
			return fail(fmt.Sprintf("final_answer must be text, got %T", answer))
		}
		if strings.TrimSpace(s) == "" {
			return fail("final_answer is empty")
		}
	}

	return nil
}

// checkCitations enforces citation presence and existence when the
// workflow consulted retrieval. Fabricated citation IDs are a failure,
// not something to silently drop.
func checkCitations(state *domain.WorkflowState) []Issue {
	if !state.Mode.NeedsRetrieval() {
		return nil
	}

	if len(state.Draft.Citations) == 0 {
		return []Issue{{
			Check:  "citations",
			Detail: "citations are required for answers grounded in documentation",
			Target: RepairSynthesis,
		}}
	}

	var issues []Issue
	for _, id := range state.Draft.Citations {
		if !state.CitedChunkExists(id) {
			issues = append(issues, Issue{
				Check:  "citations",
				Detail: fmt.Sprintf("citation %q does not match any retrieved chunk", id),
				Target: RepairSynthesis,
			})
		}
	}
	return issues
}

// repairTarget picks the stage to re-invoke for a set of issues.
// A query failure dominates: regenerating the SQL also forces a fresh
// synthesis afterwards.
func repairTarget(issues []Issue) RepairTarget {
	for _, issue := range issues {
		if issue.Target == RepairQuery {
			return RepairQuery
		}
	}
	return RepairSynthesis
}

// repairInstruction renders the failed checks into the instruction
// passed back to the upstream stage.
func repairInstruction(issues []Issue) string {
	details := make([]string, 0, len(issues))
	for _, issue := range issues {
		details = append(details, issue.Detail)
	}
	return strings.Join(details, "; ")
}

// cleanNumeric strips currency decoration models add to numbers.
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	return strings.TrimSpace(s)
}
