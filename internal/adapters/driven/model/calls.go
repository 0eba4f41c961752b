// Package model implements the four model-call contracts (classify,
// query generation, constraint extraction, answer synthesis) on top of
// any LLMService backend, using prompt templates and lenient output
// parsing.
//
// All calls share one token-bucket rate limiter and a per-call timeout.
// Outputs are returned raw: the core validates everything this package
// produces.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// Ensure Calls implements all four model-call ports.
var (
	_ driven.Classifier          = (*Calls)(nil)
	_ driven.QueryGenerator      = (*Calls)(nil)
	_ driven.ConstraintExtractor = (*Calls)(nil)
	_ driven.AnswerSynthesizer   = (*Calls)(nil)
)

// Default call parameters.
const (
	// DefaultCallTimeout bounds each model call. Local models can be
	// slow on long synthesis prompts.
	DefaultCallTimeout = 120 * time.Second

	// DefaultCallRate is the proactive throttle in calls per second.
	DefaultCallRate = 2.0

	// chunkPreviewLen bounds how much of each retrieved chunk is
	// rendered into the synthesis prompt.
	chunkPreviewLen = 400
)

// Calls provides the prompted model-call implementations.
type Calls struct {
	llm     driven.LLMService
	limiter *rate.Limiter
	timeout time.Duration
}

// Option configures Calls.
type Option func(*Calls)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Calls) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCallRate sets the throttle rate in calls per second.
func WithCallRate(perSecond float64) Option {
	return func(c *Calls) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewCalls creates the model-call layer over an LLM backend.
func NewCalls(llm driven.LLMService, opts ...Option) *Calls {
	c := &Calls{
		llm:     llm,
		limiter: rate.NewLimiter(rate.Limit(DefaultCallRate), 1),
		timeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call throttles, bounds, and dispatches one completion request.
func (c *Calls) call(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   maxTokens,
		Temperature: 0.1,
	})
}

// Classify returns the model's mode label for a question. The label is
// raw; the router validates it against the closed set.
func (c *Calls) Classify(ctx context.Context, question string) (string, error) {
	out, err := c.call(ctx, fmt.Sprintf(classifyPrompt, question), 10)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}

	// Models pad single-word answers; keep the first token only.
	label := strings.ToLower(strings.TrimSpace(out))
	if fields := strings.Fields(label); len(fields) > 0 {
		label = strings.Trim(fields[0], ".,:;\"'`")
	}
	logger.Debug("Classify: %q -> %q", question, label)
	return label, nil
}

// GenerateQuery returns the model's SQL for a question. Code fences and
// other decoration are the core's problem, not this adapter's.
func (c *Calls) GenerateQuery(ctx context.Context, question, grounding, schema string) (string, error) {
	out, err := c.call(ctx, fmt.Sprintf(nl2sqlPrompt, schema, grounding, question), 500)
	if err != nil {
		return "", fmt.Errorf("generate query: %w", err)
	}
	return out, nil
}

// ExtractConstraints asks the model for structured facts in the given
// text and decodes its JSON answer into the raw constraint fields.
func (c *Calls) ExtractConstraints(ctx context.Context, text string) (driven.RawConstraints, error) {
	var raw driven.RawConstraints

	out, err := c.call(ctx, fmt.Sprintf(extractPrompt, text), 300)
	if err != nil {
		return raw, fmt.Errorf("extract constraints: %w", err)
	}

	obj := firstJSONObject(out)
	if obj == "" {
		return raw, fmt.Errorf("extract constraints: no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return raw, fmt.Errorf("extract constraints: %w", err)
	}
	return raw, nil
}

// Synthesize renders the evidence payload into the synthesis prompt and
// returns the model's raw output for the core to parse.
func (c *Calls) Synthesize(ctx context.Context, in driven.SynthesisInput) (string, error) {
	docs := "No documents retrieved."
	if len(in.Retrieved) > 0 {
		var b strings.Builder
		for _, rc := range in.Retrieved {
			text := rc.Text
			if len(text) > chunkPreviewLen {
				text = text[:chunkPreviewLen] + "..."
			}
			fmt.Fprintf(&b, "[%s] %s\n\n", rc.ChunkID, text)
		}
		docs = strings.TrimSpace(b.String())
	}

	sqlText := "No query was executed."
	if in.SQL != "" {
		sqlText = in.SQL
	}
	rows := "No query results."
	if in.Rows != "" {
		rows = in.Rows
	}

	repair := ""
	if in.RepairInstruction != "" {
		repair = "IMPORTANT - your previous answer was rejected: " + in.RepairInstruction + "\n\n"
	}

	prompt := fmt.Sprintf(synthesizePrompt,
		repair, in.Question, in.FormatHint, docs, sqlText, rows)

	out, err := c.call(ctx, prompt, 800)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return out, nil
}

// firstJSONObject returns the outermost {...} span of s, or "".
func firstJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
