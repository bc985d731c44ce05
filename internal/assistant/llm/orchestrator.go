package llm

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/orbitcrm/assist/config"
	"github.com/orbitcrm/assist/internal/assistant/telemetry"
)

// Orchestrator walks the ordered tier list sequentially: tier 1 gets up to
// retryBudget attempts (each on the next rotated model), tiers 2-5 exactly
// one attempt each. The first non-blank success wins; if every attempt
// fails, one AggregateError carrying all attempt records is returned.
type Orchestrator struct {
	tiers       []TierClient
	retryBudget int
	callTimeout time.Duration
	logger      *log.Logger
	metrics     *telemetry.Metrics
}

// NewOrchestrator builds the five-tier chain from configuration. metrics
// may be nil.
func NewOrchestrator(cfg config.LLMConfig, logger *log.Logger, metrics *telemetry.Metrics) *Orchestrator {
	opts := genOptions{maxTokens: cfg.MaxTokens, temperature: cfg.Temperature}
	tiers := []TierClient{
		NewGroqClient(cfg.Groq, opts),
		NewOpenRouterClient(cfg.OpenRouter, opts),
		NewGeminiClient(cfg.Gemini, opts),
		NewCohereClient(cfg.Cohere, opts),
		NewHuggingFaceClient(cfg.HuggingFace, opts),
	}
	return newOrchestrator(tiers, cfg.RetryBudget, cfg.CallTimeout, logger, metrics)
}

func newOrchestrator(tiers []TierClient, retryBudget int, callTimeout time.Duration, logger *log.Logger, metrics *telemetry.Metrics) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[LLM] ", log.LstdFlags)
	}
	if retryBudget < 1 {
		retryBudget = 1
	}
	if callTimeout <= 0 {
		callTimeout = 25 * time.Second
	}
	return &Orchestrator{
		tiers:       tiers,
		retryBudget: retryBudget,
		callTimeout: callTimeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// Generate runs the fallback chain for one request. Tiers are attempted
// strictly in order and never concurrently; each call is bounded by the
// configured timeout.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (string, error) {
	var attempts []Attempt
	for i, tier := range o.tiers {
		budget := 1
		if i == 0 {
			budget = o.retryBudget
		}
		for attempt := 0; attempt < budget; attempt++ {
			text, err := o.callTier(ctx, tier, req)
			if err == nil {
				o.metrics.IncProviderAttempt(tier.Name(), "success")
				return text, nil
			}
			o.metrics.IncProviderAttempt(tier.Name(), failLabel(err))
			attempts = append(attempts, attemptFrom(tier.Name(), err))
			o.logger.Printf("tier %s attempt %d/%d failed: %v", tier.Name(), attempt+1, budget, err)
			if ctx.Err() != nil {
				// The caller gave up; no point in walking further tiers.
				o.metrics.IncAggregateFailure()
				return "", &AggregateError{Attempts: attempts}
			}
		}
	}
	o.metrics.IncAggregateFailure()
	return "", &AggregateError{Attempts: attempts}
}

func (o *Orchestrator) callTier(ctx context.Context, tier TierClient, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	start := time.Now()
	text, err := tier.Generate(callCtx, req)
	o.metrics.ObserveProviderLatency(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &TierError{Provider: tier.Name(), Kind: KindEmptyResponse, Err: errEmptyReply}
	}
	return text, nil
}

var errEmptyReply = &emptyReplyError{}

type emptyReplyError struct{}

func (*emptyReplyError) Error() string { return "empty reply" }

func failLabel(err error) string {
	a := attemptFrom("", err)
	if a.Kind == "" {
		return "error"
	}
	return string(a.Kind)
}
