package perception

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
)

// ErrNoProviders is returned when no provider is eligible for a call.
var ErrNoProviders = errors.New("no model providers configured")

// autoOrder is the fallback order for "auto", cheapest and fastest first.
var autoOrder = []string{ProviderGemini, ProviderGroq, ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic}

// freeTier marks providers usable in free-tier-only mode.
var freeTier = map[string]bool{
	ProviderGemini:     true,
	ProviderGroq:       true,
	ProviderOpenRouter: true,
	ProviderOllama:     true,
}

// OrchestratorConfig selects and bounds provider attempts.
type OrchestratorConfig struct {
	Preference     string // empty or "auto" for the fixed order
	FreeTierOnly   bool
	LocalFallback  bool
	Timeouts       map[string]time.Duration
	DefaultTimeout time.Duration
}

// TimeoutError reports a provider that exceeded its configured timeout.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s (configured timeout)", e.Provider, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ExhaustedError aggregates the failure of every candidate provider.
type ExhaustedError struct {
	err error
}

func (e *ExhaustedError) Error() string {
	return "all model providers failed: " + e.err.Error()
}

// Errors returns one error per failed attempt, in attempt order.
func (e *ExhaustedError) Errors() []error { return multierr.Errors(e.err) }

func (e *ExhaustedError) Unwrap() []error { return multierr.Errors(e.err) }

// Result is a successful orchestration.
type Result struct {
	Provider string
	Plan     *RawPlan
	Attempts int
}

// Orchestrator tries providers strictly one after another until one returns
// a parseable plan.
type Orchestrator struct {
	providers map[string]Provider
	cfg       OrchestratorConfig
}

// NewOrchestrator registers providers by name. Only registered providers are
// ever candidates, so callers register exactly those with credentials.
func NewOrchestrator(cfg OrchestratorConfig, providers ...Provider) *Orchestrator {
	o := &Orchestrator{providers: make(map[string]Provider, len(providers)), cfg: cfg}
	for _, p := range providers {
		if p != nil {
			o.providers[p.Name()] = p
		}
	}
	if o.cfg.DefaultTimeout <= 0 {
		o.cfg.DefaultTimeout = 25 * time.Second
	}
	return o
}

// Candidates returns the providers in attempt order: the explicit preference,
// then the auto order filtered by credentials and free-tier mode, then the
// local fallback.
func (o *Orchestrator) Candidates() []Provider {
	var out []Provider
	seen := make(map[string]bool)
	add := func(name string) {
		if seen[name] {
			return
		}
		if p, ok := o.providers[name]; ok {
			seen[name] = true
			out = append(out, p)
		}
	}

	if pref := o.cfg.Preference; pref != "" && pref != "auto" {
		add(pref)
	}
	for _, name := range autoOrder {
		if o.cfg.FreeTierOnly && !freeTier[name] {
			continue
		}
		add(name)
	}
	if o.cfg.LocalFallback {
		add(ProviderOllama)
	}
	return out
}

// Names returns the candidate names in attempt order.
func (o *Orchestrator) Names() []string {
	cands := o.Candidates()
	names := make([]string, len(cands))
	for i, p := range cands {
		names[i] = p.Name()
	}
	return names
}

func (o *Orchestrator) timeout(name string) time.Duration {
	if d, ok := o.cfg.Timeouts[name]; ok && d > 0 {
		return d
	}
	return o.cfg.DefaultTimeout
}

// Run asks each candidate in turn. A provider fails on transport errors,
// timeouts, empty content and unparseable replies; only when all fail is an
// *ExhaustedError returned.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	cands := o.Candidates()
	if len(cands) == 0 {
		return nil, ErrNoProviders
	}

	var errs error
	for i, p := range cands {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		plan, err := o.attempt(ctx, p, req)
		if err == nil {
			logging.Perception("plan from %s after %d attempt(s)", p.Name(), i+1)
			return &Result{Provider: p.Name(), Plan: plan, Attempts: i + 1}, nil
		}
		logging.PerceptionWarn("provider %s failed: %v", p.Name(), err)
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, &ExhaustedError{err: errs}
}

func (o *Orchestrator) attempt(ctx context.Context, p Provider, req Request) (*RawPlan, error) {
	timeout := o.timeout(p.Name())
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := p.Complete(actx, req)
	if err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = &TimeoutError{Provider: p.Name(), Timeout: timeout}
	}
	logging.Audit().LLMCall(p.Name(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return ParsePlan(text)
}
