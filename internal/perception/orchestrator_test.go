package perception

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeProvider struct {
	name  string
	reply string
	err   error
	block bool // wait for cancellation
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, _ Request) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

const okPlan = `{"reply":"listo","actions":[]}`

func allProviders() []Provider {
	var out []Provider
	for _, n := range []string{ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderOpenRouter, ProviderGroq, ProviderGemini} {
		out = append(out, &fakeProvider{name: n, reply: okPlan})
	}
	return out
}

func TestCandidates_AutoOrder(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{LocalFallback: true}, allProviders()...)
	assert.Equal(t, []string{"gemini", "groq", "openrouter", "openai", "anthropic", "ollama"}, o.Names())
}

func TestCandidates_PreferenceFirst(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{Preference: "anthropic"}, allProviders()...)
	assert.Equal(t, []string{"anthropic", "gemini", "groq", "openrouter", "openai"}, o.Names())
}

func TestCandidates_FreeTierOnly(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{FreeTierOnly: true, LocalFallback: true}, allProviders()...)
	assert.Equal(t, []string{"gemini", "groq", "openrouter", "ollama"}, o.Names())
}

func TestCandidates_OnlyRegistered(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{Preference: "gemini"}, &fakeProvider{name: ProviderOpenAI})
	assert.Equal(t, []string{"openai"}, o.Names())
}

func TestRun_NoProviders(t *testing.T) {
	_, err := NewOrchestrator(OrchestratorConfig{}).Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestRun_FallsBackInOrder(t *testing.T) {
	gem := &fakeProvider{name: ProviderGemini, err: errors.New("status 503")}
	groq := &fakeProvider{name: ProviderGroq, reply: "not json at all"}
	oa := &fakeProvider{name: ProviderOpenAI, reply: "```json\n" + okPlan + "\n```"}
	ant := &fakeProvider{name: ProviderAnthropic, reply: okPlan}

	res, err := NewOrchestrator(OrchestratorConfig{}, ant, oa, groq, gem).Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, res.Provider)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "listo", res.Plan.Reply)
	assert.Equal(t, 0, ant.calls, "later providers are never tried after a success")
}

func TestRun_ExhaustedAggregatesErrors(t *testing.T) {
	a := &fakeProvider{name: ProviderGemini, err: errors.New("boom")}
	b := &fakeProvider{name: ProviderGroq, reply: "[]"}

	_, err := NewOrchestrator(OrchestratorConfig{}, a, b).Run(context.Background(), Request{})
	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	require.Len(t, ex.Errors(), 2)
	assert.Contains(t, ex.Errors()[0].Error(), "gemini: boom")
	assert.ErrorIs(t, ex.Errors()[1], ErrMalformedPlan)
	assert.ErrorIs(t, err, ErrMalformedPlan)
}

func TestRun_TimeoutNamesConfiguredValue(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)

	slow := &fakeProvider{name: ProviderGemini, block: true}
	fast := &fakeProvider{name: ProviderGroq, reply: okPlan}
	o := NewOrchestrator(OrchestratorConfig{
		Timeouts: map[string]time.Duration{ProviderGemini: 30 * time.Millisecond},
	}, slow, fast)

	res, err := o.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, res.Provider)

	o = NewOrchestrator(OrchestratorConfig{
		Timeouts: map[string]time.Duration{ProviderGemini: 30 * time.Millisecond},
	}, slow)
	_, err = o.Run(context.Background(), Request{})
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 30*time.Millisecond, te.Timeout)
	assert.Contains(t, err.Error(), "timed out after 30ms")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_ParentCancellationStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProvider{name: ProviderGemini, reply: okPlan}

	_, err := NewOrchestrator(OrchestratorConfig{}, p).Run(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.calls)
}
