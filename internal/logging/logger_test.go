package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, categories map[string]bool) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetRoot(zap.New(core), categories)
	t.Cleanup(func() { SetRoot(zap.NewNop(), nil) })
	return logs
}

func TestCategoryLoggersAreNamed(t *testing.T) {
	logs := observe(t, nil)

	Perception("provider %s selected", "gemini")
	EngineDebug("applied %d patches", 2)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "perception", entries[0].LoggerName)
	assert.Equal(t, "provider gemini selected", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "engine", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, map[string]bool{"store": false, "retrieval": true})

	assert.False(t, IsCategoryEnabled(CategoryStore))
	assert.True(t, IsCategoryEnabled(CategoryRetrieval))
	assert.True(t, IsCategoryEnabled(CategoryBoot), "unlisted categories default to enabled")

	Store("hidden")
	Retrieval("visible")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "visible", logs.All()[0].Message)
}

func TestWithRequestID(t *testing.T) {
	logs := observe(t, nil)

	WithRequestID(CategoryAssistant, "req-7").Info("handled")

	entry := logs.All()[0]
	assert.Equal(t, "req-7", entry.ContextMap()["req"])
}

func TestAuditMutation(t *testing.T) {
	logs := observe(t, nil)

	AuditWithRequest("r1").Mutation("blocked", "c1", "update", "not yours")
	Audit().LLMCall("groq", 20*time.Millisecond, errors.New("boom"))

	var entries []observer.LoggedEntry
	for _, e := range logs.All() {
		if e.LoggerName == "audit" {
			entries = append(entries, e)
		}
	}
	require.Len(t, entries, 2)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "mutation_blocked", ctx["event"])
	assert.Equal(t, false, ctx["success"])
	assert.Equal(t, "r1", ctx["req"])
	assert.Equal(t, "c1", ctx["target"])
	assert.Equal(t, "llm_error", entries[1].ContextMap()["event"])
}

func TestInitializeRejectsBadLevel(t *testing.T) {
	t.Cleanup(func() { SetRoot(zap.NewNop(), nil) })
	assert.Error(t, Initialize(Config{Level: "loud"}))
	assert.NoError(t, Initialize(Config{Level: "warn", Development: true}))
}
