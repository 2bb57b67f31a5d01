package logging

import (
	"time"

	"go.uber.org/zap"
)

// AuditEventType names one kind of audit event.
type AuditEventType string

const (
	// Provider attempts
	AuditLLMRequest  AuditEventType = "llm_request"
	AuditLLMResponse AuditEventType = "llm_response"
	AuditLLMError    AuditEventType = "llm_error"

	// Intent and planning
	AuditIntentParsed AuditEventType = "intent_parsed"
	AuditPlanSource   AuditEventType = "plan_source"

	// Mutations, one per action
	AuditMutationApplied AuditEventType = "mutation_applied"
	AuditMutationBlocked AuditEventType = "mutation_blocked"
	AuditMutationSkipped AuditEventType = "mutation_skipped"
	AuditMutationError   AuditEventType = "mutation_error"
)

// AuditEvent is one structured audit entry.
type AuditEvent struct {
	EventType AuditEventType
	RequestID string
	Target    string // character id, provider name...
	Action    string
	Success   bool
	Duration  time.Duration
	Error     string
	Message   string
}

// AuditLogger writes audit events to the audit category.
type AuditLogger struct {
	requestID string
}

// Audit returns an unscoped audit logger.
func Audit() *AuditLogger { return &AuditLogger{} }

// AuditWithRequest scopes audit events to one request.
func AuditWithRequest(requestID string) *AuditLogger {
	return &AuditLogger{requestID: requestID}
}

// Log writes an audit event.
func (a *AuditLogger) Log(event AuditEvent) {
	if event.RequestID == "" {
		event.RequestID = a.requestID
	}
	fields := []zap.Field{
		zap.String("event", string(event.EventType)),
		zap.Bool("success", event.Success),
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("req", event.RequestID))
	}
	if event.Target != "" {
		fields = append(fields, zap.String("target", event.Target))
	}
	if event.Action != "" {
		fields = append(fields, zap.String("action", event.Action))
	}
	if event.Duration > 0 {
		fields = append(fields, zap.Duration("dur", event.Duration))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	Get(CategoryAudit).Zap().Info(event.Message, fields...)
}

// LLMCall records one provider attempt.
func (a *AuditLogger) LLMCall(provider string, d time.Duration, err error) {
	ev := AuditEvent{EventType: AuditLLMResponse, Target: provider, Success: err == nil, Duration: d, Message: "provider attempt"}
	if err != nil {
		ev.EventType = AuditLLMError
		ev.Error = err.Error()
	}
	a.Log(ev)
}

// Mutation records the result of one action.
func (a *AuditLogger) Mutation(status, characterID, operation, message string) {
	ev := AuditEvent{Target: characterID, Action: operation, Message: message}
	switch status {
	case "applied":
		ev.EventType, ev.Success = AuditMutationApplied, true
	case "blocked":
		ev.EventType = AuditMutationBlocked
	case "skipped":
		ev.EventType = AuditMutationSkipped
	default:
		ev.EventType = AuditMutationError
	}
	a.Log(ev)
}
