package audit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// setupTestLogger creates a test logger with an observer to capture log entries.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func decodeEvent(t *testing.T, entry observer.LoggedEntry) SecurityEvent {
	t.Helper()
	raw, ok := entry.ContextMap()["event_json"].(string)
	require.True(t, ok, "event_json field missing")
	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	return event
}

func TestLogInjectionAttempt(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)
	auditor.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600)) }

	auditor.LogInjectionAttempt("auth0|student", InjectionDetails{
		Field: "major",
		Value: "<script>alert(1)</script>" + strings.Repeat("x", 500),
	})

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "security_audit", entry.LoggerName)
	assert.Equal(t, "major", entry.ContextMap()["field"])

	event := decodeEvent(t, entry)
	assert.Equal(t, EventMarkupInjectionAttempt, event.EventType)
	assert.Equal(t, "auth0|student", event.UserID)
	assert.Equal(t, "critical", event.Severity)
	assert.Equal(t, time.UTC, event.Timestamp.Location())

	details, ok := event.Details.(map[string]any)
	require.True(t, ok)
	assert.LessOrEqual(t, len(details["value"].(string)), maxLoggedValue+len("..."))
}

func TestLogSearchThrottled(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	auditor.LogSearchThrottled("auth0|student", "192.168.1.100:52311", 10*time.Second)

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	event := decodeEvent(t, entry)
	assert.Equal(t, EventSearchThrottled, event.EventType)
	assert.Equal(t, "192.168.1.100:52311", event.ClientIP)
	assert.Equal(t, "warning", event.Severity)
	assert.Equal(t, map[string]any{"retry_after": "10s"}, event.Details)
}
