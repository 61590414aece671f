// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventMarkupInjectionAttempt is logged when libinjection flags profile free text.
	EventMarkupInjectionAttempt SecurityEventType = "markup_injection_attempt"
	// EventSearchThrottled is logged when a user exceeds the search rate limit.
	EventSearchThrottled SecurityEventType = "search_throttled"
)

// maxLoggedValue bounds attacker-controlled text copied into audit events.
const maxLoggedValue = 200

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails contains specifics of rejected free text.
type InjectionDetails struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates a new security auditor under the "security_audit"
// logger namespace for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{
		logger: logger.Named("security_audit"),
		now:    time.Now,
	}
}

// LogInjectionAttempt records profile free text rejected as markup injection.
// Logged at ERROR level with "critical" severity for alerting.
func (a *SecurityAuditor) LogInjectionAttempt(userID string, details InjectionDetails) {
	details.Value = logging.TruncateString(details.Value, maxLoggedValue)

	event := a.event(EventMarkupInjectionAttempt, userID, "", details, "critical")
	a.logger.Error("Markup injection attempt detected",
		zap.String("event_json", event),
		zap.String("user_id", userID),
		zap.String("field", details.Field),
		zap.String("severity", "critical"),
	)
}

// LogSearchThrottled records a search rejected by the per-user rate limit.
// Logged at WARN level; repeated events for one user suggest automation.
func (a *SecurityAuditor) LogSearchThrottled(userID, clientIP string, retryAfter time.Duration) {
	details := map[string]string{"retry_after": retryAfter.String()}

	event := a.event(EventSearchThrottled, userID, clientIP, details, "warning")
	a.logger.Warn("Search throttled",
		zap.String("event_json", event),
		zap.String("user_id", userID),
		zap.String("client_ip", clientIP),
		zap.Duration("retry_after", retryAfter),
		zap.String("severity", "warning"),
	)
}

func (a *SecurityAuditor) event(eventType SecurityEventType, userID, clientIP string, details any, severity string) string {
	// Known types; marshaling cannot fail.
	b, _ := json.Marshal(SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  severity,
	})
	return string(b)
}
