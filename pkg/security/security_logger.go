package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventLoginFailed        EventType = "login_failed"
	EventLoginBlocked       EventType = "login_blocked"
	EventLoginSuccess       EventType = "login_success"
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventUnauthorizedAccess EventType = "unauthorized_access"
	EventPasswordReset      EventType = "password_reset"
	EventAccountApproved    EventType = "account_approved"
	EventAccountDisabled    EventType = "account_disabled"
	EventUploadRejected     EventType = "upload_rejected"
	EventDataExport         EventType = "data_export"

	// Proctoring
	EventVerificationUploaded EventType = "verification_uploaded"
	EventTabSwitch            EventType = "tab_switch"
	EventAttemptTerminated    EventType = "attempt_terminated"
	EventAutoSubmitted        EventType = "auto_submitted"
	EventResultsDeclared      EventType = "results_declared"
)

// Severity is derived from EventType, never user-provided
type Severity string

const (
	SeverityINFO   Severity = "INFO"
	SeverityMEDIUM Severity = "MEDIUM"
	SeverityWARN   Severity = "WARN"
	SeverityHIGH   Severity = "HIGH"
)

var eventSeverity = map[EventType]Severity{
	EventLoginSuccess:         SeverityINFO,
	EventVerificationUploaded: SeverityINFO,
	EventResultsDeclared:      SeverityINFO,
	EventAccountApproved:      SeverityMEDIUM,
	EventPasswordReset:        SeverityMEDIUM,
	EventDataExport:           SeverityMEDIUM,
	EventAutoSubmitted:        SeverityMEDIUM,
	EventLoginFailed:          SeverityWARN,
	EventRateLimitTriggered:   SeverityWARN,
	EventUploadRejected:       SeverityWARN,
	EventTabSwitch:            SeverityWARN,
	EventLoginBlocked:         SeverityHIGH,
	EventUnauthorizedAccess:   SeverityHIGH,
	EventAccountDisabled:      SeverityHIGH,
	EventAttemptTerminated:    SeverityHIGH,
}

// GetSeverity defaults to MEDIUM for unmapped events.
func GetSeverity(eventType EventType) Severity {
	if s, ok := eventSeverity[eventType]; ok {
		return s
	}
	return SeverityMEDIUM
}

func levelFor(s Severity) zapcore.Level {
	switch s {
	case SeverityINFO:
		return zapcore.InfoLevel
	case SeverityHIGH:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time      `json:"timestamp"`
	Service      string         `json:"service"`
	Environment  string         `json:"env"`
	Severity     Severity       `json:"severity"`
	Event        EventType      `json:"event"`
	SubjectType  string         `json:"subject_type,omitempty"`  // "email", "ip", "user_id", "invitation", "test"
	SubjectValue string         `json:"subject_value,omitempty"` // masked or hashed for PII
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// SecurityLogger writes audit events through zap and optionally persists them.
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
	persistFunc func(ctx context.Context, event SecurityEvent) error
}

var (
	defaultLogger *SecurityLogger
	defaultMu     sync.Mutex
)

func NewSecurityLogger(z *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{zapLogger: z, serviceName: serviceName, environment: environment}
}

// InitSecurityLogger builds the production zap logger and installs it as default.
func InitSecurityLogger(serviceName, environment string) *SecurityLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	z, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		z, _ = zap.NewProduction()
	}

	sl := NewSecurityLogger(z, serviceName, environment)
	SetDefaultLogger(sl)
	return sl
}

func SetDefaultLogger(sl *SecurityLogger) {
	defaultMu.Lock()
	defaultLogger = sl
	defaultMu.Unlock()
}

// DefaultLogger returns the installed logger, or a no-op one before startup.
func DefaultLogger() *SecurityLogger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewSecurityLogger(zap.NewNop(), "placement-portal", "development")
	}
	return defaultLogger
}

// SetPersistFunc sets the function to persist events to database
func (sl *SecurityLogger) SetPersistFunc(f func(ctx context.Context, event SecurityEvent) error) {
	sl.persistFunc = f
}

func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment
	event.Severity = GetSeverity(event.Event)

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("severity", string(event.Severity)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(levelFor(event.Severity), string(event.Event), fields...)

	if sl.persistFunc != nil {
		go func(e SecurityEvent) {
			// Request context may already be canceled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sl.persistFunc(ctx, e); err != nil {
				sl.zapLogger.Error("failed to persist security event", zap.Error(err))
			}
		}(event)
	}
}

func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, email, ip, requestID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventLoginFailed,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]any{"reason": reason},
	})
}

func (sl *SecurityLogger) LogLoginBlocked(ctx context.Context, email, ip, requestID string, blockMinutes int) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventLoginBlocked,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]any{"reason": "too_many_failed_attempts", "duration_minutes": blockMinutes},
	})
}

func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]any{"endpoint": endpoint},
	})
}

// LogProctoring records a candidate-side event against an invitation.
func (sl *SecurityLogger) LogProctoring(ctx context.Context, event EventType, invitationID int64, email string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	details["invitation_id"] = invitationID
	sl.Log(ctx, SecurityEvent{
		Event:        event,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		Details:      details,
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	switch {
	case len(email) < 3:
		return "***"
	case at <= 1:
		return "***" + email[1:]
	default:
		return email[:1] + "***" + email[at:]
	}
}

// HashValue returns the first 16 hex chars of sha256(value).
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}
