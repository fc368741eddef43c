package application

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"
	"time"

	alerts "airhealth-cloud/internal/alerts/domain"
	risk "airhealth-cloud/internal/risk/domain"
)

// DefaultWindow is the rolling window used for both deduplication and
// Emergency escalation.
const DefaultWindow = 24 * time.Hour

// DefaultMessageTemplate renders the alert message. Rendering is
// deterministic for a given assessment so the policy stays testable.
const DefaultMessageTemplate = `[Health Alert {{.Severity}}] Cardiovascular risk is {{.Label}} (score {{.Score}}). {{.Trigger}} with AQI {{.AQI}}. {{.Suggestion}}`

type messageData struct {
	Severity   string
	Label      string
	Score      string
	Trigger    string
	AQI        string
	Suggestion string
}

// Policy decides whether an assessment fires an alert and at what
// severity. It is pure given (assessment, recent alerts, now).
type Policy struct {
	window   time.Duration
	template *template.Template
}

// PolicyOption configures the policy.
type PolicyOption func(*Policy)

// WithWindow overrides the rolling dedup/escalation window.
func WithWindow(window time.Duration) PolicyOption {
	return func(p *Policy) {
		if window > 0 {
			p.window = window
		}
	}
}

// NewPolicy constructs an alert policy.
func NewPolicy(opts ...PolicyOption) (*Policy, error) {
	parsed, err := template.New("alert-message").Parse(DefaultMessageTemplate)
	if err != nil {
		return nil, err
	}
	policy := &Policy{window: DefaultWindow, template: parsed}
	for _, opt := range opts {
		opt(policy)
	}
	return policy, nil
}

// Window exposes the configured rolling window.
func (p *Policy) Window() time.Duration {
	if p == nil {
		return DefaultWindow
	}
	return p.window
}

// Evaluate maps an assessment plus the user's recent alert history to a
// new alert or nil. Rules:
//   - Low label never alerts.
//   - Moderate label fires a Moderate alert.
//   - High label fires High, escalated to Emergency when a High or
//     Emergency alert already exists inside the rolling window (a second
//     consecutive high-risk reading signals sustained danger).
//   - Dedup: an alert is suppressed when the window already holds an
//     alert of the same or higher severity.
//
// The returned alert has no ID and no CreatedAt normalization beyond the
// supplied now; identity and persistence belong to the caller.
func (p *Policy) Evaluate(assessment risk.Assessment, recent []alerts.Alert, now time.Time) (*alerts.Alert, error) {
	if p == nil || p.template == nil {
		return nil, errors.New("alert policy: nil policy")
	}
	if assessment.UserID == "" {
		return nil, errors.New("alert policy: assessment missing user id")
	}

	var severity alerts.Severity
	switch assessment.RiskLabel {
	case risk.LabelLow:
		return nil, nil
	case risk.LabelModerate:
		severity = alerts.SeverityModerate
	case risk.LabelHigh:
		severity = alerts.SeverityHigh
		if p.hasRecentAtLeast(recent, now, alerts.SeverityHigh) {
			severity = alerts.SeverityEmergency
		}
	default:
		return nil, fmt.Errorf("alert policy: unknown risk label %q", assessment.RiskLabel)
	}

	if p.hasRecentAtLeast(recent, now, severity) {
		return nil, nil
	}

	message, err := p.renderMessage(assessment, severity)
	if err != nil {
		return nil, err
	}

	return &alerts.Alert{
		UserID:       assessment.UserID,
		AssessmentID: assessment.ID,
		Severity:     severity,
		Message:      message,
		CreatedAt:    now,
	}, nil
}

func (p *Policy) hasRecentAtLeast(recent []alerts.Alert, now time.Time, target alerts.Severity) bool {
	cutoff := now.Add(-p.window)
	for _, alert := range recent {
		if alert.CreatedAt.Before(cutoff) || alert.CreatedAt.After(now) {
			continue
		}
		if alerts.SeverityAtLeast(alert.Severity, target) {
			return true
		}
	}
	return false
}

func (p *Policy) renderMessage(assessment risk.Assessment, severity alerts.Severity) (string, error) {
	data := messageData{
		Severity:   string(severity),
		Label:      string(assessment.RiskLabel),
		Score:      fmt.Sprintf("%.2f", assessment.RiskScore),
		Trigger:    triggerMetric(assessment),
		AQI:        fmt.Sprintf("%d", assessment.AQIValue),
		Suggestion: suggestionFor(severity),
	}
	var buf bytes.Buffer
	if err := p.template.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// triggerMetric names the vital that contributed most to the score so the
// message points at the dominant reading.
func triggerMetric(assessment risk.Assessment) string {
	name, value := assessment.DominantVital()
	if name == "systolic BP" {
		return fmt.Sprintf("systolic BP %d mmHg", value)
	}
	return fmt.Sprintf("heart rate %d bpm", value)
}

func suggestionFor(severity alerts.Severity) string {
	switch severity {
	case alerts.SeverityEmergency:
		return "Seek medical attention and avoid outdoor exposure."
	case alerts.SeverityHigh:
		return "Limit outdoor activity and monitor your readings closely."
	case alerts.SeverityModerate:
		return "Reduce outdoor exertion and re-check your vitals later today."
	default:
		return "Monitor your readings."
	}
}
