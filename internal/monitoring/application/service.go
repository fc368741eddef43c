package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	alertapp "airhealth-cloud/internal/alerts/application"
	alerts "airhealth-cloud/internal/alerts/domain"
	"airhealth-cloud/internal/alerts/notify"
	"airhealth-cloud/internal/apperr"
	"airhealth-cloud/internal/config"
	history "airhealth-cloud/internal/history/domain"
	"airhealth-cloud/internal/observability/metrics"
	readings "airhealth-cloud/internal/readings/domain"
	risk "airhealth-cloud/internal/risk/domain"
	users "airhealth-cloud/internal/users/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// VitalsInput is one submitted cardiovascular reading.
type VitalsInput struct {
	HeartRate   int       `json:"heart_rate"`
	SystolicBP  int       `json:"systolic_bp"`
	DiastolicBP int       `json:"diastolic_bp"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Submission bundles the records one vitals submission produces. The
// store must persist them atomically: either all rows commit or none do.
type Submission struct {
	Vitals     readings.VitalsSample
	Assessment risk.Assessment
	Alert      *alerts.Alert
}

// SubmissionStore persists a submission in a single transaction.
type SubmissionStore interface {
	SaveSubmission(ctx context.Context, submission Submission) error
}

// SubmissionResult is returned to the caller after a successful submit.
type SubmissionResult struct {
	Assessment risk.Assessment `json:"assessment"`
	Alert      *alerts.Alert   `json:"alert,omitempty"`
}

// Deps are the collaborators the monitoring service needs.
type Deps struct {
	Users       users.Repository
	Vitals      readings.VitalsRepository
	AQI         readings.AQIRepository
	Assessments risk.Repository
	Alerts      alerts.Repository
	Store       SubmissionStore
	Policy      *alertapp.Policy
}

// Service orchestrates vitals submissions and per-user reads. Scoring
// and alerting stay pure; this layer owns identity, time, persistence
// and delivery.
type Service struct {
	deps    Deps
	channel notify.Channel
	clock   Clock
	logger  *zap.Logger

	demographicsMode config.DemographicsMode
	defaultAge       int
	defaultCity      string
	pageSize         int
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChannel attaches an alert delivery channel.
func WithChannel(channel notify.Channel) Option {
	return func(s *Service) { s.channel = channel }
}

// WithDemographics sets how incomplete profiles are handled.
func WithDemographics(mode config.DemographicsMode, defaultAge int) Option {
	return func(s *Service) {
		s.demographicsMode = mode
		if defaultAge > 0 {
			s.defaultAge = defaultAge
		}
	}
}

// WithDefaultCity sets the AQI fallback city for users without one.
func WithDefaultCity(city string) Option {
	return func(s *Service) {
		if city != "" {
			s.defaultCity = city
		}
	}
}

// WithPageSize sets the history page size.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// NewService constructs the monitoring service.
func NewService(deps Deps, opts ...Option) (*Service, error) {
	if deps.Users == nil || deps.Vitals == nil || deps.AQI == nil ||
		deps.Assessments == nil || deps.Alerts == nil || deps.Store == nil || deps.Policy == nil {
		return nil, apperr.New(apperr.KindPersistence, "monitoring service: missing dependency")
	}
	s := &Service{
		deps:             deps,
		clock:            systemClock{},
		logger:           zap.NewNop(),
		demographicsMode: config.DemographicsStrict,
		defaultAge:       30,
		pageSize:         history.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitVitals validates and persists one reading, scores it against the
// latest AQI sample, applies the alert policy and commits everything in
// one transaction. Alert delivery happens after commit and never fails
// the submission.
func (s *Service) SubmitVitals(ctx context.Context, userID string, input VitalsInput) (*SubmissionResult, error) {
	started := s.clock.Now()

	result, err := s.submit(ctx, userID, input, started)
	if err != nil {
		metrics.ObserveSubmission(metrics.ResultError, s.clock.Now().Sub(started))
		metrics.IncSubmissionError(string(apperr.KindOf(err)))
		return nil, err
	}
	metrics.ObserveSubmission(metrics.ResultSuccess, s.clock.Now().Sub(started))
	return result, nil
}

func (s *Service) submit(ctx context.Context, userID string, input VitalsInput, now time.Time) (*SubmissionResult, error) {
	if userID == "" {
		return nil, apperr.Validation("submit: empty user id")
	}

	capturedAt := input.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = now
	}
	sample := readings.VitalsSample{
		ID:          uuid.NewString(),
		UserID:      userID,
		HeartRate:   input.HeartRate,
		SystolicBP:  input.SystolicBP,
		DiastolicBP: input.DiastolicBP,
		CapturedAt:  capturedAt,
	}
	// Reject before touching any store: invalid input must leave no rows.
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	user, err := s.deps.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	demographics, err := s.resolveDemographics(*user)
	if err != nil {
		return nil, err
	}

	city := user.City
	if city == "" {
		city = s.defaultCity
	}
	aqi, err := s.deps.AQI.Latest(ctx, city)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("submit: no air-quality data for city %s", city)
		}
		return nil, err
	}

	assessment, err := risk.Score(sample, *aqi, demographics)
	if err != nil {
		return nil, err
	}
	assessment.ID = uuid.NewString()
	assessment.CreatedAt = now

	recent, err := s.deps.Alerts.ListSince(ctx, userID, now.Add(-s.deps.Policy.Window()))
	if err != nil {
		return nil, err
	}
	alert, err := s.deps.Policy.Evaluate(assessment, recent, now)
	if err != nil {
		return nil, err
	}
	if alert != nil {
		alert.ID = uuid.NewString()
	}

	if err := s.deps.Store.SaveSubmission(ctx, Submission{
		Vitals:     sample,
		Assessment: assessment,
		Alert:      alert,
	}); err != nil {
		return nil, err
	}

	metrics.IncAssessment(string(assessment.RiskLabel))
	s.logger.Info("vitals submitted",
		zap.String("user_id", userID),
		zap.Float64("risk_score", assessment.RiskScore),
		zap.String("risk_label", string(assessment.RiskLabel)),
		zap.Bool("alert", alert != nil),
	)

	if alert != nil {
		metrics.IncAlertEmitted(string(alert.Severity))
		s.deliver(ctx, *alert)
	}

	return &SubmissionResult{Assessment: assessment, Alert: alert}, nil
}

func (s *Service) resolveDemographics(user users.User) (risk.Demographics, error) {
	if user.DemographicsComplete() {
		return risk.Demographics{
			Age:                user.Age,
			Smoking:            user.SmokingStatus,
			ExistingConditions: user.ExistingConditions,
		}, nil
	}
	if s.demographicsMode == config.DemographicsStrict {
		return risk.Demographics{}, apperr.Validation("submit: user %s has an incomplete demographic profile", user.ID)
	}
	return risk.Demographics{Age: s.defaultAge}, nil
}

func (s *Service) deliver(ctx context.Context, alert alerts.Alert) {
	if s.channel == nil {
		return
	}
	if err := s.channel.Send(ctx, alert); err != nil {
		metrics.IncAlertNotify(metrics.ResultError)
		s.logger.Warn("alert delivery failed",
			zap.String("alert_id", alert.ID),
			zap.String("severity", string(alert.Severity)),
			zap.Error(err),
		)
		return
	}
	metrics.IncAlertNotify(metrics.ResultSuccess)
}

// HealthHistory returns the user's assessments, most recent first.
func (s *Service) HealthHistory(ctx context.Context, userID string) ([]risk.Assessment, error) {
	if userID == "" {
		return nil, apperr.Validation("health history: empty user id")
	}
	return s.deps.Assessments.ListByUser(ctx, userID)
}

// Alerts returns the user's alert history, most recent first.
func (s *Service) Alerts(ctx context.Context, userID string) ([]alerts.Alert, error) {
	if userID == "" {
		return nil, apperr.Validation("alerts: empty user id")
	}
	return s.deps.Alerts.ListByUser(ctx, userID)
}

// HistoryRows merges the user's vitals series with their city's AQI
// series over a date window. Used by the paginated table, the chart
// projections and the file exports.
func (s *Service) HistoryRows(ctx context.Context, userID string, window history.Window) ([]history.MergedRow, error) {
	if userID == "" {
		return nil, apperr.Validation("history: empty user id")
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	user, err := s.deps.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	city := user.City
	if city == "" {
		city = s.defaultCity
	}

	// The window is end-inclusive through the whole last day, so fetch
	// through its final instant rather than the supplied timestamp.
	fetchEnd := endOfDay(window.End)

	vitals, err := s.deps.Vitals.ListByUserRange(ctx, userID, window.Start, fetchEnd)
	if err != nil {
		return nil, err
	}
	aqi, err := s.deps.AQI.ListByCityRange(ctx, city, window.Start, fetchEnd)
	if err != nil {
		return nil, err
	}
	return history.Merge(aqi, vitals, window)
}

// History returns one page of the merged history table.
func (s *Service) History(ctx context.Context, userID string, window history.Window, page int) (history.Page, error) {
	rows, err := s.HistoryRows(ctx, userID, window)
	if err != nil {
		return history.Page{}, err
	}
	return history.Paginate(rows, page, s.pageSize)
}

// ChartData are the per-series chart projections over one window.
type ChartData struct {
	AQI    []history.AQIChartPoint    `json:"aqi"`
	Vitals []history.VitalsChartPoint `json:"vitals"`
}

// Charts returns chart-ready projections sharing the table's bucketing.
func (s *Service) Charts(ctx context.Context, userID string, window history.Window) (ChartData, error) {
	rows, err := s.HistoryRows(ctx, userID, window)
	if err != nil {
		return ChartData{}, err
	}
	return ChartData{AQI: history.AQIChart(rows), Vitals: history.VitalsChart(rows)}, nil
}

func endOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
