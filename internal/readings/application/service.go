package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"airhealth-cloud/internal/apperr"
	"airhealth-cloud/internal/observability/metrics"
	readings "airhealth-cloud/internal/readings/domain"
)

// Provider fetches a live air-quality sample for a city.
type Provider interface {
	Fetch(ctx context.Context, city string) (readings.AQISample, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// AQIService serves the air-quality reads and keeps the stored series
// fresh from the external provider.
type AQIService struct {
	repo     readings.AQIRepository
	provider Provider
	clock    Clock
	logger   *zap.Logger
}

// Option configures the service.
type Option func(*AQIService)

// WithProvider attaches the live provider. Without one the service only
// serves stored samples.
func WithProvider(provider Provider) Option {
	return func(s *AQIService) { s.provider = provider }
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *AQIService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *AQIService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAQIService constructs the service.
func NewAQIService(repo readings.AQIRepository, opts ...Option) (*AQIService, error) {
	if repo == nil {
		return nil, apperr.Persistence("aqi service: missing repository", nil)
	}
	s := &AQIService{repo: repo, clock: systemClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CurrentAQI returns the latest stored sample for a city, refreshing
// from the provider when the series is empty.
func (s *AQIService) CurrentAQI(ctx context.Context, city string) (*readings.AQISample, error) {
	if city == "" {
		return nil, apperr.Validation("aqi service: empty city")
	}
	sample, err := s.repo.Latest(ctx, city)
	if err == nil {
		return sample, nil
	}
	if !apperr.IsNotFound(err) || s.provider == nil {
		return nil, err
	}
	if _, err := s.Refresh(ctx, city); err != nil {
		return nil, err
	}
	return s.repo.Latest(ctx, city)
}

// AQIHistory returns the stored series for the trailing number of days,
// most recent first.
func (s *AQIService) AQIHistory(ctx context.Context, city string, days int) ([]readings.AQISample, error) {
	if city == "" {
		return nil, apperr.Validation("aqi service: empty city")
	}
	if days <= 0 {
		return nil, apperr.Validation("aqi service: days must be positive, got %d", days)
	}
	since := s.clock.Now().AddDate(0, 0, -days)
	return s.repo.ListByCitySince(ctx, city, since)
}

// Refresh pulls a fresh sample from the provider and appends it to the
// stored series.
func (s *AQIService) Refresh(ctx context.Context, city string) (*readings.AQISample, error) {
	if s.provider == nil {
		return nil, apperr.Persistence("aqi service: no provider configured", nil)
	}
	started := s.clock.Now()

	sample, err := s.provider.Fetch(ctx, city)
	if err != nil {
		metrics.ObserveAQIRefresh(metrics.ResultError, s.clock.Now().Sub(started))
		return nil, err
	}
	sample.ID = uuid.NewString()
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = s.clock.Now()
	}
	if err := s.repo.Append(ctx, sample); err != nil {
		metrics.ObserveAQIRefresh(metrics.ResultError, s.clock.Now().Sub(started))
		return nil, err
	}

	metrics.ObserveAQIRefresh(metrics.ResultSuccess, s.clock.Now().Sub(started))
	s.logger.Info("aqi refreshed",
		zap.String("city", city),
		zap.Int("aqi", sample.AQIValue),
	)
	return &sample, nil
}

// RunRefreshLoop refreshes the city's series on an interval until the
// context is cancelled. Failures are logged and the loop keeps going.
func (s *AQIService) RunRefreshLoop(ctx context.Context, city string, interval time.Duration) {
	if s.provider == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx, city); err != nil {
				s.logger.Warn("scheduled aqi refresh failed",
					zap.String("city", city),
					zap.Error(err),
				)
			}
		}
	}
}
