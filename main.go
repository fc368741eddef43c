package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	adminapp "airhealth-cloud/internal/admin/application"
	adminpg "airhealth-cloud/internal/admin/infrastructure/postgres"
	alertapp "airhealth-cloud/internal/alerts/application"
	alertpg "airhealth-cloud/internal/alerts/infrastructure/postgres"
	"airhealth-cloud/internal/alerts/notify"
	apihttp "airhealth-cloud/internal/api/http"
	"airhealth-cloud/internal/aqiprovider"
	"airhealth-cloud/internal/audit"
	"airhealth-cloud/internal/auth"
	"airhealth-cloud/internal/config"
	monapp "airhealth-cloud/internal/monitoring/application"
	monpg "airhealth-cloud/internal/monitoring/infrastructure/postgres"
	"airhealth-cloud/internal/observability/metrics"
	readingsapp "airhealth-cloud/internal/readings/application"
	readings "airhealth-cloud/internal/readings/domain"
	readingspg "airhealth-cloud/internal/readings/infrastructure/postgres"
	"airhealth-cloud/internal/readings/infrastructure/rediscache"
	riskpg "airhealth-cloud/internal/risk/infrastructure/postgres"
	userspg "airhealth-cloud/internal/users/infrastructure/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open error", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal("db ping error", zap.Error(err))
	}

	metrics.Init(db, log.New(os.Stdout, "", log.LstdFlags))
	auditRepo := audit.NewRepository(db)

	vitalsRepo := readingspg.NewVitalsRepository(db)
	var aqiRepo readings.AQIRepository = readingspg.NewAQIRepository(db)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		cached, err := rediscache.NewLatestAQICache(client, aqiRepo, cfg.LatestAQICacheT, logger)
		if err != nil {
			logger.Fatal("aqi cache error", zap.Error(err))
		}
		aqiRepo = cached
	}
	assessmentRepo := riskpg.NewAssessmentRepository(db)
	alertRepo := alertpg.NewAlertRepository(db)
	userRepo := userspg.NewUserRepository(db)
	submissionStore := monpg.NewSubmissionStore(db)
	adminRepo := adminpg.NewAdminRepository(db)

	policy, err := alertapp.NewPolicy(alertapp.WithWindow(cfg.AlertWindow))
	if err != nil {
		logger.Fatal("alert policy error", zap.Error(err))
	}

	var channel notify.Channel
	if cfg.WebhookURL != "" {
		webhook, err := notify.NewWebhookChannel(cfg.WebhookURL)
		if err != nil {
			logger.Fatal("webhook channel error", zap.Error(err))
		}
		channel = webhook
	}

	monService, err := monapp.NewService(monapp.Deps{
		Users:       userRepo,
		Vitals:      vitalsRepo,
		AQI:         aqiRepo,
		Assessments: assessmentRepo,
		Alerts:      alertRepo,
		Store:       submissionStore,
		Policy:      policy,
	},
		monapp.WithLogger(logger),
		monapp.WithChannel(channel),
		monapp.WithDemographics(cfg.Demographics, cfg.DefaultAge),
		monapp.WithDefaultCity(cfg.DefaultCity),
		monapp.WithPageSize(cfg.HistoryPageSize),
	)
	if err != nil {
		logger.Fatal("monitoring service error", zap.Error(err))
	}

	aqiOpts := []readingsapp.Option{readingsapp.WithLogger(logger)}
	if cfg.AQIProviderBaseURL != "" && cfg.AQIProviderAPIKey != "" {
		provider := aqiprovider.NewClient(cfg.AQIProviderBaseURL, cfg.AQIProviderAPIKey, aqiprovider.WithRetries(2))
		aqiOpts = append(aqiOpts, readingsapp.WithProvider(provider))
	}
	aqiService, err := readingsapp.NewAQIService(aqiRepo, aqiOpts...)
	if err != nil {
		logger.Fatal("aqi service error", zap.Error(err))
	}

	adminService, err := adminapp.NewService(userRepo, adminRepo, adminRepo,
		adminapp.WithLogger(logger),
		adminapp.WithAudit(auditRepo),
	)
	if err != nil {
		logger.Fatal("admin service error", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/health/submit", apihttp.NewSubmitVitalsHandler(monService))
	mux.Handle("/api/v1/health/history", apihttp.NewHealthHistoryHandler(monService))
	mux.Handle("/api/v1/profile", apihttp.NewProfileHandler(userRepo))
	mux.Handle("/api/v1/alerts", apihttp.NewAlertsHandler(monService))
	mux.Handle("/api/v1/history", apihttp.NewHistoryHandler(monService))
	mux.Handle("/api/v1/history/chart", apihttp.NewHistoryChartHandler(monService))
	mux.Handle("/api/v1/exports/history.csv", apihttp.NewExportHistoryHandler(monService))
	mux.Handle("/api/v1/exports/history.xlsx", apihttp.NewExportHistoryHandler(monService))
	mux.Handle("/api/v1/exports/history.pdf", apihttp.NewExportHistoryHandler(monService))
	mux.Handle("/api/v1/aqi/current", apihttp.NewCurrentAQIHandler(aqiService, cfg.DefaultCity))
	mux.Handle("/api/v1/aqi/history", apihttp.NewAQIHistoryHandler(aqiService, cfg.DefaultCity))
	mux.Handle("/api/v1/admin/users", apihttp.NewAdminUsersHandler(adminService))
	mux.Handle("/api/v1/admin/users/", apihttp.NewAdminUsersHandler(adminService))
	mux.Handle("/api/v1/admin/records", apihttp.NewAdminRecordsHandler(adminService))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", apihttp.HealthzHandler{})

	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), auth.NewDefaultPolicy(
		[]string{"/healthz", "/metrics"}, nil,
	))
	handler := loggingMiddleware(authMiddleware.Wrap(mux), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AQIProviderBaseURL != "" && cfg.AQIProviderAPIKey != "" {
		go aqiService.RunRefreshLoop(ctx, cfg.DefaultCity, cfg.AQIRefreshInterval)
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server error", zap.Error(err))
	}
}

func loggingMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", resp.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
