package apihttp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	adminapp "airhealth-cloud/internal/admin/application"
	"airhealth-cloud/internal/apperr"
	"airhealth-cloud/internal/auth"
	history "airhealth-cloud/internal/history/domain"
	historyexport "airhealth-cloud/internal/history/interfaces"
	monapp "airhealth-cloud/internal/monitoring/application"
	"airhealth-cloud/internal/observability/metrics"
	readingsapp "airhealth-cloud/internal/readings/application"
	users "airhealth-cloud/internal/users/domain"
)

const dateLayout = "2006-01-02"

// SubmitVitalsHandler serves vitals submissions.
type SubmitVitalsHandler struct {
	service *monapp.Service
}

// NewSubmitVitalsHandler constructs a SubmitVitalsHandler.
func NewSubmitVitalsHandler(service *monapp.Service) *SubmitVitalsHandler {
	return &SubmitVitalsHandler{service: service}
}

// ServeHTTP handles POST /api/v1/health/submit.
func (h *SubmitVitalsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, apperr.Unauthenticated("missing identity"))
		return
	}

	var input monapp.VitalsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	result, err := h.service.SubmitVitals(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// HealthHistoryHandler serves the per-user assessment history.
type HealthHistoryHandler struct {
	service *monapp.Service
}

// NewHealthHistoryHandler constructs a HealthHistoryHandler.
func NewHealthHistoryHandler(service *monapp.Service) *HealthHistoryHandler {
	return &HealthHistoryHandler{service: service}
}

// ServeHTTP handles GET /api/v1/health/history.
func (h *HealthHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, apperr.Unauthenticated("missing identity"))
		return
	}

	assessments, err := h.service.HealthHistory(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessments)
}

// AlertsHandler serves the per-user alert history.
type AlertsHandler struct {
	service *monapp.Service
}

// NewAlertsHandler constructs an AlertsHandler.
func NewAlertsHandler(service *monapp.Service) *AlertsHandler {
	return &AlertsHandler{service: service}
}

// ServeHTTP handles GET /api/v1/alerts.
func (h *AlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, apperr.Unauthenticated("missing identity"))
		return
	}

	alerts, err := h.service.Alerts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func parseWindow(r *http.Request) (history.Window, error) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw == "" || toRaw == "" {
		return history.Window{}, apperr.Validation("from and to are required (format %s)", dateLayout)
	}
	from, err := time.ParseInLocation(dateLayout, fromRaw, time.UTC)
	if err != nil {
		return history.Window{}, apperr.Validation("invalid from date: %v", err)
	}
	to, err := time.ParseInLocation(dateLayout, toRaw, time.UTC)
	if err != nil {
		return history.Window{}, apperr.Validation("invalid to date: %v", err)
	}
	return history.Window{Start: from, End: to}, nil
}

// HistoryHandler serves the paginated merged history table.
type HistoryHandler struct {
	service *monapp.Service
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(service *monapp.Service) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// ServeHTTP handles GET /api/v1/history.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, apperr.Unauthenticated("missing identity"))
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperr.Validation("invalid page: %v", err))
			return
		}
		page = parsed
	}

	result, err := h.service.History(r.Context(), userID, window, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HistoryChartHandler serves the chart projections.
type HistoryChartHandler struct {
	service *monapp.Service
}

// NewHistoryChartHandler constructs a HistoryChartHandler.
func NewHistoryChartHandler(service *monapp.Service) *HistoryChartHandler {
	return &HistoryChartHandler{service: service}
}

// ServeHTTP handles GET /api/v1/history/chart.
func (h *HistoryChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, apperr.Unauthenticated("missing identity"))
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}
	charts, err := h.service.Charts(r.Context(), userID, window)
	if err != nil {
		writeError(w, err)
		return
	}

	switch series := r.URL.Query().Get("series"); series {
	case "aqi":
		writeJSON(w, http.StatusOK, charts.AQI)
	case "vitals":
		writeJSON(w, http.StatusOK, charts.Vitals)
	case "":
		writeJSON(w, http.StatusOK, charts)
	default:
		writeError(w, apperr.Validation("unknown series %q", series))
	}
}

// ExportHistoryHandler serves merged history exports in csv, xlsx or pdf.
type ExportHistoryHandler struct {
	service *monapp.Service
}

// NewExportHistoryHandler constructs an ExportHistoryHandler.
func NewExportHistoryHandler(service *monapp.Service) *ExportHistoryHandler {
	return &ExportHistoryHandler{service: service}
}

// ServeHTTP handles GET /api/v1/exports/history.{csv,xlsx,pdf}.
func (h *ExportHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, apperr.Unauthenticated("missing identity"))
		return
	}

	format := strings.TrimPrefix(r.URL.Path, "/api/v1/exports/history.")
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}

	started := time.Now()
	rows, err := h.service.HistoryRows(r.Context(), userID, window)
	if err != nil {
		metrics.ObserveHistoryExport(format, metrics.ResultError, time.Since(started))
		writeError(w, err)
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "csv":
		data, err = historyexport.BuildHistoryCSV(rows)
		contentType = "text/csv"
	case "xlsx":
		data, err = historyexport.BuildHistoryXLSX(userID, rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, err = historyexport.BuildHistoryPDF(userID, rows)
		contentType = "application/pdf"
	default:
		writeError(w, apperr.Validation("unknown export format %q", format))
		return
	}
	if err != nil {
		metrics.ObserveHistoryExport(format, metrics.ResultError, time.Since(started))
		writeError(w, apperr.Persistence("export build failed", err))
		return
	}
	metrics.ObserveHistoryExport(format, metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="history.`+format+`"`)
	_, _ = w.Write(data)
}

// CurrentAQIHandler serves the latest AQI sample for a city.
type CurrentAQIHandler struct {
	service     *readingsapp.AQIService
	defaultCity string
}

// NewCurrentAQIHandler constructs a CurrentAQIHandler.
func NewCurrentAQIHandler(service *readingsapp.AQIService, defaultCity string) *CurrentAQIHandler {
	return &CurrentAQIHandler{service: service, defaultCity: defaultCity}
}

// ServeHTTP handles GET /api/v1/aqi/current.
func (h *CurrentAQIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	city := r.URL.Query().Get("city")
	if city == "" {
		city = h.defaultCity
	}
	sample, err := h.service.CurrentAQI(r.Context(), city)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

// AQIHistoryHandler serves the trailing AQI series for a city.
type AQIHistoryHandler struct {
	service     *readingsapp.AQIService
	defaultCity string
}

// NewAQIHistoryHandler constructs an AQIHistoryHandler.
func NewAQIHistoryHandler(service *readingsapp.AQIService, defaultCity string) *AQIHistoryHandler {
	return &AQIHistoryHandler{service: service, defaultCity: defaultCity}
}

// ServeHTTP handles GET /api/v1/aqi/history.
func (h *AQIHistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	city := r.URL.Query().Get("city")
	if city == "" {
		city = h.defaultCity
	}
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperr.Validation("invalid days: %v", err))
			return
		}
		days = parsed
	}

	samples, err := h.service.AQIHistory(r.Context(), city, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, samples)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	users users.Repository
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(repo users.Repository) *ProfileHandler {
	return &ProfileHandler{users: repo}
}

type profileUpdate struct {
	Age                int    `json:"age"`
	SmokingStatus      bool   `json:"smoking_status"`
	ExistingConditions bool   `json:"existing_conditions"`
	City               string `json:"city"`
}

// ServeHTTP handles GET and PUT /api/v1/profile.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.users == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, apperr.Unauthenticated("missing identity"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.users.Get(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var update profileUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeError(w, apperr.Validation("invalid request body: %v", err))
			return
		}
		err := h.users.UpdateDemographics(r.Context(), userID,
			update.Age, update.SmokingStatus, update.ExistingConditions, update.City)
		if err != nil {
			writeError(w, err)
			return
		}
		user, err := h.users.Get(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// AdminUsersHandler serves the admin user listing and user deletion.
type AdminUsersHandler struct {
	service *adminapp.Service
}

// NewAdminUsersHandler constructs an AdminUsersHandler.
func NewAdminUsersHandler(service *adminapp.Service) *AdminUsersHandler {
	return &AdminUsersHandler{service: service}
}

// ServeHTTP handles GET /api/v1/admin/users and
// DELETE /api/v1/admin/users/{id}.
func (h *AdminUsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	actor := auth.IdentityFromContext(r.Context())

	switch {
	case r.Method == http.MethodGet:
		list, err := h.service.ListUsers(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case r.Method == http.MethodDelete:
		userID := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/users/")
		if userID == "" || strings.Contains(userID, "/") {
			writeError(w, apperr.Validation("missing user id in path"))
			return
		}
		if err := h.service.DeleteUser(r.Context(), actor, userID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// AdminRecordsHandler serves the cross-user assessment listing.
type AdminRecordsHandler struct {
	service *adminapp.Service
}

// NewAdminRecordsHandler constructs an AdminRecordsHandler.
func NewAdminRecordsHandler(service *adminapp.Service) *AdminRecordsHandler {
	return &AdminRecordsHandler{service: service}
}

// ServeHTTP handles GET /api/v1/admin/records.
func (h *AdminRecordsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	records, err := h.service.ListAllRecords(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HealthzHandler reports liveness.
type HealthzHandler struct{}

// ServeHTTP handles GET /healthz.
func (HealthzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
