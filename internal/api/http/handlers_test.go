package apihttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	adminapp "airhealth-cloud/internal/admin/application"
	adminmem "airhealth-cloud/internal/admin/infrastructure/memory"
	alertapp "airhealth-cloud/internal/alerts/application"
	apihttp "airhealth-cloud/internal/api/http"
	"airhealth-cloud/internal/auth"
	monapp "airhealth-cloud/internal/monitoring/application"
	monmem "airhealth-cloud/internal/monitoring/infrastructure/memory"
	readingsapp "airhealth-cloud/internal/readings/application"
	readings "airhealth-cloud/internal/readings/domain"
	readingsmem "airhealth-cloud/internal/readings/infrastructure/memory"
	users "airhealth-cloud/internal/users/domain"
	usersmem "airhealth-cloud/internal/users/infrastructure/memory"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, userID string, role auth.Role) string {
	t.Helper()
	claims := auth.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	readingsStore := readingsmem.NewStore()
	store := monmem.NewStore(readingsStore)
	userRepo := usersmem.NewRepository()

	err := userRepo.Create(ctx, users.User{
		ID: "user-1", Name: "Asha", Email: "asha@example.com", Age: 55,
		SmokingStatus: true, Role: auth.RoleUser, City: "Chennai",
		CreatedAt: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	err = userRepo.Create(ctx, users.User{
		ID: "root-1", Name: "Root", Email: "root@example.com", Age: 40,
		Role: auth.RoleSuperadmin, City: "Chennai",
		CreatedAt: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed superadmin: %v", err)
	}
	err = readingsStore.Append(ctx, readings.AQISample{
		ID: "aqi-1", City: "Chennai", AQIValue: 180, PM25: 90,
		CapturedAt: time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("seed aqi: %v", err)
	}

	policy, err := alertapp.NewPolicy()
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	monService, err := monapp.NewService(monapp.Deps{
		Users:       userRepo,
		Vitals:      readingsStore,
		AQI:         readingsStore,
		Assessments: store,
		Alerts:      store.Alerts(),
		Store:       store,
		Policy:      policy,
	}, monapp.WithDefaultCity("Chennai"))
	if err != nil {
		t.Fatalf("new monitoring service: %v", err)
	}
	aqiService, err := readingsapp.NewAQIService(readingsStore)
	if err != nil {
		t.Fatalf("new aqi service: %v", err)
	}
	adapter := adminmem.NewAdapter(userRepo, store)
	adminService, err := adminapp.NewService(userRepo, adapter, adapter)
	if err != nil {
		t.Fatalf("new admin service: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/health/submit", apihttp.NewSubmitVitalsHandler(monService))
	mux.Handle("/api/v1/health/history", apihttp.NewHealthHistoryHandler(monService))
	mux.Handle("/api/v1/profile", apihttp.NewProfileHandler(userRepo))
	mux.Handle("/api/v1/alerts", apihttp.NewAlertsHandler(monService))
	mux.Handle("/api/v1/history", apihttp.NewHistoryHandler(monService))
	mux.Handle("/api/v1/history/chart", apihttp.NewHistoryChartHandler(monService))
	mux.Handle("/api/v1/exports/history.csv", apihttp.NewExportHistoryHandler(monService))
	mux.Handle("/api/v1/aqi/current", apihttp.NewCurrentAQIHandler(aqiService, "Chennai"))
	mux.Handle("/api/v1/aqi/history", apihttp.NewAQIHistoryHandler(aqiService, "Chennai"))
	mux.Handle("/api/v1/admin/users", apihttp.NewAdminUsersHandler(adminService))
	mux.Handle("/api/v1/admin/users/", apihttp.NewAdminUsersHandler(adminService))
	mux.Handle("/api/v1/admin/records", apihttp.NewAdminRecordsHandler(adminService))
	mux.Handle("/healthz", apihttp.HealthzHandler{})

	middleware := auth.NewMiddleware(testSecret, auth.NewDefaultPolicy(
		[]string{"/healthz", "/metrics"}, nil,
	))
	return httptest.NewServer(middleware.Wrap(mux))
}

func doRequest(t *testing.T, server *httptest.Server, method, path, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestSubmitEndpoint_HighRiskReturnsAlert(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	token := signToken(t, "user-1", auth.RoleUser)

	body := []byte(`{"heart_rate":130,"systolic_bp":155,"diastolic_bp":95}`)
	resp := doRequest(t, server, http.MethodPost, "/api/v1/health/submit", token, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var result monapp.SubmissionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Assessment.RiskLabel != "High" {
		t.Fatalf("expected High label, got %s", result.Assessment.RiskLabel)
	}
	if result.Alert == nil {
		t.Fatal("expected alert in response")
	}
	if !strings.Contains(result.Alert.Message, "systolic BP 155 mmHg") {
		t.Fatalf("unexpected alert message: %s", result.Alert.Message)
	}
}

func TestSubmitEndpoint_ValidationError(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	token := signToken(t, "user-1", auth.RoleUser)

	body := []byte(`{"heart_rate":20,"systolic_bp":155,"diastolic_bp":95}`)
	resp := doRequest(t, server, http.MethodPost, "/api/v1/health/submit", token, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSubmitEndpoint_RequiresToken(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp := doRequest(t, server, http.MethodPost, "/api/v1/health/submit", "",
		[]byte(`{"heart_rate":72,"systolic_bp":118,"diastolic_bp":76}`))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminEndpoints_RoleEnforcement(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	userToken := signToken(t, "user-1", auth.RoleUser)
	resp := doRequest(t, server, http.MethodGet, "/api/v1/admin/users", userToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", resp.StatusCode)
	}

	rootToken := signToken(t, "root-1", auth.RoleSuperadmin)
	resp = doRequest(t, server, http.MethodGet, "/api/v1/admin/users", rootToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for superadmin, got %d", resp.StatusCode)
	}
	var list []users.User
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
}

func TestAdminDeleteEndpoint_Cascades(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	userToken := signToken(t, "user-1", auth.RoleUser)
	resp := doRequest(t, server, http.MethodPost, "/api/v1/health/submit", userToken,
		[]byte(`{"heart_rate":130,"systolic_bp":155,"diastolic_bp":95}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit failed: %d", resp.StatusCode)
	}

	rootToken := signToken(t, "root-1", auth.RoleSuperadmin)
	resp = doRequest(t, server, http.MethodDelete, "/api/v1/admin/users/user-1", rootToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = doRequest(t, server, http.MethodGet, "/api/v1/admin/records", rootToken, nil)
	defer resp.Body.Close()
	var records []adminapp.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records after purge, got %d", len(records))
	}
}

func TestHistoryEndpoint_PaginatesMergedRows(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	token := signToken(t, "user-1", auth.RoleUser)

	resp := doRequest(t, server, http.MethodPost, "/api/v1/health/submit", token,
		[]byte(`{"heart_rate":88,"systolic_bp":130,"diastolic_bp":84}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit failed: %d", resp.StatusCode)
	}

	today := time.Now().UTC().Format("2006-01-02")
	weekAgo := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	resp = doRequest(t, server, http.MethodGet,
		"/api/v1/history?from="+weekAgo+"&to="+today+"&page=1", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var page struct {
		Rows      []json.RawMessage `json:"rows"`
		TotalRows int               `json:"total_rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalRows == 0 || len(page.Rows) == 0 {
		t.Fatalf("expected merged rows, got %+v", page)
	}
}

func TestHistoryEndpoint_BadWindow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	token := signToken(t, "user-1", auth.RoleUser)

	resp := doRequest(t, server, http.MethodGet, "/api/v1/history?from=2024-01-03&to=2024-01-01", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted window, got %d", resp.StatusCode)
	}
}

func TestExportEndpoint_CSV(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	token := signToken(t, "user-1", auth.RoleUser)

	today := time.Now().UTC().Format("2006-01-02")
	weekAgo := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	resp := doRequest(t, server, http.MethodGet,
		"/api/v1/exports/history.csv?from="+weekAgo+"&to="+today, token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %s", ct)
	}
}

func TestCurrentAQIEndpoint(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	token := signToken(t, "user-1", auth.RoleUser)

	resp := doRequest(t, server, http.MethodGet, "/api/v1/aqi/current", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var sample readings.AQISample
	if err := json.NewDecoder(resp.Body).Decode(&sample); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sample.AQIValue != 180 {
		t.Fatalf("expected seeded sample, got %+v", sample)
	}
}

func TestProfileEndpoint_UpdateDemographics(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	token := signToken(t, "user-1", auth.RoleUser)

	resp := doRequest(t, server, http.MethodPut, "/api/v1/profile", token,
		[]byte(`{"age":60,"smoking_status":false,"existing_conditions":true,"city":"Delhi"}`))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var user users.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.Age != 60 || user.City != "Delhi" || !user.ExistingConditions {
		t.Fatalf("profile not updated: %+v", user)
	}
}

func TestHealthzExempt(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp := doRequest(t, server, http.MethodGet, "/healthz", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 without token, got %d", resp.StatusCode)
	}
}
