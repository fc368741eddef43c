package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	alerts "airhealth-cloud/internal/alerts/domain"
)

func TestWebhookChannelPayload(t *testing.T) {
	payloadCh := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("new webhook channel: %v", err)
	}

	alert := alerts.Alert{
		ID:        "alert-1",
		UserID:    "user-1",
		Severity:  alerts.SeverityHigh,
		Message:   "[Health Alert High] Cardiovascular risk is High (score 0.84). systolic BP 155 mmHg with AQI 180.",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := channel.Send(context.Background(), alert); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case payload := <-payloadCh:
		if payload.MsgType != "text" {
			t.Fatalf("expected text payload, got %q", payload.MsgType)
		}
		if payload.Text.Content != alert.Message {
			t.Fatalf("expected message %q, got %q", alert.Message, payload.Text.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("webhook payload not received")
	}
}

func TestWebhookChannelNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("new webhook channel: %v", err)
	}
	if err := channel.Send(context.Background(), alerts.Alert{Message: "x"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestMultiChannelFanOut(t *testing.T) {
	var first, second int
	mkServer := func(counter *int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*counter++
			w.WriteHeader(http.StatusOK)
		}))
	}
	s1 := mkServer(&first)
	defer s1.Close()
	s2 := mkServer(&second)
	defer s2.Close()

	c1, err := NewWebhookChannel(s1.URL)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	c2, err := NewWebhookChannel(s2.URL)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}

	multi := NewMultiChannel(c1, nil, c2)
	if err := multi.Send(context.Background(), alerts.Alert{Message: "x"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if first != 1 || second != 1 {
		t.Fatalf("expected both channels hit, got %d/%d", first, second)
	}
}
