package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"remindflow/pkg/logger"
)

func init() {
	logger.InitLogger("test")
}

func strPtr(s string) *string { return &s }

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    string
	}{
		{"with content", strPtr("Room 3"), "⏰ Reminder: Standup\nRoom 3"},
		{"nil content", nil, "⏰ Reminder: Standup"},
		{"empty content", strPtr(""), "⏰ Reminder: Standup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMessage("Standup", tt.content); got != tt.want {
				t.Errorf("FormatMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeliver_Success(t *testing.T) {
	var got textPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	if err := c.Deliver(context.Background(), srv.URL, "Standup", strPtr("Room 3")); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got.MsgType != "text" || got.Text.Content != "⏰ Reminder: Standup\nRoom 3" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestDeliver_MissingErrcodeIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if err := NewClient(time.Second).Deliver(context.Background(), srv.URL, "x", nil); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestDeliver_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   int
		wantReason string
	}{
		{"remote errcode", http.StatusOK, `{"errcode":93000,"errmsg":"invalid webhook url"}`, 93000, "invalid webhook url"},
		{"errcode without message", http.StatusOK, `{"errcode":45009}`, 45009, "Failed to send message"},
		{"unparseable body", http.StatusOK, `not json`, 0, "decode response"},
		{"non-2xx", http.StatusBadGateway, `{"errcode":0}`, 0, "unexpected http status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(time.Second).Deliver(context.Background(), srv.URL, "x", nil)
			var de *DeliveryError
			if !errors.As(err, &de) {
				t.Fatalf("expected DeliveryError, got %v", err)
			}
			if de.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", de.Code, tt.wantCode)
			}
			if !strings.Contains(de.Error(), tt.wantReason) {
				t.Errorf("reason %q does not contain %q", de.Error(), tt.wantReason)
			}
		})
	}
}

func TestDeliver_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewClient(50*time.Millisecond).Deliver(context.Background(), srv.URL, "x", nil)
	var de *DeliveryError
	if !errors.As(err, &de) || de.Err == nil {
		t.Fatalf("expected transport DeliveryError, got %v", err)
	}
}

func TestDeliver_SingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_ = NewClient(time.Second).Deliver(context.Background(), srv.URL, "x", nil)
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
}

func TestDeliver_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(time.Second).Deliver(context.Background(), url, "x", nil)
	if err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Fatalf("expected request failure, got %v", err)
	}
}

func TestNewClient_NonPositiveTimeoutUsesDefault(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		if got := NewClient(timeout).httpClient.Timeout; got != DefaultTimeout {
			t.Errorf("NewClient(%v) timeout = %v, want %v", timeout, got, DefaultTimeout)
		}
	}
	if got := NewClient(3 * time.Second).httpClient.Timeout; got != 3*time.Second {
		t.Errorf("explicit timeout not kept, got %v", got)
	}
}

func TestDeliver_TransportErrorHidesWebhookKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL + "/cgi-bin/webhook/send?key=SECRET-KEY-123"
	srv.Close()

	err := NewClient(time.Second).Deliver(context.Background(), target, "x", nil)
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if strings.Contains(de.Error(), "SECRET-KEY-123") || strings.Contains(de.Error(), "key=") {
		t.Fatalf("reason leaks the webhook key: %q", de.Error())
	}
	if !strings.HasPrefix(de.Error(), "request failed: Post: ") {
		t.Errorf("unexpected reason %q", de.Error())
	}
}

func TestDeliver_BadURLHidesWebhookKey(t *testing.T) {
	err := NewClient(time.Second).Deliver(context.Background(), "http://[::1/send?key=SECRET-KEY-123", "x", nil)
	if err == nil {
		t.Fatal("expected error for malformed url")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Fatalf("reason leaks the webhook key: %q", err.Error())
	}
}
