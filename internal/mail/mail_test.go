package mail_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stiventc/hostmon/internal/alarm"
	"github.com/stiventc/hostmon/internal/config"
	"github.com/stiventc/hostmon/internal/mail"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mailConfig(endpoint string) config.Mail {
	return config.Mail{
		APIKey:     "key",
		APISecret:  "secret",
		Sender:     "from@example.com",
		SenderName: "Server Monitor",
		Recipient:  "to@example.com",
		Endpoint:   endpoint,
		Timeout:    config.Duration{Duration: 5 * time.Second},
	}
}

type capturedRequest struct {
	user, pass string
	payload    map[string]interface{}
}

// captureServer records every request body and basic-auth pair it receives.
func captureServer(t *testing.T, status int) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]interface{}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &p)
		user, pass, _ := r.BasicAuth()
		captured = append(captured, capturedRequest{user: user, pass: pass, payload: p})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func firstMessage(t *testing.T, req capturedRequest) map[string]interface{} {
	t.Helper()
	msgs, ok := req.payload["Messages"].([]interface{})
	if !ok || len(msgs) != 1 {
		t.Fatalf("expected 1 message in payload, got %v", req.payload)
	}
	return msgs[0].(map[string]interface{})
}

func hardResult(name string, value float64) alarm.Result {
	return alarm.Result{
		Reading:  alarm.Reading{Name: name, Value: value, Soft: 80, Hard: 95},
		Severity: alarm.HardAlarm,
	}
}

func TestSendSingle_Delivers(t *testing.T) {
	srv, captured := captureServer(t, http.StatusOK)
	m := mail.New(mailConfig(srv.URL), "testhost", discardLogger())

	m.SendSingle(hardResult("Disk Usage (%) on /", 96.5))

	if len(*captured) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*captured))
	}
	req := (*captured)[0]
	if req.user != "key" || req.pass != "secret" {
		t.Errorf("expected basic auth key/secret, got %s/%s", req.user, req.pass)
	}

	msg := firstMessage(t, req)
	subject := msg["Subject"].(string)
	if subject != "CRITICAL ALARM: Disk Usage (%) on / exceeded Hard Limit" {
		t.Errorf("unexpected subject: %q", subject)
	}
	body := msg["TextPart"].(string)
	if !strings.Contains(body, "Machine: testhost") {
		t.Errorf("body missing machine: %q", body)
	}
	if !strings.Contains(body, "Current Value: 96.5") {
		t.Errorf("body missing value: %q", body)
	}
	if !strings.Contains(body, "Hard Limit: 95") {
		t.Errorf("body missing hard limit: %q", body)
	}
}

func TestSendSingle_NotConfigured_NoAttempt(t *testing.T) {
	srv, captured := captureServer(t, http.StatusOK)
	cfg := mailConfig(srv.URL)
	cfg.Recipient = ""
	m := mail.New(cfg, "testhost", discardLogger())

	if m.Configured() {
		t.Error("expected Configured() == false with no recipient")
	}
	m.SendSingle(hardResult("disk", 99))

	if len(*captured) != 0 {
		t.Errorf("expected 0 requests with incomplete config, got %d", len(*captured))
	}
}

func TestSendSingle_NonSuccessStatus_DoesNotCrash(t *testing.T) {
	srv, captured := captureServer(t, http.StatusBadRequest)
	m := mail.New(mailConfig(srv.URL), "testhost", discardLogger())

	m.SendSingle(hardResult("disk", 99))

	if len(*captured) != 1 {
		t.Errorf("expected 1 attempt despite rejection, got %d", len(*captured))
	}
}

func TestSendSingle_ConnectionError_DoesNotCrash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	m := mail.New(mailConfig(url), "testhost", discardLogger())
	m.SendSingle(hardResult("disk", 99))
}

func TestSendDigest_AllOK_OnlyIfAnyHard_NoSend(t *testing.T) {
	srv, captured := captureServer(t, http.StatusOK)
	m := mail.New(mailConfig(srv.URL), "testhost", discardLogger())

	results := []alarm.Result{
		{Reading: alarm.Reading{Name: "disk", Value: 40, Soft: 80, Hard: 95}, Severity: alarm.OK},
		{Reading: alarm.Reading{Name: "mem", Value: 50, Soft: 80, Hard: 95}, Severity: alarm.OK},
	}
	m.SendDigest(results, true)

	if len(*captured) != 0 {
		t.Errorf("expected 0 digest sends for all-OK batch, got %d", len(*captured))
	}
}

func TestSendDigest_MixedSeverities(t *testing.T) {
	srv, captured := captureServer(t, http.StatusOK)
	m := mail.New(mailConfig(srv.URL), "testhost", discardLogger())

	results := []alarm.Result{
		{Reading: alarm.Reading{Name: "disk", Value: 40, Soft: 80, Hard: 95}, Severity: alarm.OK},
		{Reading: alarm.Reading{Name: "mem", Value: 85, Soft: 80, Hard: 95}, Severity: alarm.SoftWarning},
		{Reading: alarm.Reading{Name: "procs", Value: 600, Soft: 300, Hard: 500}, Severity: alarm.HardAlarm},
	}
	m.SendDigest(results, true)

	if len(*captured) != 1 {
		t.Fatalf("expected exactly 1 digest send, got %d", len(*captured))
	}
	msg := firstMessage(t, (*captured)[0])

	subject := msg["Subject"].(string)
	if !strings.Contains(subject, "1 HARD_ALARM, 1 SOFT_WARNING, 1 OK") {
		t.Errorf("subject missing severity counts: %q", subject)
	}

	body := msg["TextPart"].(string)
	diskIdx := strings.Index(body, "disk:")
	memIdx := strings.Index(body, "mem:")
	procsIdx := strings.Index(body, "procs:")
	if diskIdx < 0 || memIdx < 0 || procsIdx < 0 {
		t.Fatalf("body missing metrics:\n%s", body)
	}
	if !(diskIdx < memIdx && memIdx < procsIdx) {
		t.Errorf("body entries out of evaluation order:\n%s", body)
	}
	if !strings.Contains(body, "procs: 600 (soft 300, hard 500) -> HARD_ALARM") {
		t.Errorf("body missing full result line:\n%s", body)
	}
}

func TestSendDigest_WithoutHardFilter_SendsAllOK(t *testing.T) {
	srv, captured := captureServer(t, http.StatusOK)
	m := mail.New(mailConfig(srv.URL), "testhost", discardLogger())

	results := []alarm.Result{
		{Reading: alarm.Reading{Name: "disk", Value: 40, Soft: 80, Hard: 95}, Severity: alarm.OK},
	}
	m.SendDigest(results, false)

	if len(*captured) != 1 {
		t.Errorf("expected 1 digest send without hard filter, got %d", len(*captured))
	}
}
