// Package mail delivers alert emails through the Mailjet HTTP API.
// Delivery is strictly best-effort: missing configuration skips the send,
// and transport failures are logged and dropped. No retry, no queueing.
package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stiventc/hostmon/internal/alarm"
	"github.com/stiventc/hostmon/internal/config"
)

// Mailer sends alert emails for critical threshold breaches.
type Mailer struct {
	cfg      config.Mail
	hostname string
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Mailer. Pass nil logger to use the default logger.
func New(cfg config.Mail, hostname string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout.Duration
	if timeout == 0 {
		timeout = config.DefaultTimeout
	}
	return &Mailer{
		cfg:      cfg,
		hostname: hostname,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		now:      time.Now,
	}
}

// Configured reports whether every value required for delivery is present.
func (m *Mailer) Configured() bool {
	return m.cfg.APIKey != "" && m.cfg.APISecret != "" && m.cfg.Sender != "" && m.cfg.Recipient != ""
}

// Mailjet v3.1 send payload.
type address struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type message struct {
	From     address   `json:"From"`
	To       []address `json:"To"`
	Subject  string    `json:"Subject"`
	TextPart string    `json:"TextPart"`
}

type payload struct {
	Messages []message `json:"Messages"`
}

// SendSingle delivers a critical alert for one result. Failures are logged
// and never propagated.
func (m *Mailer) SendSingle(res alarm.Result) {
	subject := fmt.Sprintf("CRITICAL ALARM: %s exceeded Hard Limit", res.Reading.Name)
	body := fmt.Sprintf(
		"Machine: %s\nTime: %s\nMeasurement: %s\nCurrent Value: %g\nHard Limit: %g",
		m.hostname,
		m.now().Format("2006-01-02 15:04:05"),
		res.Reading.Name,
		res.Reading.Value,
		res.Reading.Hard,
	)
	m.send(subject, body)
}

// SendDigest delivers one consolidated message summarizing a batch run, in
// the results' original order. When onlyIfAnyHard is set and no result is a
// hard alarm, nothing is sent.
func (m *Mailer) SendDigest(results []alarm.Result, onlyIfAnyHard bool) {
	var hard, soft, ok int
	for _, r := range results {
		switch r.Severity {
		case alarm.HardAlarm:
			hard++
		case alarm.SoftWarning:
			soft++
		default:
			ok++
		}
	}
	if onlyIfAnyHard && hard == 0 {
		m.logger.Info("digest skipped, no hard alarms", "results", len(results))
		return
	}

	subject := fmt.Sprintf("Monitoring Summary for %s: %d HARD_ALARM, %d SOFT_WARNING, %d OK",
		m.hostname, hard, soft, ok)

	var b strings.Builder
	fmt.Fprintf(&b, "Machine: %s\nTime: %s\n\n", m.hostname, m.now().Format("2006-01-02 15:04:05"))
	for _, r := range results {
		fmt.Fprintf(&b, "%s: %g (soft %g, hard %g) -> %s\n",
			r.Reading.Name, r.Reading.Value, r.Reading.Soft, r.Reading.Hard, r.Severity)
	}
	m.send(subject, b.String())
}

func (m *Mailer) send(subject, body string) {
	if !m.Configured() {
		m.logger.Warn("mail delivery skipped, configuration incomplete", "subject", subject)
		return
	}

	p := payload{Messages: []message{{
		From:     address{Email: m.cfg.Sender, Name: m.cfg.SenderName},
		To:       []address{{Email: m.cfg.Recipient}},
		Subject:  subject,
		TextPart: body,
	}}}

	data, err := json.Marshal(p)
	if err != nil {
		m.logger.Error("marshaling mail payload", "subject", subject, "error", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, m.cfg.Endpoint, bytes.NewReader(data))
	if err != nil {
		m.logger.Error("creating mail request", "subject", subject, "error", err)
		return
	}
	req.SetBasicAuth(m.cfg.APIKey, m.cfg.APISecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("sending mail", "subject", subject, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		m.logger.Error("mail API returned non-success status",
			"subject", subject,
			"status", resp.StatusCode,
		)
		return
	}

	m.logger.Info("alert mail sent", "subject", subject, "recipient", m.cfg.Recipient)
}
