// Package alarm implements the two-stage threshold evaluation at the heart
// of hostmon: a reading is classified against a soft and a hard limit,
// journaled, and escalated to email when the hard limit is breached.
package alarm

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stiventc/hostmon/internal/journal"
)

// Severity is the outcome of a threshold evaluation, ordered by escalation.
type Severity int

const (
	OK Severity = iota
	SoftWarning
	HardAlarm
)

func (s Severity) String() string {
	switch s {
	case SoftWarning:
		return "SOFT_WARNING"
	case HardAlarm:
		return "HARD_ALARM"
	default:
		return "OK"
	}
}

// Worse returns the more severe of a and b.
func Worse(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// Reading is a single metric sample together with its limits.
type Reading struct {
	Name  string
	Value float64
	Soft  float64
	Hard  float64
}

// Result pairs a reading with its computed severity.
type Result struct {
	Reading  Reading
	Severity Severity
}

// Journal is the subset of the journal writer the engine needs.
type Journal interface {
	Append(level journal.Level, info string, value, hardLimit float64) error
}

// Notifier delivers a critical alert for a single result. Implementations
// must swallow delivery failures; the engine never inspects the outcome.
type Notifier interface {
	SendSingle(Result)
}

// Engine evaluates readings and drives the journal and notifier side effects.
type Engine struct {
	journal  Journal
	notifier Notifier
	logger   *slog.Logger
}

// NewEngine creates an Engine. notifier may be nil to disable alerting
// entirely; pass nil logger to use the default logger.
func NewEngine(j Journal, n Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{journal: j, notifier: n, logger: logger}
}

// Evaluate classifies r against its limits. The comparisons are strictly
// greater-than, hard limit first, so a value exactly equal to a limit stays
// at the lower severity. Journal and delivery failures are logged and never
// change the returned severity.
func (e *Engine) Evaluate(r Reading, sendAlert bool) Severity {
	switch {
	case r.Value > r.Hard:
		e.append(journal.LevelHardAlarm, r.Name, r.Value, r.Hard)
		if sendAlert && e.notifier != nil {
			e.notifier.SendSingle(Result{Reading: r, Severity: HardAlarm})
		}
		return HardAlarm

	case r.Value > r.Soft:
		e.append(journal.LevelSoftWarning, r.Name, r.Value, r.Hard)
		return SoftWarning

	default:
		e.logger.Info("within limits",
			"metric", r.Name,
			"value", r.Value,
			"soft_limit", r.Soft,
			"hard_limit", r.Hard,
		)
		return OK
	}
}

func (e *Engine) append(level journal.Level, info string, value, hardLimit float64) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Append(level, info, value, hardLimit); err != nil {
		e.logger.Error("writing journal entry", "metric", info, "error", err)
	}
}

// Session describes one logged-in user session.
type Session struct {
	User    string
	Host    string
	Started time.Time
}

// LogUsers journals the current user sessions at USER_INFO level and returns
// the session count. Purely informational; no limits are applied.
func (e *Engine) LogUsers(sessions []Session) int {
	details := make([]string, 0, len(sessions))
	for _, s := range sessions {
		details = append(details, fmt.Sprintf("%s@%s since %s", s.User, s.Host, s.Started.Format("15:04")))
	}
	info := fmt.Sprintf("Currently logged in users (%d): %s", len(sessions), strings.Join(details, ", "))
	e.append(journal.LevelUserInfo, info, float64(len(sessions)), 0)
	return len(sessions)
}
