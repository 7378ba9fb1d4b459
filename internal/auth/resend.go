package auth

import (
	"fmt"
	"math"
	"time"
)

// resendBaseCooldown is the minimum interval between two verification
// emails for the same account.
const resendBaseCooldown = 3 * time.Minute

// ResendDecision is the outcome of the resend cooldown policy.
type ResendDecision struct {
	Allowed bool
	Wait    time.Duration // remaining wait when denied
	Warning string        // escalating message prefix, empty at low counts
}

// NextResendDelay decides whether another verification email may be sent.
// Pure function of (sentCount, lastSentAt, now); callers supply the stored
// counters and the clock.
//
// The threshold chain is evaluated ascending, first match wins, so the
// >= 10 branch shadows the later ones. That is the behavior the shipped
// clients were built against and it is kept as is.
func NextResendDelay(sentCount int, lastSentAt *time.Time, now time.Time) ResendDecision {
	if lastSentAt == nil {
		return ResendDecision{Allowed: true}
	}

	cooldown := resendBaseCooldown
	warning := ""
	if sentCount >= 10 {
		cooldown = 10 * time.Minute
		warning = "Many requests. "
	} else if sentCount >= 15 {
		cooldown = 20 * time.Minute
		warning = "Many requests. "
	} else if sentCount >= 20 {
		cooldown = 5 * time.Hour
		warning = "Too many requests. "
	} else if sentCount >= 30 {
		cooldown = 24 * time.Hour
		warning = "Too many requests. "
	} else if sentCount >= 40 {
		cooldown = 10 * 24 * time.Hour
		warning = "Too many requests. Contact Admin. "
	}

	elapsed := now.Sub(*lastSentAt)
	if elapsed <= cooldown {
		return ResendDecision{
			Allowed: false,
			Wait:    cooldown - elapsed,
			Warning: warning,
		}
	}

	return ResendDecision{Allowed: true}
}

// FormatDurationLong renders a duration rounded to its largest unit, the
// way the resend message presents the remaining wait ("9 minutes",
// "1 day", "45 seconds").
func FormatDurationLong(d time.Duration) string {
	ms := float64(d.Milliseconds())

	switch {
	case d >= 24*time.Hour:
		return pluralize(ms, float64((24*time.Hour).Milliseconds()), "day")
	case d >= time.Hour:
		return pluralize(ms, float64(time.Hour.Milliseconds()), "hour")
	case d >= time.Minute:
		return pluralize(ms, float64(time.Minute.Milliseconds()), "minute")
	case d >= time.Second:
		return pluralize(ms, float64(time.Second.Milliseconds()), "second")
	default:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
}

func pluralize(ms, unit float64, name string) string {
	n := int(math.Round(ms / unit))
	if n == 1 {
		return fmt.Sprintf("1 %s", name)
	}
	return fmt.Sprintf("%d %ss", n, name)
}
