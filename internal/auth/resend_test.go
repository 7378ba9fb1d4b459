package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextResendDelay_NeverSent(t *testing.T) {
	decision := NextResendDelay(0, nil, time.Now())
	assert.True(t, decision.Allowed)
}

func TestNextResendDelay_Thresholds(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		sentCount   int
		sinceLast   time.Duration
		wantAllowed bool
		wantWarning string
	}{
		{"fresh account inside base cooldown", 1, time.Minute, false, ""},
		{"fresh account after base cooldown", 1, 4 * time.Minute, true, ""},
		{"count 9 keeps the base cooldown", 9, 4 * time.Minute, true, ""},
		{"count 10 escalates to ten minutes", 10, 5 * time.Minute, false, "Many requests. "},
		{"count 10 past ten minutes", 10, 11 * time.Minute, true, ""},
		// the >=10 branch matches first, so higher counts stay on the
		// ten minute cooldown
		{"count 25 shadowed by first branch", 25, 11 * time.Minute, true, ""},
		{"count 45 shadowed by first branch", 45, 11 * time.Minute, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-tt.sinceLast)
			decision := NextResendDelay(tt.sentCount, &last, now)
			assert.Equal(t, tt.wantAllowed, decision.Allowed)
			if !tt.wantAllowed {
				assert.Equal(t, tt.wantWarning, decision.Warning)
				assert.Greater(t, decision.Wait, time.Duration(0))
			}
		})
	}
}

func TestNextResendDelay_InclusiveBoundary(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// exactly at the cooldown edge is still denied
	last := now.Add(-resendBaseCooldown)
	decision := NextResendDelay(1, &last, now)
	assert.False(t, decision.Allowed)

	last = now.Add(-resendBaseCooldown - time.Nanosecond)
	decision = NextResendDelay(1, &last, now)
	assert.True(t, decision.Allowed)
}

func TestNextResendDelay_RemainingWait(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-time.Minute)

	decision := NextResendDelay(10, &last, now)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 9*time.Minute, decision.Wait)
	assert.Equal(t, "9 minutes", FormatDurationLong(decision.Wait))
}

func TestFormatDurationLong(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45 seconds"},
		{time.Second, "1 second"},
		{9 * time.Minute, "9 minutes"},
		{90 * time.Minute, "2 hours"},
		{5 * time.Hour, "5 hours"},
		{24 * time.Hour, "1 day"},
		{240 * time.Hour, "10 days"},
		{500 * time.Millisecond, "500 ms"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDurationLong(tt.d), "duration %s", tt.d)
	}
}
