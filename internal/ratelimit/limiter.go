// Package ratelimit implements a Redis-backed fixed-window request
// limiter plus a short per-email cooldown used by the email-sending
// endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultWindow      = 15 * time.Minute
	defaultMaxRequests = 10
	defaultCooldown    = 2 * time.Minute
)

// Limiter tracks per-IP request counts in fixed windows and per-email
// send cooldowns. All checks are advisory: callers decide what a Redis
// failure means.
type Limiter struct {
	client      *redis.Client
	window      time.Duration
	maxRequests int
	cooldown    time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client:      client,
		window:      defaultWindow,
		maxRequests: defaultMaxRequests,
		cooldown:    defaultCooldown,
	}
}

// CheckIPRateLimit reports whether the IP has exhausted the shared window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.check(ctx, ipKey(ip))
}

// RecordIPRequest counts one request against the shared window.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.record(ctx, ipKey(ip))
}

// CheckIPRateLimitWithPurpose reports whether the IP has exhausted the
// window scoped to one endpoint purpose ("register", "login").
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return l.check(ctx, ipPurposeKey(ip, purpose))
}

// RecordIPRequestWithPurpose counts one request against the purpose-scoped
// window.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return l.record(ctx, ipPurposeKey(ip, purpose))
}

// CheckEmailCooldown reports whether a send to this address is still on
// cooldown.
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return exists > 0, nil
}

// SetEmailCooldown starts the cooldown for an address.
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, emailKey(email), "1", l.cooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}

func (l *Limiter) check(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}
	return count >= l.maxRequests, nil
}

func (l *Limiter) record(ctx context.Context, key string) error {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	// first hit opens the window
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return nil
}

func ipKey(ip string) string {
	return fmt.Sprintf("ratelimit:ip:%s", ip)
}

func ipPurposeKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", ip, purpose)
}

func emailKey(email string) string {
	return fmt.Sprintf("ratelimit:email:%s", email)
}
