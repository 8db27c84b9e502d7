package github

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimit is the subset of rate-limit headers present on a response,
// keyed by normalized lowercase names. Absent headers have no key.
type RateLimit map[string]string

// Normalized rate-limit keys.
const (
	RateLimitLimit      = "limit"
	RateLimitRemaining  = "remaining"
	RateLimitReset      = "reset"
	RateLimitUsed       = "used"
	RateLimitResource   = "resource"
	RateLimitRetryAfter = "retry_after"
)

// rateLimitHeaders maps response header names to normalized keys.
var rateLimitHeaders = []struct {
	header string
	key    string
}{
	{"X-RateLimit-Limit", RateLimitLimit},
	{"X-RateLimit-Remaining", RateLimitRemaining},
	{"X-RateLimit-Reset", RateLimitReset},
	{"X-RateLimit-Used", RateLimitUsed},
	{"X-RateLimit-Resource", RateLimitResource},
	{"Retry-After", RateLimitRetryAfter},
}

// ParseRateLimit projects the recognized rate-limit headers out of h.
// Header lookup is case-insensitive. Unrecognized headers are ignored.
func ParseRateLimit(h http.Header) RateLimit {
	rl := RateLimit{}
	for _, rh := range rateLimitHeaders {
		if value, ok := headerValue(h, rh.header); ok {
			rl[rh.key] = value
		}
	}
	return rl
}

// headerValue finds name in h, tolerating headers that were not canonicalized.
func headerValue(h http.Header, name string) (string, bool) {
	if values := h.Values(name); len(values) > 0 {
		return strings.TrimSpace(values[0]), true
	}
	for key, values := range h {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return strings.TrimSpace(values[0]), true
		}
	}
	return "", false
}

// Exhausted reports whether the remaining quota is zero.
func (rl RateLimit) Exhausted() bool {
	remaining, ok := rl[RateLimitRemaining]
	if !ok {
		return false
	}
	n, err := strconv.Atoi(remaining)
	return err == nil && n <= 0
}

// ResetTime returns the instant the quota resets, from the epoch-seconds reset header.
func (rl RateLimit) ResetTime() (time.Time, bool) {
	raw, ok := rl[RateLimitReset]
	if !ok {
		return time.Time{}, false
	}
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || epoch <= 0 {
		return time.Time{}, false
	}
	return time.Unix(epoch, 0), true
}

// RetryAfter returns the Retry-After delay when the header carries seconds.
func (rl RateLimit) RetryAfter() (time.Duration, bool) {
	raw, ok := rl[RateLimitRetryAfter]
	if !ok {
		return 0, false
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// Describe renders the snapshot as a single diagnostic line.
func (rl RateLimit) Describe() string {
	if len(rl) == 0 {
		return "no rate limit headers"
	}
	var parts []string
	if v, ok := rl[RateLimitLimit]; ok {
		parts = append(parts, "limit "+v)
	}
	if v, ok := rl[RateLimitRemaining]; ok {
		parts = append(parts, "remaining "+v)
	}
	if v, ok := rl[RateLimitUsed]; ok {
		parts = append(parts, "used "+v)
	}
	if v, ok := rl[RateLimitResource]; ok {
		parts = append(parts, "resource "+v)
	}
	if reset, ok := rl.ResetTime(); ok {
		parts = append(parts, "resets at "+reset.Local().Format(time.RFC1123))
	}
	if d, ok := rl.RetryAfter(); ok {
		parts = append(parts, fmt.Sprintf("retry after %s", d))
	}
	return strings.Join(parts, ", ")
}

// RateLimitError reports an exhausted GitHub API quota.
type RateLimitError struct {
	StatusCode int
	Snapshot   RateLimit
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("GitHub API rate limit exceeded (HTTP %d)", e.StatusCode)
	if reset, ok := e.Snapshot.ResetTime(); ok {
		msg += "; resets at " + reset.Local().Format(time.RFC1123)
	} else if d, ok := e.Snapshot.RetryAfter(); ok {
		msg += fmt.Sprintf("; retry after %s", d)
	}
	return msg
}

// Reset returns the quota reset time if the response carried one.
func (e *RateLimitError) Reset() (time.Time, bool) {
	return e.Snapshot.ResetTime()
}

// isRateLimited reports whether a failed response was caused by quota exhaustion.
func isRateLimited(statusCode int, rl RateLimit) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return rl.Exhausted()
}
