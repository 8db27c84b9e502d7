package github

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerOf(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestParseRateLimit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		header http.Header
		want   RateLimit
	}{
		"no headers": {
			header: http.Header{},
			want:   RateLimit{},
		},
		"limit only": {
			header: headerOf("X-RateLimit-Limit", "5000"),
			want:   RateLimit{"limit": "5000"},
		},
		"remaining only": {
			header: headerOf("X-RateLimit-Remaining", "4999"),
			want:   RateLimit{"remaining": "4999"},
		},
		"all recognized headers": {
			header: headerOf(
				"X-RateLimit-Limit", "60",
				"X-RateLimit-Remaining", "0",
				"X-RateLimit-Reset", "1700000000",
				"X-RateLimit-Used", "60",
				"X-RateLimit-Resource", "core",
				"Retry-After", "30",
			),
			want: RateLimit{
				"limit": "60", "remaining": "0", "reset": "1700000000",
				"used": "60", "resource": "core", "retry_after": "30",
			},
		},
		"unrecognized headers ignored": {
			header: headerOf("Content-Type", "application/json", "X-GitHub-Request-Id", "abc"),
			want:   RateLimit{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseRateLimit(tt.header))
		})
	}
}

func TestParseRateLimit_CaseInsensitive(t *testing.T) {
	t.Parallel()

	h := http.Header{
		"x-ratelimit-limit":     {"5000"},
		"X-RATELIMIT-REMAINING": {"4999"},
	}
	rl := ParseRateLimit(h)
	assert.Equal(t, "5000", rl["limit"])
	assert.Equal(t, "4999", rl["remaining"])
}

func TestRateLimit_Exhausted(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rl   RateLimit
		want bool
	}{
		"zero remaining":    {rl: RateLimit{"remaining": "0"}, want: true},
		"quota left":        {rl: RateLimit{"remaining": "12"}, want: false},
		"missing remaining": {rl: RateLimit{"limit": "60"}, want: false},
		"garbage remaining": {rl: RateLimit{"remaining": "n/a"}, want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.rl.Exhausted())
		})
	}
}

func TestRateLimit_ResetTime(t *testing.T) {
	t.Parallel()

	reset, ok := RateLimit{"reset": "1700000000"}.ResetTime()
	require.True(t, ok)
	assert.True(t, reset.Equal(time.Unix(1700000000, 0)))

	_, ok = RateLimit{}.ResetTime()
	assert.False(t, ok)

	_, ok = RateLimit{"reset": "soon"}.ResetTime()
	assert.False(t, ok)
}

func TestRateLimit_RetryAfter(t *testing.T) {
	t.Parallel()

	d, ok := RateLimit{"retry_after": "30"}.RetryAfter()
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = RateLimit{"retry_after": "Wed, 21 Oct 2015 07:28:00 GMT"}.RetryAfter()
	assert.False(t, ok)
}

func TestRateLimit_Describe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no rate limit headers", RateLimit{}.Describe())

	desc := RateLimit{"limit": "60", "remaining": "0", "reset": "1700000000"}.Describe()
	assert.Contains(t, desc, "limit 60")
	assert.Contains(t, desc, "remaining 0")
	assert.Contains(t, desc, "resets at")
}

func TestRateLimitError_Message(t *testing.T) {
	t.Parallel()

	err := &RateLimitError{StatusCode: 403, Snapshot: RateLimit{"remaining": "0", "reset": "1700000000"}}
	assert.Contains(t, err.Error(), "rate limit exceeded")
	assert.Contains(t, err.Error(), "resets at")

	reset, ok := err.Reset()
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), reset.Unix())

	err = &RateLimitError{StatusCode: 429, Snapshot: RateLimit{"retry_after": "5"}}
	assert.Contains(t, err.Error(), "retry after 5s")
}
