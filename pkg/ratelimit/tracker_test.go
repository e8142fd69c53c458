package ratelimit

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestParseHeaders(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name          string
		headers       map[string]string
		wantOK        bool
		wantErr       bool
		wantRemaining int
		wantReset     time.Duration
	}{
		{
			name:          "remaining and reset",
			headers:       map[string]string{HeaderRemaining: "42", HeaderReset: "60"},
			wantOK:        true,
			wantRemaining: 42,
			wantReset:     60 * time.Second,
		},
		{
			name:    "no rate limit headers",
			headers: map[string]string{},
		},
		{
			name:    "invalid remaining",
			headers: map[string]string{HeaderRemaining: "many", HeaderReset: "60"},
			wantErr: true,
		},
		{
			name:    "missing reset",
			headers: map[string]string{HeaderRemaining: "10"},
			wantErr: true,
		},
		{
			name:    "invalid reset",
			headers: map[string]string{HeaderRemaining: "10", HeaderReset: "soon"},
			wantErr: true,
		},
		{
			name:          "retry-after seconds",
			headers:       map[string]string{HeaderRetryAfter: "30", HeaderRemaining: "7", HeaderReset: "60"},
			wantOK:        true,
			wantRemaining: 0,
			wantReset:     30 * time.Second,
		},
		{
			name:          "retry-after http date",
			headers:       map[string]string{HeaderRetryAfter: now.Add(15 * time.Second).Format(http.TimeFormat)},
			wantOK:        true,
			wantRemaining: 0,
			wantReset:     15 * time.Second,
		},
		{
			name:    "retry-after garbage",
			headers: map[string]string{HeaderRetryAfter: "later"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			state, ok, err := ParseHeaders(h, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHeaders() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Fatalf("ParseHeaders() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if state.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.wantRemaining)
			}
			if got := state.ResetAt.Sub(now); got != tt.wantReset {
				t.Errorf("reset in %v, want %v", got, tt.wantReset)
			}
		})
	}
}

// newTestTracker connects to a local Redis (DB 15) or skips the test.
func newTestTracker(t *testing.T) (*Tracker, *redis.Client) {
	t.Helper()

	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	redisClient.Del(ctx, RedisKeyRemaining, RedisKeyResetTimestamp, RedisKeyLastUpdate)
	t.Cleanup(func() {
		redisClient.Del(context.Background(), RedisKeyRemaining, RedisKeyResetTimestamp, RedisKeyLastUpdate)
		redisClient.Close()
	})

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(redisClient, logger, DefaultThresholds())
	tracker.SetThrottleDelay(10 * time.Millisecond)
	return tracker, redisClient
}

func TestTracker_GetState_Empty(t *testing.T) {
	tracker, _ := newTestTracker(t)

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.NeedsBlock(DefaultThresholds()) || state.NeedsThrottling(DefaultThresholds()) {
		t.Error("empty state should be healthy")
	}
}

func TestTracker_UpdateFromHeaders_RoundTrip(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	headers := http.Header{}
	headers.Set(HeaderRemaining, "3")
	headers.Set(HeaderReset, "120")

	if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3", state.Remaining)
	}
	if d := state.TimeUntilReset(); d < 110*time.Second || d > 121*time.Second {
		t.Errorf("TimeUntilReset() = %v, want ~120s", d)
	}
}

func TestTracker_UpdateFromHeaders_NoHeaders(t *testing.T) {
	tracker, redisClient := newTestTracker(t)
	ctx := context.Background()

	if err := tracker.UpdateFromHeaders(ctx, http.Header{}); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}
	if n := redisClient.Exists(ctx, RedisKeyRemaining).Val(); n != 0 {
		t.Errorf("expected no state written, found %d keys", n)
	}
}

func TestTracker_ShouldAllowRequest(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		want      bool
	}{
		{name: "healthy", remaining: "50", want: true},
		{name: "throttled", remaining: "3", want: true},
		{name: "blocked", remaining: "0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, _ := newTestTracker(t)
			ctx := context.Background()

			headers := http.Header{}
			headers.Set(HeaderRemaining, tt.remaining)
			headers.Set(HeaderReset, "60")
			if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			allowed, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if allowed != tt.want {
				t.Errorf("ShouldAllowRequest() = %v, want %v", allowed, tt.want)
			}
		})
	}
}

func TestTracker_ShouldAllowRequest_ThrottleRespectsContext(t *testing.T) {
	tracker, _ := newTestTracker(t)
	tracker.SetThrottleDelay(time.Minute)

	headers := http.Header{}
	headers.Set(HeaderRemaining, "2")
	headers.Set(HeaderReset, "60")
	if err := tracker.UpdateFromHeaders(context.Background(), headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if allowed {
		t.Error("request should not be allowed after context expiry")
	}
}
