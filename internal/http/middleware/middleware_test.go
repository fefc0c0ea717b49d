package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "scheduler",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var noop = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

func TestTriggerJWTMissingSecret(t *testing.T) {
	rec := serve(TriggerJWT("")(noop), httptest.NewRequest(http.MethodPost, "/book", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestTriggerJWTMissingHeader(t *testing.T) {
	rec := serve(TriggerJWT("secret")(noop), httptest.NewRequest(http.MethodPost, "/book", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != false || body["error"] != "missing authorization header" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestTriggerJWTInvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/book", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "wrong"))
	rec := serve(TriggerJWT("secret")(noop), req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestTriggerJWTValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/book", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "secret"))

	called := false
	h := TriggerJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := TriggerClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected trigger claims in context")
		}
		if claims.Subject != "scheduler" {
			t.Fatalf("unexpected subject %q", claims.Subject)
		}
	}))
	rec := serve(h, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected handler call, got status %d", rec.Code)
	}
}

func TestRateLimitPerIP(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	defer limiter.Close()
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	h := RateLimit(limiter)(noop)
	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/book", nil)
		req.Header.Set("X-Real-Ip", ip)
		return serve(h, req).Code
	}

	if request("1.1.1.1") != http.StatusOK || request("1.1.1.1") != http.StatusOK {
		t.Fatal("expected burst to pass")
	}
	if code := request("1.1.1.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if request("2.2.2.2") != http.StatusOK {
		t.Fatal("expected other ip to pass")
	}

	now = now.Add(time.Second)
	if request("1.1.1.1") != http.StatusOK {
		t.Fatal("expected refill after one second")
	}
}

func TestRateLimitRetryAfter(t *testing.T) {
	limiter := PerMinute(1)
	defer limiter.Close()
	h := RateLimit(limiter)(noop)

	serve(h, httptest.NewRequest(http.MethodPost, "/book", nil))
	rec := serve(h, httptest.NewRequest(http.MethodPost, "/book", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}
}

func TestRateLimiterEvict(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	defer limiter.Close()
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("1.1.1.1")
	limiter.evict(now.Add(time.Minute))
	if len(limiter.buckets) != 0 {
		t.Fatalf("expected stale bucket evicted, have %d", len(limiter.buckets))
	}
}

func TestRequestLoggerLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", "json")

	h := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request completed" || entry["status"] != float64(http.StatusTeapot) || entry["path"] != "/health" {
		t.Fatalf("unexpected log entry %v", entry)
	}
	if entry["request_id"] == "" || entry["request_id"] == nil {
		t.Fatalf("expected request id, got %v", entry)
	}
}
