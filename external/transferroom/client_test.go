package transferroom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/ujpest-analytics/transferroom-sync/internal/platform/resilience"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

func fastRetry(attempts int) resilience.Retry {
	return resilience.Retry{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Jitter:      func(d time.Duration) time.Duration { return d },
	}
}

func testClient(t *testing.T, server *httptest.Server, retry resilience.Retry) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		HTTPClient:      server.Client(),
		BaseURL:         server.URL,
		Email:           "sync@example.com",
		Password:        "hunter2",
		Retry:           retry,
		RequestInterval: -1,
		CircuitBreaker:  resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestClient_FetchPlayersAuthenticatesFirst(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			if r.Method != http.MethodPost {
				t.Errorf("login method = %s", r.Method)
			}
			if r.URL.Query().Get("email") != "sync@example.com" || r.URL.Query().Get("password") != "hunter2" {
				t.Errorf("login missing credentials: %s", r.URL.RawQuery)
			}
			logins.Add(1)
			w.Write([]byte("token-1"))
		case "/players":
			if r.Header.Get("Authorization") != "Bearer token-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.URL.Query().Get("position") != "GK" {
				t.Errorf("unexpected position: %s", r.URL.Query().Get("position"))
			}
			if r.URL.Query().Get("amount") != "500" {
				t.Errorf("unexpected amount: %s", r.URL.Query().Get("amount"))
			}
			w.Write([]byte(`[{"TR_ID": 1, "Name": "A"}, {"TR_ID": 2, "Name": "B"}]`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := testClient(t, server, fastRetry(1))
	records, hasMore, err := client.FetchPage(context.Background(), usecase.KindPlayers, 0, 500)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !hasMore {
		t.Fatalf("expected more position pages after GK")
	}
	if logins.Load() != 1 {
		t.Fatalf("expected 1 login, got %d", logins.Load())
	}

	// A second fetch reuses the cached token.
	if _, _, err := client.FetchPage(context.Background(), usecase.KindPlayers, 0, 500); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if logins.Load() != 1 {
		t.Fatalf("cached token not reused, %d logins", logins.Load())
	}
}

func TestClient_TruthfulHasMore(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			w.Write([]byte("token-1"))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := testClient(t, server, fastRetry(1))
	ctx := context.Background()

	_, hasMore, err := client.FetchPage(ctx, usecase.KindPlayers, len(positionCodes)-1, 100)
	if err != nil {
		t.Fatalf("fetch last position page: %v", err)
	}
	if hasMore {
		t.Fatalf("last position page must report no more pages")
	}

	records, hasMore, err := client.FetchPage(ctx, usecase.KindPlayers, len(positionCodes), 100)
	if err != nil || records != nil || hasMore {
		t.Fatalf("out-of-range page must be empty, got %v %v %v", records, hasMore, err)
	}

	_, hasMore, err = client.FetchPage(ctx, usecase.KindCompetitions, 0, 100)
	if err != nil {
		t.Fatalf("fetch competitions: %v", err)
	}
	if hasMore {
		t.Fatalf("competitions are a single page")
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			w.Write([]byte("token-1"))
			return
		}
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"TR_ID": 1, "Name": "A"}]`))
	}))
	defer server.Close()

	client := testClient(t, server, fastRetry(3))
	records, _, err := client.FetchPage(context.Background(), usecase.KindPlayers, 0, 100)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if attempts.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestClient_ExhaustedRetriesSurfaceUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			w.Write([]byte("token-1"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(t, server, fastRetry(2))
	_, _, err := client.FetchPage(context.Background(), usecase.KindPlayers, 0, 100)
	if !crerr.Is(err, usecase.ErrSourceUnavailable) {
		t.Fatalf("expected source-unavailable error, got %v", err)
	}
}

func TestClient_FatalStatusDoesNotRetry(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			w.Write([]byte("token-1"))
			return
		}
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(t, server, fastRetry(3))
	_, _, err := client.FetchPage(context.Background(), usecase.KindPlayers, 0, 100)
	if !crerr.Is(err, usecase.ErrSourceRejected) {
		t.Fatalf("expected source-rejected error, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Fatalf("fatal status must not retry, got %d attempts", attempts.Load())
	}
}

func TestClient_RefreshesTokenOnAuthExpiry(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			if logins.Add(1) == 1 {
				w.Write([]byte("stale-token"))
			} else {
				w.Write([]byte("fresh-token"))
			}
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"TR_ID": 1, "Name": "A"}]`))
	}))
	defer server.Close()

	client := testClient(t, server, fastRetry(3))
	records, _, err := client.FetchPage(context.Background(), usecase.KindPlayers, 0, 100)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if logins.Load() != 2 {
		t.Fatalf("expected re-login after auth expiry, got %d logins", logins.Load())
	}
}

func TestClient_BadCredentials(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(t, server, fastRetry(2))
	_, _, err := client.FetchPage(context.Background(), usecase.KindPlayers, 0, 100)
	if !crerr.Is(err, usecase.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestClient_SanitizeHidesCredentials(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Email: "sync@example.com", Password: "hunter2"})
	got := client.sanitize(`post "https://api.example.com/login?email=sync%40example.com&password=hunter2": connection refused`)
	if want := `post "https://api.example.com/login?email=REDACTED&password=REDACTED": connection refused`; got != want {
		t.Fatalf("sanitize = %q, want %q", got, want)
	}
}

func TestJWTExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// {"exp":1767225600} base64url-encoded payload.
	token := "eyJhbGciOiJIUzI1NiJ9.eyJleHAiOjE3NjcyMjU2MDB9.sig"
	if got := jwtExpiry(token, now, time.Hour); !got.Equal(time.Unix(1767225600, 0)) {
		t.Fatalf("unexpected jwt expiry: %v", got)
	}

	if got := jwtExpiry("opaque-token", now, time.Hour); !got.Equal(now.Add(time.Hour)) {
		t.Fatalf("opaque token must fall back to ttl, got %v", got)
	}
}
