package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "secret", WithRateLimit(rate.Inf, 1), WithRetry(0, time.Millisecond, time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tweets.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("q") != "go lang" || q.Get("lang") != "en" || q.Get("count") != "3" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"statuses":[
			{"id_str":"1","text":"first","lang":"en","user":{"screen_name":"a"}},
			{"id_str":"2","text":"first","lang":"en","user":{"screen_name":"b"}},
			{"id_str":"3","text":"short","full_text":"second in full","lang":"en"}
		]}`)
	})

	got, err := c.Search(context.Background(), Query{Text: "go lang", Lang: "en", Count: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 unique statuses, got %d", len(got))
	}
	if got[0].ID != "1" || got[0].User.ScreenName != "a" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Body() != "second in full" {
		t.Errorf("Body = %q", got[1].Body())
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})
	if _, err := c.Search(context.Background(), Query{Text: "  "}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestGet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/statuses/show.json" || r.URL.Query().Get("id") != "42" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if ua := r.Header.Get("User-Agent"); ua != "senti/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		_, _ = fmt.Fprint(w, `{"id_str":"42","text":"hello"}`)
	})
	s, err := c.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ID != "42" || s.Text != "hello" {
		t.Errorf("status = %+v", s)
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := c.Get(context.Background(), "1")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Fatalf("expected APIError with status %d, got %v", tt.status, err)
			}
		})
	}
}

func TestUnmappedStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	_, err := c.Get(context.Background(), "1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrRateLimited) {
		t.Errorf("unexpected sentinel match for %v", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = fmt.Fprint(w, `{"id_str":"7","text":"ok"}`)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", WithRateLimit(rate.Inf, 1), WithRetry(2, time.Millisecond, time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	s, err := c.Get(context.Background(), "7")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ID != "7" || calls != 2 {
		t.Errorf("status = %+v after %d calls", s, calls)
	}
}

func TestBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{not json`)
	})
	if _, err := c.Get(context.Background(), "1"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	c.limiter.Allow()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "1"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestFromEnv(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	t.Setenv("SENTI_SEARCH_URL", c.base.String())
	t.Setenv("SENTI_BEARER_TOKEN", "tok")
	got, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if got.base.String() != c.base.String() {
		t.Errorf("base = %s, want %s", got.base, c.base)
	}

	t.Setenv("SENTI_SEARCH_URL", "")
	got, err = FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if got.base.String() != DefaultBaseURL {
		t.Errorf("base = %s, want %s", got.base, DefaultBaseURL)
	}
}
