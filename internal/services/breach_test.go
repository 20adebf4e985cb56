package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	tu "github.com/desertthunder/streamsavvy/internal/testing"
)

func TestHashPassword(t *testing.T) {
	prefix, suffix := HashPassword("password")
	// SHA-1("password") = 5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8
	if prefix != "5BAA6" || suffix != "1E4C9B93F3F0682250B6CF8331B7EE68FD8" {
		t.Errorf("HashPassword() = %s, %s", prefix, suffix)
	}
}

func TestParseRange(t *testing.T) {
	body := "1E4C9B93F3F0682250B6CF8331B7EE68FD8:9545824\r\n0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n\r\nBROKEN\r\n:5\r\nabc:notanumber"
	counts := ParseRange(body)

	tests := map[string]int{
		"1E4C9B93F3F0682250B6CF8331B7EE68FD8": 9545824,
		"0018A45C4D1DEF81644B54AB7F969B88D65": 1,
		"BROKEN":                              0,
		"ABC":                                 0,
	}
	for suffix, want := range tests {
		if got, ok := counts[suffix]; !ok || got != want {
			t.Errorf("counts[%s] = %d (%v), want %d", suffix, got, ok, want)
		}
	}
	if len(counts) != len(tests) {
		t.Errorf("expected %d entries, got %v", len(tests), counts)
	}
}

func TestBreachService(t *testing.T) {
	ctx := context.Background()
	quiet := log.New(&bytes.Buffer{})

	t.Run("Counts And Caches Per Prefix", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			if r.URL.Path != "/range/5BAA6" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte("1E4C9B93F3F0682250B6CF8331B7EE68FD8:9545824\r\n0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n"))
		}))
		defer server.Close()

		cache := NewBreachCache()
		svc := NewBreachService(server.URL, server.Client(), cache, quiet)

		count, err := svc.Count(ctx, "password")
		if err != nil || count != 9545824 {
			t.Fatalf("Count() = %d, %v", count, err)
		}

		again, _ := svc.Count(ctx, "password")
		if again != count || hits.Load() != 1 {
			t.Errorf("second lookup should hit the cache, got %d after %d requests", again, hits.Load())
		}
		if cache.Len() != 1 {
			t.Errorf("expected one cached prefix, got %d", cache.Len())
		}
	})

	t.Run("Unbreached Password", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n"))
		}))
		defer server.Close()

		count, err := NewBreachService(server.URL, server.Client(), nil, quiet).Count(ctx, "correct horse battery staple")
		if err != nil || count != 0 {
			t.Errorf("Count() = %d, %v", count, err)
		}
	})

	t.Run("Empty Password Skips Request", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("should not be called"))}
		count, err := NewBreachService("", client, nil, quiet).Count(ctx, "")
		if err != nil || count != 0 {
			t.Errorf("Count() = %d, %v", count, err)
		}
	})

	t.Run("Failures Are Soft", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)

		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		count, err := NewBreachService("", client, nil, logger).Count(ctx, "password")
		if err != nil || count != 0 {
			t.Errorf("network failure: Count() = %d, %v", count, err)
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		cache := NewBreachCache()
		count, err = NewBreachService(server.URL, server.Client(), cache, logger).Count(ctx, "password")
		if err != nil || count != 0 {
			t.Errorf("bad status: Count() = %d, %v", count, err)
		}
		if cache.Len() != 0 {
			t.Error("failed lookups should not be cached")
		}
		if !strings.Contains(buf.String(), "breach") {
			t.Errorf("expected a logged warning, got %q", buf.String())
		}
	})
}
