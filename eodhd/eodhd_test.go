package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/etnz/folio"
	"github.com/shopspring/decimal"
)

const testKey = "demo-key"

// newTestServer serves a few EODHD answers, and counts fundamentals calls.
func newTestServer(t *testing.T, fundamentals *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/real-time/{code}", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != testKey {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		switch r.PathValue("code") {
		case "AAPL.US":
			fmt.Fprint(w, `{"code":"AAPL.US","timestamp":1700000000,"close":150.25,"previousClose":149}`)
		case "SAP.XETRA":
			fmt.Fprint(w, `{"code":"SAP.XETRA","close":"120.5"}`)
		case "HALT.US":
			fmt.Fprint(w, `{"code":"HALT.US","close":"NA"}`)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/api/fundamentals/{code}", func(w http.ResponseWriter, r *http.Request) {
		fundamentals.Add(1)
		switch r.PathValue("code") {
		case "AAPL.US":
			fmt.Fprint(w, `{"MarketCapitalization":3000000000000,"DividendYield":0.0044}`)
		case "HALT.US":
			fmt.Fprint(w, `{"DividendYield":null}`)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_Lookup(t *testing.T) {
	var fundamentals atomic.Int32
	srv := newTestServer(t, &fundamentals)
	p := New(testKey, WithBaseURL(srv.URL), WithCacheDir(t.TempDir()))
	ctx := context.Background()

	q, err := p.Lookup(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Lookup(AAPL) error = %v", err)
	}
	if m, ok := q.Price.Get(); !ok || !m.Equal(folio.M(150.25, "USD")) {
		t.Errorf("Lookup(AAPL).Price = %v, want $150.25", q.Price)
	}
	if want := decimal.RequireFromString("0.0044"); !q.DividendYield.Equal(want) {
		t.Errorf("Lookup(AAPL).DividendYield = %v, want %v", q.DividendYield, want)
	}

	// fundamentals are served from the disk cache for the rest of the day.
	if _, err := p.Lookup(ctx, "AAPL"); err != nil {
		t.Fatalf("second Lookup(AAPL) error = %v", err)
	}
	if n := fundamentals.Load(); n != 1 {
		t.Errorf("fundamentals fetched %d times, want 1", n)
	}
}

func TestProvider_Lookup_Partial(t *testing.T) {
	var fundamentals atomic.Int32
	srv := newTestServer(t, &fundamentals)
	ctx := context.Background()

	p := New(testKey, WithBaseURL(srv.URL), WithCacheDir(t.TempDir()))
	q, err := p.Lookup(ctx, "HALT")
	if err != nil {
		t.Fatalf("Lookup(HALT) error = %v", err)
	}
	if q.Price.IsAvailable() || !q.DividendYield.IsZero() {
		t.Errorf("Lookup(HALT) = %v, want no price and no yield", q)
	}

	// an exchange suffix is kept, and missing fundamentals are not an error.
	eu := New(testKey, WithBaseURL(srv.URL), WithCacheDir(t.TempDir()), WithExchange("XETRA", "EUR"))
	q, err = eu.Lookup(ctx, "SAP.XETRA")
	if err != nil {
		t.Fatalf("Lookup(SAP.XETRA) error = %v", err)
	}
	m, ok := q.Price.Get()
	if !ok || !m.Equal(folio.M(120.5, "EUR")) {
		t.Errorf("Lookup(SAP.XETRA).Price = %v, want EUR 120.5", q.Price)
	}
}

func TestProvider_Lookup_Errors(t *testing.T) {
	var fundamentals atomic.Int32
	srv := newTestServer(t, &fundamentals)
	ctx := context.Background()

	p := New(testKey, WithBaseURL(srv.URL), WithCacheDir(t.TempDir()))
	if _, err := p.Lookup(ctx, "NOPE"); !errors.Is(err, folio.ErrUnknownTicker) {
		t.Errorf("Lookup(NOPE) error = %v, want %v", err, folio.ErrUnknownTicker)
	}

	bad := New("wrong", WithBaseURL(srv.URL), WithCacheDir(t.TempDir()))
	if _, err := bad.Lookup(ctx, "AAPL"); err == nil || errors.Is(err, folio.ErrUnknownTicker) {
		t.Errorf("Lookup() with a wrong key: error = %v, want a non ErrUnknownTicker error", err)
	}
}

func TestNumber(t *testing.T) {
	testCases := []struct {
		name    string
		jobj    any
		want    string
		wantOK  bool
		wantErr bool
	}{
		{"float", map[string]any{"close": 1.5}, "1.5", true, false},
		{"string", map[string]any{"close": "2.25"}, "2.25", true, false},
		{"NA", map[string]any{"close": "NA"}, "0", false, false},
		{"null", map[string]any{"close": nil}, "0", false, false},
		{"garbage", map[string]any{"close": "abc"}, "0", false, true},
		{"missing", map[string]any{}, "0", false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := number(tc.jobj, "$.close")
			if (err != nil) != tc.wantErr {
				t.Fatalf("number() error = %v, wantErr %v", err, tc.wantErr)
			}
			if ok != tc.wantOK || !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("number() = %v, %v; want %v, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}
