package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Base: "RUB",
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromFloat(77.52),
			"EUR": decimal.NewFromFloat(91.80),
		},
	}
}

func TestCache_Convert(t *testing.T) {
	c := New("http://unused", testSnapshot())

	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		want   string
	}{
		{name: "base to quote", amount: "1250.50", from: "RUB", to: "USD", want: "16.13"},
		{name: "quote to base", amount: "100", from: "USD", to: "RUB", want: "7752"},
		{name: "cross through base", amount: "100", from: "USD", to: "EUR", want: "84.44"},
		{name: "identity", amount: "99.99", from: "RUB", to: "RUB", want: "99.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, _ := decimal.NewFromString(tt.amount)
			got, err := c.Convert(amount, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Convert() error: %v", err)
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("Convert(%s %s -> %s) = %s, want %s", tt.amount, tt.from, tt.to, got, want)
			}
		})
	}
}

func TestCache_Convert_RoundTrip(t *testing.T) {
	c := New("http://unused", testSnapshot())
	amount := decimal.NewFromFloat(1250.50)

	there, err := c.Convert(amount, "RUB", "USD")
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	back, err := c.Convert(there, "USD", "RUB")
	if err != nil {
		t.Fatalf("Convert() back error: %v", err)
	}

	// Each leg rounds to two places, so the round trip may drift by at
	// most one rate-unit of the last cent.
	drift := back.Sub(amount).Abs()
	if drift.GreaterThan(decimal.NewFromFloat(0.78)) {
		t.Errorf("round trip drifted by %s (got %s back from %s)", drift, back, amount)
	}
}

func TestCache_Convert_UnknownCurrency(t *testing.T) {
	c := New("http://unused", testSnapshot())

	if _, err := c.Convert(decimal.NewFromInt(10), "GBP", "RUB"); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Errorf("unknown source error = %v, want ErrUnknownCurrency", err)
	}
	if _, err := c.Convert(decimal.NewFromInt(10), "RUB", "GBP"); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Errorf("unknown target error = %v, want ErrUnknownCurrency", err)
	}
}

func TestNewDefault_FallbackRates(t *testing.T) {
	c := NewDefault("http://unused")
	snap := c.Current()

	if snap.Base != "RUB" {
		t.Errorf("Base = %s, want RUB", snap.Base)
	}
	if !snap.FetchedAt.IsZero() {
		t.Error("FetchedAt must stay zero until the first refresh")
	}
	if !snap.Rates["USD"].Equal(decimal.NewFromFloat(77.52)) {
		t.Errorf("fallback USD = %s, want 77.52", snap.Rates["USD"])
	}
}

func TestSnapshot_Codes(t *testing.T) {
	codes := testSnapshot().Codes()
	if len(codes) != 2 || codes[0] != "EUR" || codes[1] != "USD" {
		t.Errorf("Codes() = %v, want sorted [EUR USD]", codes)
	}
}

func TestCache_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Valute":{"USD":{"Value":80.10},"EUR":{"Value":95.25},"CNY":{"Value":11.02}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testSnapshot())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	snap := c.Current()
	if snap.FetchedAt.IsZero() {
		t.Error("FetchedAt not set after successful refresh")
	}
	if !snap.Rates["USD"].Equal(decimal.NewFromFloat(80.10)) {
		t.Errorf("USD = %s, want 80.10", snap.Rates["USD"])
	}
	if _, ok := snap.Rates["CNY"]; !ok {
		t.Error("new currency from payload missing in snapshot")
	}
}

func TestCache_Refresh_FailureKeepsSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "non-positive rate",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Valute":{"USD":{"Value":0},"EUR":{"Value":95.25}}}`))
			},
		},
		{
			name: "known currency dropped",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Valute":{"USD":{"Value":80.10}}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(srv.URL, testSnapshot())
			if err := c.Refresh(context.Background()); err == nil {
				t.Fatal("Refresh() expected error, got nil")
			}

			snap := c.Current()
			if !snap.Rates["USD"].Equal(decimal.NewFromFloat(77.52)) {
				t.Errorf("USD = %s after failed refresh, want untouched 77.52", snap.Rates["USD"])
			}
			if !snap.FetchedAt.IsZero() {
				t.Error("FetchedAt changed by a failed refresh")
			}
		})
	}
}
