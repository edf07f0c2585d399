package folio

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTotalValue(t *testing.T) {
	testCases := []struct {
		name     string
		price    Amount
		quantity string
		want     Amount
	}{
		{"whole shares", Available(USD(150)), "10", Available(USD(1500))},
		{"fractional shares", Available(USD(150)), "2.5", Available(USD(375))},
		{"quantity with spaces", Available(USD(10)), " 3 ", Available(USD(30))},
		{"unavailable price", Unavailable(), "5", Unavailable()},
		{"non numeric quantity", Available(USD(150)), "ten", Unavailable()},
		{"empty quantity", Available(USD(150)), "", Unavailable()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TotalValue(tc.price, tc.quantity)
			gm, gok := got.Get()
			wm, wok := tc.want.Get()
			if gok != wok || !gm.Equal(wm) {
				t.Errorf("TotalValue(%v, %q) = %v, want %v", tc.price, tc.quantity, got, tc.want)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	eps := []EnrichedPosition{
		NewEnrichedPosition(Position{"AAPL", "10"}, Quote{Price: Available(USD(150))}),
		NewEnrichedPosition(Position{"XXX", "5"}, Quote{}),
		NewEnrichedPosition(Position{"MSFT", "oops"}, Quote{Price: Available(USD(400))}),
		NewEnrichedPosition(Position{"GOOG", "2"}, Quote{Price: Available(USD(100))}),
	}
	if got, want := Total(eps), USD(1700); !got.Equal(want) {
		t.Errorf("Total() = %v, want %v", got, want)
	}

	if got := Total(nil); !got.IsZero() {
		t.Errorf("Total(nil) = %v, want 0", got)
	}

	mixed := append(eps, NewEnrichedPosition(Position{"SAP", "1"}, Quote{Price: Available(M(200, "EUR"))}))
	got := Total(mixed)
	if got.Currency() != "" || !got.Decimal().Equal(M(1900, "").Decimal()) {
		t.Errorf("Total(mixed) = %v %q, want 1900 without currency", got, got.Currency())
	}

	// a mix stays a mix whatever comes after.
	mixed = append(mixed, NewEnrichedPosition(Position{"MSFT", "1"}, Quote{Price: Available(USD(100))}))
	if got := Total(mixed); got.Currency() != "" {
		t.Errorf("Total(mixed then USD) currency = %q, want none", got.Currency())
	}

	// values without currency do not make the total mixed.
	weak := []EnrichedPosition{
		NewEnrichedPosition(Position{"XXX", "1"}, Quote{Price: Available(M(10, ""))}),
		NewEnrichedPosition(Position{"AAPL", "1"}, Quote{Price: Available(USD(150))}),
	}
	if got, want := Total(weak), USD(160); !got.Equal(want) {
		t.Errorf("Total(no currency then USD) = %v %q, want %v", got, got.Currency(), want)
	}
}

func TestAmount_String(t *testing.T) {
	testCases := []struct {
		amount Amount
		want   string
	}{
		{Available(USD(1500)), "$1,500.00"},
		{Available(USD(0.5)), "$0.50"},
		{Available(M(1234567.891, "")), "1,234,567.89"},
		{Unavailable(), "N/A"},
	}
	for _, tc := range testCases {
		if got := tc.amount.String(); got != tc.want {
			t.Errorf("Amount.String() = %q, want %q", got, tc.want)
		}
	}
}

func TestAmount_JSON(t *testing.T) {
	q := Quote{Ticker: "AAPL", Price: Available(USD(150.25))}
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var got Quote
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if m, ok := got.Price.Get(); !ok || !m.Equal(USD(150.25)) {
		t.Errorf("decoded price = %v, want %v", got.Price, USD(150.25))
	}

	data, err = json.Marshal(Quote{Ticker: "XXX"})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	got = Quote{Price: Available(USD(1))}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got.Price.IsAvailable() {
		t.Errorf("decoded price = %v, want unavailable", got.Price)
	}
}

func TestFromRatio(t *testing.T) {
	testCases := []struct {
		ratio string
		want  Percent
		str   string
	}{
		{"0.005", 0.5, "0.50%"},
		{"0.0044", 0.44, "0.44%"},
		{"0", 0, "0.00%"},
		{"0.12346", 12.346, "12.35%"},
	}
	for _, tc := range testCases {
		got := FromRatio(decimal.RequireFromString(tc.ratio))
		if !got.Equal(tc.want) {
			t.Errorf("FromRatio(%s) = %v, want %v", tc.ratio, float64(got), float64(tc.want))
		}
		if got.String() != tc.str {
			t.Errorf("FromRatio(%s).String() = %q, want %q", tc.ratio, got.String(), tc.str)
		}
	}
}
