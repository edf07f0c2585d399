package folio

import (
	"encoding/json"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// plainFormatter formats amounts of unknown or mixed currencies.
var plainFormatter = money.NewFormatter(2, ".", ",", "", "1")

// String returns the string representation of the money value, using the
// currency's own formatting (grapheme, thousand separator, fraction digits).
func (m Money) String() string {
	f, fraction := plainFormatter, 2
	if c := money.GetCurrency(m.cur); c != nil {
		f, fraction = c.Formatter(), c.Fraction
	}
	dec := m.value.Shift(int32(fraction))
	return f.Format(dec.Round(0).IntPart())
}

func (m Money) Currency() string            { return m.cur }
func (m Money) Decimal() decimal.Decimal    { return m.value }
func (m Money) Equal(n Money) bool          { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                { return m.value.IsZero() }
func (m Money) IsPositive() bool            { return m.value.IsPositive() }
func (m Money) Mul(n Quantity) Money        { return Money{value: m.value.Mul(n.value), cur: m.cur} }
func (m Money) WithCurrency(c string) Money { return Money{value: m.value, cur: c} }

// Add returns m+n. An empty currency is weak and takes the other currency.
// Adding two different currencies yields a value without currency.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		return ""
	}
	return A.cur
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.value, Currency: m.cur})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var j moneyJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	m.value, m.cur = j.Amount, j.Currency
	return nil
}

// Amount is a Money value that may be unavailable: a price the quote provider
// could not deliver, or a position value that could not be computed.
//
// The zero value is unavailable.
type Amount struct {
	money Money
	ok    bool
}

// Available returns an available Amount of m.
func Available(m Money) Amount { return Amount{money: m, ok: true} }

// Unavailable returns the unavailable Amount.
func Unavailable() Amount { return Amount{} }

// Get returns the money value and whether it is available.
func (a Amount) Get() (Money, bool) { return a.money, a.ok }

func (a Amount) IsAvailable() bool { return a.ok }

// String returns the formatted money, or "N/A" when unavailable.
func (a Amount) String() string {
	if !a.ok {
		return "N/A"
	}
	return a.money.String()
}

// MarshalJSON encodes an unavailable amount as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.ok {
		return []byte("null"), nil
	}
	return a.money.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	if err := a.money.UnmarshalJSON(data); err != nil {
		return err
	}
	a.ok = true
	return nil
}
