package folio

// EnrichedPosition is a position with its market data and value.
// It is built for a response and never stored.
type EnrichedPosition struct {
	Position
	Quote Quote
	// TotalValue is Price x Quantity, unavailable if either is unknown.
	TotalValue Amount
}

// NewEnrichedPosition computes the value of p at quote q.
func NewEnrichedPosition(p Position, q Quote) EnrichedPosition {
	return EnrichedPosition{Position: p, Quote: q, TotalValue: TotalValue(q.Price, p.Quantity)}
}

// TotalValue returns price x quantity, or Unavailable when the price is
// unavailable or the quantity is not a number.
func TotalValue(price Amount, quantity string) Amount {
	m, ok := price.Get()
	if !ok {
		return Unavailable()
	}
	q, err := ParseQuantity(quantity)
	if err != nil {
		return Unavailable()
	}
	return Available(m.Mul(q))
}

// Valuation is a portfolio valued at market prices.
type Valuation struct {
	Positions []EnrichedPosition
}

// Total sums the available values of eps, silently skipping the unavailable ones.
//
// The total has the currency shared by all the values, or no currency if
// they are mixed. Values without currency take any other.
func Total(eps []EnrichedPosition) Money {
	var total Money
	currency, mixed := "", false
	for _, ep := range eps {
		m, ok := ep.TotalValue.Get()
		if !ok {
			continue
		}
		total = total.Add(m)
		switch c := m.Currency(); {
		case c == "":
		case currency == "":
			currency = c
		case c != currency:
			mixed = true
		}
	}
	if mixed {
		return total.WithCurrency("")
	}
	return total.WithCurrency(currency)
}
