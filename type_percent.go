package folio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a ratio expressed in percent, e.g. 2.5 for 2.5%.
type Percent float64

// FromRatio converts a ratio (0.025) into a Percent (2.5).
func FromRatio(r decimal.Decimal) Percent {
	return Percent(r.Shift(2).InexactFloat64())
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}
