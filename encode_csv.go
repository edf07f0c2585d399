package folio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
)

// header of the portfolio file.
var csvHeader = []string{"ticker", "quantity"}

// EncodePositions writes positions as CSV, with a "ticker,quantity" header.
//
// Only the ticker and the quantity are ever persisted, market data is not.
func EncodePositions(w io.Writer, ps []Position) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range ps {
		if err := cw.Write([]string{p.Ticker, p.Quantity}); err != nil {
			return fmt.Errorf("write position %q: %w", p.Ticker, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// DecodePositions reads positions from CSV.
//
// Columns are located by their header name, so extra columns or a different
// column order are accepted. An empty input is an empty portfolio.
func DecodePositions(r io.Reader) ([]Position, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []Position{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	tickerCol := slices.Index(header, "ticker")
	quantityCol := slices.Index(header, "quantity")
	if tickerCol < 0 || quantityCol < 0 {
		return nil, fmt.Errorf("invalid header %q: want columns %q", header, csvHeader)
	}

	ps := []Position{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ps, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read position: %w", err)
		}
		if tickerCol >= len(record) {
			continue
		}
		ticker := NormalizeTicker(record[tickerCol])
		if ticker == "" {
			continue
		}
		var quantity string
		if quantityCol < len(record) {
			quantity = record[quantityCol]
		}
		ps = append(ps, Position{Ticker: ticker, Quantity: quantity})
	}
}
