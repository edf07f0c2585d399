package folio

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// clock is a manual clock for tests.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Date(2025, time.March, 3, 15, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeProvider serves fixed prices and counts its lookups.
type fakeProvider struct {
	mu     sync.Mutex
	prices map[string]float64
	yields map[string]float64
	fail   map[string]bool
	calls  map[string]int
	delay  time.Duration
}

func newFakeProvider(prices map[string]float64) *fakeProvider {
	return &fakeProvider{prices: prices, yields: map[string]float64{}, fail: map[string]bool{}, calls: map[string]int{}}
}

func (p *fakeProvider) Lookup(ctx context.Context, ticker string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	p.mu.Lock()
	p.calls[ticker]++
	price, ok := p.prices[ticker]
	yield := p.yields[ticker]
	fail := p.fail[ticker]
	delay := p.delay
	p.mu.Unlock()

	time.Sleep(delay)
	if fail {
		return Quote{}, errors.New("provider is down")
	}
	if !ok {
		return Quote{}, ErrUnknownTicker
	}
	return Quote{Price: Available(USD(price)), DividendYield: decimal.NewFromFloat(yield)}, nil
}

func (p *fakeProvider) Calls(ticker string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[ticker]
}

func (p *fakeProvider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

// memFiles is an in-memory FileStore that records every write.
type memFiles struct {
	mu     sync.Mutex
	files  map[string][]byte
	writes [][]byte
	reads  int
	fail   error
}

func newMemFiles() *memFiles { return &memFiles{files: map[string][]byte{}} }

// seed writes positions directly, without recording the write.
func (s *memFiles) seed(ps ...Position) {
	var buf bytes.Buffer
	if err := EncodePositions(&buf, ps); err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[PortfolioFile] = buf.Bytes()
}

func (s *memFiles) FindOrCreate(_ context.Context, _ *oauth2.Token, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	if _, ok := s.files[name]; !ok {
		s.files[name] = []byte("ticker,quantity\n")
	}
	return name, nil
}

func (s *memFiles) Read(_ context.Context, _ *oauth2.Token, handle string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return bytes.Clone(s.files[handle]), nil
}

func (s *memFiles) Write(_ context.Context, _ *oauth2.Token, handle string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.files[handle] = bytes.Clone(content)
	s.writes = append(s.writes, bytes.Clone(content))
	return nil
}

func (s *memFiles) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Writes returns the decoded positions of every write, in order.
func (s *memFiles) Writes() [][]Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res [][]Position
	for _, w := range s.writes {
		ps, err := DecodePositions(bytes.NewReader(w))
		if err != nil {
			panic(err)
		}
		res = append(res, ps)
	}
	return res
}
