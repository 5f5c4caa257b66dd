// Package rates holds the process-wide currency rate snapshot and keeps it
// fresh from an external HTTP source.
package rates

import (
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// Snapshot is the single current set of conversion rates against the base
// currency. Each rate is the number of base units one unit of the foreign
// code is worth. A snapshot is replaced wholesale on every successful
// refresh and never mutated in place; holders must treat it as read-only.
type Snapshot struct {
	Base      string
	Rates     map[string]decimal.Decimal
	FetchedAt time.Time // zero until the first successful refresh
}

// Codes returns the known foreign currency codes in sorted order, ready to
// be rendered as choice buttons.
func (s Snapshot) Codes() []string {
	codes := make([]string, 0, len(s.Rates))
	for code := range s.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Cache owns the snapshot. A single writer (the refresh loop) swaps the
// pointer; any number of readers convert and display concurrently without
// blocking.
type Cache struct {
	url    string
	client *http.Client
	snap   atomic.Pointer[Snapshot]
}

func New(url string, fallback Snapshot) *Cache {
	c := &Cache{
		url:    url,
		client: &http.Client{Timeout: fetchTimeout},
	}
	c.snap.Store(&fallback)
	return c
}

// NewDefault seeds the cache with the hardcoded fallback rates used until
// the first successful refresh.
func NewDefault(url string) *Cache {
	return New(url, Snapshot{
		Base: "RUB",
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromFloat(77.52),
			"EUR": decimal.NewFromFloat(91.80),
		},
	})
}

// Current returns the live snapshot for display.
func (c *Cache) Current() Snapshot {
	return *c.snap.Load()
}

// Convert projects an amount from one currency into another, pivoting
// through the base currency, and rounds to two decimal places. An unknown
// code is a validation error, not a zero result.
func (c *Cache) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	snap := c.snap.Load()

	inBase := amount
	if from != snap.Base {
		rate, ok := snap.Rates[from]
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("%w: %s", core.ErrUnknownCurrency, from)
		}
		inBase = amount.Mul(rate)
	}

	if to == snap.Base {
		return core.Round2(inBase), nil
	}
	rate, ok := snap.Rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", core.ErrUnknownCurrency, to)
	}
	return core.Round2(inBase.Div(rate)), nil
}
