package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const fetchTimeout = 10 * time.Second

// ratesPayload matches the CBR daily JSON document: rates keyed by currency
// code, each carrying a numeric Value in base-currency units.
type ratesPayload struct {
	Valute map[string]struct {
		Value float64 `json:"Value"`
	} `json:"Valute"`
}

// Refresh fetches the current rates and atomically replaces the snapshot.
// On any failure the previous snapshot stays untouched and the error is
// returned for logging; callers must not treat it as fatal.
func (c *Cache) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("build rates request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode rates payload: %w", err)
	}

	prev := c.snap.Load()
	next := make(map[string]decimal.Decimal, len(payload.Valute))
	for code, v := range payload.Valute {
		if v.Value <= 0 {
			return fmt.Errorf("rates payload: non-positive value for %s", code)
		}
		next[code] = decimal.NewFromFloat(v.Value)
	}

	// Every code known so far must survive a refresh; a payload that lost
	// one is treated as malformed and dropped whole.
	for code := range prev.Rates {
		if _, ok := next[code]; !ok {
			return fmt.Errorf("rates payload: missing currency %s", code)
		}
	}

	c.snap.Store(&Snapshot{
		Base:      prev.Base,
		Rates:     next,
		FetchedAt: time.Now(),
	})

	slog.InfoContext(ctx, "Rates snapshot refreshed", "currencies", len(next))
	return nil
}

// Run refreshes immediately and then on every interval tick until the
// context is cancelled. Failures are logged and retried on the next tick.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	if err := c.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Initial rates refresh failed, keeping fallback snapshot", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "Rates refresh failed, keeping previous snapshot", "error", err)
			}
		}
	}
}
