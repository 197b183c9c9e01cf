// Package rates supplies live currency and crypto exchange rates to the
// expression engine. Fetching happens on background goroutines; readers
// never block and see ok=false until a snapshot arrives.
package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"linecalc/lang"
)

// DefaultFiatURL serves USD-based fiat rates as {"rates": {"EUR": 0.92, ...}}.
const DefaultFiatURL = "https://open.er-api.com/v6/latest/USD"

var _ lang.RateSource = (*Provider)(nil)

// Provider caches fiat exchange rates from a USD-based JSON endpoint.
// Until the first snapshot lands every lookup reports ok=false and the unit
// registry falls back to its static factors.
type Provider struct {
	url    string
	client *http.Client
	log    zerolog.Logger

	mu     sync.RWMutex
	perUSD map[string]float64 // code → units per 1 USD
}

// NewProvider creates a provider for the given endpoint. It holds no rates
// until Start runs or Refresh is called.
func NewProvider(url string, log zerolog.Logger) *Provider {
	return &Provider{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Start refreshes once immediately, then on every interval tick until ctx
// is cancelled.
func (p *Provider) Start(ctx context.Context, interval time.Duration) {
	go func() {
		p.Refresh(ctx)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				p.Refresh(ctx)
			}
		}
	}()
}

// Refresh fetches a fresh snapshot. Failures keep the previous snapshot.
func (p *Provider) Refresh(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Warn().Err(err).Msg("bad rates request")
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn().Err(err).Msg("rate refresh failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.log.Warn().Int("status", resp.StatusCode).Msg("rate refresh failed")
		return
	}
	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		p.log.Warn().Err(err).Msg("bad rates payload")
		return
	}
	p.mu.Lock()
	p.perUSD = body.Rates
	p.mu.Unlock()
	p.log.Debug().Int("currencies", len(body.Rates)).Msg("rates updated")
}

// Rate returns the USD value of 1 unit of the given currency code.
func (p *Provider) Rate(code string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.perUSD[strings.ToUpper(code)]
	if !ok || r == 0 {
		return 0, false
	}
	return 1 / r, true
}

// Convert converts an amount between two currency codes through USD.
func (p *Provider) Convert(amount float64, from, to string) (float64, bool) {
	fromRate, ok := p.Rate(from)
	if !ok {
		return 0, false
	}
	toRate, ok := p.Rate(to)
	if !ok {
		return 0, false
	}
	return amount * fromRate / toRate, true
}
