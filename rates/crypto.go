package rates

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"linecalc/lang"
)

var _ lang.CryptoSource = (*CryptoCache)(nil)

// cryptoGlyphs maps the supported assets to their display glyphs.
var cryptoGlyphs = map[string]string{
	"btc":  "₿",
	"eth":  "Ξ",
	"sol":  "◎",
	"doge": "Ð",
	"ada":  "₳",
	"xrp":  "XRP",
	"ltc":  "Ł",
	"dot":  "DOT",
}

var cryptoAliases = map[string]string{
	"bitcoin":  "btc",
	"ethereum": "eth",
	"ether":    "eth",
	"solana":   "sol",
	"dogecoin": "doge",
	"cardano":  "ada",
	"ripple":   "xrp",
	"litecoin": "ltc",
	"polkadot": "dot",
}

// CryptoCache caches crypto USD prices. A price miss marks the symbol as
// fetching and launches a goroutine to get it; callers poll again later.
// Fetches are idempotent, so they are never cancelled.
type CryptoCache struct {
	url    string
	client *http.Client
	log    zerolog.Logger

	mu       sync.Mutex
	prices   map[string]float64
	fetching map[string]bool
}

// NewCryptoCache creates a cache backed by a price endpoint that answers
// GET <url>?symbol=<sym> with {"usd": <price>}.
func NewCryptoCache(endpoint string, log zerolog.Logger) *CryptoCache {
	return &CryptoCache{
		url:      endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
		prices:   make(map[string]float64),
		fetching: make(map[string]bool),
	}
}

// canonical resolves aliases ("bitcoin" → "btc") and reports whether the
// symbol names a supported asset.
func canonical(symbol string) (string, bool) {
	s := strings.ToLower(symbol)
	if c, ok := cryptoAliases[s]; ok {
		return c, true
	}
	_, ok := cryptoGlyphs[s]
	return s, ok
}

// IsCrypto reports whether the symbol names a supported crypto asset.
func (c *CryptoCache) IsCrypto(symbol string) bool {
	_, ok := canonical(symbol)
	return ok
}

// IsFetching reports whether a price fetch for the symbol is in flight.
func (c *CryptoCache) IsFetching(symbol string) bool {
	sym, ok := canonical(symbol)
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching[sym]
}

// PriceInUSD returns the cached USD price of 1 unit. On a miss it starts an
// asynchronous fetch as a side effect and reports ok=false immediately.
func (c *CryptoCache) PriceInUSD(symbol string) (float64, bool) {
	sym, ok := canonical(symbol)
	if !ok {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, cached := c.prices[sym]; cached {
		return p, true
	}
	if !c.fetching[sym] {
		c.fetching[sym] = true
		go c.fetch(sym)
	}
	return 0, false
}

func (c *CryptoCache) fetch(sym string) {
	target := fmt.Sprintf("%s?symbol=%s", c.url, url.QueryEscape(sym))
	resp, err := c.client.Get(target)
	if err != nil {
		c.fetchFailed(sym, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.fetchFailed(sym, fmt.Errorf("status %d", resp.StatusCode))
		return
	}
	var body struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.fetchFailed(sym, err)
		return
	}
	c.mu.Lock()
	c.prices[sym] = body.USD
	delete(c.fetching, sym)
	c.mu.Unlock()
	c.log.Debug().Str("symbol", sym).Float64("usd", body.USD).Msg("price fetched")
}

func (c *CryptoCache) fetchFailed(sym string, err error) {
	c.mu.Lock()
	delete(c.fetching, sym)
	c.mu.Unlock()
	c.log.Warn().Str("symbol", sym).Err(err).Msg("price fetch failed")
}

// ToUSD converts a crypto amount to USD.
func (c *CryptoCache) ToUSD(amount float64, symbol string) (float64, bool) {
	p, ok := c.PriceInUSD(symbol)
	if !ok {
		return 0, false
	}
	return amount * p, true
}

// FromUSD converts a USD amount into the given asset.
func (c *CryptoCache) FromUSD(amount float64, symbol string) (float64, bool) {
	p, ok := c.PriceInUSD(symbol)
	if !ok || p == 0 {
		return 0, false
	}
	return amount / p, true
}

// Symbol returns the display glyph for a supported asset, or the upper-cased
// input for anything else.
func (c *CryptoCache) Symbol(symbol string) string {
	sym, ok := canonical(symbol)
	if !ok {
		return strings.ToUpper(symbol)
	}
	return cryptoGlyphs[sym]
}
