package valr

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"valrgo/logger"
	"valrgo/models"
)

// Catalog caches tradable pair metadata and is the identity and precision
// source for every other normalizer. It is built once per session and
// refreshed only by an explicit Reload.
type Catalog struct {
	fetch func(ctx context.Context) ([]models.Market, error)
	log   *logger.Log

	// loadMu serializes loads so concurrent cold lookups trigger exactly one
	// network call; mu guards the published maps. Readers never observe a
	// half-populated catalog because the maps are swapped in whole.
	loadMu   sync.Mutex
	mu       sync.RWMutex
	loaded   bool
	bySymbol map[string]models.Market
	byID     map[string]models.Market
}

// NewCatalog builds a catalog on top of a market fetch function, normally
// Client.fetchPairs.
func NewCatalog(fetch func(ctx context.Context) ([]models.Market, error)) *Catalog {
	return &Catalog{
		fetch: fetch,
		log:   logger.GetLogger(),
	}
}

// Load warms the catalog if it is cold and returns all known markets sorted
// by symbol. Repeated calls are memoized and do not re-issue the network
// call; a failed or canceled load leaves the catalog cold rather than
// caching a partial result.
func (c *Catalog) Load(ctx context.Context) ([]models.Market, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	markets := make([]models.Market, 0, len(c.bySymbol))
	for _, m := range c.bySymbol {
		markets = append(markets, m)
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i].Symbol < markets[j].Symbol })
	return markets, nil
}

// Reload discards the cache and loads fresh pair metadata.
func (c *Catalog) Reload(ctx context.Context) ([]models.Market, error) {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
	return c.Load(ctx)
}

// BySymbol resolves a canonical symbol, warming the catalog on first use.
func (c *Catalog) BySymbol(ctx context.Context, symbol string) (models.Market, error) {
	if err := c.ensure(ctx); err != nil {
		return models.Market{}, err
	}
	c.mu.RLock()
	market, ok := c.bySymbol[symbol]
	c.mu.RUnlock()
	if !ok {
		return models.Market{}, fmt.Errorf("%w: %s", ErrUnknownMarket, symbol)
	}
	return market, nil
}

// ByID resolves an exchange native pair id.
func (c *Catalog) ByID(ctx context.Context, id string) (models.Market, error) {
	if err := c.ensure(ctx); err != nil {
		return models.Market{}, err
	}
	c.mu.RLock()
	market, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return models.Market{}, fmt.Errorf("%w: %s", ErrUnknownMarket, id)
	}
	return market, nil
}

// symbolFor is the degrade-not-fail resolution used while normalizing trade
// and order payloads: an id the catalog does not know (delisted pair in old
// history) maps to itself instead of failing the whole payload.
func (c *Catalog) symbolFor(id string) string {
	c.mu.RLock()
	market, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return id
	}
	return market.Symbol
}

func (c *Catalog) ensure(ctx context.Context) error {
	c.mu.RLock()
	warm := c.loaded
	c.mu.RUnlock()
	if warm {
		return nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	// A concurrent loader may have finished while this caller waited.
	c.mu.RLock()
	warm = c.loaded
	c.mu.RUnlock()
	if warm {
		return nil
	}

	markets, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("load markets: %w", err)
	}

	bySymbol := make(map[string]models.Market, len(markets))
	byID := make(map[string]models.Market, len(markets))
	for _, m := range markets {
		bySymbol[m.Symbol] = m
		byID[m.ID] = m
	}

	c.mu.Lock()
	c.bySymbol = bySymbol
	c.byID = byID
	c.loaded = true
	c.mu.Unlock()

	c.log.WithComponent("valr_catalog").WithFields(logger.Fields{"markets": len(markets)}).Debug("market catalog loaded")
	return nil
}
