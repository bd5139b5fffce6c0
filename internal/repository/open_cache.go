package repository

import (
	"context"
	"errors"
	"time"

	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/pkg/cache"
	"PriceWindow/pkg/logger"
)

// OpenCache stores window-open prices in a cache.Service.
type OpenCache struct {
	cache cache.Service
	log   *logger.Logger
}

func NewOpenCache(c cache.Service, l *logger.Logger) *OpenCache {
	if l == nil {
		l = logger.Nop()
	}
	return &OpenCache{cache: c, log: l.Component("open_cache")}
}

func openKey(k drepo.OpenKey) string {
	return cache.GenerateKeyWithParams("open", k.Source, k.Symbol, k.Window, k.Start.Unix())
}

// Get reports a cached open. Cache failures count as misses.
func (o *OpenCache) Get(ctx context.Context, k drepo.OpenKey) (float64, bool) {
	var p float64
	if err := o.cache.Get(ctx, openKey(k), &p); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			o.log.Warn("open cache read failed", logger.String("source", k.Source), logger.Error(err))
		}
		return 0, false
	}
	return p, p > 0
}

func (o *OpenCache) Put(ctx context.Context, k drepo.OpenKey, price float64, ttl time.Duration) {
	if price <= 0 {
		return
	}
	if err := o.cache.Set(ctx, openKey(k), price, ttl); err != nil {
		o.log.Warn("open cache write failed", logger.String("source", k.Source), logger.Error(err))
	}
}

var _ drepo.OpenCache = (*OpenCache)(nil)
