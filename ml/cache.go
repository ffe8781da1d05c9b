package ml

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Estimator is what the HTTP layer needs from a predictor.
type Estimator interface {
	Estimate(rec InputRecord) (Estimate, error)
	Coefficients() []Coefficient
	Schema() Schema
}

// CachedPredictor memoizes estimates. Prediction is deterministic for fixed
// artifacts, so a hit is always equal to a fresh computation.
type CachedPredictor struct {
	*Predictor
	cache   *lru.Cache[InputRecord, Estimate]
	onCache func(hit bool)
}

// NewCachedPredictor wraps p with an LRU of the given size. A size <= 0 returns
// a wrapper that never caches.
func NewCachedPredictor(p *Predictor, size int, onCache func(hit bool)) (*CachedPredictor, error) {
	cp := &CachedPredictor{Predictor: p, onCache: onCache}
	if size <= 0 {
		return cp, nil
	}
	cache, err := lru.New[InputRecord, Estimate](size)
	if err != nil {
		return nil, err
	}
	cp.cache = cache
	return cp, nil
}

func (c *CachedPredictor) Estimate(rec InputRecord) (Estimate, error) {
	if c.cache == nil {
		return c.Predictor.Estimate(rec)
	}
	if est, ok := c.cache.Get(rec); ok {
		c.report(true)
		return copyEstimate(est), nil
	}
	c.report(false)
	est, err := c.Predictor.Estimate(rec)
	if err != nil {
		return Estimate{}, err
	}
	c.cache.Add(rec, copyEstimate(est))
	return est, nil
}

func (c *CachedPredictor) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func (c *CachedPredictor) report(hit bool) {
	if c.onCache != nil {
		c.onCache(hit)
	}
}

func copyEstimate(est Estimate) Estimate {
	est.Features = append(FeatureVector(nil), est.Features...)
	return est
}
