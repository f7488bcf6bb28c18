package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/Yiling-J/theine-go"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// Cached memoizes another catalog. Lookup errors are not cached.
type Cached struct {
	cache *theine.LoadingCache[string, *domain.Problem]
}

// NewCached wraps source with a bounded loading cache
func NewCached(source Catalog, size int64, ttl time.Duration) (*Cached, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := theine.NewBuilder[string, *domain.Problem](size).BuildWithLoader(func(ctx context.Context, id string) (theine.Loaded[*domain.Problem], error) {
		p, err := source.Get(ctx, id)
		if err != nil {
			return theine.Loaded[*domain.Problem]{}, err
		}
		return theine.Loaded[*domain.Problem]{
			Value: p,
			Cost:  1,
			TTL:   ttl,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not build problem cache: %w", err)
	}
	return &Cached{cache: cache}, nil
}

func (c *Cached) Get(ctx context.Context, problemID string) (*domain.Problem, error) {
	return c.cache.Get(ctx, problemID)
}

// Invalidate drops one problem so the next lookup reloads it
func (c *Cached) Invalidate(problemID string) {
	c.cache.Delete(problemID)
}

func (c *Cached) Close() {
	c.cache.Close()
}

var (
	_ Catalog = (*Loader)(nil)
	_ Catalog = (*Cached)(nil)
)
