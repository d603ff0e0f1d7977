package cache

import (
	"context"
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/xeptore/reactordj/catalog"
	"github.com/xeptore/reactordj/config"
)

// Asset is what a successful audio probe learned about a locator.
type Asset struct {
	URL           string
	ContentType   string
	ContentLength int64
}

type Cache struct {
	Catalogs CatalogCache
	Probes   ProbeCache
}

func New() *Cache {
	catalogsCache := ccache.New(
		ccache.Configure[*catalog.Catalog]().
			MaxSize(config.CatalogCacheMaxSize).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	probesCache := ccache.New(
		ccache.Configure[*Asset]().
			MaxSize(config.ProbeCacheMaxSize).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	return &Cache{
		Catalogs: CatalogCache{
			c:   catalogsCache,
			mux: sync.Mutex{},
		},
		Probes: ProbeCache{
			c:   probesCache,
			mux: sync.Mutex{},
		},
	}
}

func (c *Cache) Stop() {
	c.Catalogs.c.Stop()
	c.Probes.c.Stop()
}

type CatalogCache struct {
	c   *ccache.Cache[*catalog.Catalog]
	mux sync.Mutex
}

func (c *CatalogCache) Fetch(k string, ttl time.Duration, fetch func() (*catalog.Catalog, error)) (*ccache.Item[*catalog.Catalog], error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.c.Fetch(k, ttl, fetch)
}

func (c *CatalogCache) Forget(k string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.c.Delete(k)
}

// ProbeCache remembers successful probes only, so a failed locator is probed
// again on the next play request.
type ProbeCache struct {
	c   *ccache.Cache[*Asset]
	mux sync.Mutex
}

func (c *ProbeCache) Get(k string) (*Asset, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()
	item := c.c.Get(k)
	if nil == item || item.Expired() {
		return nil, false
	}
	return item.Value(), true
}

func (c *ProbeCache) Set(k string, v *Asset, ttl time.Duration) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.c.Set(k, v, ttl)
}

// CatalogSource serves loads of src from the catalog cache for ttl. A zero ttl
// disables caching and every Load reaches src.
type CatalogSource struct {
	src   catalog.Source
	key   string
	ttl   time.Duration
	cache *CatalogCache
}

func NewCatalogSource(src catalog.Source, key string, ttl time.Duration, cache *CatalogCache) *CatalogSource {
	return &CatalogSource{
		src:   src,
		key:   key,
		ttl:   ttl,
		cache: cache,
	}
}

func (s *CatalogSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	if s.ttl <= 0 {
		return s.src.Load(ctx)
	}
	item, err := s.cache.Fetch(s.key, s.ttl, func() (*catalog.Catalog, error) { return s.src.Load(ctx) })
	if nil != err {
		return nil, err
	}
	return item.Value(), nil
}

// Invalidate drops the cached catalog so the next Load fetches a fresh one.
func (s *CatalogSource) Invalidate() {
	s.cache.Forget(s.key)
}
