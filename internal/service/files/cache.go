package files

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/driftbox/driftbox/internal/domain"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driftbox_file_cache_hits_total",
		Help: "Hits on the file metadata cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driftbox_file_cache_misses_total",
		Help: "Misses on the file metadata cache.",
	})
)

// metadataCache is a TTL'd LRU of file metadata keyed by file id, used on the
// content-download path. Entries are dropped on visibility changes and
// otherwise age out.
type metadataCache struct {
	lru *expirable.LRU[string, *domain.File]
}

func newMetadataCache(size int, ttl time.Duration) *metadataCache {
	if size <= 0 {
		size = 1024
	}
	return &metadataCache{lru: expirable.NewLRU[string, *domain.File](size, nil, ttl)}
}

func (c *metadataCache) get(id string) (*domain.File, bool) {
	file, ok := c.lru.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return file, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

func (c *metadataCache) set(id string, file *domain.File) {
	c.lru.Add(id, file)
}

func (c *metadataCache) drop(id string) {
	c.lru.Remove(id)
}
