package ranges

import (
	"context"
	"sync"
	"time"

	"iprange-filter/internal/logger"
	"iprange-filter/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshInterval：缓存文档的有效期
const DefaultRefreshInterval = time.Hour

// 文档注释：上游文档的进程内时效缓存
// 背景：限制上游调用频率为每个刷新周期至多一次（稳定成功时）；刷新是惰性的，不使用后台定时器
// 约束：状态仅由 Cache 持有与修改；上游调用期间不持锁，两个同时看到过期缓存的请求可能各自拉取一次并各自整体覆盖
// （可接受的良性竞争：文档整体替换，每个请求只使用自己取得的文档值）；开启 single-flight 后合并为一次调用
type Cache struct {
	fetcher  Fetcher
	interval time.Duration
	sf       *singleflight.Group

	mu        sync.Mutex
	doc       Document
	has       bool
	fetchedAt time.Time
}

type Option func(*Cache)

// WithRefreshInterval：覆盖默认刷新周期；非正值忽略
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithSingleFlight：合并并发的过期刷新为一次上游调用
// 约束：跟随者共享领头请求的结果；共享获取不随任一请求取消，仅受网关超时约束
func WithSingleFlight() Option {
	return func(c *Cache) { c.sf = &singleflight.Group{} }
}

func NewCache(f Fetcher, opts ...Option) *Cache {
	c := &Cache{fetcher: f, interval: DefaultRefreshInterval}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Interval：当前刷新周期
func (c *Cache) Interval() time.Duration { return c.interval }

// Document：返回有效文档（缓存命中或经网关获取）
// 约束：仅当已有文档且 now-fetchedAt < interval 时复用；获取失败时保留旧文档但不返回，错误原样上抛
func (c *Cache) Document(ctx context.Context, now time.Time) (Document, error) {
	c.mu.Lock()
	if c.has && now.Sub(c.fetchedAt) < c.interval {
		d, age := c.doc, now.Sub(c.fetchedAt)
		c.mu.Unlock()
		metrics.CacheHitsTotal.Inc()
		logger.L().Debug("ranges_cache_hit", "age_ms", age.Milliseconds())
		return d, nil
	}
	c.mu.Unlock()
	metrics.CacheMissesTotal.Inc()

	d, err := c.fetch(ctx)
	if err != nil {
		return Document{}, err
	}
	c.mu.Lock()
	c.doc = d
	c.has = true
	c.fetchedAt = now
	c.mu.Unlock()
	return d, nil
}

func (c *Cache) fetch(ctx context.Context) (Document, error) {
	if c.sf == nil {
		return c.fetcher.Fetch(ctx)
	}
	v, err, shared := c.sf.Do("document", func() (interface{}, error) {
		return c.fetcher.Fetch(context.WithoutCancel(ctx))
	})
	if shared {
		logger.L().Debug("ranges_fetch_shared")
	}
	if err != nil {
		return Document{}, err
	}
	return v.(Document), nil
}

// State：缓存状态快照，供健康检查展示
type State struct {
	Cached    bool      `json:"cached"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	Entries   int       `json:"entries"`
	SyncToken string    `json:"sync_token,omitempty"`
}

func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.has {
		return State{}
	}
	return State{Cached: true, FetchedAt: c.fetchedAt, Entries: len(c.doc.Prefixes), SyncToken: c.doc.SyncToken}
}
