package api

import (
	"context"
	"errors"
	"time"

	"iprange-filter/internal/filter"
	"iprange-filter/internal/logger"
	"iprange-filter/internal/metrics"
	"iprange-filter/internal/ranges"
	"iprange-filter/internal/region"
)

// 对外文案：上游失败时替代前缀列表返回
const (
	MsgConnectionError = "Connection error: "
	MsgMalformed       = "Malformed or empty response from GCP"
	MsgFetchFailed     = "Could not fetch IP ranges: "
)

// 文档注释：解析管线（缓存 → 过滤 → 拼接）
// 背景：调用方已完成参数校验；缓存由构造方注入，便于测试隔离
type Resolver struct {
	cache *ranges.Cache
	now   func() time.Time
}

func NewResolver(c *ranges.Cache) *Resolver {
	return &Resolver{cache: c, now: time.Now}
}

// WithClock：替换时间源（测试中推进时间）
func (rs *Resolver) WithClock(now func() time.Time) *Resolver {
	rs.now = now
	return rs
}

// State：缓存状态快照
func (rs *Resolver) State() ranges.State { return rs.cache.State() }

// Prefixes：返回匹配前缀或分类后的获取错误
func (rs *Resolver) Prefixes(ctx context.Context, r region.Region, v filter.Version) ([]string, error) {
	doc, err := rs.cache.Document(ctx, rs.now())
	if err != nil {
		return nil, err
	}
	return filter.Project(doc, r, v), nil
}

// Resolve：返回文本结果；失败时返回对应提示文案而非错误
// 约束：空结果为空串，属于成功；失败只影响本次请求，下一次请求重新判定缓存时效
func (rs *Resolver) Resolve(ctx context.Context, r region.Region, v filter.Version) string {
	body, _ := rs.ResolveText(ctx, r, v)
	return body
}

// ResolveText：与 Resolve 相同，另外返回获取错误供统计使用；body 始终可直接输出
func (rs *Resolver) ResolveText(ctx context.Context, r region.Region, v filter.Version) (string, error) {
	t0 := time.Now()
	metrics.RequestsTotal.WithLabelValues(r.Code, string(v)).Inc()
	defer func() {
		metrics.RequestDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	}()
	ps, err := rs.Prefixes(ctx, r, v)
	if err != nil {
		metrics.FailedResultsTotal.WithLabelValues(ranges.KindOf(err).String()).Inc()
		logger.L().Error("ranges_resolve_error", "region", r.Code, "ip_type", v, "err", err)
		return FailureMessage(err), err
	}
	if len(ps) == 0 {
		metrics.EmptyResultsTotal.Inc()
	}
	logger.L().Debug("ranges_resolved", "region", r.Code, "ip_type", v, "count", len(ps))
	return filter.Join(ps), nil
}

// FailureMessage：按失败分类选择对外文案
func FailureMessage(err error) string {
	var fe *ranges.FetchError
	if !errors.As(err, &fe) {
		return MsgFetchFailed + err.Error()
	}
	switch fe.Kind {
	case ranges.KindConnection:
		return MsgConnectionError + fe.Cause()
	case ranges.KindMalformed:
		return MsgMalformed
	default:
		return MsgFetchFailed + fe.Cause()
	}
}
