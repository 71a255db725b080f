package ranges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"iprange-filter/internal/logger"
	"iprange-filter/internal/metrics"
)

const (
	// DocumentPath：上游文档的固定相对路径
	DocumentPath = "/ipranges/cloud.json"
	// DefaultTimeout：上游响应超时，超时按连接失败处理
	DefaultTimeout = 5 * time.Second

	maxDocumentBytes = 32 << 20
)

// Fetcher：获取并解析上游文档
type Fetcher interface {
	Fetch(ctx context.Context) (Document, error)
}

// Gateway：基于 net/http 的获取网关
// 背景：每次调用发起一次 GET，不做重试；失败统一转换为 *FetchError 以便上层选择提示文案
type Gateway struct {
	baseURL string
	client  *http.Client
}

func NewGateway(baseURL string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewGatewayWithClient(baseURL, &http.Client{Timeout: timeout})
}

// NewGatewayWithClient：注入自定义 http.Client（测试或自定义传输层）
func NewGatewayWithClient(baseURL string, client *http.Client) *Gateway {
	return &Gateway{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// URL：完整的上游地址
func (g *Gateway) URL() string { return g.baseURL + DocumentPath }

func (g *Gateway) Fetch(ctx context.Context) (Document, error) {
	t0 := time.Now()
	doc, err := g.fetch(ctx)
	metrics.UpstreamDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		kind := KindOf(err)
		metrics.UpstreamFetchTotal.WithLabelValues(kind.String()).Inc()
		logger.L().Error("ranges_fetch_error", "url", g.URL(), "kind", kind.String(), "err", err)
		return Document{}, err
	}
	metrics.UpstreamFetchTotal.WithLabelValues("ok").Inc()
	logger.L().Info("ranges_fetch_ok",
		"url", g.URL(),
		"entries", len(doc.Prefixes),
		"sync_token", doc.SyncToken,
		"creation_time", doc.CreationTime,
		"duration_ms", time.Since(t0).Milliseconds(),
	)
	return doc, nil
}

func (g *Gateway) fetch(ctx context.Context) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL(), nil)
	if err != nil {
		return Document{}, otherError(err)
	}
	req.Header.Set("accept", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return Document{}, connectionError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Document{}, otherError(fmt.Errorf("%s from GET %s", resp.Status, g.URL()))
	}
	return Decode(io.LimitReader(resp.Body, maxDocumentBytes))
}

// Decode：解析上游文档并对失败分类
// 约束：空体与结构不兼容归为 KindMalformed；非 JSON 归为 KindOther；读超时归为 KindConnection
func Decode(r io.Reader) (Document, error) {
	var raw struct {
		SyncToken    string         `json:"syncToken"`
		CreationTime string         `json:"creationTime"`
		Prefixes     *[]PrefixEntry `json:"prefixes"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, classifyDecodeError(err)
	}
	if raw.Prefixes == nil {
		return Document{}, malformedError(ErrMissingPrefixes)
	}
	return Document{
		Prefixes:     *raw.Prefixes,
		SyncToken:    raw.SyncToken,
		CreationTime: raw.CreationTime,
	}, nil
}

func classifyDecodeError(err error) *FetchError {
	if errors.Is(err, io.EOF) {
		return malformedError(ErrEmptyBody)
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return malformedError(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return connectionError(err)
	}
	return otherError(err)
}
