// 包 api：集中注册 HTTP API 路由，主入口只负责挂载
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"iprange-filter/internal/filter"
	"iprange-filter/internal/logger"
	"iprange-filter/internal/metrics"
	"iprange-filter/internal/region"
	"iprange-filter/internal/store"
	"iprange-filter/internal/utils"

	"github.com/redis/go-redis/v9"
)

// Deps：路由依赖；Store 与 Redis 可为 nil（未启用）
type Deps struct {
	Resolver *Resolver
	Store    *store.Store
	Redis    *redis.Client
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parseQuery：参数校验（核心不参与）
// 约束：region 缺省为 all，显式给出空值视为非法；ipType 缺省或空值为 all，大小写不敏感
func parseQuery(r *http.Request) (region.Region, filter.Version, string) {
	q := r.URL.Query()
	name := "all"
	if q.Has("region") {
		name = q.Get("region")
	}
	reg, ok := region.Resolve(name)
	if !ok {
		metrics.ValidationErrorsTotal.WithLabelValues("region").Inc()
		return region.Region{}, "", "Invalid region: " + name
	}
	ipType := q.Get("ipType")
	if ipType == "" {
		ipType = "all"
	}
	v, ok := filter.ParseVersion(ipType)
	if !ok {
		metrics.ValidationErrorsTotal.WithLabelValues("ipType").Inc()
		return region.Region{}, "", "Invalid IP type: " + ipType
	}
	return reg, v, ""
}

// BuildRoutes：构建 API 路由，独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/ip-ranges", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("allow", "GET, HEAD")
			writeText(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		reg, v, msg := parseQuery(r)
		if msg != "" {
			logger.L().Debug("ip_ranges_invalid", "msg", msg)
			writeText(w, http.StatusBadRequest, msg)
			return
		}
		body, err := d.Resolver.ResolveText(r.Context(), reg, v)
		if d.Store != nil {
			if e := d.Store.IncrStats(r.Context(), reg.Code, string(v), err != nil); e != nil {
				logger.L().Debug("stats_incr_error", "err", e)
			}
		}
		writeText(w, http.StatusOK, body)
	})

	apiMux.HandleFunc("/regions", func(w http.ResponseWriter, r *http.Request) {
		type item struct {
			Code   string   `json:"code"`
			Scopes []string `json:"scopes"`
		}
		var out []item
		for _, reg := range region.All() {
			out = append(out, item{Code: reg.Code, Scopes: reg.Scopes})
		}
		writeJSON(w, http.StatusOK, out)
	})

	apiMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		res := map[string]any{"status": "ok", "cache": d.Resolver.State()}
		switch {
		case d.Redis == nil:
			res["redis"] = "disabled"
		case utils.PingRedis(r.Context(), d.Redis, time.Second) != nil:
			res["redis"] = "error"
		default:
			res["redis"] = "ok"
		}
		writeJSON(w, http.StatusOK, res)
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if d.Store == nil {
			writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		t, err := d.Store.GetTotals(ctx)
		if err != nil {
			logger.L().Error("stats_read_error", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"enabled": true, "error": "stats unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"enabled": true, "total": t.Total, "failed": t.Failed, "today": t.Today, "by_query": t.ByQuery})
	})

	return apiMux
}
