// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iprange-filter/internal/api"
	"iprange-filter/internal/config"
	"iprange-filter/internal/logger"
	"iprange-filter/internal/metrics"
	"iprange-filter/internal/middleware"
	"iprange-filter/internal/migrate"
	"iprange-filter/internal/ranges"
	"iprange-filter/internal/store"
	"iprange-filter/internal/utils"

	"github.com/redis/go-redis/v9"
)

func main() {
	config.Load()
	l := logger.Setup()
	cfg := config.FromEnv()
	l.Debug("config_loaded",
		"addr", cfg.Addr,
		"api_base", cfg.APIBase,
		"cloud_base_url", cfg.CloudBaseURL,
		"refresh", cfg.RefreshInterval,
		"single_flight", cfg.SingleFlight,
	)

	// 统计库可选：打开或建表失败时降级为不统计
	var st *store.Store
	if cfg.StatsEnabled {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
		} else if err := utils.PingPostgres(context.Background(), db, 3*time.Second); err != nil {
			l.Error("db_ping_error", "err", err)
			_ = db.Close()
		} else if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			_ = db.Close()
		} else {
			st = store.AttachDB(db)
			defer st.Close()
			l.Info("db_open_ok")
		}
	} else {
		l.Info("stats_disabled")
	}

	var rc *redis.Client
	if cfg.RedisEnabled {
		rc = utils.OpenRedisFromEnv()
		if err := utils.PingRedis(context.Background(), rc, 2*time.Second); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
	} else {
		l.Info("redis_disabled")
	}

	opts := []ranges.Option{ranges.WithRefreshInterval(cfg.RefreshInterval)}
	if cfg.SingleFlight {
		opts = append(opts, ranges.WithSingleFlight())
	}
	gw := ranges.NewGateway(cfg.CloudBaseURL, cfg.CloudTimeout)
	cache := ranges.NewCache(gw, opts...)
	l.Info("ranges_gateway_ready", "url", gw.URL(), "timeout", cfg.CloudTimeout)

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(api.Deps{Resolver: api.NewResolver(cache), Store: st, Redis: rc})
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	var limiter middleware.Limiter
	if cfg.RateLimitEnabled {
		if rc != nil {
			limiter = middleware.NewRedisWindow(rc, "iprange:ratelimit:", cfg.RateLimitQPS)
		} else {
			limiter = middleware.NewTokenBucket(cfg.RateLimitQPS)
		}
		l.Info("ratelimit_enabled", "limiter", limiter.Name(), "qps", cfg.RateLimitQPS)
	}
	handler := logger.AccessMiddleware(l)(middleware.Wrap(mux, limiter))
	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.TLSEnable {
			if e := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "iprange.local"); e != nil {
				l.Error("tls_cert_error", "err", e)
				os.Exit(1)
			}
			l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
			err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			l.Info("listening", "addr", cfg.Addr)
			err = s.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("listen_error", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	l.Info("shutdown_begin")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		l.Error("shutdown_error", "err", err)
	}
	l.Info("shutdown_done")
}
