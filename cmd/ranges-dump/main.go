package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"iprange-filter/internal/api"
	"iprange-filter/internal/config"
	"iprange-filter/internal/filter"
	"iprange-filter/internal/logger"
	"iprange-filter/internal/ranges"
	"iprange-filter/internal/region"
)

// 文档注释：一次性拉取并过滤 IP 段，结果逐行输出到标准输出
// 背景：用于排查线上返回或导出防火墙白名单；与服务共用网关与过滤逻辑，不经过缓存
// 约束：参数非法退出码 2；上游失败时在标准错误输出对应提示文案并以 1 退出
func main() {
	config.Load()
	l := logger.Setup()
	cfg := config.FromEnv()

	regionName := flag.String("region", "all", "region code: eu, us, me, na, sa, as, af, aus, gl, all")
	ipType := flag.String("type", "all", "ip version: all, ipv4, ipv6")
	baseURL := flag.String("base-url", cfg.CloudBaseURL, "provider base url")
	timeout := flag.Duration("timeout", cfg.CloudTimeout, "upstream timeout")
	flag.Parse()

	reg, ok := region.Resolve(*regionName)
	if !ok {
		fmt.Fprintln(os.Stderr, "Invalid region: "+*regionName)
		os.Exit(2)
	}
	v, ok := filter.ParseVersion(*ipType)
	if !ok {
		fmt.Fprintln(os.Stderr, "Invalid IP type: "+*ipType)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()
	doc, err := ranges.NewGateway(*baseURL, *timeout).Fetch(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, api.FailureMessage(err))
		os.Exit(1)
	}
	out := filter.Project(doc, reg, v)
	for _, p := range out {
		fmt.Println(p)
	}
	l.Info("ranges_dump_done", "region", reg.Code, "ip_type", v, "count", len(out), "sync_token", doc.SyncToken)
}
