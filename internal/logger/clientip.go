package logger

import (
	"net"
	"net/http"
	"strings"
)

// 常见反向代理头，按优先级排列
var forwardHeaders = []string{
	"x-forwarded-for",
	"cf-connecting-ip",
	"x-real-ip",
	"x-client-ip",
}

// ClientIP：获取访问者 IP（仅用于日志）
// 约束：依赖代理头顺序，头部可伪造；最后回退到 RemoteAddr 的主机部分
func ClientIP(r *http.Request) string {
	h := r.Header
	for _, k := range forwardHeaders {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(strings.Split(x, ",")[0])
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := x[i+4:]
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\" ")
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
