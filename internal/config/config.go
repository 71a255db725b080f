// 包 config：集中读取环境变量配置；.env 文件由 Load 通过 godotenv 预先载入
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAddr    = ":8080"
	DefaultAPIBase = "/api"
	DefaultBaseURL = "https://www.gstatic.com"
)

// Config：服务运行配置
type Config struct {
	Addr    string
	APIBase string

	CloudBaseURL    string
	CloudTimeout    time.Duration
	RefreshInterval time.Duration
	SingleFlight    bool

	StatsEnabled bool
	RedisEnabled bool

	RateLimitEnabled bool
	RateLimitQPS     int

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// Load：载入 .env 与 data/env/.env（不存在时忽略），不覆盖已存在的环境变量
func Load() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// FromEnv：从环境变量构建配置，缺省值内联
func FromEnv() Config {
	return Config{
		Addr:             str("ADDR", DefaultAddr),
		APIBase:          apiBase(str("API_BASE", DefaultAPIBase)),
		CloudBaseURL:     str("CLOUD_BASE_URL", DefaultBaseURL),
		CloudTimeout:     seconds("CLOUD_TIMEOUT_SECONDS", 5*time.Second),
		RefreshInterval:  seconds("RANGES_REFRESH_SECONDS", time.Hour),
		SingleFlight:     flag("RANGES_SINGLE_FLIGHT", false),
		StatsEnabled:     flag("STATS_ENABLED", false),
		RedisEnabled:     flag("REDIS_ENABLED", false),
		RateLimitEnabled: flag("RATE_LIMIT_ENABLED", false),
		RateLimitQPS:     positiveInt("RATE_LIMIT_QPS", 200),
		TLSEnable:        flag("TLS_ENABLE", false),
		TLSCertPath:      str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:       str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
	}
}

// apiBase：规范化为 "/xxx" 形式；"/" 表示挂载在根路径，返回空串
func apiBase(s string) string {
	s = strings.Trim(s, "/")
	if s == "" {
		return ""
	}
	return "/" + s
}

func str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func flag(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func positiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func seconds(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
