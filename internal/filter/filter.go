// 包 filter：按地域与 IP 版本对上游文档做投影
package filter

import (
	"strings"

	"iprange-filter/internal/ranges"
	"iprange-filter/internal/region"
)

// Version：IP 版本选择器
type Version string

const (
	VersionAll  Version = "all"
	VersionIPv4 Version = "ipv4"
	VersionIPv6 Version = "ipv6"
)

// ParseVersion：大小写不敏感地解析版本名，仅接受 all / ipv4 / ipv6
func ParseVersion(name string) (Version, bool) {
	switch v := Version(strings.ToLower(name)); v {
	case VersionAll, VersionIPv4, VersionIPv6:
		return v, true
	}
	return "", false
}

// accepts：版本闸门
func (v Version) accepts(e ranges.PrefixEntry) bool {
	switch v {
	case VersionAll:
		return true
	case VersionIPv4:
		return e.HasIPv4()
	case VersionIPv6:
		return e.HasIPv6()
	}
	return false
}

// Project：逐条判定并按文档顺序输出匹配的前缀
// 约束：无效记录静默丢弃；不去重、不排序；同时携带两个前缀的记录只输出 IPv4
func Project(doc ranges.Document, r region.Region, v Version) []string {
	out := make([]string, 0)
	for _, e := range doc.Prefixes {
		if !e.Valid() {
			continue
		}
		if !r.Matches(*e.Scope) || !v.accepts(e) {
			continue
		}
		p, _ := e.Prefix()
		out = append(out, p)
	}
	return out
}

// Join：以换行拼接；空集合得到空串（成功结果，不是错误）
func Join(prefixes []string) string { return strings.Join(prefixes, "\n") }
