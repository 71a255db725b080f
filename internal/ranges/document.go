// 包 ranges：云厂商公开 IP 段文档的模型、上游获取网关与进程内时效缓存
package ranges

// PrefixEntry：上游文档中的单条记录
// 背景：上游为松散的字符串键值对象，这里建模为可选字段的类型化记录；未知字段（如 service）忽略
// 约束：缺少 scope 或两个前缀都缺失的记录视为无效，过滤时静默丢弃
type PrefixEntry struct {
	Scope      *string `json:"scope,omitempty"`
	IPv4Prefix *string `json:"ipv4Prefix,omitempty"`
	IPv6Prefix *string `json:"ipv6Prefix,omitempty"`
}

// Document：上游返回的有序记录序列；收到后不再修改
// SyncToken/CreationTime 仅用于日志，不参与过滤
type Document struct {
	Prefixes     []PrefixEntry
	SyncToken    string
	CreationTime string
}

func (e PrefixEntry) HasIPv4() bool { return e.IPv4Prefix != nil }
func (e PrefixEntry) HasIPv6() bool { return e.IPv6Prefix != nil }

// Valid：是否同时具备 scope 与至少一个前缀
func (e PrefixEntry) Valid() bool {
	return e.Scope != nil && (e.HasIPv4() || e.HasIPv6())
}

// Prefix：输出值，IPv4 优先，其次 IPv6
func (e PrefixEntry) Prefix() (string, bool) {
	if e.IPv4Prefix != nil {
		return *e.IPv4Prefix, true
	}
	if e.IPv6Prefix != nil {
		return *e.IPv6Prefix, true
	}
	return "", false
}

// V4 / V6：构造单前缀记录，便于工具与测试拼装文档
func V4(scope, prefix string) PrefixEntry {
	return PrefixEntry{Scope: &scope, IPv4Prefix: &prefix}
}

func V6(scope, prefix string) PrefixEntry {
	return PrefixEntry{Scope: &scope, IPv6Prefix: &prefix}
}
