// 包 region：静态地域目录，维护地域代码到作用域匹配词的映射
package region

import "strings"

// Region：地域代码及其作用域匹配词（小写子串）
// 约束：进程启动时定义且不可变；除 ALL 外每个地域至少有一个非空匹配词；ALL 的匹配词从不参与判定
type Region struct {
	Code   string
	Scopes []string
}

var (
	EU  = Region{Code: "EU", Scopes: []string{"europe"}}
	US  = Region{Code: "US", Scopes: []string{"us-central", "us-east", "us-west", "us"}}
	ME  = Region{Code: "ME", Scopes: []string{"me-"}}
	NA  = Region{Code: "NA", Scopes: []string{"northamerica"}}
	SA  = Region{Code: "SA", Scopes: []string{"southamerica"}}
	AS  = Region{Code: "AS", Scopes: []string{"asia"}}
	AF  = Region{Code: "AF", Scopes: []string{"africa"}}
	AUS = Region{Code: "AUS", Scopes: []string{"australia"}}
	GL  = Region{Code: "GL", Scopes: []string{"global"}}
	ALL = Region{Code: "ALL", Scopes: []string{"all"}}
)

var catalog = []Region{EU, US, ME, NA, SA, AS, AF, AUS, GL, ALL}

// Resolve：按名称查找地域（大小写不敏感，精确匹配代码）
// 未知名称或空串返回 false，由调用方转换为校验错误
func Resolve(name string) (Region, bool) {
	for _, r := range catalog {
		if strings.EqualFold(r.Code, name) {
			return r, true
		}
	}
	return Region{}, false
}

// All：返回目录中的全部地域（按定义顺序的副本）
func All() []Region {
	out := make([]Region, len(catalog))
	copy(out, catalog)
	return out
}

// IsAll：是否为通配地域
func (r Region) IsAll() bool { return r.Code == ALL.Code }

// Matches：判断作用域是否属于该地域
// 约束：ALL 无条件命中；其余地域对小写后的作用域做纯子串包含判定，任一匹配词命中即可
func (r Region) Matches(scope string) bool {
	if r.IsAll() {
		return true
	}
	s := strings.ToLower(scope)
	for _, tok := range r.Scopes {
		if tok != "" && strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func (r Region) String() string { return r.Code }
