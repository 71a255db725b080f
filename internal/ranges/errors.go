package ranges

import (
	"errors"
	"fmt"
	"net/url"
)

// Kind：上游失败分类，按错误类型结构化判定而非字符串匹配
type Kind int

const (
	KindOther Kind = iota
	KindConnection
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindMalformed:
		return "malformed"
	default:
		return "other"
	}
}

// FetchError：获取网关返回的分类错误
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch ranges (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Cause：面向用户的底层原因文本
// 约束：传输层错误去掉 *url.Error 的 "Get \"...\":" 包装，只保留真实原因
func (e *FetchError) Cause() string {
	if e.Err == nil {
		return ""
	}
	var ue *url.Error
	if errors.As(e.Err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return e.Err.Error()
}

// ErrMissingPrefixes：文档为合法 JSON 但缺少 prefixes 数组
var ErrMissingPrefixes = errors.New("response has no prefixes array")

// ErrEmptyBody：上游返回空响应体
var ErrEmptyBody = errors.New("empty response body")

// KindOf：取错误分类；非 FetchError 一律归为 KindOther
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindOther
}

func connectionError(err error) *FetchError { return &FetchError{Kind: KindConnection, Err: err} }
func malformedError(err error) *FetchError  { return &FetchError{Kind: KindMalformed, Err: err} }
func otherError(err error) *FetchError      { return &FetchError{Kind: KindOther, Err: err} }
