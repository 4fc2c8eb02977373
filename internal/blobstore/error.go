package blobstore

import (
	"context"
	"fmt"
	"net"
	"strings"
	"syscall"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"
)

// Kind 用于标志一个存储层错误的类别。分类发生在本适配层内部，
// 上层只对类别做 match，不做任何错误信息字符串匹配。
type Kind int

const (
	// KindTransient 表示预期内的暂时性失败（尚未被索引、连接被拒、超时、
	// 个别节点的 TLS 问题等），应换一个端点重试。
	KindTransient Kind = iota
	// KindUnexpected 表示预期外的失败，应向上抛出并单独记录日志，不静默重试。
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "Transient"
	case KindUnexpected:
		return "Unexpected"
	default:
		return fmt.Sprintf("%d", int(k))
	}
}

// Error 为存储适配层返回的带类别错误。
type Error struct {
	Kind     Kind   // 错误类别
	Op       string // 失败的操作（"get" / "put" / "pin"）
	Endpoint string // 失败的端点
	Err      error  // 底层错误
}

func (e *Error) Error() string {
	return fmt.Sprintf("存储操作 %v 在端点 %v 上失败（%v）：%v", e.Op, e.Endpoint, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient 返回错误是否为暂时性存储错误。
func IsTransient(err error) bool {
	var storageErr *Error
	if errors.As(err, &storageErr) {
		return storageErr.Kind == KindTransient
	}
	return false
}

// classify 把底层错误翻译为带类别的存储错误。只有本适配层允许检视底层
// 错误的具体形态；离开本包的错误一律已带类别。
func classify(op string, endpoint string, err error) *Error {
	return &Error{
		Kind:     classifyKind(err),
		Op:       op,
		Endpoint: endpoint,
		Err:      err,
	}
}

func classifyKind(err error) Kind {
	// 超时与取消按未响应处理
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return KindTransient
	}

	// 节点 API 返回的"未找到"多半是内容尚未被该节点索引
	var apiErr *shell.Error
	if errors.As(err, &apiErr) {
		if strings.Contains(apiErr.Message, "not found") || strings.Contains(apiErr.Message, "no link") {
			return KindTransient
		}
		return KindUnexpected
	}

	// 个别节点的 TLS 握手问题
	if strings.Contains(err.Error(), "tls:") || strings.Contains(err.Error(), "x509:") {
		return KindTransient
	}

	return KindUnexpected
}
