package service

import (
	"time"

	"gitee.com/czyczk/medivault-sdk/pkg/models/session"
)

// SessionServiceInterface 定义了有关于会话凭证的服务的接口
type SessionServiceInterface interface {
	// 签发并签名一个会话凭证。
	//
	// 参数：
	//   有效期
	//
	// 返回：
	//   已签名的会话凭证
	CreateCredential(ttl time.Duration) (*session.Credential, error)
}
