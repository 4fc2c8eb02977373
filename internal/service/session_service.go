package service

import (
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/session"
)

// SessionService 实现了 `SessionServiceInterface` 接口，提供会话凭证的签发服务
type SessionService struct {
	ServiceInfo *Info
}

// 签发并签名一个会话凭证。
//
// 参数：
//   有效期
//
// 返回：
//   已签名的会话凭证
func (s *SessionService) CreateCredential(ttl time.Duration) (*session.Credential, error) {
	// 有效期超出上限时直接拒绝，不做静默截断
	if ttl <= 0 || ttl > session.MaxTTL {
		return nil, errorcode.ErrorInvalidTTL
	}

	credential := &session.Credential{
		SubjectAddress: s.ServiceInfo.Signer.Address(),
		TrustRootRef:   s.ServiceInfo.TrustRootRef,
		IssuedAt:       time.Now().UTC(),
		TTL:            ttl,
	}

	signature, err := s.ServiceInfo.Signer.SignPersonalMessage(credential.CanonicalMessage())
	if err != nil {
		return nil, errors.Wrap(err, "无法签名会话凭证")
	}

	credential.Signature = base64.StdEncoding.EncodeToString(signature)
	return credential, nil
}
