package session

import (
	"fmt"
	"time"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
)

// MaxTTL 为会话凭证有效期的上限。超过上限的创建请求应被直接拒绝而非截断。
const MaxTTL = 30 * time.Minute

// personalMessagePrefix 为钱包签名个人消息时使用的固定前缀，用于区分
// 会话凭证签名与其他用途的签名。
const personalMessagePrefix = "medivault-session-v1"

// Credential 为短时会话凭证，将请求者地址绑定到加密方案的 trust root。
// 创建时无签名；经请求者钱包对规范化消息签名后方可使用。
// 凭证只在内存中随一次逻辑会话存活，不持久化，不跨主体复用。
type Credential struct {
	SubjectAddress string        `json:"subjectAddress"`      // 请求者地址（SM2 公钥序列化后的 Base64 编码）
	TrustRootRef   string        `json:"trustRootRef"`        // 策略链码（trust root）引用
	IssuedAt       time.Time     `json:"issuedAt"`            // 签发时间
	TTL            time.Duration `json:"ttl"`                 // 有效期，不超过 `MaxTTL`
	Signature      string        `json:"signature,omitempty"` // 钱包签名（Base64 编码）。为空时凭证不可用。
}

// CanonicalMessage 组装凭证的规范化个人消息。托管方重放校验签名时
// 必须重建出逐字节相同的消息，因此这里的格式一经发布不可变动。
func (c *Credential) CanonicalMessage() []byte {
	message := fmt.Sprintf(
		"%v\n%v\n%v\n%v\n%v",
		personalMessagePrefix,
		c.SubjectAddress,
		c.TrustRootRef,
		c.IssuedAt.UTC().Format(time.RFC3339),
		c.TTL.String(),
	)

	return []byte(message)
}

// IsSigned 返回凭证是否已附有签名。
func (c *Credential) IsSigned() bool {
	return c.Signature != ""
}

// ExpiresAt 返回凭证的过期时间。
func (c *Credential) ExpiresAt() time.Time {
	return c.IssuedAt.Add(c.TTL)
}

// Validate 检查凭证在 `now` 时刻是否可用。未签名的凭证返回
// `errorcode.ErrorUnsignedCredential`，已过期的返回 `errorcode.ErrorCredentialExpired`。
// 所有下游调用在使用凭证前都必须先通过此检查，不得静默继续。
func (c *Credential) Validate(now time.Time) error {
	if !c.IsSigned() {
		return errorcode.ErrorUnsignedCredential
	}

	if now.After(c.ExpiresAt()) {
		return errorcode.ErrorCredentialExpired
	}

	return nil
}
