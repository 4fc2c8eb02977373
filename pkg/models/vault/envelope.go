package vault

import (
	"encoding/base64"
	"encoding/json"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"github.com/pkg/errors"
)

// EnvelopeVersion 为当前信封格式的版本号。解析时不接受其他版本。
const EnvelopeVersion = 1

const (
	// IdentityNonceLength 为身份标识中随机 nonce 部分的字节长度
	IdentityNonceLength = 16
	// C1Length 为 KEM 密文点（G2 压缩格式）的字节长度
	C1Length = 96
	// WrappedKeyLength 为包裹后的数据加密密钥的字节长度
	WrappedKeyLength = 32
	// GCMNonceLength 为 AES-GCM nonce 的字节长度
	GCMNonceLength = 12
	// ShareLength 为单个密钥份额（G1 压缩格式）的字节长度
	ShareLength = 48
)

// ServiceRef 标识一个密钥份额托管方
type ServiceRef struct {
	ID       string `json:"id"`       // 托管方 ID
	Endpoint string `json:"endpoint"` // 托管方服务地址
}

// Envelope 为存入块存储网络的密文信封。所有字节字段均以 Base64 编码。
//
// 身份标识与门限在加密时即固定在信封内，解密方只从信封中解析它们，
// 不做任何猜测或重新推导。
type Envelope struct {
	Version      int          `json:"version"`      // 信封格式版本
	Identity     string       `json:"identity"`     // 身份标识（属主地址字节 ++ 随机 nonce）（Base64 编码）
	TrustRootRef string       `json:"trustRootRef"` // 策略链码（trust root）引用
	Threshold    int          `json:"threshold"`    // 解密门限
	Custodians   []ServiceRef `json:"custodians"`   // 密钥份额托管方集合
	C1           string       `json:"c1"`           // KEM 密文点（G2 压缩格式）（Base64 编码）
	WrappedKey   string       `json:"wrappedKey"`   // 包裹后的数据加密密钥（Base64 编码）
	Nonce        string       `json:"nonce"`        // AES-GCM nonce（Base64 编码）
	Ciphertext   string       `json:"ciphertext"`   // 密文本体（Base64 编码）
}

// ParseEnvelope 从字节切片中解析出一个 `Envelope` 对象并检查其自洽性。
// 解析失败或检查未通过时返回 `errorcode.ErrorEnvelopeCorrupt`，
// 调用方不应在此之后发起任何网络调用。
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errorcode.ErrorEnvelopeCorrupt
	}

	if err := envelope.Validate(); err != nil {
		return nil, err
	}

	return &envelope, nil
}

// Validate 检查信封的自洽性：版本、门限与托管方数量的关系以及各字段长度。
func (e *Envelope) Validate() error {
	if e.Version != EnvelopeVersion {
		return errorcode.ErrorEnvelopeCorrupt
	}

	if e.Threshold < 1 || e.Threshold > len(e.Custodians) {
		return errorcode.ErrorEnvelopeCorrupt
	}

	identity, err := base64.StdEncoding.DecodeString(e.Identity)
	if err != nil || len(identity) <= IdentityNonceLength {
		return errorcode.ErrorEnvelopeCorrupt
	}

	c1, err := base64.StdEncoding.DecodeString(e.C1)
	if err != nil || len(c1) != C1Length {
		return errorcode.ErrorEnvelopeCorrupt
	}

	wrappedKey, err := base64.StdEncoding.DecodeString(e.WrappedKey)
	if err != nil || len(wrappedKey) != WrappedKeyLength {
		return errorcode.ErrorEnvelopeCorrupt
	}

	nonce, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil || len(nonce) != GCMNonceLength {
		return errorcode.ErrorEnvelopeCorrupt
	}

	if _, err := base64.StdEncoding.DecodeString(e.Ciphertext); err != nil {
		return errorcode.ErrorEnvelopeCorrupt
	}

	return nil
}

// Serialize 将信封序列化为 JSON 字节切片。
func (e *Envelope) Serialize() ([]byte, error) {
	envelopeBytes, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化信封")
	}

	return envelopeBytes, nil
}

// IdentityBytes 解码信封中的身份标识。
func (e *Envelope) IdentityBytes() ([]byte, error) {
	identity, err := base64.StdEncoding.DecodeString(e.Identity)
	if err != nil {
		return nil, errorcode.ErrorEnvelopeCorrupt
	}

	return identity, nil
}
