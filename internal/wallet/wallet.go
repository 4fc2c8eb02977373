// Package wallet 把"钱包/签名方"抽象为一个不透明能力：核心只依赖
// "对个人消息签名"与"地址"两件事，不关心密钥的来源与保管方式。
package wallet

import (
	"crypto/rand"
	"encoding/base64"

	"gitee.com/czyczk/medivault-sdk/pkg/sm2keyutils"
	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"
)

// Signer 为钱包签名能力的接口。实现方须保证 `Address` 与
// `SignPersonalMessage` 使用同一把密钥。
type Signer interface {
	// Address 返回该钱包的主体地址（序列化公钥的 Base64 编码）。
	Address() string
	// AddressBytes 返回地址的原始字节，作为身份标识的属主前缀。
	AddressBytes() []byte
	// SignPersonalMessage 对一条规范化个人消息签名。
	SignPersonalMessage(message []byte) ([]byte, error)
}

// SM2Signer 为基于 SM2 密钥的 `Signer` 实现。
type SM2Signer struct {
	privateKey *sm2.PrivateKey
}

// NewSM2Signer 用一把 SM2 私钥构造签名器。
func NewSM2Signer(privateKey *sm2.PrivateKey) *SM2Signer {
	return &SM2Signer{privateKey: privateKey}
}

// Address 返回序列化公钥（64 字节）的 Base64 编码。
func (s *SM2Signer) Address() string {
	return base64.StdEncoding.EncodeToString(s.AddressBytes())
}

// AddressBytes 返回序列化公钥的原始字节。
func (s *SM2Signer) AddressBytes() []byte {
	return sm2keyutils.SerializePublicKey(&s.privateKey.PublicKey)
}

// SignPersonalMessage 对消息做 SM2 签名。
func (s *SM2Signer) SignPersonalMessage(message []byte) ([]byte, error) {
	signature, err := s.privateKey.Sign(rand.Reader, message, nil)
	if err != nil {
		return nil, errors.Wrap(err, "无法对个人消息签名")
	}

	return signature, nil
}

// VerifyPersonalMessage 校验某地址对消息的签名。托管方据此确认会话凭证
// 确由其声称的主体签发。
func VerifyPersonalMessage(subjectAddress string, message []byte, signature []byte) (bool, error) {
	addressBytes, err := base64.StdEncoding.DecodeString(subjectAddress)
	if err != nil {
		return false, errors.Wrap(err, "主体地址不是合法的 Base64 字符串")
	}

	publicKey, err := sm2keyutils.DeserializePublicKey(addressBytes)
	if err != nil {
		return false, errors.Wrap(err, "主体地址不是合法的序列化公钥")
	}

	return publicKey.Verify(message, signature), nil
}
