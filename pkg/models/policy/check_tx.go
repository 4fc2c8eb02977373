package policy

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// ProtocolTag 为策略检查交易的协议版本标签。托管方只重放带有已知标签的交易。
const ProtocolTag = "medivault-policy-v1"

// CheckFcn 为策略链码中负责授权判定的函数名。
const CheckFcn = "checkPolicy"

// CheckTx 为未签名的策略检查交易（只含 transaction kind，无发送者签名材料）。
// 托管方收到后对当前链上状态重放该调用：判定"若这笔交易真实签名提交，
// 它是否会成功"。托管方只重放逻辑，不产生状态变更。
//
// 字段顺序即序列化顺序。同一信封与同一主体构造出的交易字节是确定性的，
// 因此整个"构造交易 → 获取份额 → 解密"阶段可以安全地整体重试。
type CheckTx struct {
	Tag         string `json:"tag"`         // 协议版本标签
	ChaincodeID string `json:"chaincodeId"` // 策略链码（trust root）引用
	Fcn         string `json:"fcn"`         // 链码函数名
	Identity    string `json:"identity"`    // 身份标识（Base64 编码）
	Subject     string `json:"subject"`     // 请求主体地址（Base64 编码）
}

// NewCheckTx 从身份标识与请求主体构造一笔策略检查交易。
func NewCheckTx(chaincodeID string, identity []byte, subjectAddress string) *CheckTx {
	return &CheckTx{
		Tag:         ProtocolTag,
		ChaincodeID: chaincodeID,
		Fcn:         CheckFcn,
		Identity:    base64.StdEncoding.EncodeToString(identity),
		Subject:     subjectAddress,
	}
}

// Serialize 将交易序列化为确定性的 JSON 字节切片。
func (tx *CheckTx) Serialize() ([]byte, error) {
	txBytes, err := json.Marshal(tx)
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化策略检查交易")
	}

	return txBytes, nil
}

// ParseCheckTx 从字节切片中解析出一笔策略检查交易并校验协议标签。
func ParseCheckTx(raw []byte) (*CheckTx, error) {
	var tx CheckTx
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, errors.Wrap(err, "无法解析策略检查交易")
	}

	if tx.Tag != ProtocolTag {
		return nil, errors.Errorf("未知的策略协议标签 '%v'", tx.Tag)
	}

	return &tx, nil
}

// IdentityBytes 解码交易中的身份标识。
func (tx *CheckTx) IdentityBytes() ([]byte, error) {
	identity, err := base64.StdEncoding.DecodeString(tx.Identity)
	if err != nil {
		return nil, errors.Wrap(err, "策略检查交易中的身份标识不合法")
	}

	return identity, nil
}
