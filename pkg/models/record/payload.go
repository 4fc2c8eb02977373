package record

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// PayloadVersion 为当前明文负载格式的版本号。
const PayloadVersion = 1

// Kind 用于标志一条记录的负载类别
type Kind string

const (
	// KindProfile 表示个人资料类记录。
	KindProfile Kind = "profile"
	// KindDiagnosis 表示诊断记录。
	KindDiagnosis Kind = "diagnosis"
	// KindPrescription 表示处方记录。
	KindPrescription Kind = "prescription"
	// KindDocument 表示未分类的文档记录。
	KindDocument Kind = "document"
)

// IsValid 返回该负载类别是否为已知类别。
func (k Kind) IsValid() bool {
	switch k {
	case KindProfile, KindDiagnosis, KindPrescription, KindDocument:
		return true
	default:
		return false
	}
}

// Payload 为加密引擎所加密的明文负载的稳定契约：带版本号的 tagged union，
// 与任何上层表单字段无关。`Body` 的内部结构由 `Kind` 决定，本包不约束。
type Payload struct {
	Version int             `json:"version"` // 负载格式版本
	Kind    Kind            `json:"kind"`    // 负载类别
	Body    json.RawMessage `json:"body"`    // 负载本体
}

// NewPayload 组装一个当前版本的负载对象。
func NewPayload(kind Kind, body []byte) (*Payload, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("未知的记录负载类别 '%v'", kind)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("记录负载本体不是合法的 JSON")
	}

	return &Payload{
		Version: PayloadVersion,
		Kind:    kind,
		Body:    json.RawMessage(body),
	}, nil
}

// Serialize 将负载序列化为 JSON 字节切片。
func (p *Payload) Serialize() ([]byte, error) {
	payloadBytes, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化记录负载")
	}

	return payloadBytes, nil
}

// ParsePayload 从解密得到的明文中解析出负载对象并校验版本与类别。
func ParsePayload(raw []byte) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "解密得到的数据不是合法的记录负载")
	}

	if payload.Version != PayloadVersion {
		return nil, fmt.Errorf("不支持的记录负载版本 %v", payload.Version)
	}

	if !payload.Kind.IsValid() {
		return nil, fmt.Errorf("未知的记录负载类别 '%v'", payload.Kind)
	}

	return &payload, nil
}
