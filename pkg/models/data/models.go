package data

import "time"

// RecordMetadata 包含要传入链码的记录元数据。上传成功后在链上登记，
// 供策略检查把身份标识绑定到对应的记录与属主。
type RecordMetadata struct {
	RecordID   string                 `json:"recordID"`   // 记录 ID
	Owner      string                 `json:"owner"`      // 属主地址（Base64 编码）
	Identity   string                 `json:"identity"`   // 身份标识（Base64 编码）
	StorageRef string                 `json:"storageRef"` // 信封在块存储网络上的内容寻址引用
	Hash       string                 `json:"hash"`       // 记录明文的哈希值（[32]byte 的 Base64 编码）
	Size       uint64                 `json:"size"`       // 记录明文的大小
	Extensions map[string]interface{} `json:"extensions"` // 扩展字段（包含可公开的属性）
}

// RecordMetadataStored 包含从链码中读出的记录元数据
type RecordMetadataStored struct {
	RecordID   string                 `json:"recordID"`   // 记录 ID
	Owner      string                 `json:"owner"`      // 属主地址（Base64 编码）
	Identity   string                 `json:"identity"`   // 身份标识（Base64 编码）
	StorageRef string                 `json:"storageRef"` // 信封在块存储网络上的内容寻址引用
	Hash       string                 `json:"hash"`       // 记录明文的哈希值（[32]byte 的 Base64 编码）
	Size       uint64                 `json:"size"`       // 记录明文的大小
	Extensions map[string]interface{} `json:"extensions"` // 扩展字段
	Creator    string                 `json:"creator"`    // 登记交易的创建者公钥（Base64 编码）
	Timestamp  time.Time              `json:"timestamp"`  // 时间戳
}
