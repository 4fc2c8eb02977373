package controller

// RecordCreationInfo 包含记录成功创建时应该返回给客户端的信息
type RecordCreationInfo struct {
	RecordID      string `json:"recordId"`      // 记录 ID
	StorageRef    string `json:"storageRef"`    // 信封在块存储网络上的内容寻址引用
	TransactionID string `json:"transactionId"` // 链上登记交易的 ID
	BackupKey     string `json:"backupKey"`     // 属主备份密钥（Base64 编码）。仅在此返回一次，系统不再保存。
}

// GrantCreationInfo 包含授权凭证成功创建时应该返回给客户端的信息
type GrantCreationInfo struct {
	GrantID string `json:"grantId"`
}

// GrantRevocationInfo 包含授权凭证成功撤销时应该返回给客户端的信息
type GrantRevocationInfo struct {
	TransactionID string `json:"transactionId"`
}
