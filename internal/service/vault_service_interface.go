package service

import (
	"context"

	"gitee.com/czyczk/medivault-sdk/pkg/models/data"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
	"gitee.com/czyczk/medivault-sdk/pkg/models/record"
	"gitee.com/czyczk/medivault-sdk/pkg/models/session"
)

// Progress 标识记录解密流程中可观察的阶段
type Progress int

const (
	// ProgressPolicyTxBuilt 表示策略检查交易已组装完成，份额请求即将发往托管方
	ProgressPolicyTxBuilt Progress = iota
	// ProgressSharesAggregated 表示已收集到门限数量的密钥份额，即将进行本地解密
	ProgressSharesAggregated
)

// CreationResult 包含记录创建成功后返回给属主的信息。
// 备份密钥只在这里出现一次，之后不再保存于系统的任何位置，属主须自行妥善保管。
type CreationResult struct {
	RecordID      string // 记录 ID
	StorageRef    string // 信封在块存储网络上的内容寻址引用
	TransactionID string // 链上登记交易的 ID
	BackupKey     []byte // 属主备份密钥
}

// VaultServiceInterface 定义了有关于加密记录的服务的接口
type VaultServiceInterface interface {
	// 加密并存储一条记录，在链上登记其元数据。
	//
	// 参数：
	//   请求上下文
	//   记录负载
	//   扩展字段（包含可公开的属性）
	//
	// 返回：
	//   创建结果（含属主备份密钥）
	CreateRecord(ctx context.Context, payload *record.Payload, extensions map[string]interface{}) (*CreationResult, error)

	// 经由托管方授权协议取回并解密一条记录。
	//
	// 参数：
	//   请求上下文
	//   记录 ID
	//   已签名的会话凭证
	//   阶段通知通道（可为 nil）
	//
	// 返回：
	//   解密后的记录负载
	GetRecord(ctx context.Context, recordID string, credential *session.Credential, progress chan<- Progress) (*record.Payload, error)

	// 用属主备份密钥解密一条记录，不经过托管方。
	//
	// 参数：
	//   请求上下文
	//   记录 ID
	//   属主备份密钥
	//
	// 返回：
	//   解密后的记录负载
	RecoverRecordWithBackupKey(ctx context.Context, recordID string, backupKey []byte) (*record.Payload, error)

	// 获取链上登记的记录元数据。
	//
	// 参数：
	//   记录 ID
	//
	// 返回：
	//   元数据
	GetRecordMetadata(recordID string) (*data.RecordMetadataStored, error)

	// 分页列出当前主体名下的记录 ID。
	//
	// 参数：
	//   分页大小
	//   分页书签
	//
	// 返回：
	//   带书签的 ID 列表
	ListRecordIDs(pageSize int, bookmark string) (*query.IDsWithPagination, error)
}
