package bcao

import (
	"gitee.com/czyczk/medivault-sdk/pkg/models/data"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
)

// DataBCAOInterface 定义记录登记表的链上访问操作。登记表把身份标识绑定到
// 记录与属主，是托管方重放访问策略时的依据。
type DataBCAOInterface interface {
	// CreateRecordMetadata 在链上登记一条记录元数据，返回交易 ID
	CreateRecordMetadata(metadata *data.RecordMetadata, eventID ...string) (string, error)
	// GetRecordMetadata 按记录 ID 读取登记的元数据
	GetRecordMetadata(recordID string) (*data.RecordMetadataStored, error)
	// GetRecordMetadataByIdentity 按身份标识读取登记的元数据
	GetRecordMetadataByIdentity(identity string) (*data.RecordMetadataStored, error)
	// ListRecordIDsByOwner 按属主地址分页列出记录 ID
	ListRecordIDsByOwner(owner string, pageSize int, bookmark string) (*query.IDsWithPagination, error)
}
