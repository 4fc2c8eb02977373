package sqlmodel

import (
	"time"

	"gorm.io/gorm"
)

// DecryptedRecord 定义了数据库表 decrypted_records，用于缓存已通过授权协议
// 解密过的记录负载。缓存只是本地便利，链上策略检查不受其影响。
type DecryptedRecord struct {
	gorm.Model
	RecordID      string    `gorm:"type:VARCHAR(64) NOT NULL;uniqueIndex"`
	Kind          string    `gorm:"type:VARCHAR(32) NOT NULL"`
	Body          []byte    `gorm:"type:BLOB"`
	TimeDecrypted time.Time `gorm:"not null"`
}

// 自定义 DecryptedRecord 的表名。
func (DecryptedRecord) TableName() string {
	return "decrypted_records"
}
