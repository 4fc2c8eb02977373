package db

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitee.com/czyczk/medivault-sdk/internal/models/sqlmodel"
	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/record"
)

// SaveDecryptedRecordToLocalDB 将解密后的记录负载保存到指定的数据库中（若已存在则覆盖）。
func SaveDecryptedRecordToLocalDB(payload *record.Payload, recordID string, timeDecrypted time.Time, db *gorm.DB) error {
	recordDB := sqlmodel.NewDecryptedRecordFromModel(payload, recordID, timeDecrypted)

	dbResult := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}},
		UpdateAll: true,
	}).Create(recordDB)
	if dbResult.Error != nil {
		return errors.Wrap(dbResult.Error, "无法将解密后的记录存入数据库")
	}

	return nil
}

// GetDecryptedRecordFromLocalDB 从数据库中读取指定记录 ID 的缓存负载。
func GetDecryptedRecordFromLocalDB(recordID string, db *gorm.DB) (*sqlmodel.DecryptedRecord, error) {
	var recordDB sqlmodel.DecryptedRecord
	dbResult := db.Where("record_id = ?", recordID).Take(&recordDB)
	if dbResult.Error != nil {
		if errors.Cause(dbResult.Error) == gorm.ErrRecordNotFound {
			return nil, errorcode.ErrorNotFound
		} else {
			return nil, errors.Wrap(dbResult.Error, "无法从数据库中获取缓存的记录")
		}
	}

	return &recordDB, nil
}
