package appinit

import (
	"gitee.com/czyczk/medivault-sdk/internal/models/sqlmodel"
	errors "github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ConnectLocalDB connects to the local database used to cache decrypted records and migrates the schema.
//
// Parameters:
//   the DSN of the local database
//
// Returns:
//   the database handle
func ConnectLocalDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "无法连接本地数据库")
	}

	if err := db.AutoMigrate(&sqlmodel.DecryptedRecord{}); err != nil {
		return nil, errors.Wrap(err, "无法迁移本地数据库表结构")
	}

	return db, nil
}
