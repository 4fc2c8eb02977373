package sqlmodel

import (
	"time"

	"gitee.com/czyczk/medivault-sdk/pkg/models/record"
)

// NewDecryptedRecordFromModel 从记录负载组装一个数据库模型。
func NewDecryptedRecordFromModel(payload *record.Payload, recordID string, timeDecrypted time.Time) *DecryptedRecord {
	return &DecryptedRecord{
		RecordID:      recordID,
		Kind:          string(payload.Kind),
		Body:          payload.Body,
		TimeDecrypted: timeDecrypted,
	}
}
