package activity

import (
	"encoding/json"
	"time"
)

// Entry is the persisted form of an activity log record. Changes holds the
// field-level diff list as a JSON document so the column stays portable
// between postgres and the sqlite used in repository tests.
type Entry struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_activity_order,priority:1"`
	Seq       int64     `gorm:"column:seq;not null;index:idx_activity_order,priority:2"`
	UserID    int64     `gorm:"column:user_id;not null"`
	UserName  string    `gorm:"column:user_name;not null"`
	Category  string    `gorm:"column:category;size:32;not null;index"`
	Action    string    `gorm:"column:action;size:128;not null"`
	Details   string    `gorm:"column:details"`
	Changes   string    `gorm:"column:changes;type:text"`
}

func (Entry) TableName() string {
	return "activity_logs"
}

type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

func EncodeChanges(changes []FieldChange) (string, error) {
	if len(changes) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func DecodeChanges(raw string) ([]FieldChange, error) {
	if raw == "" {
		return nil, nil
	}
	var changes []FieldChange
	if err := json.Unmarshal([]byte(raw), &changes); err != nil {
		return nil, err
	}
	return changes, nil
}
