package record

import "time"

// Record is one sandbox resource row. The attributes of every kind live in a
// JSON document so a single table serves all of them. Name holds the value
// that is unique per kind, which is not always the display name.
type Record struct {
	ID        int64     `gorm:"primaryKey"`
	Kind      string    `gorm:"column:kind;index:idx_records_kind_name;not null"`
	Name      string    `gorm:"column:name;index:idx_records_kind_name"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	System    bool      `gorm:"column:is_system;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "records"
}
