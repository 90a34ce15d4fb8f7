package dashboard

import "time"

// Config is the saved dashboard layout of one user, stored verbatim.
type Config struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Document  string    `gorm:"column:document;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Config) TableName() string {
	return "dashboard_configs"
}
