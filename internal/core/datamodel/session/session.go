package session

import "time"

// Session is one logged in profile of the local client.
type Session struct {
	Profile      string     `gorm:"column:profile;primaryKey"`
	BaseURL      string     `gorm:"column:base_url;not null"`
	Email        string     `gorm:"column:email"`
	AccessToken  string     `gorm:"column:access_token;not null"`
	RefreshToken string     `gorm:"column:refresh_token"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
