package models

import "time"

// PushDevice is a registered FCM token for one generated app install.
type PushDevice struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Token      string `gorm:"size:512;uniqueIndex;not null"`
	Platform   string `gorm:"size:16;index"` // android / ios
	AppID      string `gorm:"size:36;index"` // workspace uuid, optional
	LastSeenAt *time.Time
}
