package models

import (
	"time"

	"gorm.io/datatypes"
)

// BuildRecord is the registry row for one generation run. The workspace on
// disk is the source of truth; the registry exists for the admin surface and
// the builds CLI, so the server keeps working when it is unavailable.
type BuildRecord struct {
	ID        string `gorm:"primaryKey;size:36"` // workspace uuid
	CreatedAt time.Time
	UpdatedAt time.Time

	AppName     string `gorm:"size:64;index"`
	PackageName string `gorm:"size:128;index"`
	WebsiteURL  string `gorm:"size:512"`
	SessionID   string `gorm:"size:64"`

	State       string         `gorm:"size:32;index"` // Done / PartiallyDone / failed stage
	FailedStage string         `gorm:"size:32"`
	VersionCode int64          `gorm:"not null"`
	VersionName string         `gorm:"size:32"`
	Artifacts   datatypes.JSON // produced artifact filenames
	Warnings    int            `gorm:"default:0"`
	DurationMS  int64          `gorm:"default:0"`
}
