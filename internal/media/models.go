package media

import "time"

// Media is one uploaded asset. Key is the storage identifier (a UUID plus
// the original extension); URL is the public path served to browsers.
type Media struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Key         string `gorm:"uniqueIndex;size:128;not null"`
	FileName    string `gorm:"not null"`
	ContentType string `gorm:"size:128;not null"`
	SizeBytes   int64  `gorm:"not null"`
	URL         string `gorm:"not null"`

	// LastUsedAt tracks content references so the cleanup job can sweep
	// assets nothing points at anymore. Zero means never referenced.
	LastUsedAt *time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Media) TableName() string {
	return "media"
}
