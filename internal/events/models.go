package events

import "time"

// PageView is one recorded page view. Classification fields (device type,
// browser, operating system, source, UTM, geography) are derived once at
// ingestion and stored denormalized; aggregation queries never re-derive
// them, so rule changes never reclassify history.
type PageView struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	SiteID    string    `gorm:"index:idx_site_timestamp;index:idx_site_page_timestamp;not null"`
	PageID    string    `gorm:"index:idx_site_page_timestamp;not null"`
	VisitorID string    `gorm:"index;size:128;not null"`
	SessionID string    `gorm:"index;size:128"`
	Timestamp time.Time `gorm:"index:idx_site_timestamp;index:idx_site_page_timestamp;not null"`

	PageURL   string `gorm:"type:text"`
	PageTitle string
	Referrer  string `gorm:"index"`
	Source    string `gorm:"index;not null"`
	UserAgent string `gorm:"type:text"`
	IPAddress string `gorm:"size:64"`

	DeviceType      string `gorm:"index;not null"`
	Browser         string `gorm:"index;not null"`
	OperatingSystem string `gorm:"index;not null"`

	// Geography stays empty when the GeoIP lookup cannot resolve it.
	Country string `gorm:"index"`
	City    string `gorm:"index"`
	Region  string

	IsNewVisitor bool `gorm:"index;not null;default:false"`

	UTMSource   string `gorm:"index"`
	UTMMedium   string
	UTMCampaign string `gorm:"index"`
	UTMContent  string
	UTMTerm     string

	// Client-reported engagement, write-once at creation, nullable.
	TimeOnPageSeconds  *int
	ScrollDepthPercent *int

	CreatedAt time.Time
}

// TableName keeps the storage name stable regardless of model renames.
func (PageView) TableName() string {
	return "page_views"
}
