package content

import "time"

// ContentBlock is one editable fragment of a page, addressed by the
// site/page/block key triple. Content holds whatever the editor saved,
// typically HTML or a JSON document.
type ContentBlock struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	SiteID   string `gorm:"uniqueIndex:idx_site_page_block;not null"`
	Page     string `gorm:"uniqueIndex:idx_site_page_block;not null"`
	BlockKey string `gorm:"uniqueIndex:idx_site_page_block;not null"`
	Content  string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ContentBlock) TableName() string {
	return "content_blocks"
}

// Page is a registered page of a site. The slug is the routing key the
// frontend uses when requesting content.
type Page struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	SiteID      string `gorm:"uniqueIndex:idx_site_slug;not null"`
	Slug        string `gorm:"uniqueIndex:idx_site_slug;not null"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Published   bool   `gorm:"not null"`
	SortOrder   int    `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Page) TableName() string {
	return "pages"
}
