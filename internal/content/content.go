// Package content stores the editable blocks and page registry behind the
// site frontend.
package content

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sitepulse/internal/media"
)

// ValidationError marks a rejected content payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid content input: %s %s", e.Field, e.Reason)
}

// BlockNotFoundError is returned when a delete names a block that does not
// exist.
type BlockNotFoundError struct {
	SiteID   string
	Page     string
	BlockKey string
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("content block not found: %s/%s/%s", e.SiteID, e.Page, e.BlockKey)
}

// UpsertBlockInput identifies a block and its new content.
type UpsertBlockInput struct {
	SiteID   string
	Page     string
	BlockKey string
	Content  string
}

// UpsertBlock creates or replaces one content block. After the write, media
// referenced by the new content gets its usage stamped; a failure there is
// logged and swallowed, the content operation already succeeded.
func UpsertBlock(dbManager cartridge.DBManager, logger *slog.Logger, input *UpsertBlockInput) (*ContentBlock, error) {
	if input.SiteID == "" {
		return nil, &ValidationError{Field: "siteId", Reason: "is required"}
	}
	if input.Page == "" {
		return nil, &ValidationError{Field: "page", Reason: "is required"}
	}
	if input.BlockKey == "" {
		return nil, &ValidationError{Field: "blockKey", Reason: "is required"}
	}

	now := time.Now().UTC()
	block := &ContentBlock{
		SiteID:    input.SiteID,
		Page:      input.Page,
		BlockKey:  input.BlockKey,
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "site_id"}, {Name: "page"}, {Name: "block_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).Create(block).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert content block: %w", err)
	}

	if err := media.MarkUsed(dbManager, logger, input.Content, now); err != nil {
		logger.Warn("Media usage tracking failed after content write",
			slog.String("site_id", input.SiteID),
			slog.String("page", input.Page),
			slog.Any("error", err))
	}

	return block, nil
}

// DeleteBlock removes one block. Media usage is re-stamped from the
// surviving blocks of the page, again without failing the delete.
func DeleteBlock(dbManager cartridge.DBManager, logger *slog.Logger, siteID, page, blockKey string) error {
	db := dbManager.GetConnection()

	var block ContentBlock
	err := db.Where("site_id = ? AND page = ? AND block_key = ?", siteID, page, blockKey).
		First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &BlockNotFoundError{SiteID: siteID, Page: page, BlockKey: blockKey}
		}
		return fmt.Errorf("failed to load content block: %w", err)
	}

	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Delete(&block).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete content block: %w", err)
	}

	remaining, err := GetPageContent(db, siteID, page)
	if err == nil {
		var combined string
		for _, content := range remaining {
			combined += content
		}
		if err := media.MarkUsed(dbManager, logger, combined, time.Now().UTC()); err != nil {
			logger.Warn("Media usage tracking failed after content delete",
				slog.String("site_id", siteID),
				slog.String("page", page),
				slog.Any("error", err))
		}
	}

	return nil
}

// GetPageContent returns the blocks of one page as a blockKey -> content
// map. A page with no blocks yields an empty map, not an error.
func GetPageContent(db *gorm.DB, siteID, page string) (map[string]string, error) {
	var blocks []ContentBlock
	err := db.Where("site_id = ? AND page = ?", siteID, page).Find(&blocks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load page content: %w", err)
	}

	result := make(map[string]string, len(blocks))
	for _, block := range blocks {
		result[block.BlockKey] = block.Content
	}
	return result, nil
}

// UpsertPageInput identifies a page and its metadata.
type UpsertPageInput struct {
	SiteID      string
	Slug        string
	Title       string
	Description string
	Published   bool
	SortOrder   int
}

// UpsertPage creates or updates a page registration.
func UpsertPage(dbManager cartridge.DBManager, logger *slog.Logger, input *UpsertPageInput) (*Page, error) {
	if input.SiteID == "" {
		return nil, &ValidationError{Field: "siteId", Reason: "is required"}
	}
	if input.Slug == "" {
		return nil, &ValidationError{Field: "slug", Reason: "is required"}
	}
	if input.Title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}

	now := time.Now().UTC()
	page := &Page{
		SiteID:      input.SiteID,
		Slug:        input.Slug,
		Title:       input.Title,
		Description: input.Description,
		Published:   input.Published,
		SortOrder:   input.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "site_id"}, {Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "published", "sort_order", "updated_at"}),
		}).Create(page).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert page: %w", err)
	}

	return page, nil
}

// ListPages returns the pages of a site ordered for navigation. When
// publishedOnly is set, drafts are filtered out.
func ListPages(db *gorm.DB, siteID string, publishedOnly bool) ([]Page, error) {
	query := db.Where("site_id = ?", siteID)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var pages []Page
	if err := query.Order("sort_order ASC, slug ASC").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}
