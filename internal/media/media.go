// Package media manages uploaded assets: validation, storage, metadata and
// usage tracking for the cleanup sweep.
package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// UploadError marks a rejected upload (bad type, too large). Handlers map it
// to a 400 response.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string {
	return "invalid upload: " + e.Reason
}

// NotFoundError is returned when a media key has no record.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("media not found: %s", e.Key)
}

// UploadInput is one incoming file.
type UploadInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Content     io.Reader
}

// allowedContentType accepts images and videos only, per content type
// prefix.
func allowedContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// Upload validates and stores one asset. The key is a fresh UUID carrying
// the original extension so served files keep a recognizable type.
func Upload(dbManager cartridge.DBManager, logger *slog.Logger, store Store, urlPrefix string, maxSizeBytes int64, input *UploadInput) (*Media, error) {
	if input.FileName == "" {
		return nil, &UploadError{Reason: "file name is required"}
	}
	if !allowedContentType(input.ContentType) {
		return nil, &UploadError{Reason: fmt.Sprintf("unsupported content type %q, only images and videos are accepted", input.ContentType)}
	}
	if input.SizeBytes <= 0 {
		return nil, &UploadError{Reason: "empty file"}
	}
	if input.SizeBytes > maxSizeBytes {
		return nil, &UploadError{Reason: fmt.Sprintf("file exceeds the %d byte limit", maxSizeBytes)}
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(input.ContentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	key := uuid.NewString() + ext

	if err := store.Save(key, io.LimitReader(input.Content, maxSizeBytes)); err != nil {
		logger.Error("Failed to store media content",
			slog.String("key", key),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to store media content: %w", err)
	}

	record := &Media{
		Key:         key,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		URL:         strings.TrimSuffix(urlPrefix, "/") + "/" + key,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
	if err != nil {
		// Roll the stored bytes back so no orphan file lingers.
		if delErr := store.Delete(key); delErr != nil {
			logger.Warn("Failed to remove orphaned media file",
				slog.String("key", key),
				slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to store media record: %w", err)
	}

	return record, nil
}

// Delete removes the record and the stored bytes for a key.
func Delete(dbManager cartridge.DBManager, logger *slog.Logger, store Store, key string) error {
	db := dbManager.GetConnection()

	var record Media
	if err := db.Where("key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Key: key}
		}
		return fmt.Errorf("failed to load media record: %w", err)
	}

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Delete(&record).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}

	if err := store.Delete(key); err != nil {
		logger.Warn("Media record deleted but file removal failed",
			slog.String("key", key),
			slog.Any("error", err))
	}
	return nil
}

// List returns all media records, newest first.
func List(db *gorm.DB) ([]Media, error) {
	var records []Media
	if err := db.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return records, nil
}

// MarkUsed stamps LastUsedAt on every media record whose URL appears in the
// given content. Called after content writes; failures are the caller's to
// log, never to propagate into the content operation.
func MarkUsed(dbManager cartridge.DBManager, logger *slog.Logger, content string, now time.Time) error {
	if content == "" {
		return nil
	}

	db := dbManager.GetConnection()
	var records []Media
	if err := db.Find(&records).Error; err != nil {
		return fmt.Errorf("failed to scan media for usage: %w", err)
	}

	var usedIDs []uint
	for _, record := range records {
		if strings.Contains(content, record.URL) || strings.Contains(content, record.Key) {
			usedIDs = append(usedIDs, record.ID)
		}
	}
	if len(usedIDs) == 0 {
		return nil
	}

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&Media{}).Where("id IN ?", usedIDs).
			Update("last_used_at", now.UTC()).Error
	})
	if err != nil {
		return fmt.Errorf("failed to mark media usage: %w", err)
	}
	return nil
}

// DeleteUnused removes media never referenced by content and older than the
// cutoff, both record and bytes. Returns how many assets were swept.
func DeleteUnused(dbManager cartridge.DBManager, logger *slog.Logger, store Store, cutoff time.Time) (int, error) {
	db := dbManager.GetConnection()

	var stale []Media
	err := db.Where("last_used_at IS NULL AND created_at < ?", cutoff.UTC()).Find(&stale).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find unused media: %w", err)
	}

	swept := 0
	for i := range stale {
		record := stale[i]
		err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			return tx.Delete(&record).Error
		})
		if err != nil {
			logger.Error("Failed to delete unused media record",
				slog.String("key", record.Key),
				slog.Any("error", err))
			continue
		}
		if err := store.Delete(record.Key); err != nil {
			logger.Warn("Unused media record deleted but file removal failed",
				slog.String("key", record.Key),
				slog.Any("error", err))
		}
		swept++
	}
	return swept, nil
}
