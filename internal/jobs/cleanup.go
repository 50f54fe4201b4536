package jobs

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/config"
	"sitepulse/internal/events"
	"sitepulse/internal/media"
)

// CleanupJob prunes raw page views past their retention window and sweeps
// media no content references.
type CleanupJob struct {
	dbManager  cartridge.DBManager
	logger     *slog.Logger
	cfg        *config.Config
	mediaStore media.Store
}

func NewCleanupJob(dbManager cartridge.DBManager, logger *slog.Logger, cfg *config.Config, mediaStore media.Store) *CleanupJob {
	return &CleanupJob{
		dbManager:  dbManager,
		logger:     logger,
		cfg:        cfg,
		mediaStore: mediaStore,
	}
}

// Run executes both cleanup passes. Each pass failing only logs; the other
// still runs.
func (j *CleanupJob) Run() error {
	if err := j.cleanupPageViews(); err != nil {
		j.logger.Error("Page view cleanup failed", slog.Any("error", err))
	}
	if err := j.cleanupUnusedMedia(); err != nil {
		j.logger.Error("Unused media cleanup failed", slog.Any("error", err))
	}
	return nil
}

// cleanupPageViews removes page views older than the retention period. A
// retention of zero means keep everything.
func (j *CleanupJob) cleanupPageViews() error {
	retentionDays := j.cfg.RawEventsRetentionDays
	if retentionDays <= 0 {
		j.logger.Debug("Raw event retention disabled, keeping all page views")
		return nil
	}

	db := j.dbManager.GetConnection()
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of old page views",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff", cutoff))

	var countToDelete int64
	if err := db.Model(&events.PageView{}).
		Where("timestamp < ?", cutoff).
		Count(&countToDelete).Error; err != nil {
		return err
	}
	if countToDelete == 0 {
		j.logger.Debug("No old page views to clean up")
		return nil
	}

	// Delete in batches to avoid locking the database for too long
	batchSize := 1000
	totalDeleted := int64(0)

	for {
		result := db.Where("timestamp < ?", cutoff).
			Limit(batchSize).
			Delete(&events.PageView{})
		if result.Error != nil {
			j.logger.Error("Failed to delete old page views",
				slog.Any("error", result.Error),
				slog.Int64("deleted_so_far", totalDeleted))
			return result.Error
		}

		totalDeleted += result.RowsAffected
		if result.RowsAffected < int64(batchSize) {
			break
		}

		time.Sleep(100 * time.Millisecond)
	}

	j.logger.Info("Cleaned up old page views",
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", retentionDays))
	return nil
}

func (j *CleanupJob) cleanupUnusedMedia() error {
	if j.mediaStore == nil {
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.cfg.UnusedMediaRetentionDays)
	swept, err := media.DeleteUnused(j.dbManager, j.logger, j.mediaStore, cutoff)
	if err != nil {
		return err
	}
	if swept > 0 {
		j.logger.Info("Swept unused media", slog.Int("count", swept))
	}
	return nil
}
