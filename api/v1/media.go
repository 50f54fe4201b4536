package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/config"
	"sitepulse/internal/media"
)

// mediaStore is configured once at route mounting. Handlers fail closed
// when it was never set.
var mediaStore media.Store

// SetMediaStore wires the asset store used by the media handlers.
func SetMediaStore(store media.Store) {
	mediaStore = store
}

// UploadMediaHandler accepts one multipart file upload.
func UploadMediaHandler(ctx *cartridge.Context) error {
	if mediaStore == nil {
		ctx.Logger.Error("Media store not configured")
		return ctx.SendStatus(http.StatusServiceUnavailable)
	}

	fileHeader, err := ctx.Ctx.FormFile("file")
	if err != nil {
		return badRequest(ctx, "file field is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.Logger.Error("Failed to open uploaded file", slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}
	defer file.Close()

	cfg := config.GetConfig()
	record, err := media.Upload(ctx.DBManager, ctx.Logger, mediaStore,
		cfg.MediaURLPrefix, cfg.GetMediaMaxUploadSize(), &media.UploadInput{
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			SizeBytes:   fileHeader.Size,
			Content:     file,
		})
	if err != nil {
		var uploadErr *media.UploadError
		if errors.As(err, &uploadErr) {
			return badRequest(ctx, uploadErr.Error())
		}
		ctx.Logger.Error("Failed to store upload", slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusCreated).JSON(record)
}

// DeleteMediaHandler removes one asset by key.
func DeleteMediaHandler(ctx *cartridge.Context) error {
	if mediaStore == nil {
		ctx.Logger.Error("Media store not configured")
		return ctx.SendStatus(http.StatusServiceUnavailable)
	}

	key := ctx.Ctx.Params("key")
	if err := media.Delete(ctx.DBManager, ctx.Logger, mediaStore, key); err != nil {
		var notFoundErr *media.NotFoundError
		if errors.As(err, &notFoundErr) {
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": notFoundErr.Error(),
			})
		}
		ctx.Logger.Error("Failed to delete media",
			slog.String("key", key),
			slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.SendStatus(http.StatusNoContent)
}

// ListMediaHandler returns all uploaded assets, newest first.
func ListMediaHandler(ctx *cartridge.Context) error {
	records, err := media.List(ctx.DBManager.GetConnection())
	if err != nil {
		ctx.Logger.Error("Failed to list media", slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusOK).JSON(records)
}
