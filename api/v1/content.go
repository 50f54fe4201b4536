package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/content"
)

// GetPageContentHandler returns the blocks of one page as a key/content
// map. Public: the frontend renders from this.
func GetPageContentHandler(ctx *cartridge.Context) error {
	siteID := ctx.Ctx.Params("siteId")
	page := ctx.Ctx.Params("page")
	if siteID == "" || page == "" {
		return badRequest(ctx, "siteId and page are required")
	}

	blocks, err := content.GetPageContent(ctx.DBManager.GetConnection(), siteID, page)
	if err != nil {
		ctx.Logger.Error("Failed to load page content",
			slog.String("site_id", siteID),
			slog.String("page", page),
			slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusOK).JSON(blocks)
}

// UpsertBlockParams is the admin payload for writing a content block.
type UpsertBlockParams struct {
	SiteID   string `json:"siteId"`
	Page     string `json:"page"`
	BlockKey string `json:"blockKey"`
	Content  string `json:"content"`
}

// UpsertBlockHandler creates or replaces one content block.
func UpsertBlockHandler(ctx *cartridge.Context) error {
	var params UpsertBlockParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	block, err := content.UpsertBlock(ctx.DBManager, ctx.Logger, &content.UpsertBlockInput{
		SiteID:   params.SiteID,
		Page:     params.Page,
		BlockKey: params.BlockKey,
		Content:  params.Content,
	})
	if err != nil {
		var validationErr *content.ValidationError
		if errors.As(err, &validationErr) {
			return badRequest(ctx, validationErr.Error())
		}
		ctx.Logger.Error("Failed to upsert content block", slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusOK).JSON(block)
}

// DeleteBlockHandler removes one content block.
func DeleteBlockHandler(ctx *cartridge.Context) error {
	siteID := ctx.Ctx.Params("siteId")
	page := ctx.Ctx.Params("page")
	blockKey := ctx.Ctx.Params("blockKey")

	err := content.DeleteBlock(ctx.DBManager, ctx.Logger, siteID, page, blockKey)
	if err != nil {
		var notFoundErr *content.BlockNotFoundError
		if errors.As(err, &notFoundErr) {
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{
				"error": notFoundErr.Error(),
			})
		}
		ctx.Logger.Error("Failed to delete content block", slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.SendStatus(http.StatusNoContent)
}

// ListPublishedPagesHandler returns the published pages of a site. Public:
// the frontend builds its navigation from this, so drafts never appear.
func ListPublishedPagesHandler(ctx *cartridge.Context) error {
	return listPages(ctx, true)
}

// ListPagesHandler returns every page of a site, drafts included. Admin
// only.
func ListPagesHandler(ctx *cartridge.Context) error {
	return listPages(ctx, false)
}

func listPages(ctx *cartridge.Context, publishedOnly bool) error {
	siteID := ctx.Ctx.Params("siteId")
	if siteID == "" {
		return badRequest(ctx, "siteId is required")
	}

	pages, err := content.ListPages(ctx.DBManager.GetConnection(), siteID, publishedOnly)
	if err != nil {
		ctx.Logger.Error("Failed to list pages",
			slog.String("site_id", siteID),
			slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusOK).JSON(pages)
}

// UpsertPageParams is the admin payload for registering a page.
type UpsertPageParams struct {
	SiteID      string `json:"siteId"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
	SortOrder   int    `json:"sortOrder"`
}

// UpsertPageHandler creates or updates a page registration.
func UpsertPageHandler(ctx *cartridge.Context) error {
	var params UpsertPageParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	page, err := content.UpsertPage(ctx.DBManager, ctx.Logger, &content.UpsertPageInput{
		SiteID:      params.SiteID,
		Slug:        params.Slug,
		Title:       params.Title,
		Description: params.Description,
		Published:   params.Published,
		SortOrder:   params.SortOrder,
	})
	if err != nil {
		var validationErr *content.ValidationError
		if errors.As(err, &validationErr) {
			return badRequest(ctx, validationErr.Error())
		}
		ctx.Logger.Error("Failed to upsert page", slog.Any("error", err))
		return ctx.SendStatus(http.StatusInternalServerError)
	}

	return ctx.Status(http.StatusOK).JSON(page)
}
