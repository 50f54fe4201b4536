package content_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/content"
	"sitepulse/internal/media"
	"sitepulse/internal/testsupport"
)

func TestUpsertBlockCreatesAndUpdates(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	block, err := content.UpsertBlock(dbManager, logger, &content.UpsertBlockInput{
		SiteID:   "site-1",
		Page:     "home",
		BlockKey: "hero",
		Content:  "<h1>Welcome</h1>",
	})
	require.NoError(t, err)
	assert.NotZero(t, block.ID)

	_, err = content.UpsertBlock(dbManager, logger, &content.UpsertBlockInput{
		SiteID:   "site-1",
		Page:     "home",
		BlockKey: "hero",
		Content:  "<h1>Updated</h1>",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, dbManager.GetConnection().Model(&content.ContentBlock{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	blocks, err := content.GetPageContent(dbManager.GetConnection(), "site-1", "home")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Updated</h1>", blocks["hero"])
}

func TestUpsertBlockValidation(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	_, err := content.UpsertBlock(dbManager, logger, &content.UpsertBlockInput{Page: "home", BlockKey: "hero"})
	var validationErr *content.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "siteId", validationErr.Field)

	_, err = content.UpsertBlock(dbManager, logger, &content.UpsertBlockInput{SiteID: "site-1", Page: "home"})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "blockKey", validationErr.Field)
}

func TestGetPageContentEmptyPage(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)

	blocks, err := content.GetPageContent(dbManager.GetConnection(), "site-1", "missing")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestDeleteBlock(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	_, err := content.UpsertBlock(dbManager, logger, &content.UpsertBlockInput{
		SiteID:   "site-1",
		Page:     "home",
		BlockKey: "hero",
		Content:  "x",
	})
	require.NoError(t, err)

	require.NoError(t, content.DeleteBlock(dbManager, logger, "site-1", "home", "hero"))

	var notFoundErr *content.BlockNotFoundError
	err = content.DeleteBlock(dbManager, logger, "site-1", "home", "hero")
	assert.True(t, errors.As(err, &notFoundErr))
}

func TestUpsertBlockStampsMediaUsage(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	store, err := media.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	asset, err := media.Upload(dbManager, logger, store, "/media", 1<<20, &media.UploadInput{
		FileName:    "hero.png",
		ContentType: "image/png",
		SizeBytes:   3,
		Content:     strings.NewReader("png"),
	})
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	_, err = content.UpsertBlock(dbManager, logger, &content.UpsertBlockInput{
		SiteID:   "site-1",
		Page:     "home",
		BlockKey: "hero",
		Content:  `<img src="` + asset.URL + `">`,
	})
	require.NoError(t, err)

	var stored media.Media
	require.NoError(t, dbManager.GetConnection().Where("key = ?", asset.Key).First(&stored).Error)
	require.NotNil(t, stored.LastUsedAt)
	assert.True(t, stored.LastUsedAt.After(before))
}

func TestUpsertAndListPages(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	_, err := content.UpsertPage(dbManager, logger, &content.UpsertPageInput{
		SiteID: "site-1", Slug: "about", Title: "About", Published: true, SortOrder: 2,
	})
	require.NoError(t, err)
	_, err = content.UpsertPage(dbManager, logger, &content.UpsertPageInput{
		SiteID: "site-1", Slug: "home", Title: "Home", Published: true, SortOrder: 1,
	})
	require.NoError(t, err)
	_, err = content.UpsertPage(dbManager, logger, &content.UpsertPageInput{
		SiteID: "site-1", Slug: "draft", Title: "Draft", Published: false, SortOrder: 3,
	})
	require.NoError(t, err)

	// Updating an existing slug must not create a second row.
	_, err = content.UpsertPage(dbManager, logger, &content.UpsertPageInput{
		SiteID: "site-1", Slug: "home", Title: "Homepage", Published: true, SortOrder: 1,
	})
	require.NoError(t, err)

	all, err := content.ListPages(dbManager.GetConnection(), "site-1", false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "home", all[0].Slug)
	assert.Equal(t, "Homepage", all[0].Title)

	published, err := content.ListPages(dbManager.GetConnection(), "site-1", true)
	require.NoError(t, err)
	require.Len(t, published, 2)
}

func TestUpsertPageValidation(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	_, err := content.UpsertPage(dbManager, logger, &content.UpsertPageInput{SiteID: "site-1", Slug: "x"})
	var validationErr *content.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "title", validationErr.Field)
}
