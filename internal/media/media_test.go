package media_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/media"
	"sitepulse/internal/testsupport"
)

const maxUploadBytes = 100 * 1024 * 1024

func newDiskStore(t *testing.T) *media.DiskStore {
	t.Helper()
	store, err := media.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestUploadStoresFileAndRecord(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := newDiskStore(t)

	record, err := media.Upload(dbManager, logger, store, "/media", maxUploadBytes, &media.UploadInput{
		FileName:    "hero.jpg",
		ContentType: "image/jpeg",
		SizeBytes:   5,
		Content:     strings.NewReader("bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, ".jpg", filepath.Ext(record.Key))
	assert.Equal(t, "/media/"+record.Key, record.URL)
	assert.Equal(t, "hero.jpg", record.FileName)

	exists, err := store.Exists(record.Key)
	require.NoError(t, err)
	assert.True(t, exists)

	var stored media.Media
	require.NoError(t, dbManager.GetConnection().Where("key = ?", record.Key).First(&stored).Error)
	assert.Nil(t, stored.LastUsedAt)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := newDiskStore(t)

	_, err := media.Upload(dbManager, logger, store, "/media", maxUploadBytes, &media.UploadInput{
		FileName:    "malware.exe",
		ContentType: "application/octet-stream",
		SizeBytes:   10,
		Content:     strings.NewReader("0123456789"),
	})
	require.Error(t, err)

	var uploadErr *media.UploadError
	assert.True(t, errors.As(err, &uploadErr))
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := newDiskStore(t)

	_, err := media.Upload(dbManager, logger, store, "/media", 4, &media.UploadInput{
		FileName:    "big.png",
		ContentType: "image/png",
		SizeBytes:   5,
		Content:     strings.NewReader("bytes"),
	})
	require.Error(t, err)

	var uploadErr *media.UploadError
	assert.True(t, errors.As(err, &uploadErr))
}

func TestDeleteRemovesRecordAndFile(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := newDiskStore(t)

	record, err := media.Upload(dbManager, logger, store, "/media", maxUploadBytes, &media.UploadInput{
		FileName:    "clip.mp4",
		ContentType: "video/mp4",
		SizeBytes:   4,
		Content:     strings.NewReader("vvvv"),
	})
	require.NoError(t, err)

	require.NoError(t, media.Delete(dbManager, logger, store, record.Key))

	exists, err := store.Exists(record.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	var notFoundErr *media.NotFoundError
	err = media.Delete(dbManager, logger, store, record.Key)
	assert.True(t, errors.As(err, &notFoundErr))
}

func TestMarkUsedAndDeleteUnused(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	store := newDiskStore(t)

	used, err := media.Upload(dbManager, logger, store, "/media", maxUploadBytes, &media.UploadInput{
		FileName:    "used.png",
		ContentType: "image/png",
		SizeBytes:   3,
		Content:     strings.NewReader("png"),
	})
	require.NoError(t, err)

	unused, err := media.Upload(dbManager, logger, store, "/media", maxUploadBytes, &media.UploadInput{
		FileName:    "unused.png",
		ContentType: "image/png",
		SizeBytes:   3,
		Content:     strings.NewReader("png"),
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	content := `{"hero": "<img src=\"` + used.URL + `\">"}`
	require.NoError(t, media.MarkUsed(dbManager, logger, content, now))

	// Everything is older than a future cutoff; only the never-used asset
	// gets swept.
	swept, err := media.DeleteUnused(dbManager, logger, store, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	records, err := media.List(dbManager.GetConnection())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, used.Key, records[0].Key)

	exists, err := store.Exists(unused.Key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiskStoreRejectsTraversalKeys(t *testing.T) {
	store := newDiskStore(t)

	err := store.Save("../escape.txt", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = store.Exists("a/b")
	assert.Error(t, err)
}
