package library

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lectern-app/lectern/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_library_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.LibraryEntry{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestBook(t *testing.T, db *gorm.DB, title string, totalPages int) *entities.Book {
	book := &entities.Book{
		Title:      title,
		Author:     "Test Author",
		Genre:      "Test Genre",
		TotalPages: totalPages,
	}
	err := db.Create(book).Error
	require.NoError(t, err)
	return book
}

func TestUpsertProgress_CreatesEntry(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Test Book", 200)

	entry, err := repo.UpsertProgress(1, book.ID, entities.ContentTypePDF, 50, 0)

	require.NoError(t, err)
	assert.Equal(t, uint(1), entry.UserID)
	assert.Equal(t, book.ID, entry.BookID)
	assert.Equal(t, 50.0, entry.Progress)
	assert.Equal(t, book.Title, entry.Book.Title)
}

func TestUpsertProgress_UpdatesInPlace(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Test Book", 200)

	_, err := repo.UpsertProgress(1, book.ID, entities.ContentTypePDF, 50, 0)
	require.NoError(t, err)

	entry, err := repo.UpsertProgress(1, book.ID, entities.ContentTypePDF, 120, 0)
	require.NoError(t, err)
	assert.Equal(t, 120.0, entry.Progress)

	var count int64
	db.Model(&entities.LibraryEntry{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsertProgress_PDFTotalComesFromBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Test Book", 300)

	// The caller-supplied total is ignored for pdf entries.
	entry, err := repo.UpsertProgress(1, book.ID, entities.ContentTypePDF, 30, 9999)

	require.NoError(t, err)
	assert.Equal(t, 300.0, entry.Total)
}

func TestUpsertProgress_OtherKeepsCallerTotal(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Test Audiobook", 0)

	entry, err := repo.UpsertProgress(1, book.ID, entities.ContentTypeOther, 45, 90)

	require.NoError(t, err)
	assert.Equal(t, 90.0, entry.Total)
}

func TestUpsertProgress_UnknownBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.UpsertProgress(1, 999, entities.ContentTypePDF, 10, 0)

	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestUpsertProgress_SeparateRowsPerContentType(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Test Book", 200)

	_, err := repo.UpsertProgress(1, book.ID, entities.ContentTypePDF, 50, 0)
	require.NoError(t, err)
	_, err = repo.UpsertProgress(1, book.ID, entities.ContentTypeOther, 20, 60)
	require.NoError(t, err)

	var count int64
	db.Model(&entities.LibraryEntry{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestUpsertProgress_ConcurrentWritesKeepOneRow(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Test Book", 200)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(progress float64) {
			defer wg.Done()
			// SQLite serializes the writes; the conflict clause ensures each
			// one lands on the same row.
			_, _ = repo.UpsertProgress(1, book.ID, entities.ContentTypePDF, progress, 0)
		}(float64(i + 1))
	}
	wg.Wait()

	var count int64
	db.Model(&entities.LibraryEntry{}).Where("user_id = ? AND book_id = ?", 1, book.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetEntriesForUser_OrderedByLastAccessed(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	first := createTestBook(t, db, "First", 100)
	second := createTestBook(t, db, "Second", 100)

	_, err := repo.UpsertProgress(1, first.ID, entities.ContentTypePDF, 10, 0)
	require.NoError(t, err)
	_, err = repo.UpsertProgress(1, second.ID, entities.ContentTypePDF, 20, 0)
	require.NoError(t, err)

	// A later update bumps the first book back to the top.
	_, err = repo.UpsertProgress(1, first.ID, entities.ContentTypePDF, 30, 0)
	require.NoError(t, err)

	entries, err := repo.GetEntriesForUser(1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].BookID)
}

func TestGetEntriesForUser_ScopedToUser(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Test Book", 100)

	_, err := repo.UpsertProgress(1, book.ID, entities.ContentTypePDF, 10, 0)
	require.NoError(t, err)
	_, err = repo.UpsertProgress(2, book.ID, entities.ContentTypePDF, 90, 0)
	require.NoError(t, err)

	entries, err := repo.GetEntriesForUser(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 10.0, entries[0].Progress)
}

func TestBuildView_Percentages(t *testing.T) {
	entry := entities.LibraryEntry{
		ContentType: entities.ContentTypePDF,
		Progress:    50,
		Book:        entities.Book{TotalPages: 200},
	}

	view := BuildView(entry)

	assert.Equal(t, 25.0, view.PercentComplete)
	assert.Equal(t, 75.0, view.PercentLeft)
}

func TestBuildView_ZeroTotal(t *testing.T) {
	entry := entities.LibraryEntry{
		ContentType: entities.ContentTypeOther,
		Progress:    30,
		Total:       0,
	}

	view := BuildView(entry)

	assert.Equal(t, 0.0, view.PercentComplete)
	assert.Equal(t, 100.0, view.PercentLeft)
}

func TestBuildView_RoundsEachSideIndependently(t *testing.T) {
	// 1/3 complete: 33.333...% rounds to 33.33 and 66.666...% to 66.67.
	entry := entities.LibraryEntry{
		ContentType: entities.ContentTypeOther,
		Progress:    1,
		Total:       3,
	}

	view := BuildView(entry)

	assert.Equal(t, 33.33, view.PercentComplete)
	assert.Equal(t, 66.67, view.PercentLeft)
}

func TestBuildView_PDFUsesBookPageCount(t *testing.T) {
	// A stale stored total loses to the book's current page count.
	entry := entities.LibraryEntry{
		ContentType: entities.ContentTypePDF,
		Progress:    50,
		Total:       500,
		Book:        entities.Book{TotalPages: 100},
	}

	view := BuildView(entry)

	assert.Equal(t, 50.0, view.PercentComplete)
}
