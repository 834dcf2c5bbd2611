// Package library owns per-user reading progress: one row per
// (user, book, content type), written through an atomic upsert.
package library

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lectern-app/lectern/internal/entities"
)

// ErrBookNotFound is returned when a progress report references a book
// that does not exist in the catalog.
var ErrBookNotFound = errors.New("book not found")

// Repository handles all library ledger database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new library repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertProgress records reading progress for a (user, book, content type)
// key. The write is a single INSERT ... ON CONFLICT DO UPDATE on the
// composite unique index, so concurrent reports for the same key can never
// produce two rows: the conflict target decides create-vs-update inside the
// database.
//
// For pdf entries the total is always the book's page count; any
// caller-supplied total is ignored. For other entries the caller's total is
// stored as given (zero when absent).
func (r *Repository) UpsertProgress(userID, bookID uint, contentType entities.ContentType, progress, total float64) (*entities.LibraryEntry, error) {
	var book entities.Book
	if err := r.db.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	if contentType == entities.ContentTypePDF {
		total = float64(book.TotalPages)
	}

	entry := entities.LibraryEntry{
		UserID:       userID,
		BookID:       bookID,
		ContentType:  contentType,
		Progress:     progress,
		Total:        total,
		LastAccessed: time.Now(),
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "book_id"},
			{Name: "content_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "total", "last_accessed", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return nil, err
	}

	// Reload through the composite key: on the update path the insert ID is
	// not populated, and callers expect the joined book either way.
	var saved entities.LibraryEntry
	err = r.db.Preload("Book").
		Where("user_id = ? AND book_id = ? AND content_type = ?", userID, bookID, contentType).
		First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetEntriesForUser returns all library entries for a user, each joined
// with its book, most recently accessed first.
func (r *Repository) GetEntriesForUser(userID uint) ([]entities.LibraryEntry, error) {
	var entries []entities.LibraryEntry
	err := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("last_accessed DESC").
		Find(&entries).Error
	return entries, err
}

// GetEntry returns the entry for a composite key, or gorm.ErrRecordNotFound.
func (r *Repository) GetEntry(userID, bookID uint, contentType entities.ContentType) (*entities.LibraryEntry, error) {
	var entry entities.LibraryEntry
	err := r.db.Preload("Book").
		Where("user_id = ? AND book_id = ? AND content_type = ?", userID, bookID, contentType).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// EntryView is a library entry with its derived progress percentages.
// The percentages are computed at read time and never stored.
type EntryView struct {
	entities.LibraryEntry
	PercentComplete float64 `json:"percent_complete"`
	PercentLeft     float64 `json:"percent_left"`
}

// BuildView derives the percentage metrics for an entry. The effective
// total is the book's page count for pdf entries and the stored total
// otherwise. Both percentages are rounded independently from the raw
// ratio, so they need not sum to exactly 100 after rounding.
func BuildView(entry entities.LibraryEntry) EntryView {
	total := entry.Total
	if entry.ContentType == entities.ContentTypePDF {
		total = float64(entry.Book.TotalPages)
	}

	view := EntryView{LibraryEntry: entry}
	if total > 0 {
		ratio := entry.Progress / total * 100
		view.PercentComplete = round2(ratio)
		view.PercentLeft = round2(100 - ratio)
	} else {
		view.PercentComplete = 0
		view.PercentLeft = 100
	}
	return view
}

// BuildViews derives percentages for a batch of entries.
func BuildViews(entries []entities.LibraryEntry) []EntryView {
	views := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, BuildView(entry))
	}
	return views
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
