// Package books provides database operations for the book catalog.
//
// The catalog is read-only from the perspective of search, library, and
// narration; only the admin-facing HTTP layer mutates it.
package books

import (
	"gorm.io/gorm"

	"github.com/lectern-app/lectern/internal/entities"
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookByID retrieves a book by its ID.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks retrieves the full catalog in primary key order.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("id ASC").Find(&books).Error
	return books, err
}

// CreateBook inserts a new catalog record.
func (r *Repository) CreateBook(book *entities.Book) error {
	return r.db.Create(book).Error
}

// UpdateBook persists changes to an existing catalog record.
func (r *Repository) UpdateBook(book *entities.Book) error {
	return r.db.Save(book).Error
}

// DeleteBook soft deletes a book and its library entries.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.LibraryEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
}

// CountBooks returns the catalog size.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
