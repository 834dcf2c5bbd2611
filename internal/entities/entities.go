package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// ContentType discriminates how progress for a library entry is measured:
// paginated documents count pages, everything else uses a caller-supplied total.
type ContentType string

const (
	ContentTypePDF   ContentType = "pdf"
	ContentTypeOther ContentType = "other"
)

// IsValid reports whether the content type is one of the known discriminators.
func (t ContentType) IsValid() bool {
	return t == ContentTypePDF || t == ContentTypeOther
}

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:255" json:"name"`
	Username  string         `gorm:"uniqueIndex;size:150" json:"username"`
	Mobile    string         `gorm:"uniqueIndex;size:15" json:"mobile"`
	Email     string         `gorm:"uniqueIndex;size:255" json:"email"`
	Role      UserRole       `gorm:"size:10;default:'user'" json:"type"`
	Token     string         `gorm:"uniqueIndex;size:64" json:"-"` // API token, hidden from JSON
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Book is a catalog record. DocumentPath and DocumentURL are mutually
// exclusive, as are CoverPath and CoverURL: a book either carries a locally
// stored blob or points at an external resource.
type Book struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Title         string `gorm:"index;size:512" json:"title"`
	Author        string `gorm:"index;size:256" json:"author"`
	Genre         string `gorm:"index;size:100" json:"genre"`
	Description   string `gorm:"type:text" json:"description,omitempty"`
	PublishedYear int    `json:"published_year,omitempty"`

	// TotalPages is the denominator for pdf reading progress. It is computed
	// from the uploaded document, never taken from client input.
	TotalPages int `json:"total_pages"`

	DocumentPath string `gorm:"size:1024" json:"pdf_document,omitempty"`
	DocumentURL  string `gorm:"size:2048" json:"pdf_document_url,omitempty"`
	CoverPath    string `gorm:"size:1024" json:"cover_image,omitempty"`
	CoverURL     string `gorm:"size:2048" json:"cover_image_url,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// LibraryEntry tracks one user's progress through one book in one medium.
// The composite unique index is the identity: at most one row per
// (user, book, content type).
type LibraryEntry struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"uniqueIndex:idx_library_key;index" json:"user_id"`
	BookID      uint        `gorm:"uniqueIndex:idx_library_key;index" json:"book_id"`
	ContentType ContentType `gorm:"uniqueIndex:idx_library_key;size:10" json:"type"`

	// Progress and Total share a unit: pages for pdf entries, whatever the
	// caller reports for everything else. Total for pdf entries always
	// mirrors the book's TotalPages.
	Progress float64 `json:"progress"`
	Total    float64 `json:"total"`

	LastAccessed time.Time `json:"last_accessed"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (LibraryEntry) TableName() string {
	return "library_entries"
}
