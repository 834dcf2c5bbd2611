// Package recommend derives book suggestions from a user's existing
// library: books by authors they already read or in genres they already
// read, excluding anything they own.
package recommend

import (
	"github.com/lectern-app/lectern/internal/entities"
)

// MaxResults caps the recommendation list.
const MaxResults = 10

// Catalog is the read-only book source candidates are drawn from.
type Catalog interface {
	GetAllBooks() ([]entities.Book, error)
}

// Library exposes the user's entries, each joined with its book.
type Library interface {
	GetEntriesForUser(userID uint) ([]entities.LibraryEntry, error)
}

// Engine produces recommendations from catalog and library state.
type Engine struct {
	catalog Catalog
	library Library
}

// NewEngine creates a recommendation engine.
func NewEngine(catalog Catalog, library Library) *Engine {
	return &Engine{catalog: catalog, library: library}
}

// Recommend returns up to MaxResults books the user does not own whose
// genre or author appears in their library. An empty library yields an
// empty list, not an error. Results follow catalog iteration order; no
// relevance ranking is applied.
func (e *Engine) Recommend(userID uint) ([]entities.Book, error) {
	entries, err := e.library.GetEntriesForUser(userID)
	if err != nil {
		return nil, err
	}

	owned := make(map[uint]bool)
	genres := make(map[string]bool)
	authors := make(map[string]bool)
	for _, entry := range entries {
		owned[entry.BookID] = true
		if entry.Book.Genre != "" {
			genres[entry.Book.Genre] = true
		}
		if entry.Book.Author != "" {
			authors[entry.Book.Author] = true
		}
	}

	if len(genres) == 0 && len(authors) == 0 {
		return []entities.Book{}, nil
	}

	catalog, err := e.catalog.GetAllBooks()
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	results := make([]entities.Book, 0, MaxResults)
	for _, book := range catalog {
		if owned[book.ID] || seen[book.ID] {
			continue
		}
		if !genres[book.Genre] && !authors[book.Author] {
			continue
		}
		seen[book.ID] = true
		results = append(results, book)
		if len(results) == MaxResults {
			break
		}
	}
	return results, nil
}
