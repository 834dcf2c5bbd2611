// Package search implements the catalog's multi-field book search.
//
// Matching follows a quorum rule: with one or two filters every supplied
// filter must hold, but with all three a book only needs to satisfy two of
// them. Genre-only queries are rejected by policy.
package search

import (
	"errors"
	"strings"

	"github.com/lectern-app/lectern/internal/entities"
)

var (
	// ErrNoResults means the query was acceptable but matched nothing.
	ErrNoResults = errors.New("no books found matching the search criteria")

	// ErrGenreOnlySearch means genre was the only filter supplied, which is
	// not allowed; it is only surfaced when the genre actually matched
	// something, otherwise the empty result wins.
	ErrGenreOnlySearch = errors.New("searching by genre alone is not allowed")
)

// Catalog is the read-only book source the engine searches over.
type Catalog interface {
	GetAllBooks() ([]entities.Book, error)
}

// Query carries the optional search filters. An empty string means the
// filter was not supplied.
type Query struct {
	Title  string
	Author string
	Genre  string
}

func (q Query) filterCount() int {
	count := 0
	if q.Title != "" {
		count++
	}
	if q.Author != "" {
		count++
	}
	if q.Genre != "" {
		count++
	}
	return count
}

func (q Query) genreOnly() bool {
	return q.Genre != "" && q.Title == "" && q.Author == ""
}

// Engine evaluates search queries against the full catalog snapshot.
type Engine struct {
	catalog Catalog
}

// NewEngine creates a search engine over the given catalog.
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Search returns the books matching the query.
//
// With zero filters the whole catalog is returned. With one or two filters
// a book must satisfy all of them. With three filters a book must satisfy
// at least two (a 2-of-3 quorum, not a full conjunction).
//
// The empty-result check runs before the genre-only policy check: a
// genre-only query that matches nothing fails with ErrNoResults, and only a
// genre-only query with actual matches fails with ErrGenreOnlySearch. That
// ordering is part of the contract.
func (e *Engine) Search(q Query) ([]entities.Book, error) {
	all, err := e.catalog.GetAllBooks()
	if err != nil {
		return nil, err
	}

	if q.filterCount() == 0 {
		return all, nil
	}

	var matches []entities.Book
	for _, book := range all {
		if e.matches(book, q) {
			matches = append(matches, book)
		}
	}

	if len(matches) == 0 {
		return nil, ErrNoResults
	}
	if q.genreOnly() {
		return nil, ErrGenreOnlySearch
	}
	return matches, nil
}

func (e *Engine) matches(book entities.Book, q Query) bool {
	supplied := 0
	satisfied := 0

	if q.Title != "" {
		supplied++
		if containsFold(book.Title, q.Title) {
			satisfied++
		}
	}
	if q.Author != "" {
		supplied++
		if containsFold(book.Author, q.Author) {
			satisfied++
		}
	}
	if q.Genre != "" {
		supplied++
		if book.Genre == q.Genre {
			satisfied++
		}
	}

	if supplied == 3 {
		// Quorum: any two of the three filters.
		return satisfied >= 2
	}
	return satisfied == supplied
}

// containsFold reports whether substr occurs in s, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
