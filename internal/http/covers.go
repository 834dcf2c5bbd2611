package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/covers"
	"github.com/lectern-app/lectern/internal/database/books"
	"github.com/lectern-app/lectern/internal/storage"
)

// CoversController serves book cover images, uploaded or cached.
type CoversController struct {
	cache *covers.Cache
	store *storage.Store
	repo  *books.Repository
}

// NewCoversController creates a new CoversController.
func NewCoversController(cache *covers.Cache, store *storage.Store, repo *books.Repository) *CoversController {
	return &CoversController{
		cache: cache,
		store: store,
		repo:  repo,
	}
}

// GetCover serves a book's cover image.
// GET /api/books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := cc.repo.GetBookByID(id)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// Uploaded covers are served straight from the blob store.
	if book.CoverPath != "" && cc.store.Exists(book.CoverPath) {
		path, err := cc.store.Path(book.CoverPath)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.File(path)
		return
	}

	if book.CoverURL == "" {
		c.Status(http.StatusNotFound)
		return
	}

	// Get cached cover (will fetch if not cached)
	cachePath, err := cc.cache.GetCover(id, book.CoverURL)
	if err != nil || cachePath == "" {
		// Fallback: redirect to original URL
		c.Redirect(http.StatusTemporaryRedirect, book.CoverURL)
		return
	}

	c.File(cachePath)
}
