package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/database/library"
	"github.com/lectern-app/lectern/internal/entities"
)

// LibraryController handles per-user reading ledger endpoints.
type LibraryController struct {
	repo *library.Repository
}

// NewLibraryController creates a new LibraryController.
func NewLibraryController(repo *library.Repository) *LibraryController {
	return &LibraryController{repo: repo}
}

// GetLibrary handles GET /api/library, returning the caller's entries with
// derived progress percentages.
func (lc *LibraryController) GetLibrary(c *gin.Context) {
	userID := GetUserID(c)

	entries, err := lc.repo.GetEntriesForUser(userID)
	if err != nil {
		respondInternalError(c, err, "list library")
		return
	}

	views := library.BuildViews(entries)
	c.IndentedJSON(http.StatusOK, gin.H{"library": views, "count": len(views)})
}

// UpdateProgressRequest is the request body for progress updates.
type UpdateProgressRequest struct {
	BookID   uint    `json:"book_id"`
	Type     string  `json:"type"`
	Progress float64 `json:"progress"`
	Total    float64 `json:"total"`
}

// UpdateProgress handles POST /api/library/update. One row exists per
// (user, book, content type); the write creates it or overwrites progress
// in place, never a second row.
func (lc *LibraryController) UpdateProgress(c *gin.Context) {
	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.BookID == 0 {
		respondBadRequest(c, "book_id is required")
		return
	}

	contentType := entities.ContentType(req.Type)
	if !contentType.IsValid() {
		respondBadRequest(c, "type must be one of: pdf, other")
		return
	}

	userID := GetUserID(c)

	entry, err := lc.repo.UpsertProgress(userID, req.BookID, contentType, req.Progress, req.Total)
	if err != nil {
		if errors.Is(err, library.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "update progress")
		return
	}

	view := library.BuildView(*entry)
	c.IndentedJSON(http.StatusOK, view)
}
