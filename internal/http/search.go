package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/search"
)

// SearchController handles catalog search requests.
type SearchController struct {
	engine *search.Engine
}

// NewSearchController creates a new SearchController.
func NewSearchController(engine *search.Engine) *SearchController {
	return &SearchController{engine: engine}
}

// Search handles GET /api/books/search with optional title, author and
// genre query parameters. Genre-only searches are rejected as a policy
// matter, but only after the match runs: an empty result set reports "no
// results" regardless of which filters were supplied.
func (sc *SearchController) Search(c *gin.Context) {
	query := search.Query{
		Title:  c.Query("title"),
		Author: c.Query("author"),
		Genre:  c.Query("genre"),
	}

	results, err := sc.engine.Search(query)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrNoResults):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, search.ErrGenreOnlySearch):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "search books")
		}
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"books": results, "count": len(results)})
}
