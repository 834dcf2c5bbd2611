package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/recommend"
)

// RecommendationsController handles personalized catalog suggestions.
type RecommendationsController struct {
	engine *recommend.Engine
}

// NewRecommendationsController creates a new RecommendationsController.
func NewRecommendationsController(engine *recommend.Engine) *RecommendationsController {
	return &RecommendationsController{engine: engine}
}

// GetRecommendations handles GET /api/recommendations. An empty library
// yields an empty list, not an error.
func (rc *RecommendationsController) GetRecommendations(c *gin.Context) {
	userID := GetUserID(c)

	books, err := rc.engine.Recommend(userID)
	if err != nil {
		respondInternalError(c, err, "recommend books")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"recommendations": books, "count": len(books)})
}
