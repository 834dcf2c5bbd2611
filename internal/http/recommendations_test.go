package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/internal/auth"
	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/database/books"
	"github.com/lectern-app/lectern/internal/database/library"
	"github.com/lectern-app/lectern/internal/entities"
	"github.com/lectern-app/lectern/internal/recommend"
)

func setupRecommendationsTest(t *testing.T, userID uint) (*gin.Engine, *books.Repository, *library.Repository, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_recommendations_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	booksRepo := books.NewRepository(db.DB)
	libraryRepo := library.NewRepository(db.DB)
	controller := NewRecommendationsController(recommend.NewEngine(booksRepo, libraryRepo))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Next()
	})
	router.GET("/api/recommendations", controller.GetRecommendations)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, booksRepo, libraryRepo, cleanup
}

func TestRecommendationsController_EmptyLibrary(t *testing.T) {
	router, booksRepo, _, cleanup := setupRecommendationsTest(t, 1)
	defer cleanup()

	require.NoError(t, booksRepo.CreateBook(&entities.Book{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/recommendations", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recommendations []entities.Book `json:"recommendations"`
		Count           int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestRecommendationsController_SuggestsByAffinity(t *testing.T) {
	router, booksRepo, libraryRepo, cleanup := setupRecommendationsTest(t, 1)
	defer cleanup()

	owned := entities.Book{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction"}
	require.NoError(t, booksRepo.CreateBook(&owned))
	suggested := entities.Book{Title: "The Dispossessed", Author: "Ursula K. Le Guin", Genre: "Science Fiction"}
	require.NoError(t, booksRepo.CreateBook(&suggested))
	unrelated := entities.Book{Title: "Thinking, Fast and Slow", Author: "Daniel Kahneman", Genre: "Psychology"}
	require.NoError(t, booksRepo.CreateBook(&unrelated))

	_, err := libraryRepo.UpsertProgress(1, owned.ID, entities.ContentTypeOther, 10, 100)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/recommendations", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recommendations []entities.Book `json:"recommendations"`
		Count           int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "The Dispossessed", resp.Recommendations[0].Title)
}
