// Package http wires the JSON API surface onto gin controllers. Handlers
// validate input and map domain errors onto status codes; the semantics
// live in the domain packages.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Resolve caller identity on every request
	router.Use(cfg.AuthMiddleware.Handler())

	// Create controllers with appropriate dependencies
	health := NewHealthController(cfg.Database, cfg.TaskClient, cfg.Version)
	booksController := NewBooksController(cfg.BooksRepo, cfg.DocumentStore, cfg.CoverStore, cfg.TaskClient)
	searchController := NewSearchController(cfg.SearchEngine)
	libraryController := NewLibraryController(cfg.LibraryRepo)
	recommendationsController := NewRecommendationsController(cfg.RecommendEngine)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog endpoints. Search registers before :id so gin does not
	// treat "search" as a book id.
	router.GET("/api/books", booksController.GetAllBooks)
	router.GET("/api/books/search", searchController.Search)
	router.GET("/api/books/:id", booksController.GetBook)
	router.GET("/api/books/:id/document", cfg.AuthMiddleware.RequireUser(), booksController.GetDocument)

	// Catalog administration
	admin := router.Group("/api/books")
	admin.Use(cfg.AuthMiddleware.RequireUser())
	{
		admin.POST("", cfg.AuthMiddleware.RequireAdmin("add books"), booksController.CreateBook)
		admin.PUT("/:id", cfg.AuthMiddleware.RequireAdmin("update books"), booksController.UpdateBook)
		admin.DELETE("/:id", cfg.AuthMiddleware.RequireAdmin("delete books"), booksController.DeleteBook)
	}

	// Library endpoints
	libraryGroup := router.Group("/api/library")
	libraryGroup.Use(cfg.AuthMiddleware.RequireUser())
	{
		libraryGroup.GET("", libraryController.GetLibrary)
		libraryGroup.POST("/update", libraryController.UpdateProgress)
	}

	// Recommendations
	router.GET("/api/recommendations", cfg.AuthMiddleware.RequireUser(), recommendationsController.GetRecommendations)

	// Narration
	if cfg.NarrationPipeline != nil {
		narrationController := NewNarrationController(cfg.NarrationPipeline)
		router.GET("/api/books/:id/read-aloud", cfg.AuthMiddleware.RequireUser(), narrationController.ReadAloud)
	}

	// Book cover endpoint
	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.CoverStore, cfg.BooksRepo)
		router.GET("/api/books/:id/cover", coversController.GetCover)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", cfg.AuthMiddleware.RequireAdmin("run tasks"), tasksController.RunTask)
	}

	return router
}
