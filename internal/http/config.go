package http

import (
	"github.com/lectern-app/lectern/internal/auth"
	"github.com/lectern-app/lectern/internal/covers"
	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/database/books"
	"github.com/lectern-app/lectern/internal/database/library"
	"github.com/lectern-app/lectern/internal/narration"
	"github.com/lectern-app/lectern/internal/recommend"
	"github.com/lectern-app/lectern/internal/search"
	"github.com/lectern-app/lectern/internal/storage"
	"github.com/lectern-app/lectern/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces the long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	BooksRepo   *books.Repository
	LibraryRepo *library.Repository

	// Domain engines
	SearchEngine      *search.Engine
	RecommendEngine   *recommend.Engine
	NarrationPipeline *narration.Pipeline

	// Blob storage
	DocumentStore *storage.Store
	CoverStore    *storage.Store

	// Cover caching (external URLs)
	CoverCache *covers.Cache

	// Authentication
	AuthMiddleware *auth.Middleware

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Application info
	Version string
}
