package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/auth"
	"github.com/lectern-app/lectern/internal/config"
	"github.com/lectern-app/lectern/internal/covers"
	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/database/books"
	"github.com/lectern-app/lectern/internal/database/library"
	http_controllers "github.com/lectern-app/lectern/internal/http"
	"github.com/lectern-app/lectern/internal/narration"
	"github.com/lectern-app/lectern/internal/recommend"
	"github.com/lectern-app/lectern/internal/scheduler"
	"github.com/lectern-app/lectern/internal/search"
	"github.com/lectern-app/lectern/internal/storage"
	"github.com/lectern-app/lectern/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	// Wait for interrupt signal to gracefully shutdown the server with
	// the configured timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Lectern v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Repositories over the shared gorm handle
	booksRepo := books.NewRepository(db.DB)
	libraryRepo := library.NewRepository(db.DB)

	// Blob stores for uploads and generated artifacts
	documentStore, err := storage.NewStore(cfg.Storage.DocumentsDir)
	if err != nil {
		log.Fatalf("Failed to initialize document store: %v", err)
	}
	coverStore, err := storage.NewStore(cfg.Storage.CoversDir)
	if err != nil {
		log.Fatalf("Failed to initialize cover store: %v", err)
	}

	// Create cover cache for locally caching external cover images
	coverCache, err := covers.NewCache(cfg.Storage.CoversDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", cfg.Storage.CoversDir)
	}

	// Domain engines
	searchEngine := search.NewEngine(booksRepo)
	recommendEngine := recommend.NewEngine(booksRepo, libraryRepo)

	narrationPipeline, err := narration.NewPipeline(
		booksRepo,
		documentStore,
		narration.NewPDFExtractor(),
		narration.NewTTSSynthesizer(cfg.Narration.Language),
		cfg.Storage.AudioDir,
		cfg.Narration.SynthTimeout,
	)
	if err != nil {
		log.Fatalf("Failed to initialize narration pipeline: %v", err)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewCleanupArtifactsQueue(cfg.Storage.AudioDir),
			tasks.NewCacheCoverQueue(coverCache),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic narration artifact cleanup rides on the task queue
	var cleanupScheduler *scheduler.ArtifactCleanupScheduler
	if taskClient != nil && cfg.Cleanup.Enabled {
		cleanupScheduler = scheduler.NewArtifactCleanupScheduler(taskClient, cfg.Cleanup.Schedule, cfg.Cleanup.Retention)
		if err := cleanupScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: Failed to start artifact cleanup scheduler: %v", err)
		}
	}

	// Identity resolution
	if cfg.Auth.Mode == config.AuthModeToken {
		log.Printf("Authentication mode: token")
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}
	authMiddleware := auth.NewMiddleware(db, cfg.Auth.Mode)

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:          db,
		BooksRepo:         booksRepo,
		LibraryRepo:       libraryRepo,
		SearchEngine:      searchEngine,
		RecommendEngine:   recommendEngine,
		NarrationPipeline: narrationPipeline,
		DocumentStore:     documentStore,
		CoverStore:        coverStore,
		CoverCache:        coverCache,
		AuthMiddleware:    authMiddleware,
		TaskClient:        taskClient,
		Version:           version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
