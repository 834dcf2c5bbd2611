package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/database/books"
	"github.com/lectern-app/lectern/internal/entities"
	"github.com/lectern-app/lectern/internal/storage"
)

func setupBooksTest(t *testing.T) (*gin.Engine, *books.Repository, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_books_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := books.NewRepository(db.DB)

	docs, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)
	coverStore, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	controller := NewBooksController(repo, docs, coverStore, nil)

	router := gin.New()
	router.GET("/api/books", controller.GetAllBooks)
	router.GET("/api/books/:id", controller.GetBook)
	router.POST("/api/books", controller.CreateBook)
	router.PUT("/api/books/:id", controller.UpdateBook)
	router.DELETE("/api/books/:id", controller.DeleteBook)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, repo, cleanup
}

type formFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, method, url string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestBooksController_CreateWithExternalURLs(t *testing.T) {
	router, _, cleanup := setupBooksTest(t)
	defer cleanup()

	req := multipartRequest(t, "POST", "/api/books", map[string]string{
		"title":            "Dune",
		"author":           "Frank Herbert",
		"genre":            "Science Fiction",
		"published_year":   "1965",
		"pdf_document_url": "https://example.com/dune.pdf",
		"cover_image_url":  "https://example.com/dune.jpg",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var book entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, 1965, book.PublishedYear)
	assert.Equal(t, "https://example.com/dune.pdf", book.DocumentURL)
	assert.Empty(t, book.DocumentPath)
}

func TestBooksController_CreateRequiresTitleAndAuthor(t *testing.T) {
	router, _, cleanup := setupBooksTest(t)
	defer cleanup()

	req := multipartRequest(t, "POST", "/api/books", map[string]string{"title": "Orphaned"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksController_CreateRejectsDocumentFileAndURL(t *testing.T) {
	router, _, cleanup := setupBooksTest(t)
	defer cleanup()

	req := multipartRequest(t, "POST", "/api/books",
		map[string]string{
			"title":            "Dune",
			"author":           "Frank Herbert",
			"pdf_document_url": "https://example.com/dune.pdf",
		},
		formFile{field: "pdf_document", name: "dune.pdf", content: "%PDF-1.4"},
	)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not both")
}

func TestBooksController_CreateRejectsCoverFileAndURL(t *testing.T) {
	router, _, cleanup := setupBooksTest(t)
	defer cleanup()

	req := multipartRequest(t, "POST", "/api/books",
		map[string]string{
			"title":           "Dune",
			"author":          "Frank Herbert",
			"cover_image_url": "https://example.com/dune.jpg",
		},
		formFile{field: "cover_image", name: "dune.jpg", content: "jpeg bytes"},
	)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not both")
}

func TestBooksController_CreateRejectsInvalidPDF(t *testing.T) {
	router, _, cleanup := setupBooksTest(t)
	defer cleanup()

	req := multipartRequest(t, "POST", "/api/books",
		map[string]string{"title": "Dune", "author": "Frank Herbert"},
		formFile{field: "pdf_document", name: "dune.pdf", content: "this is not a pdf"},
	)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not a readable PDF")
}

func TestBooksController_UpdatePartialFields(t *testing.T) {
	router, repo, cleanup := setupBooksTest(t)
	defer cleanup()

	book := &entities.Book{Title: "Draft", Author: "Frank Herbert", Genre: "Science Fiction"}
	require.NoError(t, repo.CreateBook(book))

	req := multipartRequest(t, "PUT", "/api/books/1", map[string]string{"title": "Dune"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	updated, err := repo.GetBookByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", updated.Title)
	// Untouched fields survive a partial update.
	assert.Equal(t, "Frank Herbert", updated.Author)
	assert.Equal(t, "Science Fiction", updated.Genre)
}

func TestBooksController_UpdateUnknownBook(t *testing.T) {
	router, _, cleanup := setupBooksTest(t)
	defer cleanup()

	req := multipartRequest(t, "PUT", "/api/books/42", map[string]string{"title": "Ghost"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksController_DeleteBook(t *testing.T) {
	router, repo, cleanup := setupBooksTest(t)
	defer cleanup()

	book := &entities.Book{Title: "Doomed", Author: "A"}
	require.NoError(t, repo.CreateBook(book))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/books/1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksController_GetAllBooks(t *testing.T) {
	router, repo, cleanup := setupBooksTest(t)
	defer cleanup()

	require.NoError(t, repo.CreateBook(&entities.Book{Title: "One", Author: "A"}))
	require.NoError(t, repo.CreateBook(&entities.Book{Title: "Two", Author: "B"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}
