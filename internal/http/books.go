package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"gorm.io/gorm"

	"github.com/lectern-app/lectern/internal/database/books"
	"github.com/lectern-app/lectern/internal/entities"
	"github.com/lectern-app/lectern/internal/storage"
	"github.com/lectern-app/lectern/internal/tasks"
)

// BooksController handles catalog read and admin mutation endpoints.
type BooksController struct {
	repo       *books.Repository
	documents  *storage.Store
	covers     *storage.Store
	taskClient *tasks.Client
}

// NewBooksController creates a new BooksController.
func NewBooksController(repo *books.Repository, documents, covers *storage.Store, taskClient *tasks.Client) *BooksController {
	return &BooksController{
		repo:       repo,
		documents:  documents,
		covers:     covers,
		taskClient: taskClient,
	}
}

// GetAllBooks handles GET /api/books
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	allBooks, err := bc.repo.GetAllBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": allBooks, "count": len(allBooks)})
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.repo.GetBookByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	c.IndentedJSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books (admin only, multipart form).
// A book carries at most one document (uploaded file XOR external URL)
// and at most one cover, with the same exclusivity rule.
func (bc *BooksController) CreateBook(c *gin.Context) {
	book := &entities.Book{}
	if ok := bc.bindBookForm(c, book); !ok {
		return
	}

	if book.Title == "" || book.Author == "" {
		respondBadRequest(c, "title and author are required")
		return
	}

	if ok := bc.applyUploads(c, book); !ok {
		return
	}

	if err := bc.repo.CreateBook(book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	bc.prefetchCover(book)
	respondCreated(c, book)
}

// UpdateBook handles PUT /api/books/:id (admin only, multipart form).
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.repo.GetBookByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	if ok := bc.bindBookForm(c, book); !ok {
		return
	}
	if ok := bc.applyUploads(c, book); !ok {
		return
	}

	if err := bc.repo.UpdateBook(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}

	bc.prefetchCover(book)
	c.IndentedJSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id (admin only). Stored blobs are
// removed alongside the record; library entries referencing the book are
// deleted in the same transaction as the book itself.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.repo.GetBookByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	if err := bc.repo.DeleteBook(id); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}

	if book.DocumentPath != "" {
		_ = bc.documents.Remove(book.DocumentPath)
	}
	if book.CoverPath != "" {
		_ = bc.covers.Remove(book.CoverPath)
	}

	c.Status(http.StatusNoContent)
}

// GetDocument handles GET /api/books/:id/document, streaming the stored
// document blob.
func (bc *BooksController) GetDocument(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.repo.GetBookByID(id)
	if err != nil {
		respondNotFound(c, "book")
		return
	}

	if book.DocumentPath == "" || !bc.documents.Exists(book.DocumentPath) {
		respondNotFound(c, "document")
		return
	}

	path, err := bc.documents.Path(book.DocumentPath)
	if err != nil {
		respondInternalError(c, err, "resolve document")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(book.DocumentPath)))
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}

// bindBookForm copies metadata fields from the multipart form onto the
// book, leaving absent fields untouched so updates stay partial.
func (bc *BooksController) bindBookForm(c *gin.Context, book *entities.Book) bool {
	if v, ok := c.GetPostForm("title"); ok {
		book.Title = strings.TrimSpace(v)
	}
	if v, ok := c.GetPostForm("author"); ok {
		book.Author = strings.TrimSpace(v)
	}
	if v, ok := c.GetPostForm("genre"); ok {
		book.Genre = strings.TrimSpace(v)
	}
	if v, ok := c.GetPostForm("description"); ok {
		book.Description = strings.TrimSpace(v)
	}
	if v, ok := c.GetPostForm("published_year"); ok && v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			respondBadRequest(c, "invalid published_year")
			return false
		}
		book.PublishedYear = year
	}
	return true
}

// applyUploads validates and stores document and cover payloads. Uploading
// a document recounts its pages; switching to an external URL clears the
// stored blob reference.
func (bc *BooksController) applyUploads(c *gin.Context, book *entities.Book) bool {
	docFile, docErr := c.FormFile("pdf_document")
	docURL, hasDocURL := c.GetPostForm("pdf_document_url")

	if docErr == nil && hasDocURL && docURL != "" {
		respondBadRequest(c, "provide either pdf_document or pdf_document_url, not both")
		return false
	}

	coverFile, coverErr := c.FormFile("cover_image")
	coverURL, hasCoverURL := c.GetPostForm("cover_image_url")

	if coverErr == nil && hasCoverURL && coverURL != "" {
		respondBadRequest(c, "provide either cover_image or cover_image_url, not both")
		return false
	}

	if docErr == nil {
		ref, err := bc.storeUpload(bc.documents, docFile)
		if err != nil {
			respondInternalError(c, err, "store document")
			return false
		}

		path, err := bc.documents.Path(ref)
		if err != nil {
			respondInternalError(c, err, "resolve document")
			return false
		}
		pages, err := api.PageCountFile(path)
		if err != nil {
			_ = bc.documents.Remove(ref)
			respondBadRequest(c, "uploaded document is not a readable PDF")
			return false
		}

		if book.DocumentPath != "" {
			_ = bc.documents.Remove(book.DocumentPath)
		}
		book.DocumentPath = ref
		book.DocumentURL = ""
		book.TotalPages = pages
	} else if hasDocURL && docURL != "" {
		if book.DocumentPath != "" {
			_ = bc.documents.Remove(book.DocumentPath)
		}
		book.DocumentPath = ""
		book.DocumentURL = docURL
	}

	if coverErr == nil {
		ref, err := bc.storeUpload(bc.covers, coverFile)
		if err != nil {
			respondInternalError(c, err, "store cover")
			return false
		}
		if book.CoverPath != "" {
			_ = bc.covers.Remove(book.CoverPath)
		}
		book.CoverPath = ref
		book.CoverURL = ""
	} else if hasCoverURL && coverURL != "" {
		if book.CoverPath != "" {
			_ = bc.covers.Remove(book.CoverPath)
		}
		book.CoverPath = ""
		book.CoverURL = coverURL
	}

	return true
}

// storeUpload saves a multipart file into the store under a
// collision-resistant ref derived from the original filename.
func (bc *BooksController) storeUpload(store *storage.Store, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ref := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(header.Filename))
	return store.Save(ref, src)
}

// prefetchCover enqueues a background fetch for external cover URLs so the
// first cover request is served from cache.
func (bc *BooksController) prefetchCover(book *entities.Book) {
	if bc.taskClient == nil || book.CoverURL == "" {
		return
	}
	task := tasks.CacheCoverTask{BookID: book.ID, CoverURL: book.CoverURL}
	if _, err := bc.taskClient.Add(task).Save(); err != nil {
		// Not fatal; the cover is fetched lazily on first request anyway.
		return
	}
}

// sanitizeFilename strips path components and characters that could break
// blob refs.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, "..", "")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		base = "upload"
	}
	return base
}
