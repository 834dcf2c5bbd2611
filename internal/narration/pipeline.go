// Package narration converts a book's stored document into a narrated
// audio artifact: text extraction (with a block-level fallback per page)
// followed by speech synthesis into a per-book artifact slot.
package narration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/lectern-app/lectern/internal/entities"
	"github.com/lectern-app/lectern/internal/storage"
)

var (
	// ErrBookNotFound is returned when the book id does not resolve.
	ErrBookNotFound = errors.New("book not found")

	// ErrNoDocument is returned for books without an attached document
	// blob. An external document URL alone is not narratable.
	ErrNoDocument = errors.New("book has no attached document")

	// ErrDocumentMissing is returned when the book references a blob that
	// is no longer present in storage.
	ErrDocumentMissing = errors.New("book document missing from storage")

	// ErrNoReadableText is returned when both extraction modes produce
	// nothing on every page — typically a scanned, image-only document.
	ErrNoReadableText = errors.New("document contains no readable text")

	// ErrArtifactMissing is returned when the synthesis call reports
	// success but the artifact is not on disk.
	ErrArtifactMissing = errors.New("audio artifact missing after generation")
)

// Catalog resolves book ids for the pipeline.
type Catalog interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// Artifact is a generated, streamable narration of one book.
type Artifact struct {
	Path        string
	FileName    string
	ContentType string
	Size        int64
}

// Pipeline orchestrates extraction and synthesis. Each book has exactly one
// artifact slot; a request always regenerates it, and concurrent requests
// for the same book share a single in-flight generation instead of racing
// on the slot.
type Pipeline struct {
	catalog      Catalog
	documents    *storage.Store
	extractor    Extractor
	synthesizer  Synthesizer
	audioDir     string
	synthTimeout time.Duration

	group singleflight.Group
}

// NewPipeline creates a narration pipeline writing artifacts into audioDir.
// A zero synthTimeout disables the synthesis deadline.
func NewPipeline(catalog Catalog, documents *storage.Store, extractor Extractor, synthesizer Synthesizer, audioDir string, synthTimeout time.Duration) (*Pipeline, error) {
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Pipeline{
		catalog:      catalog,
		documents:    documents,
		extractor:    extractor,
		synthesizer:  synthesizer,
		audioDir:     audioDir,
		synthTimeout: synthTimeout,
	}, nil
}

// Narrate produces the audio artifact for a book. Errors are terminal per
// request; nothing is retried here.
func (p *Pipeline) Narrate(ctx context.Context, bookID uint) (*Artifact, error) {
	book, err := p.catalog.GetBookByID(bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("resolve book: %w", err)
	}

	if book.DocumentPath == "" {
		return nil, ErrNoDocument
	}
	if !p.documents.Exists(book.DocumentPath) {
		return nil, ErrDocumentMissing
	}

	docPath, err := p.documents.Path(book.DocumentPath)
	if err != nil {
		return nil, ErrDocumentMissing
	}

	text, err := p.extractText(docPath)
	if err != nil {
		return nil, err
	}

	// One generation per book at a time: concurrent callers share the
	// in-flight result rather than overwriting each other's artifact.
	// Sequential requests still regenerate unconditionally. The shared
	// generation runs detached from the initiating request context, so one
	// client disconnecting cannot fail a synthesis other callers wait on;
	// the synthesis timeout still applies.
	artifact, err, shared := p.group.Do(fmt.Sprintf("book-%d", bookID), func() (interface{}, error) {
		return p.synthesize(context.WithoutCancel(ctx), bookID, text)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("Narration for book %d shared an in-flight generation", bookID)
	}
	return artifact.(*Artifact), nil
}

// extractText runs both extraction modes over every page and joins the
// results with whitespace. A fully blank result aborts before synthesis.
func (p *Pipeline) extractText(docPath string) (string, error) {
	pages, err := p.extractor.ExtractPages(docPath)
	if err != nil {
		return "", fmt.Errorf("text extraction: %w", err)
	}

	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		if trimmed := strings.TrimSpace(page.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	text := strings.Join(parts, " ")
	if text == "" {
		return "", ErrNoReadableText
	}
	return text, nil
}

func (p *Pipeline) synthesize(ctx context.Context, bookID uint, text string) (*Artifact, error) {
	if p.synthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.synthTimeout)
		defer cancel()
	}

	name := artifactName(bookID)
	path, err := p.synthesizer.SynthesizeToFile(ctx, text, p.audioDir, name)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, ErrArtifactMissing
	}

	return &Artifact{
		Path:        path,
		FileName:    name + ".mp3",
		ContentType: "audio/mpeg",
		Size:        info.Size(),
	}, nil
}

// artifactName is the per-book artifact slot: one deterministic name per
// book, not per request.
func artifactName(bookID uint) string {
	return fmt.Sprintf("book_%d_audio", bookID)
}
