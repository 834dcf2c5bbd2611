package http

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/narration"
)

// NarrationController handles read-aloud audio generation requests.
type NarrationController struct {
	pipeline *narration.Pipeline
}

// NewNarrationController creates a new NarrationController.
func NewNarrationController(pipeline *narration.Pipeline) *NarrationController {
	return &NarrationController{pipeline: pipeline}
}

// ReadAloud handles GET /api/books/:id/read-aloud. The artifact is
// regenerated for every request and streamed back as an MP3 attachment.
func (nc *NarrationController) ReadAloud(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	artifact, err := nc.pipeline.Narrate(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, narration.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, narration.ErrNoDocument),
			errors.Is(err, narration.ErrDocumentMissing):
			respondNotFound(c, "document")
		case errors.Is(err, narration.ErrNoReadableText):
			respondUnprocessable(c, err.Error())
		default:
			respondInternalError(c, err, "narrate book")
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	c.Header("Content-Type", artifact.ContentType)
	c.Header("Content-Length", fmt.Sprintf("%d", artifact.Size))
	c.File(artifact.Path)
}
