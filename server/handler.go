package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xhad/ragmem/internal/logging"
	"github.com/xhad/ragmem/internal/models"
	appErr "github.com/xhad/ragmem/internal/pkg/errors"
)

const storedStatus = "Text stored in AI memory"

type uploadTextRequest struct {
	Text string `json:"text" binding:"required"`
}

type uploadURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

type uploadResponse struct {
	Status   string `json:"status"`
	Chunks   int    `json:"chunks"`
	Embedded int    `json:"embedded"`
	Failed   int    `json:"failed"`
	Pages    int    `json:"pages,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) Health(c *gin.Context) {
	idx := s.service.Index()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"entries":    idx.Len(),
		"generation": idx.Generation(),
	})
}

func (s *Server) UploadText(c *gin.Context) {
	var req uploadTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "text is required")
		return
	}

	result, err := s.service.StoreText(c.Request.Context(), req.Text)
	if err != nil && !appErr.IsEmbeddingService(err) {
		handleError(c, err)
		return
	}
	if err != nil {
		// The index was still replaced; the counts tell the caller nothing
		// was embedded.
		logging.FromContext(c.Request.Context()).Warn("upload stored no chunks", zap.Error(err))
	}

	c.JSON(http.StatusOK, newUploadResponse(result, 0))
}

func (s *Server) UploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "a valid url is required")
		return
	}

	ctx := c.Request.Context()
	pages, err := s.fetcher.Scrape(ctx, req.URL)
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := s.service.StorePages(ctx, pages)
	if err != nil && !appErr.IsEmbeddingService(err) {
		handleError(c, err)
		return
	}
	if err != nil {
		logging.FromContext(ctx).Warn("url upload stored no chunks", zap.String("url", req.URL), zap.Error(err))
	}

	c.JSON(http.StatusOK, newUploadResponse(result, len(pages)))
}

func (s *Server) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "question is required")
		return
	}

	reply, err := s.service.Ask(c.Request.Context(), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, askResponse{Answer: reply.Answer})
}

func newUploadResponse(result models.IngestResult, pages int) uploadResponse {
	return uploadResponse{
		Status:   storedStatus,
		Chunks:   result.Chunks,
		Embedded: result.Embedded,
		Failed:   result.Failed,
		Pages:    pages,
	}
}

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func handleError(c *gin.Context, err error) {
	logger := logging.FromContext(c.Request.Context())
	switch {
	case err == nil:
		return
	case appErr.IsInvalidInput(err):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case appErr.IsFetch(err):
		logger.Warn("fetch failed", zap.Error(err))
		errorResponse(c, http.StatusBadGateway, "failed to fetch url")
	case appErr.IsGenerationService(err):
		logger.Error("generation failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to generate answer")
	default:
		logger.Error("request failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
