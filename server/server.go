package server

import (
	"context"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xhad/ragmem/internal/models"
	"github.com/xhad/ragmem/internal/types"
	"github.com/xhad/ragmem/pkg/rag"
)

// Service is the retrieval pipeline the handlers drive. *rag.Service
// implements it.
type Service interface {
	StoreText(ctx context.Context, text string) (models.IngestResult, error)
	StorePages(ctx context.Context, pages []models.Page) (models.IngestResult, error)
	Ask(ctx context.Context, question string) (rag.Reply, error)
	Index() types.Index
}

// Fetcher turns a URL into readable pages. *scraper.Scraper implements it.
type Fetcher interface {
	Scrape(ctx context.Context, url string) ([]models.Page, error)
}

type Config struct {
	CORSOrigins []string
}

// Deps are the collaborators of the HTTP server. Fetcher may be nil, in
// which case /upload-url is not registered.
type Deps struct {
	Service Service
	Fetcher Fetcher
	Logger  *zap.Logger
}

type Server struct {
	config  Config
	service Service
	fetcher Fetcher
	logger  *zap.Logger
}

func New(config Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:  config,
		service: deps.Service,
		fetcher: deps.Fetcher,
		logger:  logger,
	}
}

// Router builds the gin engine with every route and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(Recovery(s.logger))
	router.Use(RequestID(s.logger))
	router.Use(AccessLog())
	router.Use(CORS(s.config.CORSOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	router.GET("/health", s.Health)
	router.POST("/upload-text", s.UploadText)
	router.POST("/ask", s.Ask)
	if s.fetcher != nil {
		router.POST("/upload-url", s.UploadURL)
	}
	router.GET("/ws", s.handleWebSocket)

	return router
}
