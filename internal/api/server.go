package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"newslens/internal/analysis"
	"newslens/internal/config"
	"newslens/internal/ingest"
	"newslens/internal/models"
	"newslens/internal/recommend"
	"newslens/internal/security"
	"newslens/internal/storage"
	"newslens/internal/vecindex"
	"newslens/internal/web"

	"github.com/gin-gonic/gin"
)

const defaultK = 10

type Server struct {
	router        *gin.Engine
	storage       storage.Storage
	pipeline      *analysis.Pipeline
	recommender   *recommend.Service
	index         *vecindex.Index
	poller        *ingest.Poller
	port          int
	swaggerServer *web.SwaggerServer
}

func NewServer(store storage.Storage, pipeline *analysis.Pipeline, recommender *recommend.Service, index *vecindex.Index, poller *ingest.Poller, cfg *config.Config) *Server {
	router := gin.Default()

	securityConfig := &security.SecurityConfig{
		EnableRateLimit:       cfg.Security.EnableRateLimit,
		RateLimitPerSecond:    cfg.Security.RateLimitPerSecond,
		RateLimitBurst:        cfg.Security.RateLimitBurst,
		EnableCORS:            cfg.Security.EnableCORS,
		AllowedOrigins:        cfg.Security.AllowedOrigins,
		EnableSecurityHeaders: cfg.Security.EnableSecurityHeaders,
		MaxRequestSize:        cfg.Security.MaxRequestSize,
		EnableRequestID:       cfg.Security.EnableRequestID,
	}
	security.SetupSecurityMiddleware(router, securityConfig)

	server := &Server{
		router:        router,
		storage:       store,
		pipeline:      pipeline,
		recommender:   recommender,
		index:         index,
		poller:        poller,
		port:          cfg.Port,
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.POST("/analysis/articles/:id", s.triggerAnalysis)
		api.GET("/analysis/articles/:id", s.getAnalysisRecord)

		api.GET("/recommendations/similar/:id", s.recommendSimilar)
		api.GET("/recommendations/user/:user_id", s.recommendForUser)
		api.GET("/recommendations/category", s.recommendByCategory)

		api.POST("/users/:user_id/read/:article_id", s.recordRead)
		api.PUT("/users/:user_id/categories", s.setPreferredCategories)

		api.GET("/ingest/status", s.getIngestStatus)
		api.POST("/ingest/force-poll/:source", s.forcePollSource)

		api.GET("/stats", s.getStats)
	}

	s.swaggerServer.RegisterRoutes(s.router)
}

func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.port))
}

// StartWithContext runs the server until the context is canceled, then
// shuts down gracefully.
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "newslens",
		"poller_active": s.poller.IsPolling(),
		"indexed_count": s.index.Len(),
	})
}

// triggerAnalysis starts background AI processing for an article. It always
// returns immediately; callers poll the analysis record for the outcome.
func (s *Server) triggerAnalysis(c *gin.Context) {
	articleID, ok := s.pathID(c, "id")
	if !ok {
		return
	}

	record, err := s.storage.GetAnalysisRecord(articleID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	// Duplicate triggers are a no-op on records that are done or in flight
	switch record.Status {
	case models.StatusProcessing, models.StatusCompleted, models.StatusFiltered:
		c.JSON(http.StatusOK, gin.H{
			"article_id": articleID,
			"status":     record.Status,
		})
		return
	}

	s.pipeline.ProcessAsync(articleID)
	c.JSON(http.StatusAccepted, gin.H{
		"article_id": articleID,
		"status":     record.Status,
	})
}

func (s *Server) getAnalysisRecord(c *gin.Context) {
	articleID, ok := s.pathID(c, "id")
	if !ok {
		return
	}

	record, err := s.storage.GetAnalysisRecord(articleID)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) recommendSimilar(c *gin.Context) {
	articleID, ok := s.pathID(c, "id")
	if !ok {
		return
	}
	k := s.queryK(c)

	recommendations, err := s.recommender.RecommendSimilar(articleID, k)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article_id":      articleID,
		"count":           len(recommendations),
		"recommendations": recommendations,
	})
}

func (s *Server) recommendForUser(c *gin.Context) {
	userID, ok := s.pathID(c, "user_id")
	if !ok {
		return
	}
	k := s.queryK(c)

	recommendations, err := s.recommender.RecommendForUser(userID, k)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":         userID,
		"count":           len(recommendations),
		"recommendations": recommendations,
	})
}

func (s *Server) recommendByCategory(c *gin.Context) {
	categoriesParam := c.Query("categories")
	if categoriesParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "categories query parameter is required",
		})
		return
	}

	var categories []string
	for _, category := range strings.Split(categoriesParam, ",") {
		if trimmed := strings.TrimSpace(category); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}

	recommendations, err := s.recommender.RecommendByCategory(categories, s.queryK(c))
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories":      categories,
		"count":           len(recommendations),
		"recommendations": recommendations,
	})
}

func (s *Server) recordRead(c *gin.Context) {
	userID, ok := s.pathID(c, "user_id")
	if !ok {
		return
	}
	articleID, ok := s.pathID(c, "article_id")
	if !ok {
		return
	}

	if err := s.storage.RecordRead(userID, articleID); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":    userID,
		"article_id": articleID,
	})
}

func (s *Server) setPreferredCategories(c *gin.Context) {
	userID, ok := s.pathID(c, "user_id")
	if !ok {
		return
	}

	var body struct {
		Categories []string `json:"categories"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	if err := s.storage.SetPreferredCategories(userID, body.Categories); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    userID,
		"categories": body.Categories,
	})
}

func (s *Server) getIngestStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"is_polling":  s.poller.IsPolling(),
		"last_polled": s.poller.GetLastPolledTime(),
	})
}

func (s *Server) forcePollSource(c *gin.Context) {
	source := c.Param("source")

	if err := s.poller.ForcePoll(source); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Force poll initiated successfully",
		"source":  source,
	})
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.storage.GetDatabaseStats()
	if err != nil {
		s.renderError(c, err)
		return
	}

	stats["indexed_vectors"] = s.index.Len()
	c.JSON(http.StatusOK, stats)
}

// pathID parses a numeric path parameter, rendering a 400 on failure.
func (s *Server) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid " + name + ": must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (s *Server) queryK(c *gin.Context) int {
	if kStr := c.Query("k"); kStr != "" {
		if k, err := strconv.Atoi(kStr); err == nil && k > 0 {
			return k
		}
	}
	return defaultK
}

func (s *Server) renderError(c *gin.Context, err error) {
	var validation *models.ValidationError
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
