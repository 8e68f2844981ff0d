package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/credilex/parecer/internal/ingest"
	"github.com/credilex/parecer/internal/model"
)

type createCollectionRequest struct {
	Name string `json:"name" binding:"required"`
}

type addDocumentsRequest struct {
	Texts     []string         `json:"texts" binding:"required,min=1"`
	Metadatas []map[string]any `json:"metadatas"`
	IDs       []string         `json:"ids"`
}

type queryRequest struct {
	Text string `json:"text" binding:"required"`
	TopK int    `json:"top_k"`
}

type askRequest struct {
	Collection string `json:"collection" binding:"required"`
	Question   string `json:"question" binding:"required"`
	TopK       int    `json:"top_k"`
}

type ingestTextRequest struct {
	Collection string `json:"collection"`
	Text       string `json:"text" binding:"required"`
	Source     string `json:"source"`
	ChunkSize  int    `json:"chunk_size"`
	Overlap    int    `json:"overlap"`
}

type ingestURLRequest struct {
	Collection string `json:"collection"`
	URL        string `json:"url" binding:"required"`
	ChunkSize  int    `json:"chunk_size"`
	Overlap    int    `json:"overlap"`
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": Version,
	})
}

// storeHealth handles GET /store/health
func (s *Server) storeHealth(c *gin.Context) {
	names, err := s.service.ListCollections(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"driver":      s.config.Store.Driver,
		"collections": names,
	})
}

// listCollections handles GET /collections
func (s *Server) listCollections(c *gin.Context) {
	names, err := s.service.ListCollections(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"collections": names})
}

// createCollection handles POST /collections
func (s *Server) createCollection(c *gin.Context) {
	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := s.service.CreateCollection(c.Request.Context(), req.Name); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"created": req.Name})
}

// getCollection handles GET /collections/:name
func (s *Server) getCollection(c *gin.Context) {
	info, err := s.service.CollectionInfo(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, info)
}

// addDocuments handles POST /collections/:name/add
func (s *Server) addDocuments(c *gin.Context) {
	var req addDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if len(req.IDs) > 0 && len(req.IDs) != len(req.Texts) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "ids must match texts in length")
		return
	}
	if len(req.Metadatas) > 0 && len(req.Metadatas) != len(req.Texts) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "metadatas must match texts in length")
		return
	}

	result, err := s.service.AddDocuments(c.Request.Context(), c.Param("name"), req.Texts, req.Metadatas, req.IDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// queryCollection handles POST /collections/:name/query
func (s *Server) queryCollection(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := s.service.QueryCollection(c.Request.Context(), c.Param("name"), req.Text, req.TopK)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// seedPolicies handles POST /policy/seed
func (s *Server) seedPolicies(c *gin.Context) {
	result, err := s.service.SeedPolicies(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// queryPolicies handles POST /policy/query
func (s *Server) queryPolicies(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := s.service.QueryPolicies(c.Request.Context(), req.Text, req.TopK)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// ask handles POST /rag/ask
func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	answer, err := s.service.Ask(c.Request.Context(), req.Collection, req.Question, req.TopK)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, answer)
}

// verify handles POST /verify
func (s *Server) verify(c *gin.Context) {
	var input model.CaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if strings.TrimSpace(input.Natureza) == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "natureza is required")
		return
	}

	verification, err := s.service.Verify(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, verification)
}

// ingestText handles POST /ingest/text. Overlap starts at -1 so an absent
// field takes the configured default while an explicit zero stays zero.
func (s *Server) ingestText(c *gin.Context) {
	req := ingestTextRequest{Overlap: -1}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.ChunkSize < 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "chunk_size must be positive")
		return
	}

	result, err := s.ingestor.IngestText(c.Request.Context(), ingest.TextRequest{
		Collection: req.Collection,
		Text:       req.Text,
		Source:     req.Source,
		ChunkSize:  req.ChunkSize,
		Overlap:    req.Overlap,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// ingestURL handles POST /ingest/url
func (s *Server) ingestURL(c *gin.Context) {
	req := ingestURLRequest{Overlap: -1}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.ChunkSize < 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "chunk_size must be positive")
		return
	}

	result, err := s.ingestor.IngestURL(c.Request.Context(), ingest.URLRequest{
		Collection: req.Collection,
		URL:        req.URL,
		ChunkSize:  req.ChunkSize,
		Overlap:    req.Overlap,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}
