package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claim-analyze-pipeline/claims"
	"claim-analyze-pipeline/config"
	"claim-analyze-pipeline/database"
	"claim-analyze-pipeline/llm"
	"claim-analyze-pipeline/models"
	"claim-analyze-pipeline/parser"
	"claim-analyze-pipeline/service"
	"claim-analyze-pipeline/translator"
)

// Handlers represents the HTTP handlers
type Handlers struct {
	analyzer *service.Analyzer
	db       *database.Database
}

// NewHandlers creates new HTTP handlers
func NewHandlers(analyzer *service.Analyzer, db *database.Database) *Handlers {
	return &Handlers{analyzer: analyzer, db: db}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "claim-analyze-pipeline",
	})
}

// AnalyzeRequest is the synchronous analysis request body.
type AnalyzeRequest struct {
	Modality      string `json:"modality" binding:"required"`
	Content       string `json:"content"`
	Payload       []byte `json:"payload,omitempty"`
	MimeType      string `json:"mime_type,omitempty"`
	ExtractedText string `json:"extracted_text,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
	Language      string `json:"language,omitempty"`
}

// Analyze runs a submission through the pipeline synchronously.
func (h *Handlers) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub := &models.Submission{
		ID:            uuid.New().String(),
		Modality:      models.Modality(req.Modality),
		Content:       req.Content,
		Payload:       req.Payload,
		MimeType:      req.MimeType,
		ExtractedText: req.ExtractedText,
		SourceURL:     req.SourceURL,
		Language:      req.Language,
		SubmittedAt:   time.Now().UTC(),
	}

	analysis, err := h.analyzer.Analyze(c.Request.Context(), sub)
	if err != nil {
		status, msg := analysisError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     sub.ID,
		"source": analysis.Source,
		"result": analysis.Result,
	})
}

func analysisError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrBadModality):
		return http.StatusBadRequest, "Unsupported modality"
	case errors.Is(err, service.ErrNoContent), errors.Is(err, parser.ErrNoContent):
		return http.StatusBadRequest, "No content to analyze"
	case errors.Is(err, llm.ErrRefused):
		return http.StatusUnprocessableEntity, "The model declined to analyze this content"
	case errors.Is(err, llm.ErrUnavailable):
		return http.StatusBadGateway, "Could not reach the analysis service"
	case errors.Is(err, claims.ErrTimedOut):
		return http.StatusGatewayTimeout, "The claim analysis did not finish in time"
	case errors.Is(err, claims.ErrSubmitFailed), errors.Is(err, claims.ErrPollFailed):
		return http.StatusBadGateway, "Could not reach the analysis service"
	default:
		return http.StatusInternalServerError, "Analysis failed"
	}
}

// TranslateRequest is the translate endpoint request body.
type TranslateRequest struct {
	Language string                 `json:"language" binding:"required"`
	Result   *models.AnalysisResult `json:"result" binding:"required"`
}

// Translate returns a language variant of a previously obtained result.
func (h *Handlers) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	translated, err := h.analyzer.Translate(c.Request.Context(), req.Result, config.LanguageName(req.Language))
	if err != nil {
		if errors.Is(err, translator.ErrFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Translation failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Translation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"language": req.Language,
		"result":   translated,
	})
}

// GetAnalysisByID returns the stored analysis for an ID, optionally in a
// specific language (?lang=hi).
func (h *Handlers) GetAnalysisByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing analysis id"})
		return
	}

	analysis, err := h.db.GetAnalysis(id, c.Query("lang"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get analysis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         analysis.ID,
		"modality":   analysis.Modality,
		"content":    analysis.Content,
		"source_url": analysis.SourceURL,
		"source":     analysis.Source,
		"language":   analysis.Language,
		"result":     analysis.Result,
		"created_at": analysis.CreatedAt,
	})
}

// GetAnalysisStats returns statistics about stored analyses
func (h *Handlers) GetAnalysisStats(c *gin.Context) {
	stats, err := h.db.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get analysis stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
