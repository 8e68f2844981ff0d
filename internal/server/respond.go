package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/credilex/parecer/internal/ingest"
	"github.com/credilex/parecer/internal/llm"
	"github.com/credilex/parecer/internal/store"
)

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps domain errors to HTTP statuses with stable codes
// clients can branch on.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrCollectionNotFound):
		respondError(c, http.StatusNotFound, "COLLECTION_NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrDuplicateID):
		respondError(c, http.StatusConflict, "DUPLICATE_ID", err.Error())
	case errors.Is(err, ingest.ErrRobotsDisallowed):
		respondError(c, http.StatusForbidden, "ROBOTS_DISALLOWED", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, "LLM_TIMEOUT", err.Error())
	case errors.Is(err, llm.ErrAuth), errors.Is(err, llm.ErrQuota), errors.Is(err, llm.ErrUnavailable):
		respondError(c, http.StatusBadGateway, "LLM_UNAVAILABLE", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
