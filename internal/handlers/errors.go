package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"melostore/internal/models"
)

// respondError renders any failure as a stable machine-readable code plus a
// human message. Transport and storage failures collapse to a generic
// network error so internals never leak.
func respondError(c *gin.Context, err error) {
	var de *models.DomainError
	if errors.As(err, &de) {
		c.JSON(domainStatus(de.Code), gin.H{"code": de.Code, "message": de.Message})
		return
	}
	slog.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    models.ErrCodeNetwork,
		"message": "internal failure",
	})
}

func domainStatus(code string) int {
	switch code {
	case models.ErrCodeNotFoundStorage, models.ErrCodeNotFoundLink:
		return http.StatusNotFound
	case models.ErrCodeApprovalRequired:
		return http.StatusForbidden
	case models.ErrCodeWrongPriorityControlled:
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}
