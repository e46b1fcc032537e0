package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"juridisch-advies-backend/service"
)

// AdvisoryHandler handles HTTP requests for advisory runs
type AdvisoryHandler struct {
	adviceService *service.AdviceService
}

// NewAdvisoryHandler creates a new advisory handler
func NewAdvisoryHandler(adviceService *service.AdviceService) *AdvisoryHandler {
	return &AdvisoryHandler{adviceService: adviceService}
}

// StartAdvisory handles POST /api/intakes/:id/advise
func (h *AdvisoryHandler) StartAdvisory(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid intake ID format",
			},
		})
		return
	}

	// Create the run (synchronous, fast)
	result, err := h.adviceService.StartRun(c.Request.Context(), service.StartRunRequest{IntakeID: id})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIntakeNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Intake not found",
				},
			})
		case errors.Is(err, service.ErrMissingRequiredData):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_REQUIRED_FIELDS",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RUN_CREATION_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	// Spawn background goroutine for actual processing
	// Use background context (not request context) to avoid cancellation
	go func() {
		bgCtx := context.Background()
		if err := h.adviceService.ProcessRun(bgCtx, result.RunID); err != nil {
			// Error is stored on the run; clients see it when polling
			log.Printf("Advisory run %s failed: %v", result.RunID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"run_id":  result.RunID,
			"status":  result.Status,
			"message": "Advisory run created. Poll /api/runs/:id for updates.",
		},
	})
}

// GetRun handles GET /api/runs/:id
func (h *AdvisoryHandler) GetRun(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid run ID format",
			},
		})
		return
	}

	run, err := h.adviceService.GetRun(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Advisory run not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    run,
	})
}

// ExportRun handles GET /api/runs/:id/export?format=txt|json
func (h *AdvisoryHandler) ExportRun(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid run ID format",
			},
		})
		return
	}

	format := c.DefaultQuery("format", "txt")
	if format != "txt" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FORMAT",
				"message": "Format must be txt or json",
			},
		})
		return
	}

	rec, err := h.adviceService.ExportRun(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRunNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Advisory run not found",
				},
			})
		case errors.Is(err, service.ErrRunNotCompleted):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RUN_NOT_COMPLETED",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EXPORT_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	if format == "json" {
		data, err := rec.JSON()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EXPORT_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.JSONFilename()))
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.TextFilename()))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(rec.PlainText()))
}
