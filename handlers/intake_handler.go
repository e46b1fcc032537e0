package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"juridisch-advies-backend/models"
	"juridisch-advies-backend/service"
)

// IntakeHandler handles HTTP requests for case intakes
type IntakeHandler struct {
	intakeService *service.IntakeService
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intakeService *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService}
}

// CreateIntakeRequest represents the request body for creating an
// intake. The required case fields are not enforced here: documents can
// still supply them during the run.
type CreateIntakeRequest struct {
	ClientName       string   `json:"client_naam"`
	ClientRole       string   `json:"client_rol"`
	CounterpartyName string   `json:"tegenpartij_naam"`
	CounterpartyRole string   `json:"tegenpartij_rol"`
	SituationSummary string   `json:"situatie_samenvatting"`
	ClientObjective  string   `json:"doel_client"`
	Claims           []string `json:"vorderingen"`
	Facts            string   `json:"feitenrelaas"`
	Evidence         []string `json:"bewijsstukken"`
	DocumentIDs      []string `json:"document_ids"`
}

// CreateIntake handles POST /api/intakes
func (h *IntakeHandler) CreateIntake(c *gin.Context) {
	var req CreateIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	docIDs := make([]uuid.UUID, 0, len(req.DocumentIDs))
	for _, idStr := range req.DocumentIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_DOCUMENT_ID",
					"message": "Invalid document ID format: " + idStr,
				},
			})
			return
		}
		docIDs = append(docIDs, id)
	}

	serviceReq := service.CreateIntakeRequest{
		Form: models.CaseForm{
			ClientName:       req.ClientName,
			ClientRole:       req.ClientRole,
			CounterpartyName: req.CounterpartyName,
			CounterpartyRole: req.CounterpartyRole,
			SituationSummary: req.SituationSummary,
			ClientObjective:  req.ClientObjective,
			Claims:           req.Claims,
			Facts:            req.Facts,
			Evidence:         req.Evidence,
		},
		DocumentIDs: docIDs,
	}

	result, err := h.intakeService.CreateIntake(c.Request.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DOCUMENT_NOT_FOUND",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Intake,
	})
}

// GetIntake handles GET /api/intakes/:id
func (h *IntakeHandler) GetIntake(c *gin.Context) {
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

	intake, err := h.intakeService.GetIntake(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Intake not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    intake,
	})
}
