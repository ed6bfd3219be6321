package handler

import (
	"net/http"
	"strings"

	"github.com/Wasion-it/fork-controle-material/internal/apierror"
	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/middleware"
	"github.com/Wasion-it/fork-controle-material/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MovementsHandler struct {
	ledger  service.LedgerService
	reports service.ReportService
}

func NewMovementsHandler(ledger service.LedgerService, reports service.ReportService) *MovementsHandler {
	return &MovementsHandler{ledger: ledger, reports: reports}
}

// Record applies one stock movement. The technician attribution defaults to
// the display name the auth layer resolved for the caller; an explicit body
// value wins so a supervisor can record on a colleague's behalf.
//
// @Summary      Record a stock movement
// @Description  Applies an in or out movement atomically: the quantity change and its ledger entry commit together. Returns 503 when the material is under heavy contention.
// @Tags         movements
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RecordMovementRequest true "Movement to apply"
// @Success      201  {object} dto.RecordMovementResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/movements [post]
func (h *MovementsHandler) Record(c *gin.Context) {
	var req dto.RecordMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}

	materialID, err := uuid.Parse(req.MaterialID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid material_id"))
		return
	}

	technician := strings.TrimSpace(req.Technician)
	if technician == "" {
		if claims := middleware.GetClaims(c); claims != nil {
			technician = claims.Name
		}
	}

	resp, err := h.ledger.RecordMovement(c.Request.Context(), service.MovementInput{
		MaterialID: materialID,
		Direction:  req.Direction,
		Amount:     req.Amount,
		Technician: technician,
		Note:       req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List movements
// @Tags         movements
// @Produce      json
// @Security     BearerAuth
// @Param        material_id query string false "Material UUID"
// @Param        direction   query string false "in or out"
// @Param        limit       query int    false "max rows (default 100, max 500)"
// @Success      200  {array} dto.MovementResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/movements [get]
func (h *MovementsHandler) List(c *gin.Context) {
	var filter dto.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.reports.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
