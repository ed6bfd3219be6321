package handler

import (
	"net/http"

	"github.com/Wasion-it/fork-controle-material/internal/apierror"
	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// Stats godoc
// @Summary      Inventory dashboard counters
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.StatsResponse
// @Router       /v1/stats [get]
func (h *ReportsHandler) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MovementReport returns the raw rows plus per-direction totals for an
// optional time range. Rendering (CSV or otherwise) is the caller's concern.
//
// @Summary      Movement report for a period
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from      query string false "RFC 3339 or YYYY-MM-DD"
// @Param        to        query string false "RFC 3339 or YYYY-MM-DD (dates cover the whole day)"
// @Param        direction query string false "in or out"
// @Success      200  {object} dto.MovementReportResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reports/movements [get]
func (h *ReportsHandler) MovementReport(c *gin.Context) {
	var filter dto.MovementReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.MovementReport(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
