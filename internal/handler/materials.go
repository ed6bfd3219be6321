package handler

import (
	"net/http"

	"github.com/Wasion-it/fork-controle-material/internal/apierror"
	"github.com/Wasion-it/fork-controle-material/internal/dto"
	"github.com/Wasion-it/fork-controle-material/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MaterialsHandler struct{ svc service.MaterialService }

func NewMaterialsHandler(svc service.MaterialService) *MaterialsHandler {
	return &MaterialsHandler{svc: svc}
}

// Create godoc
// @Summary      Register a material
// @Description  Creates a material and, when the starting quantity is positive, seeds the matching ledger entry in the same transaction.
// @Tags         materials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateMaterialRequest true "Material to register"
// @Success      201  {object} dto.MaterialResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/materials [post]
func (h *MaterialsHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List materials
// @Tags         materials
// @Produce      json
// @Security     BearerAuth
// @Param        active    query string false "active filter: true (default), false or all"
// @Param        category  query string false "category name"
// @Param        low_stock query bool   false "only materials at or below their minimum"
// @Param        page      query int    false "page number"
// @Param        limit     query int    false "page size (max 100)"
// @Success      200  {object} dto.MaterialListResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/materials [get]
func (h *MaterialsHandler) List(c *gin.Context) {
	var filter dto.MaterialFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary      Get a material
// @Description  Returns the material together with its most recent movements.
// @Tags         materials
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Material UUID"
// @Success      200  {object} dto.MaterialDetailResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/materials/{id} [get]
func (h *MaterialsHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update material metadata
// @Description  Edits name, description, location, minimum or category. Quantity is not editable here; stock changes go through movements.
// @Tags         materials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Material UUID"
// @Param        body body dto.UpdateMaterialRequest true "Fields to change"
// @Success      200  {object} dto.MaterialResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/materials/{id} [put]
func (h *MaterialsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.UpdateMaterialRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateMetadata(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary      Deactivate a material
// @Description  Soft delete. The material stops accepting movements but its history stays.
// @Tags         materials
// @Security     BearerAuth
// @Param        id path string true "Material UUID"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Router       /v1/materials/{id} [delete]
func (h *MaterialsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reactivate godoc
// @Summary      Reactivate a material
// @Description  Restores a deactivated material with the quantity it had. No ledger entry is emitted.
// @Tags         materials
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Material UUID"
// @Success      200  {object} dto.MaterialResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/materials/{id}/reactivate [patch]
func (h *MaterialsHandler) Reactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Reactivate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
