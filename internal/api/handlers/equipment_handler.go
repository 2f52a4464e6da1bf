package handlers

import (
	"net/http"

	"github.com/appprovts/SolarFlowPro/internal/api/middleware"
	"github.com/appprovts/SolarFlowPro/internal/models"
	"github.com/appprovts/SolarFlowPro/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Equipment Handler
// ============================================

type EquipmentHandler struct {
	equipmentService service.EquipmentService
}

func (h *EquipmentHandler) Create(c *gin.Context) {
	var req models.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	equipment, err := h.equipmentService.Create(c.Request.Context(), middleware.GetUserRole(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEquipmentResponse(equipment))
}

// List returns the catalog, optionally filtered by ?type=.
func (h *EquipmentHandler) List(c *gin.Context) {
	items, err := h.equipmentService.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.EquipmentResponse, len(items))
	for i, e := range items {
		response[i] = toEquipmentResponse(e)
	}

	c.JSON(http.StatusOK, response)
}

func (h *EquipmentHandler) GetByID(c *gin.Context) {
	equipment, err := h.equipmentService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEquipmentResponse(equipment))
}

func (h *EquipmentHandler) Update(c *gin.Context) {
	var req models.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	equipment, err := h.equipmentService.Update(c.Request.Context(), middleware.GetUserRole(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEquipmentResponse(equipment))
}

func (h *EquipmentHandler) Delete(c *gin.Context) {
	if err := h.equipmentService.Delete(c.Request.Context(), middleware.GetUserRole(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Equipment deleted"})
}

// SpecsLookup asks the drafting model for a spec sheet by name and type.
func (h *EquipmentHandler) SpecsLookup(c *gin.Context) {
	var req models.SpecsLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	specs, err := h.equipmentService.LookupSpecs(c.Request.Context(), req.Name, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	if specs == nil {
		specs = map[string]interface{}{}
	}
	c.JSON(http.StatusOK, gin.H{"specs": specs})
}
