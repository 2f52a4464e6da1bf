package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/appprovts/SolarFlowPro/internal/api/middleware"
	"github.com/appprovts/SolarFlowPro/internal/models"
	"github.com/appprovts/SolarFlowPro/internal/report"
	"github.com/appprovts/SolarFlowPro/internal/service"
	"github.com/appprovts/SolarFlowPro/internal/workflow"
	"github.com/gin-gonic/gin"
)

// ============================================
// Project Handler
// ============================================

type ProjectHandler struct {
	projectService service.ProjectService
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		ID:   middleware.GetUserID(c),
		Name: middleware.GetUserName(c),
		Role: middleware.GetUserRole(c),
	}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	project, err := h.projectService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProjectResponse(project, actor.Role))
}

// List returns the projects visible to the caller, optionally filtered by
// view: ?view=vistorias or ?view=engenharia.
func (h *ProjectHandler) List(c *gin.Context) {
	actor := actorFrom(c)
	projects, err := h.projectService.List(c.Request.Context(), actor, c.Query("view"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.ProjectResponse, len(projects))
	for i, p := range projects {
		response[i] = toProjectResponse(p, actor.Role)
	}

	c.JSON(http.StatusOK, response)
}

func (h *ProjectHandler) GetByID(c *gin.Context) {
	actor := actorFrom(c)
	project, err := h.projectService.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	project, err := h.projectService.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	actor := actorFrom(c)
	if err := h.projectService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Project deleted"})
}

func (h *ProjectHandler) Advance(c *gin.Context) {
	actor := actorFrom(c)
	project, err := h.projectService.Advance(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

func (h *ProjectHandler) Retract(c *gin.Context) {
	actor := actorFrom(c)
	project, err := h.projectService.Retract(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

func (h *ProjectHandler) ResetToSurvey(c *gin.Context) {
	actor := actorFrom(c)
	project, err := h.projectService.ResetToSurvey(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

func (h *ProjectHandler) SubmitSurvey(c *gin.Context) {
	var req models.SubmitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	project, err := h.projectService.SubmitSurvey(c.Request.Context(), actor, c.Param("id"), &req.SurveyData, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

func (h *ProjectHandler) AssignIntegrator(c *gin.Context) {
	var req models.AssignIntegratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	project, err := h.projectService.AssignIntegrator(c.Request.Context(), actor, c.Param("id"), req.IntegratorName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

func (h *ProjectHandler) RunAnalysis(c *gin.Context) {
	actor := actorFrom(c)
	project, err := h.projectService.RunAnalysis(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

func (h *ProjectHandler) GenerateMemorial(c *gin.Context) {
	actor := actorFrom(c)
	project, err := h.projectService.GenerateMemorial(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectResponse(project, actor.Role))
}

// MemorialPDF streams the memorial draft as a downloadable PDF.
func (h *ProjectHandler) MemorialPDF(c *gin.Context) {
	actor := actorFrom(c)
	project, err := h.projectService.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if !workflow.CapabilitiesFor(actor.Role, project.Status).ViewDocuments {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	pdfBytes, err := report.MemorialPDF(project)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Memorial draft not available"})
		return
	}

	filename := fmt.Sprintf("memorial-%s.pdf", project.ID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(pdfBytes)))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *ProjectHandler) Stats(c *gin.Context) {
	stats, err := h.projectService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	activePower, _ := stats.ActivePowerKwp.Float64()
	c.JSON(http.StatusOK, models.DashboardStatsResponse{
		TotalProjects:      stats.TotalProjects,
		ActivePowerKwp:     activePower,
		PendingSubmissions: stats.PendingSubmissions,
		CompletedThisMonth: stats.CompletedThisMonth,
	})
}
