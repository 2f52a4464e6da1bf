package handlers

import (
	"net/http"

	"github.com/appprovts/SolarFlowPro/internal/models"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/service"
	"github.com/appprovts/SolarFlowPro/internal/workflow"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Project      *ProjectHandler
	Notification *NotificationHandler
	Equipment    *EquipmentHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		User:         &UserHandler{userService: services.User},
		Project:      &ProjectHandler{projectService: services.Project},
		Notification: &NotificationHandler{notificationService: services.Notification},
		Equipment:    &EquipmentHandler{equipmentService: services.Equipment},
	}
}

// respondError maps service sentinel errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch err {
	case service.ErrNotFound, service.ErrUserNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case service.ErrForbidden, service.ErrSurveyLocked:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case service.ErrStaleVersion:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case service.ErrInvalidInput, service.ErrInsufficientPhotos, service.ErrInvalidTransition:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.ErrInvalidCredentials, service.ErrInvalidToken:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case service.ErrUserExists:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case service.ErrDraftingUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Avatar:    u.Avatar,
		Phone:     u.Phone,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

// toProjectResponse maps a project row plus the caller's capabilities into
// the wire shape. Survey data and documents are stripped for roles that may
// not see them.
func toProjectResponse(p *repository.Project, role string) models.ProjectResponse {
	caps := workflow.CapabilitiesFor(role, p.Status)

	powerKwp, _ := p.PowerKwp.Float64()
	estimated, _ := p.EstimatedProduction.Float64()

	resp := models.ProjectResponse{
		ID:                   p.ID,
		ClientName:           p.ClientName,
		Address:              p.Address,
		Status:               p.Status,
		PowerKwp:             powerKwp,
		EstimatedProduction:  estimated,
		Notes:                p.Notes,
		AssignedIntegrator:   p.AssignedIntegrator,
		SurveyData:           p.SurveyData,
		ConcessionariaStatus: p.ConcessionariaStatus,
		Version:              p.Version,
		Capabilities:         caps,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}

	if p.StartDate != nil {
		startDate := p.StartDate.Format("2006-01-02")
		resp.StartDate = &startDate
	}

	if caps.ViewDocuments {
		resp.Analysis = p.Analysis
		resp.Memorial = p.Memorial
	}

	return resp
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:         n.ID,
		Title:      n.Title,
		Message:    n.Message,
		Type:       n.Type,
		IsRead:     n.IsRead,
		ProjectID:  n.ProjectID,
		Action:     n.Action,
		ActionData: n.ActionData,
		Timestamp:  n.CreatedAt,
	}
}

func toEquipmentResponse(e *repository.Equipment) models.EquipmentResponse {
	specs := e.Specs
	if specs == nil {
		specs = map[string]interface{}{}
	}
	return models.EquipmentResponse{
		ID:          e.ID,
		Name:        e.Name,
		Type:        e.Type,
		Description: e.Description,
		Specs:       specs,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
