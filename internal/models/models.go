package models

import (
	"time"

	"github.com/appprovts/SolarFlowPro/internal/repository"
)

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required,min=2"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Role     string  `json:"role" binding:"omitempty,oneof=Integrador Engenharia Admin"`
	Phone    *string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Avatar    *string   `json:"avatar,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	Phone  *string `json:"phone,omitempty"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=Integrador Engenharia Admin"`
}

// ============================================
// Project DTOs
// ============================================

type CreateProjectRequest struct {
	ClientName          string  `json:"clientName" binding:"required"`
	Address             string  `json:"address" binding:"required"`
	PowerKwp            float64 `json:"powerKwp" binding:"omitempty,gte=0"`
	EstimatedProduction float64 `json:"estimatedProduction" binding:"omitempty,gte=0"`
	StartDate           *string `json:"startDate,omitempty"` // YYYY-MM-DD
	Notes               string  `json:"notes"`
	AssignedIntegrator  *string `json:"assignedIntegrator,omitempty"`
}

type UpdateProjectRequest struct {
	ClientName          *string  `json:"clientName,omitempty"`
	Address             *string  `json:"address,omitempty"`
	PowerKwp            *float64 `json:"powerKwp,omitempty"`
	EstimatedProduction *float64 `json:"estimatedProduction,omitempty"`
	StartDate           *string  `json:"startDate,omitempty"`
	Notes               *string  `json:"notes,omitempty"`

	// AssignedIntegrator only sets a new assignee here; clearing one goes
	// through PUT /projects/:id/assign, since an explicit JSON null is
	// indistinguishable from an absent field on a pointer.
	AssignedIntegrator   *string `json:"assignedIntegrator,omitempty"`
	ConcessionariaStatus *string `json:"concessionariaStatus,omitempty"`

	// Version is the version the client last read. When set, the update is
	// rejected with a conflict if the project has moved on since.
	Version *int64 `json:"version,omitempty"`
}

type SubmitSurveyRequest struct {
	SurveyData repository.SurveyData `json:"surveyData" binding:"required"`
	Version    *int64                `json:"version,omitempty"`
}

type AssignIntegratorRequest struct {
	IntegratorName *string `json:"integratorName"` // null unassigns
}

type ProjectResponse struct {
	ID                   string                 `json:"id"`
	ClientName           string                 `json:"clientName"`
	Address              string                 `json:"address"`
	Status               string                 `json:"status"`
	PowerKwp             float64                `json:"powerKwp"`
	EstimatedProduction  float64                `json:"estimatedProduction"`
	StartDate            *string                `json:"startDate,omitempty"`
	Notes                string                 `json:"notes"`
	AssignedIntegrator   *string                `json:"assignedIntegrator,omitempty"`
	SurveyData           *repository.SurveyData `json:"surveyData,omitempty"`
	ConcessionariaStatus *string                `json:"concessionariaStatus,omitempty"`
	Analysis             *string                `json:"analysis,omitempty"`
	Memorial             *string                `json:"memorial,omitempty"`
	Version              int64                  `json:"version"`
	Capabilities         interface{}            `json:"capabilities,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
}

type DashboardStatsResponse struct {
	TotalProjects      int     `json:"totalProjects"`
	ActivePowerKwp     float64 `json:"activePowerKwp"`
	PendingSubmissions int     `json:"pendingSubmissions"`
	CompletedThisMonth int     `json:"completedThisMonth"`
}

// ============================================
// Notification DTOs
// ============================================

type NotificationResponse struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Type       string                 `json:"type"`
	IsRead     bool                   `json:"isRead"`
	ProjectID  *string                `json:"projectId,omitempty"`
	Action     *string                `json:"action,omitempty"`
	ActionData *repository.ActionData `json:"actionData,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

// ============================================
// Equipment DTOs
// ============================================

type CreateEquipmentRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Type        string                 `json:"type" binding:"required,oneof=Módulo Inversor Estrutura Proteção"`
	Description string                 `json:"description"`
	Specs       map[string]interface{} `json:"specs,omitempty"`
}

type UpdateEquipmentRequest struct {
	Name        *string                `json:"name,omitempty"`
	Type        *string                `json:"type,omitempty" binding:"omitempty,oneof=Módulo Inversor Estrutura Proteção"`
	Description *string                `json:"description,omitempty"`
	Specs       map[string]interface{} `json:"specs,omitempty"`
}

type SpecsLookupRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required,oneof=Módulo Inversor Estrutura Proteção"`
}

type EquipmentResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Specs       map[string]interface{} `json:"specs"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// ============================================
// Common
// ============================================

type SuccessResponse struct {
	Message string `json:"message"`
}
