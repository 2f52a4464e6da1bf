package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/ai"
	"github.com/appprovts/SolarFlowPro/internal/config"
	"github.com/appprovts/SolarFlowPro/internal/db"
	"github.com/appprovts/SolarFlowPro/internal/email"
	"github.com/appprovts/SolarFlowPro/internal/models"
	"github.com/appprovts/SolarFlowPro/internal/notification"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/socket"
	"github.com/appprovts/SolarFlowPro/internal/types"
	"github.com/appprovts/SolarFlowPro/internal/workflow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Actor identifies the authenticated user performing an operation,
// resolved from the JWT claims by the middleware.
type Actor struct {
	ID   string
	Name string
	Role string
}

// ============================================
// Project Service
// ============================================

type ProjectService interface {
	Create(ctx context.Context, actor Actor, req *models.CreateProjectRequest) (*repository.Project, error)
	GetByID(ctx context.Context, actor Actor, id string) (*repository.Project, error)
	List(ctx context.Context, actor Actor, view string) ([]*repository.Project, error)
	Update(ctx context.Context, actor Actor, id string, req *models.UpdateProjectRequest) (*repository.Project, error)
	Delete(ctx context.Context, actor Actor, id string) error

	Advance(ctx context.Context, actor Actor, id string) (*repository.Project, error)
	Retract(ctx context.Context, actor Actor, id string) (*repository.Project, error)
	ResetToSurvey(ctx context.Context, actor Actor, id string) (*repository.Project, error)

	SubmitSurvey(ctx context.Context, actor Actor, id string, survey *repository.SurveyData, version *int64) (*repository.Project, error)
	AssignIntegrator(ctx context.Context, actor Actor, id string, integratorName *string) (*repository.Project, error)

	RunAnalysis(ctx context.Context, actor Actor, id string) (*repository.Project, error)
	GenerateMemorial(ctx context.Context, actor Actor, id string) (*repository.Project, error)

	Stats(ctx context.Context) (*repository.ProjectStats, error)
}

type projectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	notifSvc    *notification.Service
	emailSvc    *email.Service
	drafter     *ai.Drafter
	broadcaster *socket.Broadcaster
	redis       *db.RedisDB
	cfg         *config.Config
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	notifSvc *notification.Service,
	emailSvc *email.Service,
	drafter *ai.Drafter,
	broadcaster *socket.Broadcaster,
	redis *db.RedisDB,
	cfg *config.Config,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		notifSvc:    notifSvc,
		emailSvc:    emailSvc,
		drafter:     drafter,
		broadcaster: broadcaster,
		redis:       redis,
		cfg:         cfg,
	}
}

func (s *projectService) Create(ctx context.Context, actor Actor, req *models.CreateProjectRequest) (*repository.Project, error) {
	project := &repository.Project{
		ClientName:          req.ClientName,
		Address:             req.Address,
		Status:              types.StatusVistoria,
		PowerKwp:            decimal.NewFromFloat(req.PowerKwp),
		EstimatedProduction: decimal.NewFromFloat(req.EstimatedProduction),
		Notes:               req.Notes,
		AssignedIntegrator:  req.AssignedIntegrator,
	}

	if req.StartDate != nil && *req.StartDate != "" {
		startDate, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, ErrInvalidInput
		}
		project.StartDate = &startDate
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.invalidateStats(ctx)

	if s.notifSvc != nil {
		s.notifSvc.SendProjectCreated(ctx, actor.ID, project.ClientName, project.ID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastProjectCreated(projectEventPayload(project), actor.ID)
	}

	if project.AssignedIntegrator != nil && *project.AssignedIntegrator != "" {
		s.dispatchAssignment(ctx, actor, project)
	}

	return project, nil
}

func (s *projectService) GetByID(ctx context.Context, actor Actor, id string) (*repository.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	// Hidden projects look like missing ones to integradores.
	if !workflow.VisibleTo(actor.Role, actor.Name, assignedName(project)) {
		return nil, ErrNotFound
	}
	return project, nil
}

func (s *projectService) List(ctx context.Context, actor Actor, view string) ([]*repository.Project, error) {
	if view == workflow.ViewEngenharia && !workflow.IsManagement(actor.Role) {
		return nil, ErrForbidden
	}

	projects, err := s.projectRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*repository.Project, 0, len(projects))
	for _, p := range projects {
		if !workflow.VisibleTo(actor.Role, actor.Name, assignedName(p)) {
			continue
		}
		if !workflow.InView(view, actor.Role, p.Status) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

func (s *projectService) Update(ctx context.Context, actor Actor, id string, req *models.UpdateProjectRequest) (*repository.Project, error) {
	project, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	// General info is management-only; survey edits go through SubmitSurvey.
	caps := workflow.CapabilitiesFor(actor.Role, project.Status)
	if !caps.EditInfo {
		return nil, ErrForbidden
	}

	if req.Version != nil && *req.Version != project.Version {
		return nil, ErrStaleVersion
	}

	var changes []string
	if req.ClientName != nil {
		project.ClientName = *req.ClientName
		changes = append(changes, "clientName")
	}
	if req.Address != nil {
		project.Address = *req.Address
		changes = append(changes, "address")
	}
	if req.PowerKwp != nil {
		project.PowerKwp = decimal.NewFromFloat(*req.PowerKwp)
		changes = append(changes, "powerKwp")
	}
	if req.EstimatedProduction != nil {
		project.EstimatedProduction = decimal.NewFromFloat(*req.EstimatedProduction)
		changes = append(changes, "estimatedProduction")
	}
	if req.StartDate != nil {
		if *req.StartDate == "" {
			project.StartDate = nil
		} else {
			startDate, err := time.Parse("2006-01-02", *req.StartDate)
			if err != nil {
				return nil, ErrInvalidInput
			}
			project.StartDate = &startDate
		}
		changes = append(changes, "startDate")
	}
	if req.Notes != nil {
		project.Notes = *req.Notes
		changes = append(changes, "notes")
	}
	if req.AssignedIntegrator != nil {
		project.AssignedIntegrator = req.AssignedIntegrator
		changes = append(changes, "assignedIntegrator")
	}
	if req.ConcessionariaStatus != nil {
		if !types.IsValidConcessionariaStatus(*req.ConcessionariaStatus) {
			return nil, ErrInvalidInput
		}
		project.ConcessionariaStatus = req.ConcessionariaStatus
		changes = append(changes, "concessionariaStatus")
	}

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if s.broadcaster != nil && len(changes) > 0 {
		s.broadcaster.BroadcastProjectUpdated(project.ID, projectEventPayload(project), changes, actor.ID)
	}

	return project, nil
}

func (s *projectService) Delete(ctx context.Context, actor Actor, id string) error {
	if !workflow.IsManagement(actor.Role) {
		return ErrForbidden
	}

	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrNotFound
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastProjectDeleted(id, actor.ID)
	}
	return nil
}

// Advance moves the project one stage forward. Leaving Vistoria requires a
// finalized survey; at Concluído this is a no-op.
func (s *projectService) Advance(ctx context.Context, actor Actor, id string) (*repository.Project, error) {
	project, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	caps := workflow.CapabilitiesFor(actor.Role, project.Status)
	if !caps.ManageFlow {
		return nil, ErrForbidden
	}

	next := workflow.Advance(project.Status)
	if next == project.Status {
		return project, nil
	}

	// Leaving Aguardando Análise happens through the analysis action,
	// never through the generic advance.
	if project.Status == types.StatusAguardandoAnalise {
		return nil, ErrInvalidTransition
	}

	if project.Status == types.StatusVistoria {
		photoCount := 0
		if project.SurveyData != nil {
			photoCount = len(project.SurveyData.Photos)
		}
		if !workflow.SurveyComplete(photoCount) {
			return nil, ErrInsufficientPhotos
		}
	}

	return s.transition(ctx, actor, project, next, false)
}

// Retract moves the project one stage back. At Vistoria this is a no-op.
func (s *projectService) Retract(ctx context.Context, actor Actor, id string) (*repository.Project, error) {
	project, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	caps := workflow.CapabilitiesFor(actor.Role, project.Status)
	if !caps.ManageFlow {
		return nil, ErrForbidden
	}

	prev := workflow.Retract(project.Status)
	if prev == project.Status {
		return project, nil
	}

	return s.transition(ctx, actor, project, prev, true)
}

// ResetToSurvey sends the project back to the first stage and discards the
// collected survey. This is deliberately lossy; the frontend warns before
// calling it.
func (s *projectService) ResetToSurvey(ctx context.Context, actor Actor, id string) (*repository.Project, error) {
	project, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	caps := workflow.CapabilitiesFor(actor.Role, project.Status)
	if !caps.Reset {
		return nil, ErrForbidden
	}

	oldStatus := project.Status
	project.Status = types.StatusVistoria
	project.SurveyData = nil
	project.Analysis = nil
	project.ConcessionariaStatus = nil

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if s.notifSvc != nil {
		s.notifSvc.SendResetToSurvey(ctx, actor.ID, project.ClientName, project.ID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastStatusChanged(project.ID, projectEventPayload(project), oldStatus, project.Status, actor.ID)
	}

	return project, nil
}

// SubmitSurvey stores the finalized site survey and moves the project from
// Vistoria to Aguardando Análise in the same write. The photo gate is
// enforced here, not in the client.
func (s *projectService) SubmitSurvey(ctx context.Context, actor Actor, id string, survey *repository.SurveyData, version *int64) (*repository.Project, error) {
	project, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !workflow.CanSubmitSurvey(actor.Role, actor.Name, assignedName(project), project.Status) {
		if project.Status != types.StatusVistoria {
			return nil, ErrSurveyLocked
		}
		return nil, ErrForbidden
	}

	if survey == nil || !workflow.SurveyComplete(len(survey.Photos)) {
		return nil, ErrInsufficientPhotos
	}

	if version != nil && *version != project.Version {
		return nil, ErrStaleVersion
	}

	oldStatus := project.Status
	project.SurveyData = survey
	project.Status = types.StatusAguardandoAnalise

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if s.notifSvc != nil {
		s.notifSvc.SendSurveySubmitted(ctx, actor.ID, actor.Name, project.ClientName, project.ID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastSurveySubmitted(project.ID, projectEventPayload(project), actor.Name)
		s.broadcaster.BroadcastStatusChanged(project.ID, projectEventPayload(project), oldStatus, project.Status, actor.ID)
	}

	return project, nil
}

// AssignIntegrator hands the field work to an integrator by name, or clears
// the assignment when integratorName is nil. The assignee gets an actionable
// notification with a WhatsApp link, plus an email when SMTP is configured.
func (s *projectService) AssignIntegrator(ctx context.Context, actor Actor, id string, integratorName *string) (*repository.Project, error) {
	if !workflow.IsManagement(actor.Role) {
		return nil, ErrForbidden
	}

	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}

	if integratorName == nil || *integratorName == "" {
		project.AssignedIntegrator = nil
	} else {
		integrator, err := s.userRepo.FindByName(ctx, *integratorName)
		if err != nil {
			return nil, err
		}
		if integrator == nil || integrator.Role != types.RoleIntegrador {
			return nil, ErrUserNotFound
		}
		project.AssignedIntegrator = &integrator.Name
	}

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if project.AssignedIntegrator != nil {
		s.dispatchAssignment(ctx, actor, project)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastProjectUpdated(project.ID, projectEventPayload(project), []string{"assignedIntegrator"}, actor.ID)
	}

	return project, nil
}

// RunAnalysis drafts the technical analysis from the survey and moves the
// project into Análise Técnica.
func (s *projectService) RunAnalysis(ctx context.Context, actor Actor, id string) (*repository.Project, error) {
	project, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	caps := workflow.CapabilitiesFor(actor.Role, project.Status)
	if !caps.RunAnalysis {
		return nil, ErrForbidden
	}
	if s.drafter == nil {
		return nil, ErrDraftingUnavailable
	}

	analysis, err := s.drafter.AnalyzeSurvey(ctx, project, project.SurveyData)
	if err != nil {
		return nil, fmt.Errorf("analysis draft failed: %w", err)
	}

	oldStatus := project.Status
	project.Analysis = &analysis
	project.Status = types.StatusAnalise

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if s.notifSvc != nil {
		s.notifSvc.SendAnalysisGenerated(ctx, actor.ID, project.ClientName, project.ID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastAnalysisGenerated(project.ID, actor.ID)
		s.broadcaster.BroadcastStatusChanged(project.ID, projectEventPayload(project), oldStatus, project.Status, actor.ID)
	}

	return project, nil
}

// GenerateMemorial drafts the descriptive memorial for the utility without
// touching the workflow status.
func (s *projectService) GenerateMemorial(ctx context.Context, actor Actor, id string) (*repository.Project, error) {
	project, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	caps := workflow.CapabilitiesFor(actor.Role, project.Status)
	if !caps.GenerateMemorial {
		return nil, ErrForbidden
	}
	if s.drafter == nil {
		return nil, ErrDraftingUnavailable
	}

	memorial, err := s.drafter.GenerateMemorial(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("memorial draft failed: %w", err)
	}

	project.Memorial = &memorial

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if s.notifSvc != nil {
		s.notifSvc.SendMemorialGenerated(ctx, actor.ID, project.ClientName, project.ID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemorialGenerated(project.ID, actor.ID)
	}

	return project, nil
}

const statsCacheKey = "stats:projects"

func (s *projectService) Stats(ctx context.Context) (*repository.ProjectStats, error) {
	if s.redis != nil {
		cached := &repository.ProjectStats{}
		if err := s.redis.GetCache(ctx, statsCacheKey, cached); err == nil {
			return cached, nil
		}
	}

	stats, err := s.projectRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		if err := s.redis.SetCache(ctx, statsCacheKey, stats, 30*time.Second); err != nil {
			log.Printf("[Project] Failed to cache stats: %v", err)
		}
	}
	return stats, nil
}

// ============================================
// Internals
// ============================================

// transition applies a status change and fans out notifications.
func (s *projectService) transition(ctx context.Context, actor Actor, project *repository.Project, newStatus string, retracted bool) (*repository.Project, error) {
	oldStatus := project.Status
	project.Status = newStatus

	if err := s.save(ctx, project); err != nil {
		return nil, err
	}

	if s.notifSvc != nil {
		if retracted {
			s.notifSvc.SendFlowRetracted(ctx, actor.ID, project.ClientName, oldStatus, newStatus, project.ID)
		} else {
			s.notifSvc.SendStatusChanged(ctx, actor.ID, project.ClientName, oldStatus, newStatus, project.ID)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastStatusChanged(project.ID, projectEventPayload(project), oldStatus, newStatus, actor.ID)
	}

	return project, nil
}

// save writes the project guarded by its version, mapping a lost race to
// ErrStaleVersion.
func (s *projectService) save(ctx context.Context, project *repository.Project) error {
	err := s.projectRepo.Update(ctx, project)
	if err == pgx.ErrNoRows {
		return ErrStaleVersion
	}
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *projectService) invalidateStats(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.InvalidateCache(ctx, statsCacheKey); err != nil {
		log.Printf("[Project] Failed to invalidate stats cache: %v", err)
	}
}

// dispatchAssignment notifies and emails the assigned integrator.
func (s *projectService) dispatchAssignment(ctx context.Context, actor Actor, project *repository.Project) {
	integrator, err := s.userRepo.FindByName(ctx, *project.AssignedIntegrator)
	if err != nil || integrator == nil {
		log.Printf("[Project] Assigned integrator %q not found for project %s", *project.AssignedIntegrator, project.ID)
		return
	}

	whatsappLink := s.whatsAppLink(project)

	if s.notifSvc != nil {
		s.notifSvc.SendIntegratorAssigned(ctx, integrator.ID, actor.Name, project.ClientName, project.ID, whatsappLink)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastIntegratorAssigned(integrator.ID, project.ID, projectEventPayload(project), actor.Name)
	}

	if s.emailSvc != nil {
		data := email.SurveyAssignedData{
			IntegratorName: integrator.Name,
			AssignedBy:     actor.Name,
			ClientName:     project.ClientName,
			Address:        project.Address,
			PowerKwp:       project.PowerKwp.String(),
			Notes:          project.Notes,
			ProjectURL:     fmt.Sprintf("%s/projects/%s", s.cfg.FrontendURL, project.ID),
			WhatsAppLink:   whatsappLink,
		}
		go func() {
			if err := s.emailSvc.SendSurveyAssigned(integrator.Email, data); err != nil {
				log.Printf("[Project] Failed to send assignment email to %s: %v", integrator.Email, err)
			}
		}()
	}
}

// whatsAppLink builds the wa.me deep link used to confirm the visit with
// the client.
func (s *projectService) whatsAppLink(project *repository.Project) string {
	text := fmt.Sprintf("Olá! Sou o integrador responsável pela vistoria do projeto solar de %s (%s). Podemos agendar a visita?",
		project.ClientName, project.Address)
	return fmt.Sprintf("https://wa.me/%s?text=%s", s.cfg.WhatsAppNumber, url.QueryEscape(text))
}

func assignedName(project *repository.Project) string {
	if project.AssignedIntegrator == nil {
		return ""
	}
	return *project.AssignedIntegrator
}

// projectEventPayload is the compact shape broadcast over the socket.
// Clients re-fetch the project for full detail.
func projectEventPayload(project *repository.Project) map[string]interface{} {
	payload := map[string]interface{}{
		"id":         project.ID,
		"clientName": project.ClientName,
		"status":     project.Status,
		"version":    project.Version,
	}
	if project.AssignedIntegrator != nil {
		payload["assignedIntegrator"] = *project.AssignedIntegrator
	}
	return payload
}
