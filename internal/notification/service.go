package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/appprovts/SolarFlowPro/internal/email"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/socket"
	"github.com/appprovts/SolarFlowPro/internal/types"
)

// Service persists notifications and pushes them to connected clients.
// Delivery is best-effort: a failed insert for one recipient never blocks
// the workflow operation that triggered it.
type Service struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	broadcaster      *socket.Broadcaster
	emailQueue       *email.EmailQueue
	frontendURL      string
}

// NewService creates a new notification service
func NewService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// SetBroadcaster sets the WebSocket broadcaster (for dependency injection)
func (s *Service) SetBroadcaster(b *socket.Broadcaster) {
	s.broadcaster = b
}

// SetEmailQueue enables async email delivery for notifications that also
// go out by email.
func (s *Service) SetEmailQueue(q *email.EmailQueue, frontendURL string) {
	s.emailQueue = q
	s.frontendURL = frontendURL
}

// ============================================
// WebSocket Helper
// ============================================

// sendWebSocketNotification sends real-time notification via WebSocket
func (s *Service) sendWebSocketNotification(notification *repository.Notification) {
	if s.broadcaster == nil || notification == nil {
		return
	}

	payload := map[string]interface{}{
		"id":        notification.ID,
		"type":      notification.Type,
		"title":     notification.Title,
		"message":   notification.Message,
		"isRead":    notification.IsRead,
		"timestamp": notification.CreatedAt,
	}
	if notification.ProjectID != nil {
		payload["projectId"] = *notification.ProjectID
	}
	if notification.Action != nil {
		payload["action"] = *notification.Action
	}
	if notification.ActionData != nil {
		payload["actionData"] = notification.ActionData
	}

	s.broadcaster.SendNotification(notification.UserID, payload)
}

// notify persists one notification and pushes it over the socket.
func (s *Service) notify(ctx context.Context, n *repository.Notification) {
	if n.UserID == "" {
		return
	}
	if !types.IsValidNotificationType(n.Type) {
		n.Type = types.NotificationInfo
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Printf("[Notification] Failed to create notification for user %s: %v", n.UserID, err)
		return
	}
	s.sendWebSocketNotification(n)
}

// engineeringUsers returns everyone on the engineering side (Engenharia
// and Admin), minus the actor.
func (s *Service) engineeringUsers(ctx context.Context, excludeUserID string) []*repository.User {
	var result []*repository.User
	for _, role := range []string{types.RoleEngenharia, types.RoleAdmin} {
		users, err := s.userRepo.FindByRole(ctx, role)
		if err != nil {
			log.Printf("[Notification] Failed to list %s users: %v", role, err)
			continue
		}
		for _, u := range users {
			if u.ID != excludeUserID {
				result = append(result, u)
			}
		}
	}
	return result
}

func (s *Service) engineeringUserIDs(ctx context.Context, excludeUserID string) []string {
	var ids []string
	for _, u := range s.engineeringUsers(ctx, excludeUserID) {
		ids = append(ids, u.ID)
	}
	return ids
}

// ============================================
// Project Notifications
// ============================================

// SendProjectCreated notifies the engineering team about a new project
func (s *Service) SendProjectCreated(ctx context.Context, creatorID, clientName, projectID string) {
	for _, userID := range s.engineeringUserIDs(ctx, creatorID) {
		s.notify(ctx, &repository.Notification{
			UserID:    userID,
			Title:     "Novo Projeto",
			Message:   fmt.Sprintf("Projeto criado: %s", clientName),
			Type:      types.NotificationInfo,
			ProjectID: &projectID,
		})
	}
}

// SendSurveySubmitted notifies the engineering team that a survey arrived for analysis
func (s *Service) SendSurveySubmitted(ctx context.Context, submitterID, submitterName, clientName, projectID string) {
	for _, userID := range s.engineeringUserIDs(ctx, submitterID) {
		s.notify(ctx, &repository.Notification{
			UserID:    userID,
			Title:     "Vistoria Recebida",
			Message:   fmt.Sprintf("%s enviou a vistoria de %s para análise", submitterName, clientName),
			Type:      types.NotificationSuccess,
			ProjectID: &projectID,
		})
	}
}

// SendStatusChanged notifies the engineering team about a workflow transition
func (s *Service) SendStatusChanged(ctx context.Context, actorID, clientName, oldStatus, newStatus, projectID string) {
	notifType := types.NotificationInfo
	title := "Projeto Avançou"
	if newStatus == types.StatusConcluido {
		notifType = types.NotificationSuccess
		title = "Projeto Concluído"
	}

	for _, u := range s.engineeringUsers(ctx, actorID) {
		s.notify(ctx, &repository.Notification{
			UserID:    u.ID,
			Title:     title,
			Message:   fmt.Sprintf("%s: %s → %s", clientName, oldStatus, newStatus),
			Type:      notifType,
			ProjectID: &projectID,
		})

		// Completion also goes out by email so it reaches people who are
		// not connected.
		if newStatus == types.StatusConcluido && s.emailQueue != nil && u.Email != "" {
			s.emailQueue.Enqueue(
				[]string{u.Email},
				fmt.Sprintf("[SolarFlow] %s: %s", newStatus, clientName),
				"status_changed",
				email.StatusChangedData{
					UserName:   u.Name,
					ClientName: clientName,
					OldStatus:  oldStatus,
					NewStatus:  newStatus,
					ProjectURL: fmt.Sprintf("%s/projects/%s", s.frontendURL, projectID),
				},
			)
		}
	}
}

// SendFlowRetracted notifies the engineering team that a project moved back a stage
func (s *Service) SendFlowRetracted(ctx context.Context, actorID, clientName, oldStatus, newStatus, projectID string) {
	for _, userID := range s.engineeringUserIDs(ctx, actorID) {
		s.notify(ctx, &repository.Notification{
			UserID:    userID,
			Title:     "Etapa Retornada",
			Message:   fmt.Sprintf("%s voltou de %s para %s", clientName, oldStatus, newStatus),
			Type:      types.NotificationWarning,
			ProjectID: &projectID,
		})
	}
}

// SendResetToSurvey warns the engineering team that a project restarted from scratch
func (s *Service) SendResetToSurvey(ctx context.Context, actorID, clientName, projectID string) {
	for _, userID := range s.engineeringUserIDs(ctx, actorID) {
		s.notify(ctx, &repository.Notification{
			UserID:    userID,
			Title:     "Projeto Reiniciado",
			Message:   fmt.Sprintf("%s retornou para Vistoria e os dados da vistoria anterior foram descartados", clientName),
			Type:      types.NotificationWarning,
			ProjectID: &projectID,
		})
	}
}

// SendAnalysisGenerated notifies the engineering team that an analysis draft is ready
func (s *Service) SendAnalysisGenerated(ctx context.Context, actorID, clientName, projectID string) {
	for _, userID := range s.engineeringUserIDs(ctx, actorID) {
		s.notify(ctx, &repository.Notification{
			UserID:    userID,
			Title:     "Análise Gerada",
			Message:   fmt.Sprintf("Rascunho de análise técnica disponível para %s", clientName),
			Type:      types.NotificationInfo,
			ProjectID: &projectID,
		})
	}
}

// SendMemorialGenerated notifies the engineering team that a memorial draft is ready
func (s *Service) SendMemorialGenerated(ctx context.Context, actorID, clientName, projectID string) {
	for _, userID := range s.engineeringUserIDs(ctx, actorID) {
		s.notify(ctx, &repository.Notification{
			UserID:    userID,
			Title:     "Memorial Gerado",
			Message:   fmt.Sprintf("Rascunho de memorial descritivo disponível para %s", clientName),
			Type:      types.NotificationSuccess,
			ProjectID: &projectID,
		})
	}
}

// SendIntegratorAssigned sends the actionable assignment notification to one
// integrator, carrying the WhatsApp confirmation link.
func (s *Service) SendIntegratorAssigned(ctx context.Context, integratorUserID, assignerName, clientName, projectID, whatsappLink string) {
	action := types.ActionAcceptSurvey
	s.notify(ctx, &repository.Notification{
		UserID:    integratorUserID,
		Title:     "Vistoria Atribuída",
		Message:   fmt.Sprintf("%s atribuiu a vistoria de %s a você", assignerName, clientName),
		Type:      types.NotificationInfo,
		ProjectID: &projectID,
		Action:    &action,
		ActionData: &repository.ActionData{
			WhatsAppLink: whatsappLink,
			ProjectName:  clientName,
		},
	})
}

// SendStaleAnalysisReminder nudges the engineering team about projects
// sitting in the analysis queue for too long. Used by the scheduler.
func (s *Service) SendStaleAnalysisReminder(ctx context.Context, clientName, projectID string, daysWaiting int) {
	for _, userID := range s.engineeringUserIDs(ctx, "") {
		s.notify(ctx, &repository.Notification{
			UserID:    userID,
			Title:     "Análise Pendente",
			Message:   fmt.Sprintf("%s aguarda análise há %d dias", clientName, daysWaiting),
			Type:      types.NotificationWarning,
			ProjectID: &projectID,
		})
	}
}
