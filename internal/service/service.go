package service

import (
	"errors"

	"github.com/appprovts/SolarFlowPro/internal/ai"
	"github.com/appprovts/SolarFlowPro/internal/config"
	"github.com/appprovts/SolarFlowPro/internal/db"
	"github.com/appprovts/SolarFlowPro/internal/email"
	"github.com/appprovts/SolarFlowPro/internal/notification"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/socket"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserExists          = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidToken        = errors.New("invalid token")
	ErrNotFound            = errors.New("resource not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientPhotos  = errors.New("survey requires at least 3 photos")
	ErrStaleVersion        = errors.New("project was modified by someone else")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrSurveyLocked        = errors.New("survey can no longer be edited")
	ErrDraftingUnavailable = errors.New("drafting service unavailable")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	User         UserService
	Project      ProjectService
	Notification NotificationService
	Equipment    EquipmentService
	Broadcaster  *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	Redis       *db.RedisDB
	NotifSvc    *notification.Service
	EmailSvc    *email.Service
	Drafter     *ai.Drafter
	Broadcaster *socket.Broadcaster
}

func NewServices(deps *ServiceDeps) *Services {
	return &Services{
		Auth: NewAuthService(deps.Config, deps.Repos.UserRepo, deps.Redis, deps.EmailSvc),
		User: NewUserService(deps.Repos.UserRepo),
		Project: NewProjectService(
			deps.Repos.ProjectRepo,
			deps.Repos.UserRepo,
			deps.NotifSvc,
			deps.EmailSvc,
			deps.Drafter,
			deps.Broadcaster,
			deps.Redis,
			deps.Config,
		),
		Notification: NewNotificationService(deps.Repos.NotificationRepo, deps.Broadcaster),
		Equipment:    NewEquipmentService(deps.Repos.EquipmentRepo, deps.Drafter),
		Broadcaster:  deps.Broadcaster,
	}
}
