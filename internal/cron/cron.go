package cron

import (
	"context"
	"log"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/notification"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
	"github.com/robfig/cron/v3"
)

// staleAnalysisAfter is how long a project may sit in Aguardando Análise
// before the engineering team gets nudged.
const staleAnalysisAfter = 48 * time.Hour

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron             *cron.Cron
	notifSvc         *notification.Service
	projectRepo      repository.ProjectRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

// NewScheduler creates a new scheduler
func NewScheduler(
	notifSvc *notification.Service,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
) *Scheduler {
	return &Scheduler{
		cron:             cron.New(),
		notifSvc:         notifSvc,
		projectRepo:      projectRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every day at 9 AM - stale analysis reminders
	s.cron.AddFunc("0 9 * * *", func() {
		log.Println("[Cron] Running stale analysis check...")
		s.checkStaleAnalysisQueue()
	})

	// Clean up old notifications - Run every Sunday at midnight
	s.cron.AddFunc("0 0 * * 0", func() {
		log.Println("[Cron] Running notification cleanup...")
		s.cleanupOldNotifications()
	})

	// Sweep expired refresh tokens - Run every day at 3 AM
	s.cron.AddFunc("0 3 * * *", func() {
		log.Println("[Cron] Running refresh token sweep...")
		s.sweepExpiredRefreshTokens()
	})

	// Update user status to offline - Run every 30 minutes
	s.cron.AddFunc("*/30 * * * *", func() {
		log.Println("[Cron] Running user status update...")
		s.updateInactiveUserStatus()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// checkStaleAnalysisQueue nudges the engineering team about projects stuck
// in Aguardando Análise.
func (s *Scheduler) checkStaleAnalysisQueue() {
	ctx := context.Background()

	projects, err := s.projectRepo.FindStaleInStatus(ctx, types.StatusAguardandoAnalise, staleAnalysisAfter)
	if err != nil {
		log.Printf("[Cron] Error finding stale projects: %v", err)
		return
	}

	for _, project := range projects {
		daysWaiting := int(time.Since(project.UpdatedAt).Hours() / 24)
		if daysWaiting < 1 {
			daysWaiting = 1
		}
		s.notifSvc.SendStaleAnalysisReminder(ctx, project.ClientName, project.ID, daysWaiting)
	}

	if len(projects) > 0 {
		log.Printf("[Cron] Sent stale analysis reminders for %d projects", len(projects))
	}
}

// cleanupOldNotifications removes notifications older than 30 days
func (s *Scheduler) cleanupOldNotifications() {
	ctx := context.Background()

	deleted, err := s.notificationRepo.DeleteOlderThan(ctx, 30*24*time.Hour)
	if err != nil {
		log.Printf("[Cron] Error cleaning up notifications: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("[Cron] Deleted %d old notifications", deleted)
	}
}

// sweepExpiredRefreshTokens removes refresh tokens past their expiry
func (s *Scheduler) sweepExpiredRefreshTokens() {
	ctx := context.Background()

	deleted, err := s.userRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		log.Printf("[Cron] Error sweeping refresh tokens: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("[Cron] Deleted %d expired refresh tokens", deleted)
	}
}

// updateInactiveUserStatus marks users inactive for over an hour as offline
func (s *Scheduler) updateInactiveUserStatus() {
	ctx := context.Background()

	if err := s.userRepo.UpdateStatusForInactive(ctx, time.Hour); err != nil {
		log.Printf("[Cron] Error updating inactive users: %v", err)
	}
}
