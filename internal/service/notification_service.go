package service

import (
	"context"
	"log"

	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/socket"
)

// ============================================
// Notification Service (inbox operations)
// ============================================

type NotificationService interface {
	List(ctx context.Context, userID string, limit int) ([]*repository.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Clear(ctx context.Context, userID string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	broadcaster      *socket.Broadcaster
}

func NewNotificationService(notificationRepo repository.NotificationRepository, broadcaster *socket.Broadcaster) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
	}
}

func (s *notificationService) List(ctx context.Context, userID string, limit int) ([]*repository.Notification, error) {
	return s.notificationRepo.FindByUserID(ctx, userID, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notificationRepo.MarkAsRead(ctx, notificationID, userID); err != nil {
		return err
	}
	// Keep the user's other open tabs in sync.
	if s.broadcaster != nil {
		s.broadcaster.SendNotificationRead(userID, []string{notificationID})
		s.pushUnreadCount(ctx, userID)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllAsRead(ctx, userID); err != nil {
		return err
	}
	if s.broadcaster != nil {
		s.broadcaster.SendNotificationRead(userID, nil)
		s.broadcaster.SendNotificationCount(userID, 0)
	}
	return nil
}

func (s *notificationService) pushUnreadCount(ctx context.Context, userID string) {
	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		log.Printf("[Notification] Failed to count unread for user %s: %v", userID, err)
		return
	}
	s.broadcaster.SendNotificationCount(userID, unread)
}

func (s *notificationService) Clear(ctx context.Context, userID string) error {
	return s.notificationRepo.DeleteAll(ctx, userID)
}
