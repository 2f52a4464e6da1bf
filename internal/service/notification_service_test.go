package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
)

type fakeNotificationRepo struct {
	items  map[string]*repository.Notification
	nextID int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[string]*repository.Notification)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *repository.Notification) error {
	r.nextID++
	n.ID = fmt.Sprintf("notif-%d", r.nextID)
	n.CreatedAt = time.Now()
	r.items[n.ID] = n
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(ctx context.Context, userID string, limit int) ([]*repository.Notification, error) {
	var out []*repository.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id, userID string) error {
	if n, ok := r.items[id]; ok && n.UserID == userID {
		n.IsRead = true
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID string) error {
	for _, n := range r.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteAll(ctx context.Context, userID string) error {
	for id, n := range r.items {
		if n.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	count := 0
	for id, n := range r.items {
		if n.CreatedAt.Before(cutoff) {
			delete(r.items, id)
			count++
		}
	}
	return count, nil
}

func seedNotification(t *testing.T, repo *fakeNotificationRepo, userID string) *repository.Notification {
	t.Helper()
	n := &repository.Notification{
		UserID:  userID,
		Title:   "Nova Vistoria Atribuída",
		Message: "Você foi designado para a vistoria do projeto João Silva.",
		Type:    types.NotificationInfo,
	}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return n
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, nil)
	n := seedNotification(t, repo, "user-1")

	for i := 0; i < 3; i++ {
		if err := svc.MarkAsRead(context.Background(), "user-1", n.ID); err != nil {
			t.Fatalf("MarkAsRead call %d: %v", i+1, err)
		}
	}

	count, _ := svc.UnreadCount(context.Background(), "user-1")
	if count != 0 {
		t.Errorf("unread count = %d, want 0", count)
	}
}

func TestMarkAsReadScopedToOwner(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, nil)
	n := seedNotification(t, repo, "user-1")

	// Another user referencing the same id changes nothing.
	if err := svc.MarkAsRead(context.Background(), "user-2", n.ID); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	count, _ := svc.UnreadCount(context.Background(), "user-1")
	if count != 1 {
		t.Errorf("unread count = %d, want 1 (foreign mark-read must not apply)", count)
	}
}

func TestClearRemovesOnlyOwnNotifications(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, nil)
	seedNotification(t, repo, "user-1")
	seedNotification(t, repo, "user-1")
	seedNotification(t, repo, "user-2")

	if err := svc.Clear(context.Background(), "user-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	mine, _ := svc.List(context.Background(), "user-1", 0)
	theirs, _ := svc.List(context.Background(), "user-2", 0)
	if len(mine) != 0 || len(theirs) != 1 {
		t.Errorf("after clear: mine=%d theirs=%d, want 0 and 1", len(mine), len(theirs))
	}
}
