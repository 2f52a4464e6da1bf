package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
)

// ============================================
// Fakes
// ============================================

type fakeNotificationRepo struct {
	created []*repository.Notification
	nextID  int
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *repository.Notification) error {
	r.nextID++
	n.ID = fmt.Sprintf("notif-%d", r.nextID)
	n.CreatedAt = time.Now()
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(ctx context.Context, userID string, limit int) ([]*repository.Notification, error) {
	var out []*repository.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range r.created {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id, userID string) error {
	for _, n := range r.created {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID string) error {
	for _, n := range r.created {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteAll(ctx context.Context, userID string) error {
	var kept []*repository.Notification
	for _, n := range r.created {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	r.created = kept
	return nil
}

func (r *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	return 0, nil
}

type fakeUserRepo struct {
	users  map[string]*repository.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*repository.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) FindByName(ctx context.Context, name string) (*repository.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]*repository.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) FindByRole(ctx context.Context, role string) ([]*repository.User, error) {
	var out []*repository.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *repository.User) error { return nil }

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id, role string) error { return nil }

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	return nil
}

func (r *fakeUserRepo) UpdateLastActive(ctx context.Context, userID string) error { return nil }

func (r *fakeUserRepo) UpdateStatusForInactive(ctx context.Context, inactiveDuration time.Duration) error {
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	return nil, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error { return nil }

func (r *fakeUserRepo) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (r *fakeUserRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int, error) {
	return 0, nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, name, role string) *repository.User {
	t.Helper()
	u := &repository.User{Name: name, Email: name + "@solarflow.com.br", Role: role}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// ============================================
// Tests
// ============================================

func TestIntegratorAssignmentNotification(t *testing.T) {
	notifRepo := &fakeNotificationRepo{}
	userRepo := newFakeUserRepo()
	carlos := seedUser(t, userRepo, "Carlos Campo", types.RoleIntegrador)
	svc := NewService(notifRepo, userRepo)

	link := "https://wa.me/5511999999999?text=ola"
	svc.SendIntegratorAssigned(context.Background(), carlos.ID, "Maria Engenheira", "Fazenda Santa Maria", "proj-1", link)

	if len(notifRepo.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(notifRepo.created))
	}
	got := notifRepo.created[0]
	if got.UserID != carlos.ID {
		t.Errorf("recipient = %q, want the assignee %q", got.UserID, carlos.ID)
	}
	if got.Action == nil || *got.Action != types.ActionAcceptSurvey {
		t.Errorf("action = %v, want %q", got.Action, types.ActionAcceptSurvey)
	}
	if got.ActionData == nil {
		t.Fatal("missing action data")
	}
	if got.ActionData.WhatsAppLink != link {
		t.Errorf("whatsapp link = %q, want %q", got.ActionData.WhatsAppLink, link)
	}
	if got.ActionData.ProjectName != "Fazenda Santa Maria" {
		t.Errorf("project name = %q, want Fazenda Santa Maria", got.ActionData.ProjectName)
	}
	if got.ProjectID == nil || *got.ProjectID != "proj-1" {
		t.Errorf("project id = %v, want proj-1", got.ProjectID)
	}
}

func TestStatusChangeFansOutToEngineeringMinusActor(t *testing.T) {
	notifRepo := &fakeNotificationRepo{}
	userRepo := newFakeUserRepo()
	actor := seedUser(t, userRepo, "Maria Engenheira", types.RoleEngenharia)
	colleague := seedUser(t, userRepo, "Paulo Projetista", types.RoleEngenharia)
	admin := seedUser(t, userRepo, "Carlos Admin", types.RoleAdmin)
	seedUser(t, userRepo, "Carlos Campo", types.RoleIntegrador)
	svc := NewService(notifRepo, userRepo)

	svc.SendStatusChanged(context.Background(), actor.ID, "João Silva", types.StatusAnalise, types.StatusSubmissao, "proj-1")

	recipients := make(map[string]bool)
	for _, n := range notifRepo.created {
		recipients[n.UserID] = true
	}
	if len(recipients) != 2 || !recipients[colleague.ID] || !recipients[admin.ID] {
		t.Errorf("recipients = %v, want exactly {%s, %s}", recipients, colleague.ID, admin.ID)
	}
	if recipients[actor.ID] {
		t.Error("actor received their own status-change notification")
	}
}

func TestCompletionNotificationIsSuccess(t *testing.T) {
	notifRepo := &fakeNotificationRepo{}
	userRepo := newFakeUserRepo()
	seedUser(t, userRepo, "Carlos Admin", types.RoleAdmin)
	svc := NewService(notifRepo, userRepo)

	svc.SendStatusChanged(context.Background(), "user-actor", "João Silva", types.StatusComissionamento, types.StatusConcluido, "proj-1")

	if len(notifRepo.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(notifRepo.created))
	}
	got := notifRepo.created[0]
	if got.Type != types.NotificationSuccess {
		t.Errorf("type = %q, want %q", got.Type, types.NotificationSuccess)
	}
	if got.Title != "Projeto Concluído" {
		t.Errorf("title = %q, want Projeto Concluído", got.Title)
	}
}
