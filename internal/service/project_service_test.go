package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/config"
	"github.com/appprovts/SolarFlowPro/internal/models"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ============================================
// Fakes
// ============================================

type fakeProjectRepo struct {
	projects  map[string]*repository.Project
	nextID    int
	updateErr error
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*repository.Project)}
}

func cloneProject(p *repository.Project) *repository.Project {
	c := *p
	return &c
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *repository.Project) error {
	r.nextID++
	project.ID = fmt.Sprintf("proj-%d", r.nextID)
	project.Version = 1
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *fakeProjectRepo) FindByID(ctx context.Context, id string) (*repository.Project, error) {
	stored, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	return cloneProject(stored), nil
}

func (r *fakeProjectRepo) FindAll(ctx context.Context) ([]*repository.Project, error) {
	var out []*repository.Project
	for _, p := range r.projects {
		out = append(out, cloneProject(p))
	}
	return out, nil
}

func (r *fakeProjectRepo) FindByStatuses(ctx context.Context, statuses []string) ([]*repository.Project, error) {
	var out []*repository.Project
	for _, p := range r.projects {
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, cloneProject(p))
				break
			}
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) FindStaleInStatus(ctx context.Context, status string, olderThan time.Duration) ([]*repository.Project, error) {
	cutoff := time.Now().Add(-olderThan)
	var out []*repository.Project
	for _, p := range r.projects {
		if p.Status == status && p.UpdatedAt.Before(cutoff) {
			out = append(out, cloneProject(p))
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, project *repository.Project) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.projects[project.ID]
	if !ok || stored.Version != project.Version {
		return pgx.ErrNoRows
	}
	project.Version++
	project.UpdatedAt = time.Now()
	r.projects[project.ID] = cloneProject(project)
	return nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id string) error {
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) Stats(ctx context.Context) (*repository.ProjectStats, error) {
	stats := &repository.ProjectStats{}
	for _, p := range r.projects {
		stats.TotalProjects++
		if p.Status != types.StatusConcluido {
			stats.ActivePowerKwp = stats.ActivePowerKwp.Add(p.PowerKwp)
		}
		if p.Status == types.StatusSubmissao {
			stats.PendingSubmissions++
		}
	}
	return stats, nil
}

type fakeUserRepo struct {
	users  map[string]*repository.User
	tokens map[string]*repository.RefreshToken
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*repository.User),
		tokens: make(map[string]*repository.RefreshToken),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByName(ctx context.Context, name string) (*repository.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Name, name) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]*repository.User, error) {
	var out []*repository.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
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

func (r *fakeUserRepo) Update(ctx context.Context, user *repository.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id, role string) error {
	if u, ok := r.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	if u, ok := r.users[id]; ok {
		u.Password = hashedPassword
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastActive(ctx context.Context, userID string) error {
	if u, ok := r.users[userID]; ok {
		now := time.Now()
		u.LastActiveAt = &now
	}
	return nil
}

func (r *fakeUserRepo) UpdateStatusForInactive(ctx context.Context, inactiveDuration time.Duration) error {
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	return r.tokens[token], nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeUserRepo) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	for t, rt := range r.tokens {
		if rt.UserID == userID {
			delete(r.tokens, t)
		}
	}
	return nil
}

func (r *fakeUserRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int, error) {
	count := 0
	for t, rt := range r.tokens {
		if time.Now().After(rt.ExpiresAt) {
			delete(r.tokens, t)
			count++
		}
	}
	return count, nil
}

// ============================================
// Helpers
// ============================================

var (
	engenharia = Actor{ID: "user-eng", Name: "Maria Engenheira", Role: types.RoleEngenharia}
	integrador = Actor{ID: "user-int", Name: "Carlos Campo", Role: types.RoleIntegrador}
)

func newTestProjectService(projectRepo *fakeProjectRepo, userRepo *fakeUserRepo) ProjectService {
	cfg := &config.Config{
		WhatsAppNumber: "5511999999999",
		FrontendURL:    "http://localhost:5173",
	}
	return NewProjectService(projectRepo, userRepo, nil, nil, nil, nil, nil, cfg)
}

func seedProject(t *testing.T, repo *fakeProjectRepo, status string, assigned *string) *repository.Project {
	t.Helper()
	project := &repository.Project{
		ClientName:         "João Silva",
		Address:            "Rua das Flores, 123 - Campinas, SP",
		Status:             status,
		PowerKwp:           decimal.NewFromFloat(4.5),
		AssignedIntegrator: assigned,
	}
	if err := repo.Create(context.Background(), project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func completeSurvey() *repository.SurveyData {
	return &repository.SurveyData{
		Address:  "Rua das Flores, 123 - Campinas, SP",
		RoofType: "Cerâmica",
		Photos:   []string{"a.jpg", "b.jpg", "c.jpg"},
	}
}

// ============================================
// Survey submission
// ============================================

func TestSubmitSurveyMovesToAguardandoAnalise(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, &integrador.Name)

	got, err := svc.SubmitSurvey(context.Background(), integrador, seeded.ID, completeSurvey(), nil)
	if err != nil {
		t.Fatalf("SubmitSurvey: %v", err)
	}
	if got.Status != types.StatusAguardandoAnalise {
		t.Errorf("status = %q, want %q", got.Status, types.StatusAguardandoAnalise)
	}
	if got.SurveyData == nil || len(got.SurveyData.Photos) != 3 {
		t.Error("survey data was not stored")
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2 after one write", got.Version)
	}
}

func TestSubmitSurveyPhotoGate(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, &integrador.Name)

	survey := completeSurvey()
	survey.Photos = []string{"a.jpg", "b.jpg"}

	_, err := svc.SubmitSurvey(context.Background(), integrador, seeded.ID, survey, nil)
	if !errors.Is(err, ErrInsufficientPhotos) {
		t.Errorf("err = %v, want ErrInsufficientPhotos", err)
	}

	stored, _ := repo.FindByID(context.Background(), seeded.ID)
	if stored.Status != types.StatusVistoria {
		t.Error("rejected submission must not change the status")
	}
}

func TestSubmitSurveyStaleVersion(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, &integrador.Name)

	// Someone else saves the project first.
	other, _ := repo.FindByID(context.Background(), seeded.ID)
	other.Notes = "edited elsewhere"
	if err := repo.Update(context.Background(), other); err != nil {
		t.Fatalf("concurrent update: %v", err)
	}

	staleVersion := int64(1)
	_, err := svc.SubmitSurvey(context.Background(), integrador, seeded.ID, completeSurvey(), &staleVersion)
	if !errors.Is(err, ErrStaleVersion) {
		t.Errorf("err = %v, want ErrStaleVersion", err)
	}
}

func TestSubmitSurveyLockedAfterVistoria(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusAnalise, &integrador.Name)

	_, err := svc.SubmitSurvey(context.Background(), integrador, seeded.ID, completeSurvey(), nil)
	if !errors.Is(err, ErrSurveyLocked) {
		t.Errorf("err = %v, want ErrSurveyLocked", err)
	}
}

func TestSubmitSurveyOtherIntegratorForbidden(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	otherName := "João Técnico"
	seeded := seedProject(t, repo, types.StatusVistoria, &otherName)

	// The project is invisible to this integrador, so it looks missing.
	_, err := svc.SubmitSurvey(context.Background(), integrador, seeded.ID, completeSurvey(), nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// ============================================
// Workflow transitions
// ============================================

func TestAdvanceRequiresCompleteSurvey(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, nil)

	_, err := svc.Advance(context.Background(), engenharia, seeded.ID)
	if !errors.Is(err, ErrInsufficientPhotos) {
		t.Errorf("err = %v, want ErrInsufficientPhotos", err)
	}

	// With a finalized survey the gate opens.
	stored, _ := repo.FindByID(context.Background(), seeded.ID)
	stored.SurveyData = completeSurvey()
	if err := repo.Update(context.Background(), stored); err != nil {
		t.Fatalf("store survey: %v", err)
	}

	got, err := svc.Advance(context.Background(), engenharia, seeded.ID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got.Status != types.StatusAguardandoAnalise {
		t.Errorf("status = %q, want %q", got.Status, types.StatusAguardandoAnalise)
	}
}

func TestAdvanceAtConcluidoIsNoop(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusConcluido, nil)

	got, err := svc.Advance(context.Background(), engenharia, seeded.ID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got.Status != types.StatusConcluido || got.Version != 1 {
		t.Errorf("no-op advance must not write: status=%q version=%d", got.Status, got.Version)
	}
}

func TestAdvanceOutOfAnalysisQueueIsInvalid(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusAguardandoAnalise, nil)

	_, err := svc.Advance(context.Background(), engenharia, seeded.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition (analysis action owns this move)", err)
	}
}

func TestAdvanceForbiddenForIntegrador(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusInstalacao, &integrador.Name)

	_, err := svc.Advance(context.Background(), integrador, seeded.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestRetractAtVistoriaIsNoop(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, nil)

	got, err := svc.Retract(context.Background(), engenharia, seeded.ID)
	if err != nil {
		t.Fatalf("Retract: %v", err)
	}
	if got.Status != types.StatusVistoria || got.Version != 1 {
		t.Errorf("no-op retract must not write: status=%q version=%d", got.Status, got.Version)
	}
}

func TestRetractMovesOneStageBack(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusInstalacao, nil)

	got, err := svc.Retract(context.Background(), engenharia, seeded.ID)
	if err != nil {
		t.Fatalf("Retract: %v", err)
	}
	if got.Status != types.StatusSubmissao {
		t.Errorf("status = %q, want %q", got.Status, types.StatusSubmissao)
	}
}

func TestResetDiscardsSurvey(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusAnalise, nil)

	analysis := "análise antiga"
	pendente := types.ConcessionariaPendente
	stored, _ := repo.FindByID(context.Background(), seeded.ID)
	stored.SurveyData = completeSurvey()
	stored.Analysis = &analysis
	stored.ConcessionariaStatus = &pendente
	if err := repo.Update(context.Background(), stored); err != nil {
		t.Fatalf("prime project: %v", err)
	}

	got, err := svc.ResetToSurvey(context.Background(), engenharia, seeded.ID)
	if err != nil {
		t.Fatalf("ResetToSurvey: %v", err)
	}
	if got.Status != types.StatusVistoria {
		t.Errorf("status = %q, want %q", got.Status, types.StatusVistoria)
	}
	if got.SurveyData != nil || got.Analysis != nil || got.ConcessionariaStatus != nil {
		t.Error("reset must discard survey, analysis and concessionária status")
	}
}

// ============================================
// Visibility and views
// ============================================

func TestListFiltersByVisibility(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	otherName := "João Técnico"
	seedProject(t, repo, types.StatusVistoria, &integrador.Name)
	seedProject(t, repo, types.StatusVistoria, nil)
	seedProject(t, repo, types.StatusVistoria, &otherName)

	mine, err := svc.List(context.Background(), integrador, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("integrador sees %d projects, want 2 (own + unassigned)", len(mine))
	}

	all, err := svc.List(context.Background(), engenharia, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("engenharia sees %d projects, want 3", len(all))
	}
}

func TestListEngenhariaViewIsManagementOnly(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())

	_, err := svc.List(context.Background(), integrador, "engenharia")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestGetByIDHidesForeignProject(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	otherName := "João Técnico"
	seeded := seedProject(t, repo, types.StatusVistoria, &otherName)

	_, err := svc.GetByID(context.Background(), integrador, seeded.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound (no existence leak)", err)
	}
}

// ============================================
// Updates and assignment
// ============================================

func TestUpdateLostRaceMapsToStaleVersion(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, nil)

	repo.updateErr = pgx.ErrNoRows

	notes := "novas observações"
	_, err := svc.Update(context.Background(), engenharia, seeded.ID, &models.UpdateProjectRequest{Notes: &notes})
	if !errors.Is(err, ErrStaleVersion) {
		t.Errorf("err = %v, want ErrStaleVersion", err)
	}
}

func TestUpdateRejectsInvalidConcessionariaStatus(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusSubmissao, nil)

	bogus := "Talvez"
	_, err := svc.Update(context.Background(), engenharia, seeded.ID, &models.UpdateProjectRequest{ConcessionariaStatus: &bogus})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateGeneralInfoForbiddenForIntegrador(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, &integrador.Name)

	name := "Nome Reescrito"
	power := 999.0
	_, err := svc.Update(context.Background(), integrador, seeded.ID, &models.UpdateProjectRequest{
		ClientName: &name,
		PowerKwp:   &power,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	stored, _ := repo.FindByID(context.Background(), seeded.ID)
	if stored.ClientName != "João Silva" {
		t.Errorf("clientName = %q, changed despite forbidden update", stored.ClientName)
	}
}

func TestUpdateDoesNotClearAssignment(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, &integrador.Name)

	// An explicit JSON null binds the same as an absent field, so an
	// update without the field must leave the assignment alone.
	var req models.UpdateProjectRequest
	if err := json.Unmarshal([]byte(`{"assignedIntegrator": null, "notes": "ok"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.AssignedIntegrator != nil {
		t.Fatalf("null bound to %v, want nil", req.AssignedIntegrator)
	}

	got, err := svc.Update(context.Background(), engenharia, seeded.ID, &req)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.AssignedIntegrator == nil || *got.AssignedIntegrator != integrador.Name {
		t.Errorf("assignment = %v, want untouched %q", got.AssignedIntegrator, integrador.Name)
	}
}

func TestAssignIntegrator(t *testing.T) {
	projectRepo := newFakeProjectRepo()
	userRepo := newFakeUserRepo()
	userRepo.Create(context.Background(), &repository.User{Name: "Carlos Campo", Email: "carlos@x.com", Role: types.RoleIntegrador})
	userRepo.Create(context.Background(), &repository.User{Name: "Maria Engenheira", Email: "maria@x.com", Role: types.RoleEngenharia})
	svc := newTestProjectService(projectRepo, userRepo)
	seeded := seedProject(t, projectRepo, types.StatusVistoria, nil)

	name := "Carlos Campo"
	got, err := svc.AssignIntegrator(context.Background(), engenharia, seeded.ID, &name)
	if err != nil {
		t.Fatalf("AssignIntegrator: %v", err)
	}
	if got.AssignedIntegrator == nil || *got.AssignedIntegrator != "Carlos Campo" {
		t.Errorf("assigned = %v, want Carlos Campo", got.AssignedIntegrator)
	}

	// Only users with the Integrador role can take field work.
	engName := "Maria Engenheira"
	if _, err := svc.AssignIntegrator(context.Background(), engenharia, seeded.ID, &engName); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("assigning an engineer: err = %v, want ErrUserNotFound", err)
	}

	// nil clears the assignment.
	got, err = svc.AssignIntegrator(context.Background(), engenharia, seeded.ID, nil)
	if err != nil {
		t.Fatalf("clear assignment: %v", err)
	}
	if got.AssignedIntegrator != nil {
		t.Error("assignment was not cleared")
	}
}

func TestDeleteForbiddenForIntegrador(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusVistoria, &integrador.Name)

	if err := svc.Delete(context.Background(), integrador, seeded.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

// ============================================
// Drafting
// ============================================

func TestRunAnalysisWithoutDrafter(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusAguardandoAnalise, nil)

	_, err := svc.RunAnalysis(context.Background(), engenharia, seeded.ID)
	if !errors.Is(err, ErrDraftingUnavailable) {
		t.Errorf("err = %v, want ErrDraftingUnavailable", err)
	}
}

func TestRunAnalysisForbiddenOutsideQueue(t *testing.T) {
	repo := newFakeProjectRepo()
	svc := newTestProjectService(repo, newFakeUserRepo())
	seeded := seedProject(t, repo, types.StatusInstalacao, nil)

	_, err := svc.RunAnalysis(context.Background(), engenharia, seeded.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}
