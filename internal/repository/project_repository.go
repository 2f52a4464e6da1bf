package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Coordinates is a point captured on site during the survey.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SurveyData is the technical site survey document stored as JSONB on the
// project row. Field names match the payload exchanged with the frontend.
type SurveyData struct {
	Address     string       `json:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	RoofType         string  `json:"roofType"`
	RoofOrientation  string  `json:"roofOrientation"`
	Inclination      float64 `json:"inclination"`
	RoofCondition    string  `json:"roofCondition"`
	RoofLoadCapacity string  `json:"roofLoadCapacity,omitempty"`

	AverageConsumption float64 `json:"averageConsumption"`
	ConsumptionHistory string  `json:"consumptionHistory,omitempty"`
	ContractedDemand   float64 `json:"contractedDemand"`

	ConnectionType string  `json:"connectionType"`
	Voltage        string  `json:"voltage"`
	BreakerCurrent float64 `json:"breakerCurrent"`
	PanelLocation  string  `json:"panelLocation"`

	ShadingIssues string `json:"shadingIssues"`
	ShadingAngle  string `json:"shadingAngle,omitempty"`
	ShadingPeriod string `json:"shadingPeriod,omitempty"`

	AccessEase       string `json:"accessEase"`
	SafetyConditions string `json:"safetyConditions"`

	HasElectricalProject bool   `json:"hasElectricalProject"`
	HasPropertyDeed      bool   `json:"hasPropertyDeed"`
	DocumentsNotes       string `json:"documentsNotes,omitempty"`

	ExistingEquipmentType      string `json:"existingEquipmentType,omitempty"`
	ExistingEquipmentCondition string `json:"existingEquipmentCondition"`
	StructureReusePossible     bool   `json:"structureReusePossible"`

	AverageIrradiation float64 `json:"averageIrradiation,omitempty"`

	ClientObjectives       string `json:"clientObjectives,omitempty"`
	InvestmentAvailability string `json:"investmentAvailability,omitempty"`

	Photos []string `json:"photos"`

	// Legacy fields still accepted from older survey submissions.
	Azimuth               *float64 `json:"azimuth,omitempty"`
	ElectricalPanelStatus string   `json:"electricalPanelStatus,omitempty"`
	TransformerDistance   *float64 `json:"transformerDistance,omitempty"`
}

type Project struct {
	ID                   string
	ClientName           string
	Address              string
	Status               string
	PowerKwp             decimal.Decimal
	EstimatedProduction  decimal.Decimal
	StartDate            *time.Time
	Notes                string
	AssignedIntegrator   *string
	SurveyData           *SurveyData
	ConcessionariaStatus *string
	Analysis             *string
	Memorial             *string
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ProjectStats backs the dashboard summary cards.
type ProjectStats struct {
	TotalProjects      int
	ActivePowerKwp     decimal.Decimal
	PendingSubmissions int
	CompletedThisMonth int
}

type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindAll(ctx context.Context) ([]*Project, error)
	FindByStatuses(ctx context.Context, statuses []string) ([]*Project, error)
	FindStaleInStatus(ctx context.Context, status string, olderThan time.Duration) ([]*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*ProjectStats, error)
}

type pgProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &pgProjectRepository{pool: pool}
}

const projectColumns = `id, client_name, address, status, power_kwp, estimated_production, start_date, notes,
		assigned_integrator, survey_data, concessionaria_status, analysis, memorial, version, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	project := &Project{}
	var surveyJSON []byte
	err := row.Scan(
		&project.ID, &project.ClientName, &project.Address, &project.Status,
		&project.PowerKwp, &project.EstimatedProduction, &project.StartDate, &project.Notes,
		&project.AssignedIntegrator, &surveyJSON, &project.ConcessionariaStatus,
		&project.Analysis, &project.Memorial, &project.Version,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(surveyJSON) > 0 {
		survey := &SurveyData{}
		if err := json.Unmarshal(surveyJSON, survey); err != nil {
			return nil, err
		}
		project.SurveyData = survey
	}
	return project, nil
}

func marshalSurvey(survey *SurveyData) ([]byte, error) {
	if survey == nil {
		return nil, nil
	}
	return json.Marshal(survey)
}

func (r *pgProjectRepository) Create(ctx context.Context, project *Project) error {
	surveyJSON, err := marshalSurvey(project.SurveyData)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO projects (client_name, address, status, power_kwp, estimated_production, start_date, notes,
			assigned_integrator, survey_data, concessionaria_status, analysis, memorial)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, version, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		project.ClientName, project.Address, project.Status,
		project.PowerKwp, project.EstimatedProduction, project.StartDate, project.Notes,
		project.AssignedIntegrator, surveyJSON, project.ConcessionariaStatus,
		project.Analysis, project.Memorial,
	).Scan(&project.ID, &project.Version, &project.CreatedAt, &project.UpdatedAt)
}

func (r *pgProjectRepository) FindByID(ctx context.Context, id string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(r.pool.QueryRow(ctx, query, id))
}

func (r *pgProjectRepository) FindAll(ctx context.Context) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`
	return r.queryProjects(ctx, query)
}

func (r *pgProjectRepository) FindByStatuses(ctx context.Context, statuses []string) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE status = ANY($1) ORDER BY created_at DESC`
	return r.queryProjects(ctx, query, statuses)
}

func (r *pgProjectRepository) FindStaleInStatus(ctx context.Context, status string, olderThan time.Duration) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE status = $1 AND updated_at < $2 ORDER BY updated_at`
	return r.queryProjects(ctx, query, status, time.Now().Add(-olderThan))
}

func (r *pgProjectRepository) queryProjects(ctx context.Context, query string, args ...interface{}) ([]*Project, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project := &Project{}
		var surveyJSON []byte
		if err := rows.Scan(
			&project.ID, &project.ClientName, &project.Address, &project.Status,
			&project.PowerKwp, &project.EstimatedProduction, &project.StartDate, &project.Notes,
			&project.AssignedIntegrator, &surveyJSON, &project.ConcessionariaStatus,
			&project.Analysis, &project.Memorial, &project.Version,
			&project.CreatedAt, &project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(surveyJSON) > 0 {
			survey := &SurveyData{}
			if err := json.Unmarshal(surveyJSON, survey); err != nil {
				return nil, err
			}
			project.SurveyData = survey
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Update persists the whole project row guarded by its version. The row is
// only written when the stored version matches project.Version; on success
// the version is bumped and reflected back into the struct. pgx.ErrNoRows
// is returned untouched so callers can tell a stale write from a success.
func (r *pgProjectRepository) Update(ctx context.Context, project *Project) error {
	surveyJSON, err := marshalSurvey(project.SurveyData)
	if err != nil {
		return err
	}
	query := `
		UPDATE projects
		SET client_name = $3, address = $4, status = $5, power_kwp = $6, estimated_production = $7,
			start_date = $8, notes = $9, assigned_integrator = $10, survey_data = $11,
			concessionaria_status = $12, analysis = $13, memorial = $14,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		project.ID, project.Version,
		project.ClientName, project.Address, project.Status,
		project.PowerKwp, project.EstimatedProduction, project.StartDate, project.Notes,
		project.AssignedIntegrator, surveyJSON, project.ConcessionariaStatus,
		project.Analysis, project.Memorial,
	).Scan(&project.Version, &project.UpdatedAt)
}

func (r *pgProjectRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM projects WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *pgProjectRepository) Stats(ctx context.Context) (*ProjectStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(power_kwp) FILTER (WHERE status <> 'Concluído'), 0),
			COUNT(*) FILTER (WHERE status = 'Submissão Concessionária'),
			COUNT(*) FILTER (WHERE status = 'Concluído' AND updated_at >= date_trunc('month', NOW()))
		FROM projects
	`
	stats := &ProjectStats{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalProjects, &stats.ActivePowerKwp, &stats.PendingSubmissions, &stats.CompletedThisMonth,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
