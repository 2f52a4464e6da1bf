package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Equipment struct {
	ID          string
	Name        string
	Type        string
	Description string
	Specs       map[string]interface{}
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EquipmentRepository interface {
	Create(ctx context.Context, equipment *Equipment) error
	FindByID(ctx context.Context, id string) (*Equipment, error)
	FindAll(ctx context.Context) ([]*Equipment, error)
	FindByType(ctx context.Context, equipmentType string) ([]*Equipment, error)
	Update(ctx context.Context, equipment *Equipment) error
	Delete(ctx context.Context, id string) error
}

type pgEquipmentRepository struct {
	pool *pgxpool.Pool
}

func NewEquipmentRepository(pool *pgxpool.Pool) EquipmentRepository {
	return &pgEquipmentRepository{pool: pool}
}

func marshalSpecs(specs map[string]interface{}) ([]byte, error) {
	if specs == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(specs)
}

func (r *pgEquipmentRepository) Create(ctx context.Context, equipment *Equipment) error {
	specsJSON, err := marshalSpecs(equipment.Specs)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO equipment (name, type, description, specs)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		equipment.Name, equipment.Type, equipment.Description, specsJSON,
	).Scan(&equipment.ID, &equipment.CreatedAt, &equipment.UpdatedAt)
}

func (r *pgEquipmentRepository) FindByID(ctx context.Context, id string) (*Equipment, error) {
	query := `SELECT id, name, type, description, specs, created_at, updated_at FROM equipment WHERE id = $1`
	equipment := &Equipment{}
	var specsJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&equipment.ID, &equipment.Name, &equipment.Type, &equipment.Description,
		&specsJSON, &equipment.CreatedAt, &equipment.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(specsJSON) > 0 {
		if err := json.Unmarshal(specsJSON, &equipment.Specs); err != nil {
			return nil, err
		}
	}
	return equipment, nil
}

func (r *pgEquipmentRepository) FindAll(ctx context.Context) ([]*Equipment, error) {
	query := `SELECT id, name, type, description, specs, created_at, updated_at FROM equipment ORDER BY type, name`
	return r.queryEquipment(ctx, query)
}

func (r *pgEquipmentRepository) FindByType(ctx context.Context, equipmentType string) ([]*Equipment, error) {
	query := `SELECT id, name, type, description, specs, created_at, updated_at FROM equipment WHERE type = $1 ORDER BY name`
	return r.queryEquipment(ctx, query, equipmentType)
}

func (r *pgEquipmentRepository) queryEquipment(ctx context.Context, query string, args ...interface{}) ([]*Equipment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Equipment
	for rows.Next() {
		equipment := &Equipment{}
		var specsJSON []byte
		if err := rows.Scan(
			&equipment.ID, &equipment.Name, &equipment.Type, &equipment.Description,
			&specsJSON, &equipment.CreatedAt, &equipment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(specsJSON) > 0 {
			if err := json.Unmarshal(specsJSON, &equipment.Specs); err != nil {
				return nil, err
			}
		}
		items = append(items, equipment)
	}
	return items, rows.Err()
}

func (r *pgEquipmentRepository) Update(ctx context.Context, equipment *Equipment) error {
	specsJSON, err := marshalSpecs(equipment.Specs)
	if err != nil {
		return err
	}
	query := `
		UPDATE equipment
		SET name = $2, type = $3, description = $4, specs = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query,
		equipment.ID, equipment.Name, equipment.Type, equipment.Description, specsJSON,
	).Scan(&equipment.UpdatedAt)
}

func (r *pgEquipmentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM equipment WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
