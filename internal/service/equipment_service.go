package service

import (
	"context"

	"github.com/appprovts/SolarFlowPro/internal/ai"
	"github.com/appprovts/SolarFlowPro/internal/models"
	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
)

// ============================================
// Equipment Service
// ============================================

type EquipmentService interface {
	Create(ctx context.Context, actorRole string, req *models.CreateEquipmentRequest) (*repository.Equipment, error)
	GetByID(ctx context.Context, id string) (*repository.Equipment, error)
	List(ctx context.Context, equipmentType string) ([]*repository.Equipment, error)
	Update(ctx context.Context, actorRole, id string, req *models.UpdateEquipmentRequest) (*repository.Equipment, error)
	Delete(ctx context.Context, actorRole, id string) error
	LookupSpecs(ctx context.Context, name, equipmentType string) (map[string]interface{}, error)
}

type equipmentService struct {
	equipmentRepo repository.EquipmentRepository
	drafter       *ai.Drafter
}

func NewEquipmentService(equipmentRepo repository.EquipmentRepository, drafter *ai.Drafter) EquipmentService {
	return &equipmentService{equipmentRepo: equipmentRepo, drafter: drafter}
}

func (s *equipmentService) Create(ctx context.Context, actorRole string, req *models.CreateEquipmentRequest) (*repository.Equipment, error) {
	if actorRole == types.RoleIntegrador {
		return nil, ErrForbidden
	}
	if !types.IsValidEquipmentType(req.Type) {
		return nil, ErrInvalidInput
	}

	equipment := &repository.Equipment{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Specs:       req.Specs,
	}
	if err := s.equipmentRepo.Create(ctx, equipment); err != nil {
		return nil, err
	}
	return equipment, nil
}

func (s *equipmentService) GetByID(ctx context.Context, id string) (*repository.Equipment, error) {
	equipment, err := s.equipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if equipment == nil {
		return nil, ErrNotFound
	}
	return equipment, nil
}

func (s *equipmentService) List(ctx context.Context, equipmentType string) ([]*repository.Equipment, error) {
	if equipmentType == "" {
		return s.equipmentRepo.FindAll(ctx)
	}
	if !types.IsValidEquipmentType(equipmentType) {
		return nil, ErrInvalidInput
	}
	return s.equipmentRepo.FindByType(ctx, equipmentType)
}

func (s *equipmentService) Update(ctx context.Context, actorRole, id string, req *models.UpdateEquipmentRequest) (*repository.Equipment, error) {
	if actorRole == types.RoleIntegrador {
		return nil, ErrForbidden
	}

	equipment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		equipment.Name = *req.Name
	}
	if req.Type != nil {
		if !types.IsValidEquipmentType(*req.Type) {
			return nil, ErrInvalidInput
		}
		equipment.Type = *req.Type
	}
	if req.Description != nil {
		equipment.Description = *req.Description
	}
	if req.Specs != nil {
		equipment.Specs = req.Specs
	}

	if err := s.equipmentRepo.Update(ctx, equipment); err != nil {
		return nil, err
	}
	return equipment, nil
}

func (s *equipmentService) Delete(ctx context.Context, actorRole, id string) error {
	if actorRole == types.RoleIntegrador {
		return ErrForbidden
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.equipmentRepo.Delete(ctx, id)
}

// LookupSpecs asks the drafting model for a spec sheet. A nil map with a
// nil error means the model answered but the sheet could not be parsed;
// the catalog form falls back to manual entry.
func (s *equipmentService) LookupSpecs(ctx context.Context, name, equipmentType string) (map[string]interface{}, error) {
	if !types.IsValidEquipmentType(equipmentType) {
		return nil, ErrInvalidInput
	}
	if s.drafter == nil {
		return nil, ErrDraftingUnavailable
	}
	return s.drafter.LookupEquipmentSpecs(ctx, name, equipmentType)
}
