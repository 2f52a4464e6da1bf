package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	UserRepo         UserRepository
	ProjectRepo      ProjectRepository
	NotificationRepo NotificationRepository
	EquipmentRepo    EquipmentRepository
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		ProjectRepo:      NewProjectRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),
		EquipmentRepo:    NewEquipmentRepository(pool),
	}
}
