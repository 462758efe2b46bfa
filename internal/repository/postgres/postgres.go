package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/renovahq/crm-api/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

type showroomRepository struct {
	db *sqlx.DB
}

type clientRepository struct {
	db *sqlx.DB
}

type projectRepository struct {
	db *sqlx.DB
}

type roleRepository struct {
	db *sqlx.DB
}

type templateRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

type auditRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewShowroomRepository(db *sqlx.DB) repository.ShowroomRepository {
	return &showroomRepository{db: db}
}

func NewClientRepository(db *sqlx.DB) repository.ClientRepository {
	return &clientRepository{db: db}
}

func NewProjectRepository(db *sqlx.DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

func NewRoleRepository(db *sqlx.DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

func NewTemplateRepository(db *sqlx.DB) repository.TemplateRepository {
	return &templateRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}
