package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"issue-tracker/internal/domain/account"
	"issue-tracker/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
)

// UserRepository implements account.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new account repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, a *account.Account) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	dbModel := toUserModel(a)
	if err := r.db.WithContext(ctx).Omit("Role").Create(dbModel).Error; err != nil {
		if isUniqueViolation(err) {
			return account.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	a.ID = dbModel.ID
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var dbModel models.UserModel
	err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return toAccountEntity(&dbModel), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*account.Account, error) {
	var dbModel models.UserModel
	err := r.db.WithContext(ctx).Preload("Role").First(&dbModel, "id = ?", id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return toAccountEntity(&dbModel), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*account.Account, error) {
	var dbModels []models.UserModel
	if err := r.db.WithContext(ctx).Preload("Role").Order("id ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*account.Account, len(dbModels))
	for i := range dbModels {
		accounts[i] = toAccountEntity(&dbModels[i])
	}

	return accounts, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update account status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

// RoleRepository implements account.RoleRepository
type RoleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*account.Role, error) {
	var dbModel models.RoleModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return &account.Role{ID: dbModel.ID, Name: dbModel.Name}, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*account.Role, error) {
	var dbModels []models.RoleModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	roles := make([]*account.Role, len(dbModels))
	for i, m := range dbModels {
		roles[i] = &account.Role{ID: m.ID, Name: m.Name}
	}

	return roles, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint")
}

// Helper functions to convert between domain entities and database models

func toUserModel(a *account.Account) *models.UserModel {
	return &models.UserModel{
		ID:           a.ID,
		FullName:     a.FullName,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		RoleID:       a.RoleID,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toAccountEntity(m *models.UserModel) *account.Account {
	return &account.Account{
		ID:           m.ID,
		FullName:     m.FullName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		RoleID:       m.RoleID,
		Role:         account.Role{ID: m.Role.ID, Name: m.Role.Name},
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
