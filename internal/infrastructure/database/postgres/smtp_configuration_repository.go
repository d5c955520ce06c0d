package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"issue-tracker/internal/domain/mail"
	"issue-tracker/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
)

// SMTPConfigurationRepository implements mail.Repository
type SMTPConfigurationRepository struct {
	db *DB
}

func NewSMTPConfigurationRepository(db *DB) *SMTPConfigurationRepository {
	return &SMTPConfigurationRepository{db: db}
}

func (r *SMTPConfigurationRepository) GetActive(ctx context.Context) (*mail.Configuration, error) {
	var dbModel models.SMTPConfigurationModel
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, mail.ErrConfigurationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get smtp configuration: %w", err)
	}

	return toMailConfiguration(&dbModel), nil
}

func (r *SMTPConfigurationRepository) GetByID(ctx context.Context, id uint) (*mail.Configuration, error) {
	var dbModel models.SMTPConfigurationModel
	err := r.db.WithContext(ctx).First(&dbModel, "id = ?", id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, mail.ErrConfigurationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get smtp configuration: %w", err)
	}

	return toMailConfiguration(&dbModel), nil
}

func (r *SMTPConfigurationRepository) List(ctx context.Context) ([]*mail.Configuration, error) {
	var dbModels []models.SMTPConfigurationModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list smtp configurations: %w", err)
	}

	configs := make([]*mail.Configuration, len(dbModels))
	for i := range dbModels {
		configs[i] = toMailConfiguration(&dbModels[i])
	}

	return configs, nil
}

func (r *SMTPConfigurationRepository) Create(ctx context.Context, cfg *mail.Configuration) error {
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	dbModel := toSMTPConfigurationModel(cfg)
	if err := r.db.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create smtp configuration: %w", err)
	}

	cfg.ID = dbModel.ID
	return nil
}

func (r *SMTPConfigurationRepository) Update(ctx context.Context, cfg *mail.Configuration) error {
	cfg.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&models.SMTPConfigurationModel{}).
		Where("id = ?", cfg.ID).
		Updates(map[string]interface{}{
			"host":         cfg.Host,
			"port":         cfg.Port,
			"username":     cfg.Username,
			"password":     cfg.Password,
			"encryption":   cfg.Encryption,
			"from_name":    cfg.FromName,
			"from_address": cfg.FromAddress,
			"is_active":    cfg.IsActive,
			"updated_at":   cfg.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update smtp configuration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return mail.ErrConfigurationNotFound
	}

	return nil
}

func (r *SMTPConfigurationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.SMTPConfigurationModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete smtp configuration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return mail.ErrConfigurationNotFound
	}

	return nil
}

func toSMTPConfigurationModel(c *mail.Configuration) *models.SMTPConfigurationModel {
	return &models.SMTPConfigurationModel{
		ID:          c.ID,
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
		Encryption:  c.Encryption,
		FromName:    c.FromName,
		FromAddress: c.FromAddress,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toMailConfiguration(m *models.SMTPConfigurationModel) *mail.Configuration {
	return &mail.Configuration{
		ID:          m.ID,
		Host:        m.Host,
		Port:        m.Port,
		Username:    m.Username,
		Password:    m.Password,
		Encryption:  m.Encryption,
		FromName:    m.FromName,
		FromAddress: m.FromAddress,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
