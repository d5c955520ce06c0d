package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"issue-tracker/internal/domain/account"
	"issue-tracker/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
)

// ResetAttemptRepository implements account.ResetAttemptRepository
type ResetAttemptRepository struct {
	db *DB
}

func NewResetAttemptRepository(db *DB) *ResetAttemptRepository {
	return &ResetAttemptRepository{db: db}
}

func pending(tx *gorm.DB) *gorm.DB {
	return tx.Where("consumed_at IS NULL AND revoked_at IS NULL")
}

func (r *ResetAttemptRepository) Create(ctx context.Context, attempt *account.ResetAttempt) error {
	dbModel := toResetAttemptModel(attempt)
	if err := r.db.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create reset attempt: %w", err)
	}

	attempt.ID = dbModel.ID
	return nil
}

func (r *ResetAttemptRepository) GetPending(ctx context.Context, accountID uint) (*account.ResetAttempt, error) {
	var dbModel models.PasswordResetAttemptModel
	err := r.db.WithContext(ctx).
		Scopes(pending).
		Where("user_id = ?", accountID).
		Order("issued_at DESC, id DESC").
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrResetAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset attempt: %w", err)
	}

	return toResetAttemptEntity(&dbModel), nil
}

func (r *ResetAttemptRepository) Revoke(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.PasswordResetAttemptModel{}).
		Scopes(pending).
		Where("id = ?", id).
		Update("revoked_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to revoke reset attempt: %w", err)
	}
	return nil
}

func (r *ResetAttemptRepository) RevokeOlder(ctx context.Context, accountID, keepID uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.PasswordResetAttemptModel{}).
		Scopes(pending).
		Where("user_id = ? AND id < ?", accountID, keepID).
		Update("revoked_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to revoke reset attempts: %w", err)
	}
	return nil
}

func (r *ResetAttemptRepository) Complete(ctx context.Context, attempt *account.ResetAttempt, passwordHash string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed := tx.Model(&models.PasswordResetAttemptModel{}).
			Scopes(pending).
			Where("id = ? AND user_id = ? AND expires_at > ?", attempt.ID, attempt.AccountID, at).
			Update("consumed_at", at)
		if consumed.Error != nil {
			return fmt.Errorf("failed to consume reset attempt: %w", consumed.Error)
		}
		if consumed.RowsAffected == 0 {
			return account.ErrResetAttemptNotFound
		}

		updated := tx.Model(&models.UserModel{}).
			Where("id = ?", attempt.AccountID).
			Updates(map[string]interface{}{
				"password_hash": passwordHash,
				"updated_at":    at,
			})
		if updated.Error != nil {
			return fmt.Errorf("failed to update password: %w", updated.Error)
		}
		if updated.RowsAffected == 0 {
			return account.ErrAccountNotFound
		}

		attempt.ConsumedAt = &at
		return nil
	})
}

// DeleteClosedBefore removes attempts that expired, were consumed or were
// revoked before cutoff.
func (r *ResetAttemptRepository) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR consumed_at < ? OR revoked_at < ?", cutoff, cutoff, cutoff).
		Delete(&models.PasswordResetAttemptModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete reset attempts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func toResetAttemptModel(a *account.ResetAttempt) *models.PasswordResetAttemptModel {
	return &models.PasswordResetAttemptModel{
		ID:         a.ID,
		UserID:     a.AccountID,
		CodeHash:   a.CodeHash,
		IssuedAt:   a.IssuedAt,
		ExpiresAt:  a.ExpiresAt,
		ConsumedAt: a.ConsumedAt,
		RevokedAt:  a.RevokedAt,
	}
}

func toResetAttemptEntity(m *models.PasswordResetAttemptModel) *account.ResetAttempt {
	return &account.ResetAttempt{
		ID:         m.ID,
		AccountID:  m.UserID,
		CodeHash:   m.CodeHash,
		IssuedAt:   m.IssuedAt,
		ExpiresAt:  m.ExpiresAt,
		ConsumedAt: m.ConsumedAt,
		RevokedAt:  m.RevokedAt,
	}
}
