package models

import (
	"time"
)

// RoleModel represents the database model for Role
type RoleModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}

func (RoleModel) TableName() string {
	return "roles"
}

// UserModel represents the database model for Account
type UserModel struct {
	ID           uint      `gorm:"primaryKey"`
	FullName     string    `gorm:"type:varchar(255);not null"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	RoleID       uint      `gorm:"not null;index"`
	Role         RoleModel `gorm:"foreignKey:RoleID"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// PasswordResetAttemptModel represents the database model for ResetAttempt
type PasswordResetAttemptModel struct {
	ID         uint       `gorm:"primaryKey"`
	UserID     uint       `gorm:"not null;index"`
	CodeHash   string     `gorm:"type:varchar(128);not null"`
	IssuedAt   time.Time  `gorm:"not null"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	ConsumedAt *time.Time `gorm:"index"`
	RevokedAt  *time.Time `gorm:"index"`
}

func (PasswordResetAttemptModel) TableName() string {
	return "password_reset_attempts"
}
