package models

import "time"

// SMTPConfigurationModel represents the database model for mail.Configuration
type SMTPConfigurationModel struct {
	ID          uint      `gorm:"primaryKey"`
	Host        string    `gorm:"type:varchar(255);not null"`
	Port        int       `gorm:"not null"`
	Username    string    `gorm:"type:varchar(255);not null"`
	Password    string    `gorm:"type:varchar(255);not null"`
	Encryption  string    `gorm:"type:varchar(10);not null"`
	FromName    string    `gorm:"type:varchar(255);not null"`
	FromAddress string    `gorm:"type:varchar(255);not null"`
	IsActive    bool      `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (SMTPConfigurationModel) TableName() string {
	return "smtp_configurations"
}

// All returns every model managed by the service, in dependency order.
func All() []interface{} {
	return []interface{}{
		&RoleModel{},
		&UserModel{},
		&PasswordResetAttemptModel{},
		&SMTPConfigurationModel{},
	}
}
