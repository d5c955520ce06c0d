package mailconfig

import (
	"time"

	"issue-tracker/internal/domain/mail"
)

// SaveRequest creates or replaces an SMTP configuration. An empty Password on
// update keeps the stored one.
type SaveRequest struct {
	Host        string `json:"host" validate:"required,hostname|ip"`
	Port        int    `json:"port" validate:"required,min=1,max=65535"`
	Username    string `json:"username" validate:"omitempty,max=255"`
	Password    string `json:"password" validate:"omitempty,max=255"`
	Encryption  string `json:"encryption" validate:"required,smtp_encryption"`
	FromName    string `json:"fromName" validate:"omitempty,max=255"`
	FromAddress string `json:"fromAddress" validate:"omitempty,email"`
	IsActive    *bool  `json:"isActive"`
}

// ConfigurationResponse never carries the credential.
type ConfigurationResponse struct {
	ID          uint      `json:"id"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Username    string    `json:"username"`
	HasPassword bool      `json:"hasPassword"`
	Encryption  string    `json:"encryption"`
	FromName    string    `json:"fromName"`
	FromAddress string    `json:"fromAddress"`
	IsActive    bool      `json:"isActive"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ToConfigurationResponse(c *mail.Configuration) *ConfigurationResponse {
	if c == nil {
		return nil
	}
	return &ConfigurationResponse{
		ID:          c.ID,
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.Username,
		HasPassword: c.Password != "",
		Encryption:  c.Encryption,
		FromName:    c.FromName,
		FromAddress: c.FromAddress,
		IsActive:    c.IsActive,
		UpdatedAt:   c.UpdatedAt,
	}
}
