// Package mailconfig manages the SMTP relays used to deliver reset codes.
package mailconfig

import (
	"context"
	"strings"

	"issue-tracker/internal/domain/mail"
	"issue-tracker/internal/logger"
	appErrors "issue-tracker/pkg/errors"
	"issue-tracker/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	repo mail.Repository
}

func NewService(repo mail.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*ConfigurationResponse, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]*ConfigurationResponse, 0, len(configs))
	for _, c := range configs {
		resp = append(resp, ToConfigurationResponse(c))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req *SaveRequest) (*ConfigurationResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	cfg := &mail.Configuration{IsActive: true}
	apply(cfg, req)
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, err
	}

	logger.Info("SMTP configuration created",
		zap.Uint("smtp_configuration_id", cfg.ID),
		zap.String("smtp_host", cfg.Host),
		zap.String("event", "smtp_configuration_created"),
	)
	return ToConfigurationResponse(cfg), nil
}

func (s *Service) Update(ctx context.Context, id uint, req *SaveRequest) (*ConfigurationResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	cfg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(cfg, req)
	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, err
	}

	logger.Info("SMTP configuration updated",
		zap.Uint("smtp_configuration_id", cfg.ID),
		zap.String("event", "smtp_configuration_updated"),
	)
	return ToConfigurationResponse(cfg), nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info("SMTP configuration deleted",
		zap.Uint("smtp_configuration_id", id),
		zap.String("event", "smtp_configuration_deleted"),
	)
	return nil
}

func validate(req *SaveRequest) error {
	req.Host = strings.TrimSpace(req.Host)
	req.Encryption = strings.ToLower(strings.TrimSpace(req.Encryption))
	if req.FromAddress != "" {
		req.FromAddress = utils.SanitizeEmail(req.FromAddress)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError("VALIDATION_ERROR", utils.ValidationMessage(err), err)
	}
	return nil
}

func apply(cfg *mail.Configuration, req *SaveRequest) {
	cfg.Host = req.Host
	cfg.Port = req.Port
	cfg.Username = req.Username
	if req.Password != "" {
		cfg.Password = req.Password
	}
	cfg.Encryption = req.Encryption
	cfg.FromName = req.FromName
	cfg.FromAddress = req.FromAddress
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}
}
