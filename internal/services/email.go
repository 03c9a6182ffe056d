package services

import (
	"context"
	"fmt"
	"log/slog"

	"calendasync/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendLoginCode sends the one-time sign-in code using the "login_code" template.
func (s *emailService) SendLoginCode(ctx context.Context, data *domain.CodeEmailData) error {
	return s.send(ctx, "login_code", data)
}

// SendPasswordResetCode sends the recovery code using the "password_reset" template.
func (s *emailService) SendPasswordResetCode(ctx context.Context, data *domain.CodeEmailData) error {
	return s.send(ctx, "password_reset", data)
}

func (s *emailService) send(ctx context.Context, template string, data *domain.CodeEmailData) error {
	if data == nil {
		return fmt.Errorf("%s email data is nil", template)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", data.Email)
	return nil
}
