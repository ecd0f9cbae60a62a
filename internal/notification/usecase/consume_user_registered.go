package usecase

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"

	"github.com/shandysiswandi/gosignup/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	welcomeHTMLTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/welcome_email.html.tmpl"))
	welcomeTextTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/welcome_email.txt.tmpl"))
)

type ConsumeUserRegisteredInput struct {
	UserID   int64  `validate:"required,gt=0"`
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
}

type welcomeData struct {
	AppName      string
	Username     string
	DashboardURL string
}

// ConsumeUserRegistered sends the welcome email of a newly created account.
// An invalid payload is dropped; a failed send is returned so the broker
// can redeliver.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	span.SetAttributes(attribute.Int64("user.id", in.UserID))

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "user_id", in.UserID, "error", err)
		return nil
	}

	data := welcomeData{
		AppName:      s.appName(),
		Username:     in.Username,
		DashboardURL: s.dashboardURL(),
	}

	var html, text bytes.Buffer
	if err := welcomeHTMLTemplate.Execute(&html, data); err != nil {
		slog.ErrorContext(ctx, "failed to render welcome email html", "user_id", in.UserID, "error", err)
		return nil
	}
	if err := welcomeTextTemplate.Execute(&text, data); err != nil {
		slog.ErrorContext(ctx, "failed to render welcome email text", "user_id", in.UserID, "error", err)
		return nil
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  "Welcome to " + data.AppName,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo send welcome email", "user_id", in.UserID, "error", err)
		return fmt.Errorf("send welcome email: %w", err)
	}

	slog.InfoContext(ctx, "welcome email sent", "user_id", in.UserID)

	return nil
}

func (s *Usecase) dashboardURL() string {
	base := strings.TrimRight(s.cfg.GetString("app.web_url"), "/")
	path := s.cfg.GetString("modules.signup.redirect_path")
	if path == "" {
		path = "/dashboard"
	}
	return base + path
}
