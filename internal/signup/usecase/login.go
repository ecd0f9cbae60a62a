package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
)

type LoginInput struct {
	SessionID  string `validate:"required"`
	Identifier string `validate:"required,max=254"`
	Password   string `validate:"required,max=72"`
}

type LoginOutput struct {
	AccessToken string
	RedirectTo  string
	User        *entity.User
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)
	if strings.Contains(in.Identifier, "@") {
		in.Identifier = strings.ToLower(in.Identifier)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.Authenticate(ctx, in.Identifier, in.Password)
	if errors.Is(err, entity.ErrInvalidCredentials) || errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login rejected", "identifier", in.Identifier)
		return nil, goerror.NewBusiness("Invalid username/email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo authenticate user", "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.sessions.SetIdentity(ctx, in.SessionID, session.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to set session identity", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		AccessToken: s.issueToken(ctx, user),
		RedirectTo:  s.redirectURL(),
		User:        user,
	}, nil
}
