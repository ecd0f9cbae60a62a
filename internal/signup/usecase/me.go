package usecase

import (
	"context"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
)

type MeOutput struct {
	UserID   int64
	Username string
	Email    string
}

func (s *Usecase) Me(ctx context.Context) (*MeOutput, error) {
	_, span := s.startSpan(ctx, "Me")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return &MeOutput{
		UserID:   clm.UserID,
		Username: clm.Username,
		Email:    clm.UserEmail,
	}, nil
}
