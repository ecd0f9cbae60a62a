package usecase

import (
	"context"

	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/mail"
	"github.com/shandysiswandi/gosignup/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const defaultAppName = "GoSignup"

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoMail  repoMail
	cfg       config.Config
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoMail   repoMail
	Config     config.Config
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		cfg:       dep.Config,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) appName() string {
	if name := s.cfg.GetString("app.name"); name != "" {
		return name
	}
	return defaultAppName
}
