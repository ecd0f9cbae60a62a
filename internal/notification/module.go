package notification

import (
	"context"

	"github.com/shandysiswandi/gosignup/internal/notification/inbound"
	"github.com/shandysiswandi/gosignup/internal/notification/outbound/email"
	"github.com/shandysiswandi/gosignup/internal/notification/usecase"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/goroutine"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/mail"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context
	Messaging  messaging.Consumer         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.NewNotification(usecase.Dependency{
		RepoMail:   email.New(dep.Mail, dep.Instrument),
		Config:     dep.Config,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
