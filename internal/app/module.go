package app

import (
	"fmt"

	"github.com/shandysiswandi/gosignup/internal/notification"
	"github.com/shandysiswandi/gosignup/internal/signup"
)

func (a *App) initModules() error {
	if a.config.GetBool("modules.signup.enabled") {
		if err := signup.New(signup.Dependency{
			DBConn:       a.dbConn,
			Redis:        a.redisClient(),
			Router:       a.router,
			Sessions:     a.sessions,
			Idempotency:  a.idemp,
			Messaging:    a.messaging,
			Mail:         a.mail,
			SMS:          a.sms,
			Encryptor:    a.encryptor,
			PasswordHash: a.password,
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			Clock:        a.clock,
			Validator:    a.validator,
			JWT:          a.jwt,
		}); err != nil {
			return fmt.Errorf("signup: %w", err)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			return fmt.Errorf("notification: %w", err)
		}
	}

	return nil
}
