package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gosignup/internal/pkg/clock"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/encrypt"
	"github.com/shandysiswandi/gosignup/internal/pkg/goroutine"
	"github.com/shandysiswandi/gosignup/internal/pkg/hash"
	"github.com/shandysiswandi/gosignup/internal/pkg/idempotency"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
	"github.com/shandysiswandi/gosignup/internal/pkg/mail"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/pkg/router"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/pkg/sms"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/pkg/validator"
	"go.uber.org/atomic"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	password  hash.Hash
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	jwt       jwt.JWT
	encryptor encrypt.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	sessions  *session.Manager
	mail      mail.Mail
	sms       sms.SMS
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	// closers run in reverse registration order on Stop.
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// onClose registers fn to release a resource opened during New.
func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// New wires every dependency from configuration. Any failure is fatal: the
// error is logged with the step name and the process exits.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{ctx: ctx, cancel: cancel}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"config", app.initConfig},
		{"instrument", app.initInstrument},
		{"libraries", app.initLibraries},
		{"jwt", app.initJWT},
		{"database", app.initDatabase},
		{"cache", app.initCache},
		{"session", app.initSession},
		{"mail", app.initMail},
		{"sms", app.initSMS},
		{"messaging", app.initMessaging},
		{"http server", app.initHTTPServer},
		{"modules", app.initModules},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			slog.Error("failed to init "+step.name, "error", err)
			os.Exit(1)
		}
	}

	return app
}
