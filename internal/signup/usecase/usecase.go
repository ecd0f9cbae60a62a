package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/clock"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/idempotency"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/pkg/validator"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
	"go.opentelemetry.io/otel/trace"
)

const defaultOTPWindow = 300 * time.Second

type UserRegisteredEvent struct {
	UserID   int64
	Username string
	Email    string
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
}

type repoDB interface {
	// FindByEmailOrUsername returns goerror.ErrNotFound when neither is taken.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error)
	// Create hashes password and stores the user. A taken username or email
	// yields goerror.ErrConflict.
	Create(ctx context.Context, user entity.NewUser, password string) (*entity.User, error)
	Delete(ctx context.Context, id int64) error
	// Authenticate returns entity.ErrInvalidCredentials on an unknown
	// identifier or a wrong password.
	Authenticate(ctx context.Context, identifier, password string) (*entity.User, error)
}

// OTPStore keeps issued codes by composite key. Put overwrites, Get returns
// goerror.ErrNotFound for an absent key and Delete is idempotent.
type OTPStore interface {
	Put(ctx context.Context, key string, rec entity.OTPRecord) error
	Get(ctx context.Context, key string) (*entity.OTPRecord, error)
	// CountAttempt increments the failed attempts of the record issued at
	// issuedAt and returns the new count, or goerror.ErrNotFound when that
	// record no longer exists.
	CountAttempt(ctx context.Context, key string, issuedAt time.Time) (int, error)
	Delete(ctx context.Context, key string) error
}

// PendingHolder keeps the unconfirmed signup per session. Peek returns
// goerror.ErrNotFound when nothing is stashed.
type PendingHolder interface {
	Stash(ctx context.Context, sessionID string, draft entity.PendingSignup) error
	Peek(ctx context.Context, sessionID string) (*entity.PendingSignup, error)
	Clear(ctx context.Context, sessionID string) error
}

// Notifier delivers the codes. Channel failures are reported, never returned.
type Notifier interface {
	Notify(ctx context.Context, to entity.ChannelTargets, codes entity.OTPCodes, who entity.Identity) entity.DeliveryReport
}

type codeGenerator interface {
	Generate() (string, error)
	Equal(submitted, issued string) bool
}

type sessionIdentity interface {
	SetIdentity(ctx context.Context, id string, ident session.Identity) error
	ClearIdentity(ctx context.Context, id string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	otpStore      OTPStore
	pending       PendingHolder
	notifier      Notifier
	sessions      sessionIdentity
	idempotency   idempotency.Idempotency
	code          codeGenerator
	validator     validator.Validator
	cfg           config.Config
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	OTPStore      OTPStore
	Pending       PendingHolder
	Notifier      Notifier
	Sessions      sessionIdentity
	Idempotency   idempotency.Idempotency
	Code          codeGenerator
	Validator     validator.Validator
	Config        config.Config
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		otpStore:      dep.OTPStore,
		pending:       dep.Pending,
		notifier:      dep.Notifier,
		sessions:      dep.Sessions,
		idempotency:   dep.Idempotency,
		code:          dep.Code,
		validator:     dep.Validator,
		cfg:           dep.Config,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("signup.usecase").Start(ctx, name)
}

func (s *Usecase) otpWindow() time.Duration {
	return OTPWindow(s.cfg)
}

// OTPWindow is the validity of an issued code pair.
func OTPWindow(cfg config.Config) time.Duration {
	if w := cfg.GetSecond("modules.signup.otp_ttl_seconds"); w > 0 {
		return w
	}
	return defaultOTPWindow
}

// discard removes both artifacts of a signup attempt. Failures are logged
// only: a leftover record expires on its own and a leftover draft is
// overwritten by the next signup.
func (s *Usecase) discard(ctx context.Context, key, sessionID string) {
	if key != "" {
		if err := s.otpStore.Delete(ctx, key); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete otp record", "session_id", sessionID, "error", err)
		}
	}

	if err := s.pending.Clear(ctx, sessionID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo clear pending signup", "session_id", sessionID, "error", err)
	}
}

// flowError builds the business error of a verification state, carrying
// the state and the client outcome as error fields.
func flowError(cause error, msg string, code goerror.Code) error {
	state := entity.StateOf(cause)
	kv := []string{"state", state.String()}
	if o := entity.OutcomeOf(state); o != entity.OutcomeNone {
		kv = append(kv, "outcome", o.String())
	}

	return goerror.NewBusinessCause(cause, msg, code, kv...)
}

func (s *Usecase) issueToken(ctx context.Context, user *entity.User) string {
	token, err := s.jwt.Generate(jwt.Subject{UserID: user.ID, Username: user.Username, Email: user.Email})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
		return ""
	}

	return token
}
