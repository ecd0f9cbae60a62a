package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/idempotency"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
)

const (
	msgSessionLost     = "Session expired. Please signup again."
	msgOTPMissing      = "OTP expired or invalid. Please signup again."
	msgOTPExpired      = "OTP expired. Please signup again."
	msgOTPMismatched   = "Invalid OTP(s). Please check both email and phone OTPs and try again."
	msgTooManyAttempts = "Too many invalid OTP attempts. Please signup again."

	defaultFinalizeLock = 30 * time.Second
)

type VerifyInput struct {
	SessionID string
	EmailCode string `validate:"required,otp"`
	PhoneCode string `validate:"required,otp"`
}

type VerifyOutput struct {
	State       entity.State
	Outcome     entity.Outcome
	RedirectTo  string
	AccessToken string
	User        *entity.User
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.EmailCode = strings.TrimSpace(in.EmailCode)
	in.PhoneCode = strings.TrimSpace(in.PhoneCode)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	draft, err := s.pending.Peek(ctx, in.SessionID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "pending signup not found in session", "session_id", in.SessionID)
		return nil, flowError(entity.ErrSessionLost, msgSessionLost, goerror.CodeGone)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo peek pending signup", "session_id", in.SessionID, "error", err)
		return nil, goerror.NewServer(err)
	}

	key := draft.Key()

	rec, err := s.otpStore.Get(ctx, key)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp record not found", "session_id", in.SessionID)
		s.discard(ctx, key, in.SessionID)
		return nil, flowError(entity.ErrOTPExpired, msgOTPMissing, goerror.CodeGone)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp record", "session_id", in.SessionID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Expired(s.clock.Now(), s.otpWindow()) {
		slog.WarnContext(ctx, "otp record expired", "session_id", in.SessionID, "issued_at", rec.IssuedAt)
		s.discard(ctx, key, in.SessionID)
		return nil, flowError(entity.ErrOTPExpired, msgOTPExpired, goerror.CodeGone)
	}

	emailOK := s.code.Equal(in.EmailCode, rec.EmailCode)
	phoneOK := s.code.Equal(in.PhoneCode, rec.PhoneCode)
	if !emailOK || !phoneOK {
		return nil, s.mismatch(ctx, key, in.SessionID, *rec)
	}

	return s.finalize(ctx, key, in.SessionID, *draft)
}

// mismatch counts the failed attempt. The record and the draft stay so the
// client can retry, unless the configured attempt limit is reached.
func (s *Usecase) mismatch(ctx context.Context, key, sessionID string, rec entity.OTPRecord) error {
	attempts, err := s.otpStore.CountAttempt(ctx, key, rec.IssuedAt)
	if errors.Is(err, goerror.ErrNotFound) {
		// finalized or reissued by a concurrent request; nothing to count
		slog.WarnContext(ctx, "otp record changed during mismatch", "session_id", sessionID)
		return flowError(entity.ErrOTPMismatched, msgOTPMismatched, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count otp attempt", "session_id", sessionID, "error", err)
		attempts = rec.Attempts + 1
	}

	limit := s.cfg.GetInt("modules.signup.max_verify_attempts")
	if limit > 0 && attempts >= limit {
		slog.WarnContext(ctx, "otp attempt limit reached", "session_id", sessionID, "attempts", attempts)
		s.discard(ctx, key, sessionID)
		return flowError(entity.ErrTooManyAttempts, msgTooManyAttempts, goerror.CodeGone)
	}

	slog.WarnContext(ctx, "otp mismatched", "session_id", sessionID, "attempts", attempts)
	return flowError(entity.ErrOTPMismatched, msgOTPMismatched, goerror.CodeUnauthorized)
}

// finalize creates the account once per key. A concurrent or repeated
// submission for the same key loses the lock and is told to restart.
func (s *Usecase) finalize(ctx context.Context, key, sessionID string, draft entity.PendingSignup) (*VerifyOutput, error) {
	var user *entity.User

	lock := s.cfg.GetSecond("modules.signup.finalize_lock_seconds")
	if lock <= 0 {
		lock = defaultFinalizeLock
	}

	err := s.idempotency.Exec(ctx, "signup:verify:"+key, func(ctx context.Context) error {
		created, err := s.repoDB.Create(ctx, entity.NewUser{
			ID:       s.uid.Generate(),
			Username: draft.Username,
			Email:    draft.Email,
			Phone:    draft.Phone,
		}, draft.Password)
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "signup identity taken at creation", "username", draft.Username, "email", draft.Email)
			s.discard(ctx, key, sessionID)
			return flowError(entity.ErrDuplicateIdentity, msgDuplicateIdentity, goerror.CodeConflict)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo create user", "email", draft.Email, "error", err)
			return goerror.NewServer(err)
		}

		if err := s.sessions.SetIdentity(ctx, sessionID, session.Identity{
			UserID:   created.ID,
			Username: created.Username,
			Email:    created.Email,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to set session identity", "user_id", created.ID, "error", err)
			if errDel := s.repoDB.Delete(ctx, created.ID); errDel != nil {
				slog.ErrorContext(ctx, "failed to repo delete user after session failure", "user_id", created.ID, "error", errDel)
			}
			return goerror.NewServer(err)
		}

		s.discard(ctx, key, sessionID)
		user = created

		return nil
	}, idempotency.WithLockDuration(lock), idempotency.WithReleaseOnError())

	if err != nil {
		if errors.Is(err, idempotency.ErrAlreadyInProgress) ||
			errors.Is(err, idempotency.ErrAlreadyCompleted) ||
			errors.Is(err, idempotency.ErrAlreadyFailed) {
			slog.WarnContext(ctx, "signup already finalized by another request", "session_id", sessionID, "error", err)
			return nil, flowError(entity.ErrSessionLost, msgSessionLost, goerror.CodeGone)
		}

		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return nil, gerr
		}

		slog.ErrorContext(ctx, "failed to finalize signup", "session_id", sessionID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishUserRegistered(ctx, UserRegisteredEvent{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish user registered", "user_id", user.ID, "error", err)
	}

	return &VerifyOutput{
		State:       entity.StateVerified,
		Outcome:     entity.OutcomeRedirect,
		RedirectTo:  s.redirectURL(),
		AccessToken: s.issueToken(ctx, user),
		User:        user,
	}, nil
}

func (s *Usecase) redirectURL() string {
	path := s.cfg.GetString("modules.signup.redirect_path")
	if path == "" {
		path = "/dashboard"
	}

	return strings.TrimRight(s.cfg.GetString("app.web_url"), "/") + path
}
