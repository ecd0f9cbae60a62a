package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
)

const (
	msgDuplicateIdentity   = "A user with this username or email already exists. Please choose a different username or login instead."
	msgEmailDeliveryFailed = "Failed to send the verification email. Please try again."
)

type SignupInput struct {
	SessionID string `validate:"required"`
	Username  string `validate:"required,username"`
	Email     string `validate:"required,email,max=254"`
	Password  string `validate:"required,password"`
	Phone     string `validate:"required,max=32"`
}

type SignupOutput struct {
	State     entity.State
	EmailSent bool
	SMSSent   bool
	ExpiresAt time.Time
}

func (s *Usecase) Signup(ctx context.Context, in SignupInput) (*SignupOutput, error) {
	ctx, span := s.startSpan(ctx, "Signup")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, err := s.repoDB.FindByEmailOrUsername(ctx, in.Email, in.Username)
	if err == nil {
		slog.WarnContext(ctx, "signup identity already registered", "username", in.Username, "email", in.Email)
		return nil, flowError(entity.ErrDuplicateIdentity, msgDuplicateIdentity, goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo find user by email or username", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	codes, err := s.generateCodes()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp codes", "error", err)
		return nil, goerror.NewServer(err)
	}

	draft := entity.PendingSignup{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Phone:    in.Phone,
	}
	key := draft.Key()

	s.dropPreviousAttempt(ctx, in.SessionID, key)

	now := s.clock.Now()
	if err := s.otpStore.Put(ctx, key, entity.OTPRecord{
		EmailCode: codes.Email,
		PhoneCode: codes.Phone,
		IssuedAt:  now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo put otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	report := s.notifier.Notify(ctx,
		entity.ChannelTargets{Email: in.Email, Phone: in.Phone},
		codes,
		entity.Identity{Username: in.Username},
	)

	policy := entity.ParseDeliveryPolicy(s.cfg.GetString("modules.signup.delivery_policy"))
	if err := policy.Evaluate(report); err != nil {
		slog.ErrorContext(ctx, "signup aborted by delivery policy", "policy", policy.String(), "email", in.Email, "error", err)
		s.discard(ctx, key, in.SessionID)
		return nil, flowError(err, msgEmailDeliveryFailed, goerror.CodeBadGateway)
	}
	if report.SMSErr != nil {
		slog.WarnContext(ctx, "sms code not delivered", "policy", policy.String(), "error", report.SMSErr)
	}
	if report.EmailErr != nil {
		slog.WarnContext(ctx, "email code not delivered", "policy", policy.String(), "error", report.EmailErr)
	}

	if err := s.pending.Stash(ctx, in.SessionID, draft); err != nil {
		slog.ErrorContext(ctx, "failed to repo stash pending signup", "session_id", in.SessionID, "error", err)
		s.discard(ctx, key, in.SessionID)
		return nil, goerror.NewServer(err)
	}

	return &SignupOutput{
		State:     entity.StateOTPIssued,
		EmailSent: report.EmailSent,
		SMSSent:   report.SMSSent,
		ExpiresAt: now.Add(s.otpWindow()),
	}, nil
}

func (s *Usecase) generateCodes() (entity.OTPCodes, error) {
	emailCode, err := s.code.Generate()
	if err != nil {
		return entity.OTPCodes{}, err
	}

	phoneCode, err := s.code.Generate()
	if err != nil {
		return entity.OTPCodes{}, err
	}

	return entity.OTPCodes{Email: emailCode, Phone: phoneCode}, nil
}

// dropPreviousAttempt deletes the record of an earlier signup from the same
// session when it was issued for another email or phone.
func (s *Usecase) dropPreviousAttempt(ctx context.Context, sessionID, key string) {
	prev, err := s.pending.Peek(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "failed to repo peek pending signup", "session_id", sessionID, "error", err)
		}
		return
	}

	if prevKey := prev.Key(); prevKey != key {
		if err := s.otpStore.Delete(ctx, prevKey); err != nil {
			slog.WarnContext(ctx, "failed to repo delete previous otp record", "session_id", sessionID, "error", err)
		}
	}
}
