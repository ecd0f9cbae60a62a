// Package pending keeps the unconfirmed signup in a session slot. The draft
// carries the cleartext password, so the slot value is sealed with
// AES-GCM bound to the session id.
package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shandysiswandi/gosignup/internal/pkg/encrypt"
	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Slot is the session slot holding the sealed draft.
const Slot = "signup.pending"

type sessionStore interface {
	Load(ctx context.Context, id, slot string) ([]byte, error)
	Save(ctx context.Context, id, slot string, value []byte) error
	Remove(ctx context.Context, id, slot string) error
}

type Holder struct {
	sessions sessionStore
	enc      encrypt.Encryptor
	ins      instrument.Instrumentation
}

func New(sessions sessionStore, enc encrypt.Encryptor, ins instrument.Instrumentation) *Holder {
	return &Holder{sessions: sessions, enc: enc, ins: ins}
}

func (h *Holder) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return h.ins.Tracer("signup.outbound.pending").Start(ctx, name)
}

func (h *Holder) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func scope(sessionID string) encrypt.Scope {
	return encrypt.Scope{Subject: sessionID, Purpose: encrypt.PurposePendingSignup}
}

// Stash replaces the draft of sessionID.
func (h *Holder) Stash(ctx context.Context, sessionID string, draft entity.PendingSignup) (err error) {
	ctx, span := h.startSpan(ctx, "Stash")
	defer func() { h.endSpan(span, err) }()

	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}

	sealed, err := h.enc.Encrypt(raw, scope(sessionID))
	if err != nil {
		return err
	}

	return h.sessions.Save(ctx, sessionID, Slot, sealed)
}

// Peek returns the draft of sessionID. A missing session, a missing slot and
// a slot that no longer opens all yield goerror.ErrNotFound.
func (h *Holder) Peek(ctx context.Context, sessionID string) (_ *entity.PendingSignup, err error) {
	ctx, span := h.startSpan(ctx, "Peek")
	defer func() { h.endSpan(span, err) }()

	sealed, err := h.sessions.Load(ctx, sessionID, Slot)
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	raw, err := h.enc.Decrypt(sealed, scope(sessionID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", goerror.ErrNotFound, err)
	}

	var draft entity.PendingSignup
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("%w: %w", goerror.ErrNotFound, err)
	}

	return &draft, nil
}

// Clear removes the draft. Clearing an absent draft is not an error.
func (h *Holder) Clear(ctx context.Context, sessionID string) (err error) {
	ctx, span := h.startSpan(ctx, "Clear")
	defer func() { h.endSpan(span, err) }()

	err = h.sessions.Remove(ctx, sessionID, Slot)
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, goerror.ErrNotFound) {
		return nil
	}

	return err
}
