package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/hash"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
)

// DefaultCookieName is used when Config.CookieName is empty.
const DefaultCookieName = "sid"

// ErrNoSession is returned when the context carries no session id.
var ErrNoSession = errors.New("session: no session in context")

// Config configures the session cookie.
type Config struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Manager issues signed session cookies and reads and writes slots.
type Manager struct {
	store  Store
	signer hash.Hash
	ids    uid.StringID
	cfg    Config
}

// NewManager builds a Manager. signer signs the cookie value; ids creates
// new session ids.
func NewManager(store Store, signer hash.Hash, ids uid.StringID, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	return &Manager{store: store, signer: signer, ids: ids, cfg: cfg}
}

// Middleware resolves the session id from the signed cookie, or starts a new
// session and sets the cookie, then stores the id in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.idFromRequest(r)
		if !ok {
			var err error
			id, err = m.issue(w)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to issue session cookie", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

func (m *Manager) idFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	id, sig, found := strings.Cut(c.Value, ".")
	if !found || id == "" || !m.signer.Verify(sig, id) {
		return "", false
	}

	return id, true
}

func (m *Manager) issue(w http.ResponseWriter) (string, error) {
	id := m.ids.Generate()

	sig, err := m.signer.Hash(id)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    id + "." + string(sig),
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return id, nil
}

// Load reads a slot of session id.
func (m *Manager) Load(ctx context.Context, id, slot string) ([]byte, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	return m.store.Get(ctx, id, slot)
}

// Save writes a slot of session id.
func (m *Manager) Save(ctx context.Context, id, slot string, value []byte) error {
	if id == "" {
		return ErrNoSession
	}

	return m.store.Set(ctx, id, slot, value, m.cfg.TTL)
}

// Remove deletes a slot of session id.
func (m *Manager) Remove(ctx context.Context, id, slot string) error {
	if id == "" {
		return ErrNoSession
	}

	return m.store.Delete(ctx, id, slot)
}

// SetIdentity binds an authenticated identity to session id.
func (m *Manager) SetIdentity(ctx context.Context, id string, ident Identity) error {
	raw, err := json.Marshal(ident)
	if err != nil {
		return err
	}

	return m.Save(ctx, id, SlotIdentity, raw)
}

// Identity returns the identity bound to session id, or goerror.ErrNotFound.
func (m *Manager) Identity(ctx context.Context, id string) (*Identity, error) {
	raw, err := m.Load(ctx, id, SlotIdentity)
	if err != nil {
		return nil, err
	}

	var ident Identity
	if err := json.Unmarshal(raw, &ident); err != nil {
		return nil, goerror.ErrNotFound
	}

	return &ident, nil
}

// ClearIdentity unbinds the identity from session id.
func (m *Manager) ClearIdentity(ctx context.Context, id string) error {
	return m.Remove(ctx, id, SlotIdentity)
}
