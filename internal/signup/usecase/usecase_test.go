package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/shandysiswandi/gosignup/internal/pkg/clock"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/idempotency"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
	pkgotp "github.com/shandysiswandi/gosignup/internal/pkg/otp"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/pkg/validator"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionID = "session-1"

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeRepoDB struct {
	mu        sync.Mutex
	users     map[int64]*entity.User
	findErr   error
	createErr error
	deleted   []int64
}

func newFakeRepoDB() *fakeRepoDB {
	return &fakeRepoDB{users: make(map[int64]*entity.User)}
}

func (f *fakeRepoDB) FindByEmailOrUsername(_ context.Context, email, username string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) || u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepoDB) Create(_ context.Context, nu entity.NewUser, password string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, nu.Email) || u.Username == nu.Username {
			return nil, goerror.ErrConflict
		}
	}

	u := &entity.User{
		ID:           nu.ID,
		Username:     nu.Username,
		Email:        nu.Email,
		Phone:        nu.Phone,
		PasswordHash: "hashed:" + password,
		CreatedAt:    testStart,
	}
	f.users[u.ID] = u

	cp := *u
	return &cp, nil
}

func (f *fakeRepoDB) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepoDB) Authenticate(_ context.Context, identifier, password string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email != identifier && u.Username != identifier {
			continue
		}
		if u.PasswordHash != "hashed:"+password {
			return nil, entity.ErrInvalidCredentials
		}
		cp := *u
		return &cp, nil
	}
	return nil, entity.ErrInvalidCredentials
}

func (f *fakeRepoDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakeOTPStore struct {
	mu      sync.Mutex
	records map[string]entity.OTPRecord
	putErr  error
	// beforeCount runs ahead of CountAttempt to interleave a concurrent request.
	beforeCount func()
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{records: make(map[string]entity.OTPRecord)}
}

func (f *fakeOTPStore) Put(_ context.Context, key string, rec entity.OTPRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return f.putErr
	}
	f.records[key] = rec
	return nil
}

func (f *fakeOTPStore) Get(_ context.Context, key string) (*entity.OTPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[key]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeOTPStore) CountAttempt(_ context.Context, key string, issuedAt time.Time) (int, error) {
	if f.beforeCount != nil {
		f.beforeCount()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[key]
	if !ok || !rec.IssuedAt.Equal(issuedAt) {
		return 0, goerror.ErrNotFound
	}
	rec.Attempts++
	f.records[key] = rec
	return rec.Attempts, nil
}

func (f *fakeOTPStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.records, key)
	return nil
}

func (f *fakeOTPStore) get(key string) (entity.OTPRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[key]
	return rec, ok
}

type fakePending struct {
	mu       sync.Mutex
	drafts   map[string]entity.PendingSignup
	stashErr error
}

func newFakePending() *fakePending {
	return &fakePending{drafts: make(map[string]entity.PendingSignup)}
}

func (f *fakePending) Stash(_ context.Context, sessionID string, draft entity.PendingSignup) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stashErr != nil {
		return f.stashErr
	}
	f.drafts[sessionID] = draft
	return nil
}

func (f *fakePending) Peek(_ context.Context, sessionID string) (*entity.PendingSignup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.drafts[sessionID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &d, nil
}

func (f *fakePending) Clear(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.drafts, sessionID)
	return nil
}

func (f *fakePending) has(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.drafts[sessionID]
	return ok
}

type fakeNotifier struct {
	report entity.DeliveryReport
	calls  []entity.OTPCodes
}

func (f *fakeNotifier) Notify(_ context.Context, _ entity.ChannelTargets, codes entity.OTPCodes, _ entity.Identity) entity.DeliveryReport {
	f.calls = append(f.calls, codes)
	return f.report
}

type fakeSessions struct {
	mu         sync.Mutex
	identities map[string]session.Identity
	setErr     error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{identities: make(map[string]session.Identity)}
}

func (f *fakeSessions) SetIdentity(_ context.Context, id string, ident session.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}
	f.identities[id] = ident
	return nil
}

func (f *fakeSessions) ClearIdentity(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.identities, id)
	return nil
}

type fakeMessaging struct {
	events []UserRegisteredEvent
	err    error
}

func (f *fakeMessaging) PublishUserRegistered(_ context.Context, msg UserRegisteredEvent) error {
	f.events = append(f.events, msg)
	return f.err
}

// fixedCodes hands out codes in order and compares them like the real
// generator does.
type fixedCodes struct {
	mu      sync.Mutex
	codes   []string
	next    int
	numeric *pkgotp.Numeric
}

func newFixedCodes(codes ...string) *fixedCodes {
	return &fixedCodes{codes: codes, numeric: pkgotp.NewNumeric(otp.DigitsSix)}
}

func (f *fixedCodes) Generate() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.codes) == 0 {
		return "", errors.New("no codes")
	}
	c := f.codes[f.next%len(f.codes)]
	f.next++
	return c, nil
}

func (f *fixedCodes) Equal(submitted, issued string) bool {
	return f.numeric.Equal(submitted, issued)
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 1000 + s.n
}

var _ uid.NumberID = (*seqID)(nil)

type fixture struct {
	uc        *Usecase
	db        *fakeRepoDB
	store     *fakeOTPStore
	pending   *fakePending
	notifier  *fakeNotifier
	sessions  *fakeSessions
	messaging *fakeMessaging
	codes     *fixedCodes
	clock     *clock.Manual
	jwt       *jwt.Symmetric
}

type fixtureOption struct {
	policy      string
	maxAttempts int
	notifier    Notifier
}

func testConfig(t *testing.T, policy string, maxAttempts int) config.Config {
	t.Helper()

	if policy == "" {
		policy = "strict_email"
	}

	cfg, err := config.NewViperFromBytes("yaml", fmt.Appendf(nil, `
app:
  name: GoSignup
  web_url: "http://localhost:3000/"
modules:
  signup:
    otp_ttl_seconds: 300
    delivery_policy: %s
    max_verify_attempts: %d
    phone_country_code: "+91"
`, policy, maxAttempts))
	require.NoError(t, err)

	return cfg
}

func newFixture(t *testing.T, opt fixtureOption) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	clk := clock.NewManual(testStart)
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("s", 64)),
		Issuer:    "gosignup",
		Audiences: []string{"gosignup"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	f := &fixture{
		db:        newFakeRepoDB(),
		store:     newFakeOTPStore(),
		pending:   newFakePending(),
		notifier:  &fakeNotifier{report: entity.DeliveryReport{EmailSent: true, SMSSent: true}},
		sessions:  newFakeSessions(),
		messaging: &fakeMessaging{},
		codes:     newFixedCodes("482913", "771045"),
		clock:     clk,
		jwt:       tokens,
	}

	var notifier Notifier = f.notifier
	if opt.notifier != nil {
		notifier = opt.notifier
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.messaging,
		OTPStore:      f.store,
		Pending:       f.pending,
		Notifier:      notifier,
		Sessions:      f.sessions,
		Idempotency:   idempotency.NewMemory(clk),
		Code:          f.codes,
		Validator:     v,
		Config:        testConfig(t, opt.policy, opt.maxAttempts),
		UID:           &seqID{},
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
	})

	return f
}

func aliceSignup() SignupInput {
	return SignupInput{
		SessionID: testSessionID,
		Username:  "alice",
		Email:     "a@x.com",
		Password:  "pw123456",
		Phone:     "9876543210",
	}
}

const aliceKey = "a@x.com_9876543210"

func assertFlowError(t *testing.T, err error, sentinel error, status int, outcome entity.Outcome) {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, status, gerr.StatusCode())
	assert.Equal(t, outcome.String(), gerr.Fields()["outcome"])
}
