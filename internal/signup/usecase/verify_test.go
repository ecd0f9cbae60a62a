package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedUp(t *testing.T, opt fixtureOption) *fixture {
	t.Helper()

	f := newFixture(t, opt)
	_, err := f.uc.Signup(context.Background(), aliceSignup())
	require.NoError(t, err)

	return f
}

func correctCodes() VerifyInput {
	return VerifyInput{SessionID: testSessionID, EmailCode: "482913", PhoneCode: "771045"}
}

func TestUsecase_VerifyOTP(t *testing.T) {
	t.Run("session without draft must restart", func(t *testing.T) {
		// Arrange
		f := newFixture(t, fixtureOption{})

		// Act
		out, err := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		assert.Nil(t, out)
		assertFlowError(t, err, entity.ErrSessionLost, http.StatusGone, entity.OutcomeRestartRequired)
	})

	t.Run("expired one second past the window", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		f.clock.Advance(301 * time.Second)

		// Act
		_, err := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		assertFlowError(t, err, entity.ErrOTPExpired, http.StatusGone, entity.OutcomeRestartRequired)
		_, ok := f.store.get(aliceKey)
		assert.False(t, ok)
		assert.False(t, f.pending.has(testSessionID))
		assert.Zero(t, f.db.count())
	})

	t.Run("still valid at exactly the window", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		f.clock.Advance(300 * time.Second)

		// Act
		out, err := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.StateVerified, out.State)
	})

	t.Run("missing record must restart and clears the draft", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		require.NoError(t, f.store.Delete(context.Background(), aliceKey))

		// Act
		_, err := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		assertFlowError(t, err, entity.ErrOTPExpired, http.StatusGone, entity.OutcomeRestartRequired)
		assert.False(t, f.pending.has(testSessionID))
	})

	t.Run("mismatch allows retry and then succeeds", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		wrong := correctCodes()
		wrong.PhoneCode = "000000"

		// Act
		_, errWrong := f.uc.VerifyOTP(context.Background(), wrong)
		out, err := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		assertFlowError(t, errWrong, entity.ErrOTPMismatched, http.StatusUnauthorized, entity.OutcomeRetryAllowed)

		require.NoError(t, err)
		assert.Equal(t, entity.StateVerified, out.State)
		assert.Equal(t, entity.OutcomeRedirect, out.Outcome)
		assert.Equal(t, 1, f.db.count())
	})

	t.Run("mismatch keeps artifacts and counts attempts", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		wrong := correctCodes()
		wrong.EmailCode = "123456"

		// Act
		_, err := f.uc.VerifyOTP(context.Background(), wrong)

		// Assert
		assert.ErrorIs(t, err, entity.ErrOTPMismatched)
		rec, ok := f.store.get(aliceKey)
		require.True(t, ok)
		assert.Equal(t, 1, rec.Attempts)
		assert.Equal(t, testStart, rec.IssuedAt)
		assert.True(t, f.pending.has(testSessionID))
	})

	t.Run("wrong code racing a successful verify leaves no record", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		wrong := correctCodes()
		wrong.PhoneCode = "000000"
		f.store.beforeCount = func() {
			f.store.beforeCount = nil
			_, err := f.uc.VerifyOTP(context.Background(), correctCodes())
			require.NoError(t, err)
		}

		// Act
		_, err := f.uc.VerifyOTP(context.Background(), wrong)

		// Assert
		assert.ErrorIs(t, err, entity.ErrOTPMismatched)
		_, ok := f.store.get(aliceKey)
		assert.False(t, ok)
		assert.False(t, f.pending.has(testSessionID))
		assert.Equal(t, 1, f.db.count())
	})

	t.Run("codes compare numerically", func(t *testing.T) {
		// Arrange
		f := newFixture(t, fixtureOption{})
		f.codes = newFixedCodes("012345", "000777")
		f.uc.code = f.codes
		_, err := f.uc.Signup(context.Background(), aliceSignup())
		require.NoError(t, err)

		// Act
		out, err := f.uc.VerifyOTP(context.Background(), VerifyInput{
			SessionID: testSessionID,
			EmailCode: " 12345 ",
			PhoneCode: "777",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.StateVerified, out.State)
	})

	t.Run("attempt limit ends the signup", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{maxAttempts: 2})
		wrong := correctCodes()
		wrong.EmailCode = "999999"

		// Act
		_, errFirst := f.uc.VerifyOTP(context.Background(), wrong)
		_, errSecond := f.uc.VerifyOTP(context.Background(), wrong)
		_, errThird := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		assert.ErrorIs(t, errFirst, entity.ErrOTPMismatched)
		assertFlowError(t, errSecond, entity.ErrTooManyAttempts, http.StatusGone, entity.OutcomeRestartRequired)
		assert.ErrorIs(t, errThird, entity.ErrSessionLost)
		assert.Zero(t, f.db.count())
	})

	t.Run("verified creates the user and authenticates the session", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})

		// Act
		out, err := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/dashboard", out.RedirectTo)
		require.NotNil(t, out.User)
		assert.Equal(t, "alice", out.User.Username)
		assert.Equal(t, "hashed:pw123456", out.User.PasswordHash)

		claims, err := f.jwt.Verify(out.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, out.User.ID, claims.UserID)

		ident, ok := f.sessions.identities[testSessionID]
		require.True(t, ok)
		assert.Equal(t, out.User.ID, ident.UserID)

		_, ok = f.store.get(aliceKey)
		assert.False(t, ok)
		assert.False(t, f.pending.has(testSessionID))

		require.Len(t, f.messaging.events, 1)
		assert.Equal(t, UserRegisteredEvent{UserID: out.User.ID, Username: "alice", Email: "a@x.com"}, f.messaging.events[0])
	})

	t.Run("publish failure does not fail verification", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		f.messaging.err = errors.New("broker down")

		// Act
		out, err := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.StateVerified, out.State)
	})

	t.Run("identity taken at creation must restart", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		_, err := f.db.Create(context.Background(), entity.NewUser{ID: 1, Username: "alice2", Email: "a@x.com"}, "pw")
		require.NoError(t, err)

		// Act
		_, err = f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		assertFlowError(t, err, entity.ErrDuplicateIdentity, http.StatusConflict, entity.OutcomeRestartRequired)
		_, ok := f.store.get(aliceKey)
		assert.False(t, ok)
		assert.False(t, f.pending.has(testSessionID))
	})

	t.Run("session failure removes the created user", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})
		f.sessions.setErr = errors.New("session backend down")

		// Act
		_, err := f.uc.VerifyOTP(context.Background(), correctCodes())

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusInternalServerError, gerr.StatusCode())
		assert.Zero(t, f.db.count())
		assert.Len(t, f.db.deleted, 1)

		_, ok := f.store.get(aliceKey)
		assert.True(t, ok, "artifacts stay so verification can be retried")
		assert.True(t, f.pending.has(testSessionID))

		f.sessions.setErr = nil
		out, err := f.uc.VerifyOTP(context.Background(), correctCodes())
		require.NoError(t, err)
		assert.Equal(t, entity.StateVerified, out.State)
	})

	t.Run("double submit creates one account", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})

		var wg sync.WaitGroup
		errs := make([]error, 4)

		// Act
		for i := range errs {
			wg.Go(func() {
				_, errs[i] = f.uc.VerifyOTP(context.Background(), correctCodes())
			})
		}
		wg.Wait()

		// Assert
		assert.Equal(t, 1, f.db.count())
		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.Equal(t, entity.OutcomeRestartRequired, entity.OutcomeOf(entity.StateOf(err)))
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		// Arrange
		f := signedUp(t, fixtureOption{})

		// Act
		_, err := f.uc.VerifyOTP(context.Background(), VerifyInput{SessionID: testSessionID, EmailCode: "abc", PhoneCode: ""})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode())
		assert.True(t, f.pending.has(testSessionID))
	})
}
