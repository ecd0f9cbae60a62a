package usecase

import (
	"context"
	"net/http"
	"testing"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Login(t *testing.T) {
	seed := func(t *testing.T) *fixture {
		t.Helper()
		f := newFixture(t, fixtureOption{})
		_, err := f.db.Create(context.Background(), entity.NewUser{ID: 7, Username: "alice", Email: "a@x.com"}, "pw123456")
		require.NoError(t, err)
		return f
	}

	t.Run("by username", func(t *testing.T) {
		// Arrange
		f := seed(t)

		// Act
		out, err := f.uc.Login(context.Background(), LoginInput{SessionID: testSessionID, Identifier: "alice", Password: "pw123456"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(7), out.User.ID)
		assert.NotEmpty(t, out.AccessToken)
		assert.Equal(t, int64(7), f.sessions.identities[testSessionID].UserID)
	})

	t.Run("by email in any case", func(t *testing.T) {
		// Arrange
		f := seed(t)

		// Act
		out, err := f.uc.Login(context.Background(), LoginInput{SessionID: testSessionID, Identifier: " A@X.com ", Password: "pw123456"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "alice", out.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		// Arrange
		f := seed(t)

		// Act
		_, err := f.uc.Login(context.Background(), LoginInput{SessionID: testSessionID, Identifier: "alice", Password: "nope"})

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusUnauthorized, gerr.StatusCode())
		assert.Empty(t, f.sessions.identities)
	})
}

func TestUsecase_Logout(t *testing.T) {
	// Arrange
	f := newFixture(t, fixtureOption{})
	f.sessions.identities[testSessionID] = session.Identity{UserID: 1, Username: "alice"}

	// Act
	err := f.uc.Logout(context.Background(), LogoutInput{SessionID: testSessionID})
	errAnon := f.uc.Logout(context.Background(), LogoutInput{})

	// Assert
	require.NoError(t, err)
	require.NoError(t, errAnon)
	assert.Empty(t, f.sessions.identities)
}

func TestUsecase_Me(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		// Arrange
		f := newFixture(t, fixtureOption{})
		ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 7, Username: "alice", UserEmail: "a@x.com"})

		// Act
		out, err := f.uc.Me(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, &MeOutput{UserID: 7, Username: "alice", Email: "a@x.com"}, out)
	})

	t.Run("anonymous", func(t *testing.T) {
		// Arrange
		f := newFixture(t, fixtureOption{})

		// Act
		_, err := f.uc.Me(context.Background())

		// Assert
		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusUnauthorized, gerr.StatusCode())
	})
}
