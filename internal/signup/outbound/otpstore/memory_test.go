package otpstore

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("get missing", func(t *testing.T) {
		// Arrange
		m := NewMemory()

		// Act
		rec, err := m.Get(ctx, "a@x.com_9876543210")

		// Assert
		assert.Nil(t, rec)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("put overwrites", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		require.NoError(t, m.Put(ctx, "k", entity.OTPRecord{EmailCode: "111111", PhoneCode: "222222", IssuedAt: issued}))

		// Act
		err := m.Put(ctx, "k", entity.OTPRecord{EmailCode: "333333", PhoneCode: "444444", IssuedAt: issued.Add(time.Minute)})

		// Assert
		require.NoError(t, err)
		rec, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "333333", rec.EmailCode)
		assert.Equal(t, "444444", rec.PhoneCode)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("get returns a copy", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		require.NoError(t, m.Put(ctx, "k", entity.OTPRecord{EmailCode: "111111"}))

		// Act
		rec, err := m.Get(ctx, "k")
		require.NoError(t, err)
		rec.Attempts = 9

		// Assert
		again, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Zero(t, again.Attempts)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		require.NoError(t, m.Put(ctx, "k", entity.OTPRecord{}))

		// Act
		errFirst := m.Delete(ctx, "k")
		errSecond := m.Delete(ctx, "k")

		// Assert
		assert.NoError(t, errFirst)
		assert.NoError(t, errSecond)
		_, err := m.Get(ctx, "k")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("keys are independent", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		require.NoError(t, m.Put(ctx, "a", entity.OTPRecord{EmailCode: "1"}))
		require.NoError(t, m.Put(ctx, "b", entity.OTPRecord{EmailCode: "2"}))

		// Act
		require.NoError(t, m.Delete(ctx, "a"))

		// Assert
		rec, err := m.Get(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "2", rec.EmailCode)
	})

	t.Run("count attempt only touches the same issuance", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		require.NoError(t, m.Put(ctx, "k", entity.OTPRecord{EmailCode: "1", IssuedAt: issued}))

		// Act
		first, errFirst := m.CountAttempt(ctx, "k", issued)
		_, errStale := m.CountAttempt(ctx, "k", issued.Add(-time.Minute))

		// Assert
		require.NoError(t, errFirst)
		assert.Equal(t, 1, first)
		assert.ErrorIs(t, errStale, goerror.ErrNotFound)
		rec, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Attempts)
	})

	t.Run("count attempt never recreates a deleted record", func(t *testing.T) {
		// Arrange
		m := NewMemory()
		require.NoError(t, m.Put(ctx, "k", entity.OTPRecord{IssuedAt: issued}))
		require.NoError(t, m.Delete(ctx, "k"))

		// Act
		_, err := m.CountAttempt(ctx, "k", issued)

		// Assert
		assert.ErrorIs(t, err, goerror.ErrNotFound)
		assert.Zero(t, m.Len())
	})
}
