package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectIDGenerator_Generate(t *testing.T) {
	g, err := NewObjectIDGenerator()
	require.NoError(t, err)

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := g.Generate()
		require.Len(t, id, 64)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestSnowflake_Generate(t *testing.T) {
	s, err := NewSnowflake()
	require.NoError(t, err)

	a, b := s.Generate(), s.Generate()
	assert.Positive(t, a)
	assert.Greater(t, b, a)
}

func TestUUID_Generate(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}
