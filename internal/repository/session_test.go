package repository

import (
	"testing"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKey(t *testing.T) {
	// The key is the same whichever participant asks.
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
}

func TestSessionRegistry(t *testing.T) {
	registry := NewSessionRegistry()

	_, err := registry.GetByID("missing")
	require.ErrorIs(t, err, apperror.ErrGameNotFound)

	session := entity.NewSession(PairKey("a", "b"), &entity.Player{ID: "a"}, &entity.Player{ID: "b"})
	registry.CreateOrUpdate(session)

	got, err := registry.GetByID(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)
	assert.Equal(t, 1, registry.Len())

	registry.DeleteByID(session.ID)
	assert.Equal(t, 0, registry.Len())
}

func TestPlayerRegistry(t *testing.T) {
	registry := NewPlayerRegistry()

	_, err := registry.GetByID("missing")
	require.ErrorIs(t, err, apperror.ErrPlayerNotFound)

	player := &entity.Player{ID: "a", Name: "alice"}
	registry.CreateOrUpdate(player)

	got, err := registry.GetByID("a")
	require.NoError(t, err)
	assert.Same(t, player, got)

	registry.DeleteByID("a")
	_, err = registry.GetByID("a")
	assert.ErrorIs(t, err, apperror.ErrPlayerNotFound)
}
