package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabus/transit-admin/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx, Snapshot{
		Identity:     model.Identity{UserID: 3, Role: model.RoleSupervisor, CompanyID: 9},
		RefreshToken: "raw-refresh",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), snap.Identity.UserID)
	assert.Equal(t, model.RoleSupervisor, snap.Identity.Role)
	assert.Equal(t, "raw-refresh", snap.RefreshToken)
	assert.False(t, snap.CreatedAt.IsZero())
}

func TestMemoryStoreUnknownID(t *testing.T) {
	s := NewMemoryStore(time.Hour)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(-time.Second) // already expired on creation
	ctx := context.Background()

	id, err := s.Create(ctx, Snapshot{Identity: model.Identity{UserID: 1}})
	require.NoError(t, err)

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx, Snapshot{Identity: model.Identity{UserID: 1}})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
