package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/marlink/errors"
)

type vessel struct {
	MMSI int64
	Name string
}

func TestMemoryPutGet(t *testing.T) {
	s := NewMemory[vessel](time.Minute, time.Second)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "244660000", vessel{MMSI: 244660000, Name: "EEMSLIFT"}))

	got, ok, err := s.Get(ctx, "244660000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "EEMSLIFT", got.Name)
}

func TestMemoryPutOverwrites(t *testing.T) {
	s := NewMemory[vessel](time.Minute, time.Second)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", vessel{Name: "old"}))
	require.NoError(t, s.Put(ctx, "k", vessel{Name: "new"}))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.Name)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryRejectsEmptyKey(t *testing.T) {
	s := NewMemory[vessel](time.Minute, time.Second)
	defer func() { _ = s.Close() }()

	err := s.Put(context.Background(), "", vessel{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMemoryExpiry(t *testing.T) {
	s := NewMemory[vessel](20*time.Millisecond, 5*time.Millisecond)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", vessel{Name: "ghost"}))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok, err := s.Get(ctx, "k")
		return err == nil && !ok
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryAll(t *testing.T) {
	s := NewMemory[vessel](time.Minute, time.Second)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", vessel{MMSI: 1}))
	require.NoError(t, s.Put(ctx, "b", vessel{MMSI: 2}))
	require.NoError(t, s.Put(ctx, "c", vessel{MMSI: 3}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryDelete(t *testing.T) {
	s := NewMemory[vessel](time.Minute, time.Second)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", vessel{}))

	existed, err := s.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestMemoryCloseIdempotent(t *testing.T) {
	s := NewMemory[vessel](time.Minute, time.Second)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestNewRedisRequiresClient(t *testing.T) {
	_, err := NewRedis[vessel](nil, "marlink:vessel:", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
