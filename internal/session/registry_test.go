package session

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySweepClosesIdleControllers(t *testing.T) {
	mock := clock.NewMock()
	r := NewRegistry(mock)

	idle := NewController("idle", twoQuestionInterview(), Options{Clock: clock.NewMock()})
	busy := NewController("busy", twoQuestionInterview(), Options{Clock: clock.NewMock()})
	r.Put(idle)
	r.Put(busy)
	assert.Equal(t, 2, r.Len())

	mock.Add(3 * time.Minute)
	_, ok := r.Get("busy")
	require.True(t, ok)
	mock.Add(3 * time.Minute)

	assert.Equal(t, []string{"idle"}, r.Sweep(5*time.Minute))
	assert.Equal(t, 1, r.Len())
	assert.ErrorIs(t, idle.OnTextChange("x"), ErrClosed)
	assert.ErrorIs(t, busy.OnTextChange("x"), ErrNotActive)

	_, ok = r.Get("idle")
	assert.False(t, ok)

	r.CloseAll()
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, busy.OnTextChange("x"), ErrClosed)
}

func TestRegistryPutReplacesAndRemove(t *testing.T) {
	r := NewRegistry(clock.NewMock())
	first := NewController("s-1", twoQuestionInterview(), Options{Clock: clock.NewMock()})
	second := NewController("s-1", twoQuestionInterview(), Options{Clock: clock.NewMock()})

	r.Put(first)
	r.Put(second)
	assert.ErrorIs(t, first.OnTextChange("x"), ErrClosed)

	got, ok := r.Get("s-1")
	require.True(t, ok)
	assert.Same(t, second, got)

	r.Remove("s-1")
	r.Remove("s-1")
	assert.Zero(t, r.Len())
	assert.ErrorIs(t, second.OnTextChange("x"), ErrClosed)
}
