package services

import (
	"context"
	"testing"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSweeperClosesIdleSessions(t *testing.T) {
	mock := clock.NewMock()
	registry := session.NewRegistry(mock)
	ctrl := session.NewController("idle", models.Interview{ID: "iv-1"}, session.Options{Clock: clock.NewMock()})
	registry.Put(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	NewSweeper(zap.NewNop(), registry, mock, time.Minute, 5*time.Minute).Start(ctx)

	mock.Add(3 * time.Minute)
	assert.Equal(t, 1, registry.Len())

	assert.Eventually(t, func() bool {
		mock.Add(time.Minute)
		return registry.Len() == 0
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, ctrl.OnTextChange("late"), session.ErrClosed)
}
