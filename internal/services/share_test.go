package services

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLinks(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	links := NewShareLinks("test-secret", time.Hour, mock)

	token, expires, err := links.Issue("iv-1")
	require.NoError(t, err)
	assert.Equal(t, mock.Now().Add(time.Hour), expires)

	assert.NoError(t, links.Validate(token, "iv-1"))
	assert.ErrorIs(t, links.Validate(token, "iv-2"), ErrInvalidShareToken)
	assert.ErrorIs(t, links.Validate("", "iv-1"), ErrInvalidShareToken)
	assert.ErrorIs(t, links.Validate(token+"x", "iv-1"), ErrInvalidShareToken)

	other := NewShareLinks("another-secret", time.Hour, mock)
	assert.ErrorIs(t, other.Validate(token, "iv-1"), ErrInvalidShareToken)

	mock.Add(2 * time.Hour)
	assert.ErrorIs(t, links.Validate(token, "iv-1"), ErrInvalidShareToken)
}
