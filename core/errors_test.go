package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindRoundTrip(t *testing.T) {
	err := ErrSessionNotFound("abc")
	assert.Equal(t, KindSessionNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "abc")

	// Wrapping keeps the kind reachable via errors.As.
	wrapped := fmt.Errorf("dispatch: %w", err)
	assert.Equal(t, KindSessionNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindSessionNotFound))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindExecution, KindOf(errors.New("solver blew up")))
}

func TestErrWithDetails(t *testing.T) {
	base := ErrUnknownVariable("fc.MN", "not an input variable")
	detailed := base.WithDetails(map[string]any{"catalog_size": 12})

	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
	assert.Equal(t, base.Message, detailed.Message)
}

func TestErrSweepTooLarge(t *testing.T) {
	err := ErrSweepTooLarge(5000, 1000)
	assert.Equal(t, KindSweepTooLarge, err.Kind)
	assert.Contains(t, err.Message, "5000")
	assert.Contains(t, err.Message, "1000")
}
