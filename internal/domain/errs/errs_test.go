package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindErrorsMatchSentinel(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{Validation("months must be between %d and %d", 1, 12), ErrValidation},
		{NotFound("analysis not found"), ErrNotFound},
		{NotAuthorized("admin role required"), ErrNotAuthorized},
		{RateLimited("too many cleanups"), ErrRateLimited},
		{ConfirmationRequired("confirmation token mismatch"), ErrConfirmationRequired},
		{Conflict("job is already running"), ErrConflict},
	}

	for _, tc := range cases {
		assert.True(t, errors.Is(tc.err, tc.kind), "%v should be %v", tc.err, tc.kind)
	}
}

func TestMessageStripsKind(t *testing.T) {
	err := fmt.Errorf("retention.update: %w", Validation("months must be between 1 and 12"))
	assert.Equal(t, "months must be between 1 and 12", Message(err))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("analysis store", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, Unavailable("analysis store", nil))
}

func TestPartial(t *testing.T) {
	err := Partial(2, 5)
	assert.ErrorIs(t, err, ErrPartialBatchFailure)
	assert.Equal(t, "partial batch failure: 2 of 5 items failed", err.Error())
}
