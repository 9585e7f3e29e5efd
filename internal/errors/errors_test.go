package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestKindTaggedErrors(t *testing.T) {
	cause := stderrors.New("connection refused")

	t.Run("fetch error keeps cause and message", func(t *testing.T) {
		err := errors.Fetch("clients.fetchAll", "Loading clients failed", cause)
		require.True(t, errors.IsKind(err, errors.KindFetch))
		require.True(t, errors.Is(err, cause))
		require.Equal(t, "Loading clients failed", errors.Message(err))
	})

	t.Run("kind survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", errors.Mutation("clients.create", "Create failed", cause))
		require.Equal(t, errors.KindMutation, errors.KindOf(err))
	})

	t.Run("session expired wraps sentinel", func(t *testing.T) {
		err := errors.SessionExpired("session.checkExpiration")
		require.True(t, errors.Is(err, errors.ErrSessionExpired))
		require.True(t, errors.IsKind(err, errors.KindSessionExpired))
	})

	t.Run("untagged errors", func(t *testing.T) {
		require.Equal(t, errors.KindUnknown, errors.KindOf(cause))
		require.Equal(t, "connection refused", errors.Message(cause))
		require.Equal(t, "", errors.Message(nil))
	})

	t.Run("wrap nil", func(t *testing.T) {
		require.NoError(t, errors.Wrap(errors.KindStorage, "op", "msg", nil))
		require.NoError(t, errors.Wrapf(nil, "context"))
	})
}
