package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("status=500")
	err := Wrap(CodeLLM, "the master is away", cause)

	require.True(t, IsCode(err, CodeLLM))
	require.False(t, IsCode(err, CodeInvalidInput))
	require.ErrorIs(t, err, cause)
	require.Equal(t, "the master is away: status=500", err.Error())
}

func TestMessageHidesCause(t *testing.T) {
	err := fmt.Errorf("submit: %w", Wrap(CodeLLM, "the master is away", errors.New("raw transport detail")))
	require.Equal(t, "the master is away", Message(err))
	require.Equal(t, "plain", Message(errors.New("plain")))
	require.Empty(t, Message(nil))
}
