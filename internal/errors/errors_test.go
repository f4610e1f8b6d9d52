package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := InvalidInput("cache budget must be positive, got %d", -1)
	assert.Equal(t, "[invalid_input] cache budget must be positive, got -1", err.Error())
}

func TestError_WrapPreservesCause(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := Wrap(CodeIO, cause, "reading config")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestError_WrapNil(t *testing.T) {
	assert.Nil(t, Wrap(CodeIO, nil, "ignored"))
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidInput("bad budget"))
	assert.ErrorIs(t, err, New(CodeInvalidInput, "anything"))
	assert.NotErrorIs(t, err, New(CodeInternal, "anything"))
}
