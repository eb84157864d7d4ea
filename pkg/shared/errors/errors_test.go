package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(base))
	assert.Equal(t, 3, ExitCode(NewCommandError(nil, base, 3)))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("wrapped: %w", NewCommandError(nil, base, 2))))
}

func TestCommandErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := NewCommandError(map[string]string{"path": "/a.ts"}, base, 2)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "boom", err.Error())
}
