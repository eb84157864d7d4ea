package actions

import (
	"errors"
	"fmt"

	"github.com/scan-io-git/scanio-ide/internal/findings"
)

// ErrUnknownFinding is wrapped by PreconditionError when a key is not in the store.
var ErrUnknownFinding = errors.New("finding is not in the store")

// PreconditionError reports an action on a finding that does not exist.
type PreconditionError struct {
	Action string
	Key    findings.Key
	Err    error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Action, e.Key, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
