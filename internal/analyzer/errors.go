package analyzer

import (
	"errors"

	"github.com/scan-io-git/scanio-ide/internal/session"
)

var (
	ErrNotActiveDocument = errors.New("document is not the active document")
	ErrNoSession         = session.ErrNoSession
	ErrTimeout           = errors.New("analysis did not finish in time")
)

const (
	timeoutMessage = "Analysis did not complete in time or the service returned no result. Try again later."
	errorMessage   = "Analysis of the document failed."
)
