package manager

import (
	"fmt"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
	"git.home.luguber.info/inful/stopwatchd/internal/stopwatch"
)

// Duplicate identifies one stopwatch that took part in a failed resolution.
type Duplicate struct {
	ID      uuid.UUID
	ShortID string
	Name    string
}

// ResolutionError reports that an identifier matched no stopwatch or more
// than one. Duplicates lists every colliding stopwatch; it is empty for
// not-found.
type ResolutionError struct {
	Kind       protocol.ErrorKind
	Identifier string
	Duplicates []Duplicate
}

func newResolutionError(ident *stopwatch.Identifier, matches []*stopwatch.Stopwatch) *ResolutionError {
	e := &ResolutionError{
		Kind:       protocol.ErrorNotFound,
		Identifier: ident.Raw(),
		Duplicates: make([]Duplicate, 0, len(matches)),
	}
	if len(matches) > 1 {
		e.Kind = protocol.ErrorAmbiguous
	}
	for _, sw := range matches {
		e.Duplicates = append(e.Duplicates, Duplicate{ID: sw.ID(), ShortID: sw.ShortID(), Name: sw.Name()})
	}
	return e
}

func (e *ResolutionError) Error() string {
	if e.Kind == protocol.ErrorAmbiguous {
		return fmt.Sprintf("%q matches %d stopwatches", e.Identifier, len(e.Duplicates))
	}
	return fmt.Sprintf("no stopwatch matches %q", e.Identifier)
}

// Unwrap exposes the classified form so callers can use ferrors.HasCategory.
func (e *ResolutionError) Unwrap() error {
	b := ferrors.NotFoundError(e.Error())
	if e.Kind == protocol.ErrorAmbiguous {
		b = ferrors.AmbiguousError(e.Error())
	}
	return b.WithContext("identifier", e.Identifier).Build()
}

// Payload converts the error to its wire form.
func (e *ResolutionError) Payload() *protocol.ErrorPayload {
	p := &protocol.ErrorPayload{
		Kind:       e.Kind,
		Identifier: e.Identifier,
		Duplicates: make([]protocol.Duplicate, 0, len(e.Duplicates)),
		Message:    e.Error(),
	}
	for _, d := range e.Duplicates {
		p.Duplicates = append(p.Duplicates, protocol.Duplicate{ID: d.ID.String(), ShortID: d.ShortID, Name: d.Name})
	}
	return p
}
