package cfg

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-flow-graph/pkg/syntax"
)

// ErrMalformed is returned for input no well-formed method can contain, such as a
// break outside any loop.
var ErrMalformed = errors.New("malformed input")

// PositionError attaches a source position to an analysis error.
type PositionError struct {
	Pos syntax.Pos
	Err error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%d:%d: %v", e.Pos.Line, e.Pos.Column, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// malformed builds a PositionError wrapping ErrMalformed.
func malformed(pos syntax.Pos, format string, args ...any) error {
	return &PositionError{Pos: pos, Err: fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformed)}
}
