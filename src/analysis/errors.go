package analysis

import (
	"fmt"

	"github.com/pkg/errors"
)

type ParseErrorKind uint8

const (
	ErrBadInteger ParseErrorKind = iota + 1
	ErrMissingArgument
	ErrUnknownScoreType
	ErrBadMove
	ErrIllegalMove
	ErrMissingBestMove
)

func (k ParseErrorKind) String() string {
	switch k {
	case ErrBadInteger:
		return "bad integer"
	case ErrMissingArgument:
		return "missing argument"
	case ErrUnknownScoreType:
		return "unknown score type"
	case ErrBadMove:
		return "bad move"
	case ErrIllegalMove:
		return "illegal move"
	case ErrMissingBestMove:
		return "missing bestmove"
	default:
		return "protocol violation"
	}
}

// ErrProtocolViolation matches every *ParseError through errors.Is.
var ErrProtocolViolation = &ParseError{}

// ParseError reports a transcript that does not follow the UCI grammar.
// Line is 1-based; it is 0 for ErrMissingBestMove, which concerns the whole transcript.
type ParseError struct {
	Kind  ParseErrorKind
	Line  int
	Token string
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Kind == ErrMissingBestMove {
		return "uci protocol violation: transcript has no bestmove line"
	}
	msg := fmt.Sprintf("uci protocol violation at line %d: %s", e.Line, e.Kind)
	if e.Token != "" {
		msg += fmt.Sprintf(" %q", e.Token)
	}
	if e.Text != "" {
		msg += fmt.Sprintf(" in %q", e.Text)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}

// IsKind reports whether err carries a ParseError of the given kind.
func IsKind(err error, kind ParseErrorKind) bool {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == kind
}
