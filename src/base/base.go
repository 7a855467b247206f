package base

import (
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Forsyth–Edwards Notation
const FEN_START_GAME string = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is a validated board state. The zero value is not usable; build it
// with NewPosition.
type Position struct {
	fen string
	pos *chess.Position
}

func NewPosition(fen string) (Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return Position{}, errors.New("empty FEN")
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return Position{}, errors.Wrapf(err, "error parse FEN %q", fen)
	}
	pos := chess.NewGame(opt).Position()
	return Position{fen: pos.String(), pos: pos}, nil
}

// StartPosition is the standard initial position.
func StartPosition() Position {
	p, err := NewPosition(FEN_START_GAME)
	if err != nil {
		panic(err)
	}
	return p
}

// FEN returns the normalized FEN of the position.
func (p Position) FEN() string {
	return p.fen
}

// Turn is the side to move.
func (p Position) Turn() chess.Color {
	return p.pos.Turn()
}

// Chess exposes the underlying position for move decoding. Callers must not
// mutate it.
func (p Position) Chess() *chess.Position {
	return p.pos
}

func (p Position) String() string {
	return p.fen
}

// Opponent returns the other side.
func Opponent(c chess.Color) chess.Color {
	switch c {
	case chess.White:
		return chess.Black
	case chess.Black:
		return chess.White
	default:
		return chess.NoColor
	}
}

// SideName is the human readable color name.
func SideName(c chess.Color) string {
	switch c {
	case chess.White:
		return "White"
	case chess.Black:
		return "Black"
	default:
		return "Nobody"
	}
}
