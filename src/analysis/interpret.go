package analysis

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"golemate/src/base"
)

// Interpreter consumes engine output one line at a time. It holds no state
// beyond the current transcript; build a new one per analysis.
type Interpreter struct {
	pos  base.Position
	line int
	text string

	depth         int
	advantage     Advantage
	advantageSide chess.Color
	pv            []*chess.Move
	bestMove      *chess.Move
}

func NewInterpreter(pos base.Position) *Interpreter {
	return &Interpreter{
		pos:           pos,
		advantage:     unset,
		advantageSide: pos.Turn(),
		pv:            []*chess.Move{},
	}
}

// Interpret runs a whole transcript through a fresh Interpreter.
func Interpret(pos base.Position, lines []string) (*AnalysisResult, error) {
	in := NewInterpreter(pos)
	for _, l := range lines {
		if err := in.Feed(l); err != nil {
			return nil, err
		}
	}
	return in.Result()
}

// Feed handles one output line. The first word selects the handler; lines
// other than info and bestmove are ignored.
func (in *Interpreter) Feed(line string) error {
	in.line++
	in.text = line
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	switch words[0] {
	case "info":
		return in.info(words[1:])
	case "bestmove":
		return in.bestmove(words[1:])
	default:
		return nil
	}
}

// Result returns the finished analysis. It fails unless a bestmove line has been seen.
func (in *Interpreter) Result() (*AnalysisResult, error) {
	if in.bestMove == nil {
		return nil, &ParseError{Kind: ErrMissingBestMove}
	}
	pv := make([]*chess.Move, len(in.pv))
	copy(pv, in.pv)
	return &AnalysisResult{
		Depth:         in.depth,
		Advantage:     in.advantage,
		AdvantageSide: in.advantageSide,
		PV:            pv,
		BestMove:      in.bestMove,
		position:      in.pos,
	}, nil
}

// info accepts a wider grammar than a strict one-argument-per-keyword reading:
// lowerbound/upperbound take no argument, wdl takes three and string swallows
// the rest of the line, even when empty.
func (in *Interpreter) info(fld []string) error {
	n := len(fld)
	for i := 0; i < n; {
		kw := fld[i]
		i++
		switch kw {
		case "depth":
			if i >= n {
				return in.fail(ErrMissingArgument, kw, nil)
			}
			d, err := strconv.Atoi(fld[i])
			if err != nil || d < 0 {
				return in.fail(ErrBadInteger, fld[i], err)
			}
			in.depth = d
			i++
		case "score":
			if i+1 >= n {
				return in.fail(ErrMissingArgument, kw, nil)
			}
			typ, val := fld[i], fld[i+1]
			if typ != "cp" && typ != "mate" {
				return in.fail(ErrUnknownScoreType, typ, nil)
			}
			v, err := strconv.Atoi(val)
			if err != nil {
				return in.fail(ErrBadInteger, val, err)
			}
			in.score(typ, v)
			i += 2
		case "lowerbound", "upperbound":
			// flags of the preceding score, no argument
		case "wdl":
			if i+2 >= n {
				return in.fail(ErrMissingArgument, kw, nil)
			}
			i += 3
		case "pv":
			pv := make([]*chess.Move, 0, n-i)
			for _, s := range fld[i:] {
				m, err := chess.UCINotation{}.Decode(nil, s)
				if err != nil {
					return in.fail(ErrBadMove, s, err)
				}
				pv = append(pv, m)
			}
			in.pv = pv
			return nil
		case "string":
			// free text up to the end of the line
			return nil
		default:
			if i >= n {
				return in.fail(ErrMissingArgument, kw, nil)
			}
			i++
		}
	}
	return nil
}

// score applies a score reported from the engine's point of view: a negative
// value means the side not to move is ahead.
func (in *Interpreter) score(typ string, v int) {
	side := in.pos.Turn()
	if v < 0 {
		side = base.Opponent(side)
		v = -v
	}
	in.advantageSide = side
	switch {
	case v == 0:
		in.advantage = Advantage{Kind: Equality}
	case typ == "cp":
		in.advantage = Advantage{Kind: Centipawns, Value: v}
	default:
		in.advantage = Advantage{Kind: Mate, Value: v}
	}
}

func (in *Interpreter) bestmove(fld []string) error {
	if len(fld) == 0 {
		return in.fail(ErrMissingArgument, "bestmove", nil)
	}
	s := fld[0]
	parsed, err := chess.UCINotation{}.Decode(nil, s)
	if err != nil {
		return in.fail(ErrBadMove, s, err)
	}
	for _, m := range in.pos.Chess().ValidMoves() {
		if m.S1() == parsed.S1() && m.S2() == parsed.S2() && m.Promo() == parsed.Promo() {
			in.bestMove = m
			return nil
		}
	}
	return in.fail(ErrIllegalMove, s, nil)
}

func (in *Interpreter) fail(kind ParseErrorKind, token string, err error) error {
	return &ParseError{Kind: kind, Line: in.line, Token: token, Text: in.text, Err: err}
}
