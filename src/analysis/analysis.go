// Package analysis turns a raw UCI transcript into an AnalysisResult.
package analysis

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"golemate/src/base"
)

type AdvantageKind uint8

const (
	Equality AdvantageKind = iota
	Centipawns
	Mate
)

// Advantage is the engine's evaluation. Value is centipawns for Centipawns
// and moves to mate for Mate; it is unused for Equality.
type Advantage struct {
	Kind  AdvantageKind
	Value int
}

// unset is the value held until a score is reported.
var unset = Advantage{Kind: Mate, Value: 0}

// IsSet is false when the engine never reported a score.
func (a Advantage) IsSet() bool {
	return a != unset
}

func (a Advantage) String() string {
	switch a.Kind {
	case Equality:
		return "equality"
	case Centipawns:
		return fmt.Sprintf("cp %d", a.Value)
	case Mate:
		return fmt.Sprintf("mate %d", a.Value)
	default:
		return "unknown"
	}
}

// AnalysisResult is only ever built from a transcript that ended with a legal
// bestmove; there is no partial result.
type AnalysisResult struct {
	Depth         int
	Advantage     Advantage
	AdvantageSide chess.Color
	PV            []*chess.Move
	BestMove      *chess.Move

	position base.Position
}

// PVStrings returns the principal variation in UCI notation.
func (r *AnalysisResult) PVStrings() []string {
	out := make([]string, 0, len(r.PV))
	for _, m := range r.PV {
		out = append(out, m.String())
	}
	return out
}

// BestMoveSAN renders the best move in standard algebraic notation.
func (r *AnalysisResult) BestMoveSAN() string {
	return chess.AlgebraicNotation{}.Encode(r.position.Chess(), r.BestMove)
}

func (r *AnalysisResult) DescribeAdvantage() string {
	side := base.SideName(r.AdvantageSide)
	switch {
	case !r.Advantage.IsSet():
		return "The engine reported no evaluation."
	case r.Advantage.Kind == Equality:
		return "The position is equal."
	case r.Advantage.Kind == Mate:
		return fmt.Sprintf("%s has a mate in %d moves", side, r.Advantage.Value)
	default:
		return fmt.Sprintf("%s has %d centipawns advantage", side, r.Advantage.Value)
	}
}

func (r *AnalysisResult) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis depth: %d.\n", r.Depth)
	fmt.Fprintf(&b, "%s.\n", strings.TrimSuffix(r.DescribeAdvantage(), "."))
	fmt.Fprintf(&b, "The best move is %s (%s).", r.BestMove.String(), r.BestMoveSAN())
	if len(r.PV) > 0 {
		fmt.Fprintf(&b, "\nPrincipal variation: %s.", strings.Join(r.PVStrings(), " "))
	}
	return b.String()
}
