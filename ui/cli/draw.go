package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/notnil/chess"
	"golang.org/x/term"

	"golemate/src/analysis"
	"golemate/src/base"
)

// ANSI-code
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	green   = "\033[32m"
	lightBg = "\033[47m"
	darkBg  = "\033[100m"
	whiteF  = "\033[97m"
	blackF  = "\033[30m"
	dimF    = "\033[90m"
)

// Colorful reports whether f is a terminal that should get ANSI colours.
func Colorful(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Piece -> unicode glyph
func pieceGlyph(p chess.Piece) string {
	switch p {
	case chess.WhiteKing:
		return "♔"
	case chess.WhiteQueen:
		return "♕"
	case chess.WhiteRook:
		return "♖"
	case chess.WhiteBishop:
		return "♗"
	case chess.WhiteKnight:
		return "♘"
	case chess.WhitePawn:
		return "♙"
	case chess.BlackKing:
		return "♚"
	case chess.BlackQueen:
		return "♛"
	case chess.BlackRook:
		return "♜"
	case chess.BlackBishop:
		return "♝"
	case chess.BlackKnight:
		return "♞"
	case chess.BlackPawn:
		return "♟"
	case chess.NoPiece:
		return " "
	default:
		return "?"
	}
}

// PrintBoard draws the position, white at the bottom.
func PrintBoard(w io.Writer, pos base.Position, color bool) {
	board := pos.Chess().Board()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "   a  b  c  d  e  f  g  h")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(w, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			p := board.Piece(chess.Square(rank*8 + file))
			g := pieceGlyph(p)
			if !color {
				if p == chess.NoPiece {
					g = "."
				}
				fmt.Fprintf(w, " %s ", g)
				continue
			}

			var bg, fg string
			if (rank+file)%2 == 1 {
				bg = lightBg
				if p == chess.NoPiece {
					fg = dimF
				} else {
					fg = blackF
				}
			} else {
				bg = darkBg
				switch p.Color() {
				case chess.White:
					fg = whiteF
				case chess.Black:
					fg = blackF
				default:
					fg = dimF
				}
			}
			fmt.Fprintf(w, "%s%s %s %s", bg, fg, g, reset)
		}
		fmt.Fprintf(w, " %d\n", rank+1)
	}
	fmt.Fprintln(w, "   a  b  c  d  e  f  g  h")
	fmt.Fprintln(w)
}

func PrintResult(w io.Writer, res *analysis.AnalysisResult, color bool) {
	desc := res.Describe()
	if color {
		best := res.BestMove.String()
		desc = strings.Replace(desc, "is "+best, "is "+bold+green+best+reset, 1)
	}
	fmt.Fprintln(w, desc)
}

// PrintRaw writes the engine transcript unchanged.
func PrintRaw(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
