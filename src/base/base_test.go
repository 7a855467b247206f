package base

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPositionStart(t *testing.T) {
	p, err := NewPosition(FEN_START_GAME)
	require.NoError(t, err)
	assert.Equal(t, chess.White, p.Turn())
	assert.Equal(t, FEN_START_GAME, p.FEN())
	assert.Len(t, p.Chess().ValidMoves(), 20)
}

func TestNewPositionBlackToMove(t *testing.T) {
	p, err := NewPosition("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	require.NoError(t, err)
	assert.Equal(t, chess.Black, p.Turn())
}

func TestNewPositionRejectsGarbage(t *testing.T) {
	_, err := NewPosition("")
	assert.Error(t, err)

	_, err = NewPosition("not a fen at all")
	assert.Error(t, err)
}

func TestOpponent(t *testing.T) {
	assert.Equal(t, chess.Black, Opponent(chess.White))
	assert.Equal(t, chess.White, Opponent(chess.Black))
	assert.Equal(t, "White", SideName(chess.White))
	assert.Equal(t, "Black", SideName(chess.Black))
}
