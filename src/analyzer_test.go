package src

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golemate/src/analysis"
	"golemate/src/base"
	"golemate/src/engine"
	"golemate/src/logx"
)

type scriptedBackend struct {
	lines []string
	err   error
	got   engine.CommandSequence
}

func (s *scriptedBackend) Execute(cmds engine.CommandSequence) ([]string, error) {
	s.got = cmds
	return s.lines, s.err
}

func (s *scriptedBackend) DeclaredOptions() []engine.EngineOption {
	return []engine.EngineOption{{Name: "Hash", Value: 32}}
}

func TestAnalyze(t *testing.T) {
	b := &scriptedBackend{lines: []string{"info depth 20 pv e2e4 e7e5", "info score cp 35", "bestmove e2e4"}}
	res, err := NewAnalyzer(logx.NewNopLogx()).Analyze(base.StartPosition(), 20, b)
	require.NoError(t, err)

	assert.Equal(t, engine.CommandSequence{
		"uci",
		"setoption name Hash value 32",
		"position fen " + base.FEN_START_GAME,
		"go depth 20",
		"ucinewgame",
		"quit",
	}, b.got)
	assert.Equal(t, 20, res.Depth)
	assert.Equal(t, chess.White, res.AdvantageSide)
	assert.Equal(t, "e2e4", res.BestMove.String())
}

func TestAnalyzeBackendError(t *testing.T) {
	b := &scriptedBackend{lines: []string{"bestmove e2e4"}, err: engine.NewError(engine.KindExecutionFailed, "wait engine", nil)}
	res, err := NewAnalyzer(logx.NewNopLogx()).Analyze(base.StartPosition(), 5, b)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, engine.ErrExecutionFailed))
}

func TestAnalyzeProtocolViolation(t *testing.T) {
	b := &scriptedBackend{lines: []string{"info depth 5 score cp 10"}}
	res, err := NewAnalyzer(logx.NewNopLogx()).Analyze(base.StartPosition(), 5, b)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, analysis.IsKind(err, analysis.ErrMissingBestMove))
}

func TestAnalyzeRaw(t *testing.T) {
	b := &scriptedBackend{lines: []string{"garbage", "more garbage"}}
	lines, err := NewAnalyzer(logx.NewNopLogx()).AnalyzeRaw(base.StartPosition(), 1, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"garbage", "more garbage"}, lines)

	_, err = NewAnalyzer(logx.NewNopLogx()).AnalyzeRaw(base.StartPosition(), 1, nil)
	assert.Error(t, err)
}
