package src

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"golemate/src/analysis"
	"golemate/src/base"
	"golemate/src/engine"
	"golemate/src/logx"
)

// Analyzer runs one analysis request: build the UCI script, execute it on the
// chosen backend and interpret the transcript. The steps run strictly in sequence.
type Analyzer struct {
	logger logx.Logger
}

func NewAnalyzer(logger logx.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze returns either a complete result or an error; engine.BackendError and
// analysis.ParseError can be recovered with errors.As.
func (a *Analyzer) Analyze(pos base.Position, depth int, backend engine.Backend) (*analysis.AnalysisResult, error) {
	lines, err := a.AnalyzeRaw(pos, depth, backend)
	if err != nil {
		return nil, err
	}
	res, err := analysis.Interpret(pos, lines)
	if err != nil {
		a.logger.Errorf("interpret engine output: %v", err)
		return nil, errors.Wrap(err, "interpreting UCI")
	}
	a.logger.Infof("analysis done: depth %d, %s, best move %s", res.Depth, res.Advantage, res.BestMove)
	return res, nil
}

// AnalyzeRaw stops after execution and returns the engine output as is.
func (a *Analyzer) AnalyzeRaw(pos base.Position, depth int, backend engine.Backend) ([]string, error) {
	if backend == nil {
		return nil, errors.New("no backend selected")
	}
	cmds := engine.BuildCommands(pos, depth, backend.DeclaredOptions())
	a.logger.Debugf("uci script: %s", strings.Join(cmds, " | "))

	start := time.Now()
	lines, err := backend.Execute(cmds)
	if err != nil {
		a.logger.Errorf("execute UCI: %v", err)
		return nil, errors.Wrap(err, "executing UCI")
	}
	a.logger.Infof("engine returned %d lines in %s", len(lines), time.Since(start).Round(time.Millisecond))
	return lines, nil
}
