package distributed

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golemate/src/engine"
	"golemate/src/logx"
)

type fakeSubmitter struct {
	mu        sync.Mutex
	artifacts [][]byte
	err       error
	progress  []float64
	tasks     []Task
}

func (f *fakeSubmitter) Submit(_ context.Context, task Task) ([][]byte, error) {
	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()
	for _, p := range f.progress {
		task.Progress(p)
	}
	return f.artifacts, f.err
}

var cmds = engine.CommandSequence{"uci", "setoption name Hash value 128", "position fen x", "go depth 5", "ucinewgame", "quit"}

func newBackend(t *testing.T, sub Submitter, progress ProgressFunc) (*Backend, string) {
	t.Helper()
	ws := filepath.Join(t.TempDir(), "ws")
	return New(logx.NewNopLogx(), sub, Config{Workspace: ws, DataDir: t.TempDir(), Progress: progress}), ws
}

func TestExecuteSplitsSingleArtifact(t *testing.T) {
	sub := &fakeSubmitter{artifacts: [][]byte{[]byte("uciok\ninfo depth 5\nbestmove e2e4\nbest")}}
	b, ws := newBackend(t, sub, nil)

	lines, err := b.Execute(cmds)
	require.NoError(t, err)
	assert.Equal(t, []string{"uciok", "info depth 5", "bestmove e2e4"}, lines)

	require.Len(t, sub.tasks, 1)
	task := sub.tasks[0]
	assert.Equal(t, DefaultTaskName, task.Name)
	assert.Equal(t, ws, task.Workspace)
	assert.Equal(t, "uci\nsetoption name Hash value 128\nposition fen x\ngo depth 5\nucinewgame\nquit\n", string(task.Payload))

	in, err := os.ReadFile(filepath.Join(ws, InputFile))
	require.NoError(t, err)
	assert.Equal(t, task.Payload, in)
	out, err := os.ReadFile(filepath.Join(ws, OutputFile))
	require.NoError(t, err)
	assert.Equal(t, sub.artifacts[0], out)
}

func TestExecuteTwiceSameWorkspaceConflicts(t *testing.T) {
	sub := &fakeSubmitter{artifacts: [][]byte{[]byte("bestmove e2e4\n")}}
	b, _ := newBackend(t, sub, nil)

	_, err := b.Execute(cmds)
	require.NoError(t, err)

	_, err = b.Execute(cmds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrWorkspaceConflict))
	assert.Len(t, sub.tasks, 1, "conflicting call must not reach the submitter")
}

func TestExecuteExistingWorkspaceConflicts(t *testing.T) {
	sub := &fakeSubmitter{artifacts: [][]byte{[]byte("bestmove e2e4\n")}}
	ws := t.TempDir()
	b := New(logx.NewNopLogx(), sub, Config{Workspace: ws})
	_, err := b.Execute(cmds)
	assert.True(t, errors.Is(err, engine.ErrWorkspaceConflict))
	assert.Empty(t, sub.tasks)
}

func TestExecuteArtifactCount(t *testing.T) {
	for _, artifacts := range [][][]byte{nil, {[]byte("a\n"), []byte("b\n")}} {
		sub := &fakeSubmitter{artifacts: artifacts}
		b, _ := newBackend(t, sub, nil)
		_, err := b.Execute(cmds)
		require.Error(t, err)
		assert.True(t, errors.Is(err, engine.ErrUnexpectedArtifactCount))

		var be *engine.BackendError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, len(artifacts), be.Artifacts)
	}
}

func TestExecuteSubmissionFailure(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("network unreachable")}
	b, _ := newBackend(t, sub, nil)
	_, err := b.Execute(cmds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrSubmissionFailed))
	assert.Contains(t, err.Error(), "network unreachable")
}

func TestProgressIsClampedAndMonotonic(t *testing.T) {
	var got []float64
	sub := &fakeSubmitter{
		artifacts: [][]byte{[]byte("bestmove e2e4\n")},
		progress:  []float64{-0.5, 0.2, 0.1, 0.6, 0.6, 1.4},
	}
	b, _ := newBackend(t, sub, func(f float64) { got = append(got, f) })
	_, err := b.Execute(cmds)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.2, 0.6, 0.6, 1}, got)
}

func TestDeclaredOptions(t *testing.T) {
	b := New(logx.NewNopLogx(), &fakeSubmitter{}, Config{Workspace: "x"})
	assert.Equal(t, []engine.EngineOption{{Name: "Hash", Value: 128}}, b.DeclaredOptions())

	b = New(logx.NewNopLogx(), &fakeSubmitter{}, Config{
		Workspace: "x",
		Options:   []engine.EngineOption{{Name: "Hash", Value: 64}, {Name: "Threads", Value: 1}},
	})
	assert.Equal(t, []engine.EngineOption{{Name: "Hash", Value: 64}, {Name: "Threads", Value: 1}}, b.DeclaredOptions())
}
