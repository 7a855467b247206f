package uci

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golemate/src/engine"
	"golemate/src/logx"
)

const fakeEngineEnv = "GOLEMATE_FAKE_ENGINE"

// TestHelperProcess is not a real test: it is the fake engine started by the
// tests below through the test binary itself.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv(fakeEngineEnv)
	if mode == "" {
		return
	}

	if mode == "early" {
		// dies during startup without reading stdin
		fmt.Println("info string no nnue")
		fmt.Fprintln(os.Stderr, "network file not found")
		os.Exit(3)
	}

	var received []string
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := sc.Text()
		received = append(received, line)
		if line == "quit" {
			break
		}
	}

	switch mode {
	case "ok":
		fmt.Println("id name fake")
		fmt.Println("uciok")
		fmt.Printf("info string received %d commands\n", len(received))
		fmt.Println("info depth 3 score cp 12 pv e2e4 e7e5")
		fmt.Println("bestmove e2e4")
		os.Exit(0)
	case "echo":
		for _, l := range received {
			fmt.Println(l)
		}
		os.Exit(0)
	case "partial":
		fmt.Println("info depth 1")
		fmt.Print("bestmove e2")
		os.Exit(0)
	case "crash":
		fmt.Println("info depth 5 score cp 40")
		fmt.Println("bestmove e2e4")
		fmt.Fprintln(os.Stderr, "segmentation fault")
		os.Exit(3)
	}
	os.Exit(2)
}

func fakeEngine(t *testing.T, mode string) *ProcessBackend {
	t.Helper()
	t.Setenv(fakeEngineEnv, mode)
	return NewProcessBackend(logx.NewNopLogx(), os.Args[0], "-test.run=TestHelperProcess", "--")
}

var script = engine.CommandSequence{"uci", "setoption name Hash value 16", "position fen x", "go depth 3", "ucinewgame", "quit"}

func TestExecuteReturnsLines(t *testing.T) {
	b := fakeEngine(t, "ok")
	lines, err := b.Execute(script)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"id name fake",
		"uciok",
		"info string received 6 commands",
		"info depth 3 score cp 12 pv e2e4 e7e5",
		"bestmove e2e4",
	}, lines)
}

func TestExecuteWritesEveryCommand(t *testing.T) {
	b := fakeEngine(t, "echo")
	lines, err := b.Execute(script)
	require.NoError(t, err)
	assert.Equal(t, []string(script), lines)
}

func TestExecuteDropsPartialLine(t *testing.T) {
	b := fakeEngine(t, "partial")
	lines, err := b.Execute(script)
	require.NoError(t, err)
	assert.Equal(t, []string{"info depth 1"}, lines)
}

func TestExecuteNonZeroExitDiscardsOutput(t *testing.T) {
	b := fakeEngine(t, "crash")
	lines, err := b.Execute(script)
	require.Error(t, err)
	assert.Nil(t, lines)
	assert.True(t, errors.Is(err, engine.ErrExecutionFailed))

	var be *engine.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 3, be.ExitCode)
	assert.Contains(t, be.Stderr, "segmentation fault")
}

func TestExecuteEngineExitsBeforeReading(t *testing.T) {
	// larger than any pipe buffer, so the write fails only after the engine is gone
	long := engine.CommandSequence{"uci"}
	for i := 0; i < 20000; i++ {
		long = append(long, "setoption name Hash value 16")
	}
	long = append(long, "quit")

	b := fakeEngine(t, "early")
	lines, err := b.Execute(long)
	require.Error(t, err)
	assert.Nil(t, lines)
	assert.True(t, errors.Is(err, engine.ErrExecutionFailed), "got %v", err)

	var be *engine.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 3, be.ExitCode)
	assert.Contains(t, be.Stderr, "network file not found")
}

func TestTailKeepsWholeRunes(t *testing.T) {
	assert.Equal(t, "short", tail("  short\n", 10))
	assert.Equal(t, "é", tail("ééé", 3))
	assert.Equal(t, "éé", tail("ééé", 4))
	assert.Equal(t, "def", tail("abcdef", 3))
}

func TestExecuteSpawnFailure(t *testing.T) {
	b := NewProcessBackend(logx.NewNopLogx(), filepath.Join(t.TempDir(), "no-such-engine"))
	_, err := b.Execute(script)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrSpawnFailed))

	_, err = NewProcessBackend(logx.NewNopLogx(), "").Execute(script)
	assert.True(t, errors.Is(err, engine.ErrSpawnFailed))
}

func TestDeclaredOptions(t *testing.T) {
	b := NewProcessBackend(logx.NewNopLogx(), "stockfish")
	assert.Equal(t, []engine.EngineOption{{Name: "Threads", Value: 8}, {Name: "Hash", Value: 1024}}, b.DeclaredOptions())

	b.WithOptions(engine.EngineOption{Name: "Threads", Value: 2})
	opts := b.DeclaredOptions()
	assert.Equal(t, 2, opts[0].Value)

	// callers get a copy
	opts[0].Value = 99
	assert.Equal(t, 2, b.DeclaredOptions()[0].Value)
	assert.True(t, strings.HasPrefix(b.DeclaredOptions()[1].Command(), "setoption name Hash"))
}
