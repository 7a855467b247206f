package engine

import (
	"bytes"
	"fmt"
	"strings"

	"golemate/src/base"
)

// EngineOption is a UCI option applied before the search starts.
type EngineOption struct {
	Name  string
	Value int
}

func (o EngineOption) Command() string {
	return fmt.Sprintf("setoption name %s value %d", o.Name, o.Value)
}

// CommandSequence is the full UCI script sent to an engine. Engines process it
// in order, so it must never be reordered.
type CommandSequence []string

const (
	CmdUCI      = "uci"
	CmdNewGame  = "ucinewgame"
	CmdQuit     = "quit"
	CmdPosition = "position fen"
	CmdGoDepth  = "go depth"
)

// Backend runs a command sequence somewhere and returns the engine's output
// lines. Execute blocks until the run has finished or failed; there is no way
// to abort a run once started.
type Backend interface {
	Execute(cmds CommandSequence) ([]string, error)
	DeclaredOptions() []EngineOption
}

// BuildCommands renders the command sequence for one analysis.
// depth is not validated: zero leaves the behaviour up to the engine.
func BuildCommands(pos base.Position, depth int, opts []EngineOption) CommandSequence {
	cmds := make(CommandSequence, 0, len(opts)+5)
	cmds = append(cmds, CmdUCI)
	for _, o := range opts {
		cmds = append(cmds, o.Command())
	}
	cmds = append(cmds,
		fmt.Sprintf("%s %s", CmdPosition, pos.FEN()),
		fmt.Sprintf("%s %d", CmdGoDepth, depth),
		CmdNewGame,
		CmdQuit,
	)
	return cmds
}

// Payload joins the sequence into newline-terminated text.
func (c CommandSequence) Payload() []byte {
	if len(c) == 0 {
		return nil
	}
	return []byte(strings.Join(c, "\n") + "\n")
}

// SplitOutput splits raw engine output into lines. The text after the last
// newline is an unfinished line and is dropped; carriage returns are stripped.
func SplitOutput(raw []byte) []string {
	last := bytes.LastIndexByte(raw, '\n')
	if last < 0 {
		return []string{}
	}
	parts := bytes.Split(raw[:last], []byte{'\n'})
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, string(bytes.TrimSuffix(p, []byte{'\r'})))
	}
	return lines
}

// MergeOptions returns opts with every option of override replacing the one of
// the same name, new names appended in order.
func MergeOptions(opts []EngineOption, override ...EngineOption) []EngineOption {
	out := make([]EngineOption, len(opts))
	copy(out, opts)
	for _, o := range override {
		replaced := false
		for i := range out {
			if strings.EqualFold(out[i].Name, o.Name) {
				out[i].Value = o.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return out
}
