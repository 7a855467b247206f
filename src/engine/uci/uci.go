package uci

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"golemate/src/engine"
	"golemate/src/logx"
)

// stderr kept for error reports
const stderrTail = 512

var defaultOptions = []engine.EngineOption{
	{Name: "Threads", Value: 8},
	{Name: "Hash", Value: 1024},
}

// ProcessBackend runs a local engine binary once per Execute call.
type ProcessBackend struct {
	path string
	args []string
	opts []engine.EngineOption
	logx logx.Logger
}

func NewProcessBackend(logger logx.Logger, enginePath string, engineArgs ...string) *ProcessBackend {
	opts := make([]engine.EngineOption, len(defaultOptions))
	copy(opts, defaultOptions)
	return &ProcessBackend{path: enginePath, args: engineArgs, opts: opts, logx: logger}
}

// WithOptions replaces the declared options by name.
func (p *ProcessBackend) WithOptions(opts ...engine.EngineOption) *ProcessBackend {
	p.opts = engine.MergeOptions(p.opts, opts...)
	return p
}

func (p *ProcessBackend) DeclaredOptions() []engine.EngineOption {
	out := make([]engine.EngineOption, len(p.opts))
	copy(out, p.opts)
	return out
}

func (p *ProcessBackend) Execute(cmds engine.CommandSequence) ([]string, error) {
	if p.path == "" {
		return nil, engine.NewError(engine.KindSpawnFailed, "start engine", errors.New("engine path is empty"))
	}

	cmd := exec.Command(p.path, p.args...)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, engine.NewError(engine.KindIO, "open stdin", err)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, engine.NewError(engine.KindSpawnFailed, "start engine", errors.Wrapf(err, "error open %s engine", p.path))
	}
	p.logx.Infof("open engine %s (pid %d)", p.path, cmd.Process.Pid)

	if err := p.send(in, cmds); err != nil {
		kerr := cmd.Process.Kill()
		werr := cmd.Wait()
		// an engine that quit on its own broke the pipe: report its exit status
		if be := exitFailure(werr, &stderr); be != nil {
			p.logx.Warnf("engine exited with status %d before reading all commands", be.ExitCode)
			return nil, be
		}
		var result error = engine.NewError(engine.KindIO, "write commands", err)
		if kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			result = multierror.Append(result, errors.Wrap(kerr, "kill engine"))
		}
		return nil, result
	}
	// quit has been written, stdin can go
	if err := in.Close(); err != nil {
		p.logx.Debugf("close engine stdin: %v", err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.logx.Warnf("engine exited with status %d, discarding %d bytes of output", exitErr.ExitCode(), stdout.Len())
			return nil, &engine.BackendError{
				Kind:     engine.KindExecutionFailed,
				Op:       "wait engine",
				Err:      err,
				ExitCode: exitErr.ExitCode(),
				Stderr:   tail(stderr.String(), stderrTail),
			}
		}
		return nil, engine.NewError(engine.KindIO, "wait engine", err)
	}

	lines := engine.SplitOutput(stdout.Bytes())
	for _, l := range lines {
		p.logx.Debugf("ENGINE: %s", l)
	}
	p.logx.Infof("uci-process terminated, %d lines", len(lines))
	return lines, nil
}

// send writes every command newline-terminated, flushing per line.
func (p *ProcessBackend) send(in io.Writer, cmds engine.CommandSequence) error {
	w := bufio.NewWriter(in)
	for _, c := range cmds {
		p.logx.Debugf("UCI: %s", c)
		if _, err := w.WriteString(c + "\n"); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// exitFailure returns the ExecutionFailed error for an engine that exited
// with a non-zero status of its own. A kill (exit code -1) gives nil.
func exitFailure(err error, stderr *bytes.Buffer) *engine.BackendError {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() <= 0 {
		return nil
	}
	return &engine.BackendError{
		Kind:     engine.KindExecutionFailed,
		Op:       "wait engine",
		Err:      err,
		ExitCode: exitErr.ExitCode(),
		Stderr:   tail(stderr.String(), stderrTail),
	}
}

// tail keeps at most the last n bytes of s, cut on a rune boundary.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
