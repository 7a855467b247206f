package distributed

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"golemate/src/engine"
	"golemate/src/logx"
)

const (
	DefaultTaskName = "golemate"
	InputFile       = "input.uci"
	OutputFile      = "output.uci"
)

var defaultOptions = []engine.EngineOption{
	{Name: "Hash", Value: 128},
}

// ProgressFunc receives a fraction in [0,1]. It is informational only and may
// run on any goroutine.
type ProgressFunc func(fraction float64)

// Task is one payload handed to a Submitter.
type Task struct {
	Name      string
	Workspace string
	DataDir   string
	Payload   []byte
	Progress  ProgressFunc
}

// Submitter sends a payload to a remote computation service and returns the
// output artifacts it produced.
type Submitter interface {
	Submit(ctx context.Context, task Task) ([][]byte, error)
}

type Config struct {
	// Workspace must not exist yet; it is created by Execute.
	Workspace string
	DataDir   string
	Name      string
	Options   []engine.EngineOption
	Progress  ProgressFunc
}

// Backend runs the UCI script as a remote task.
type Backend struct {
	submitter Submitter
	cfg       Config
	opts      []engine.EngineOption
	logx      logx.Logger
}

func New(logger logx.Logger, submitter Submitter, cfg Config) *Backend {
	if cfg.Name == "" {
		cfg.Name = DefaultTaskName
	}
	return &Backend{
		submitter: submitter,
		cfg:       cfg,
		opts:      engine.MergeOptions(defaultOptions, cfg.Options...),
		logx:      logger,
	}
}

func (b *Backend) DeclaredOptions() []engine.EngineOption {
	out := make([]engine.EngineOption, len(b.opts))
	copy(out, b.opts)
	return out
}

func (b *Backend) Execute(cmds engine.CommandSequence) ([]string, error) {
	payload := cmds.Payload()

	if err := os.Mkdir(b.cfg.Workspace, 0o755); err != nil {
		if os.IsExist(err) {
			return nil, engine.NewError(engine.KindWorkspaceConflict, "create workspace",
				errors.Errorf("workspace %s already exists", b.cfg.Workspace))
		}
		return nil, engine.NewError(engine.KindIO, "create workspace", err)
	}
	if err := os.WriteFile(filepath.Join(b.cfg.Workspace, InputFile), payload, 0o644); err != nil {
		return nil, engine.NewError(engine.KindIO, "write input", err)
	}

	b.logx.Infof("submit task %s (%d commands, workspace %s)", b.cfg.Name, len(cmds), b.cfg.Workspace)
	artifacts, err := b.submitter.Submit(context.Background(), Task{
		Name:      b.cfg.Name,
		Workspace: b.cfg.Workspace,
		DataDir:   b.cfg.DataDir,
		Payload:   payload,
		Progress:  monotonic(b.progress()),
	})
	if err != nil {
		return nil, engine.NewError(engine.KindSubmissionFailed, "compute task", err)
	}
	if len(artifacts) != 1 {
		return nil, &engine.BackendError{
			Kind:      engine.KindUnexpectedArtifactCount,
			Op:        "collect output",
			Artifacts: len(artifacts),
		}
	}

	output := artifacts[0]
	if err := os.WriteFile(filepath.Join(b.cfg.Workspace, OutputFile), output, 0o644); err != nil {
		return nil, engine.NewError(engine.KindIO, "write output", err)
	}
	lines := engine.SplitOutput(output)
	b.logx.Infof("task %s finished, %d lines", b.cfg.Name, len(lines))
	return lines, nil
}

func (b *Backend) progress() ProgressFunc {
	if b.cfg.Progress != nil {
		return b.cfg.Progress
	}
	return func(f float64) {
		b.logx.Infof("current progress = %.2f", f)
	}
}

// monotonic clamps to [0,1] and drops values lower than one already reported.
func monotonic(next ProgressFunc) ProgressFunc {
	var mu sync.Mutex
	last := -1.0
	return func(f float64) {
		mu.Lock()
		defer mu.Unlock()
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		if f < last {
			return
		}
		last = f
		next(f)
	}
}
