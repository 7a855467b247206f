package jobserver

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"golemate/src/engine"
	"golemate/src/jsonapi"
	"golemate/src/logx"
	"golemate/src/models"
)

const (
	workerIdle    = 2 * time.Second
	workerBackoff = 5 * time.Second
)

// Worker polls a job server and runs each task's UCI script on a local backend.
type Worker struct {
	serverURL string
	client    *http.Client
	backend   engine.Backend
	idle      time.Duration
	backoff   time.Duration
	logx      logx.Logger
}

func NewWorker(logger logx.Logger, serverURL string, backend engine.Backend) *Worker {
	return &Worker{
		serverURL: strings.TrimRight(serverURL, "/"),
		// claims block server side for up to DefaultClaimWait
		client:  &http.Client{Timeout: DefaultClaimWait + 10*time.Second},
		backend: backend,
		idle:    workerIdle,
		backoff: workerBackoff,
		logx:    logger,
	}
}

// Run processes tasks until ctx is cancelled. A running task is always finished first.
func (w *Worker) Run(ctx context.Context) error {
	w.logx.Infof("starting worker, connecting to %s", w.serverURL)
	for {
		processed, err := w.ProcessOne(ctx)
		wait := time.Duration(0)
		switch {
		case err != nil:
			w.logx.Errorf("worker: %v", err)
			wait = w.backoff
		case !processed:
			w.logx.Debug("no tasks available, waiting")
			wait = w.idle
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// ProcessOne claims and runs at most one task. It reports whether a task was processed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	var t models.Task
	found, err := w.call(ctx, http.MethodGet, "/worker/next", nil, &t)
	if err != nil {
		return false, errors.Wrap(err, "claim task")
	}
	if !found {
		return false, nil
	}
	log := w.logx.With("task", t.ID)
	log.Infof("processing task %s", t.Name)
	base := "/worker/tasks/" + url.PathEscape(t.ID)

	w.reportProgress(ctx, base, 0)
	cmds := engine.CommandSequence(strings.Split(strings.TrimRight(t.Input, "\n"), "\n"))
	lines, execErr := w.backend.Execute(cmds)

	var res models.TaskResult
	if execErr != nil {
		log.Warnf("engine run failed: %v", execErr)
		res.Error = execErr.Error()
	} else {
		w.reportProgress(ctx, base, 1)
		var out strings.Builder
		for _, l := range lines {
			out.WriteString(l)
			out.WriteByte('\n')
		}
		res.Outputs = []string{out.String()}
	}
	// the result is delivered even when ctx was cancelled meanwhile
	if _, err := w.call(context.WithoutCancel(ctx), http.MethodPost, base+"/result", res, nil); err != nil {
		return true, errors.Wrapf(err, "submit result of %s", t.ID)
	}
	return true, nil
}

func (w *Worker) reportProgress(ctx context.Context, base string, p float64) {
	if _, err := w.call(ctx, http.MethodPost, base+"/progress", models.ProgressUpdate{Progress: p}, nil); err != nil {
		w.logx.Warnf("report progress: %v", err)
	}
}

// call returns false without error on 204 No Content.
func (w *Worker) call(ctx context.Context, method, path string, in, out interface{}) (bool, error) {
	status, err := jsonapi.Do(ctx, w.client, method, w.serverURL+path, in, out)
	if err != nil {
		return false, errors.Wrapf(err, "%s %s", method, path)
	}
	return status != http.StatusNoContent, nil
}
