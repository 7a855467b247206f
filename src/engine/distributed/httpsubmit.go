package distributed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"golemate/src/jsonapi"
	"golemate/src/logx"
	"golemate/src/models"
)

const (
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultSubmitTimeout  = 30 * time.Minute
	defaultRequestTimeout = 15 * time.Second
)

// HTTPSubmitter submits tasks to a golemate job server and polls until a
// worker has finished them.
type HTTPSubmitter struct {
	serverURL    string
	client       *http.Client
	pollInterval time.Duration
	timeout      time.Duration
	logx         logx.Logger
}

func NewHTTPSubmitter(logger logx.Logger, serverURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		serverURL:    strings.TrimRight(serverURL, "/"),
		client:       &http.Client{Timeout: defaultRequestTimeout},
		pollInterval: DefaultPollInterval,
		timeout:      DefaultSubmitTimeout,
		logx:         logger,
	}
}

func (s *HTTPSubmitter) WithPollInterval(d time.Duration) *HTTPSubmitter {
	if d > 0 {
		s.pollInterval = d
	}
	return s
}

// WithTimeout bounds a whole Submit, polling included. Zero means no bound.
func (s *HTTPSubmitter) WithTimeout(d time.Duration) *HTTPSubmitter {
	if d >= 0 {
		s.timeout = d
	}
	return s
}

func (s *HTTPSubmitter) WithHTTPClient(c *http.Client) *HTTPSubmitter {
	s.client = c
	return s
}

// Submit fails once the timeout has passed, so a task whose worker was lost
// does not block the caller forever.
func (s *HTTPSubmitter) Submit(ctx context.Context, task Task) ([][]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var created models.TaskCreated
	req := models.TaskRequest{Name: task.Name, Input: string(task.Payload)}
	if err := s.do(ctx, http.MethodPost, "/tasks", req, &created); err != nil {
		return nil, errors.Wrap(err, "submit task")
	}
	s.logx.Infof("task %s accepted by %s", created.TaskID, s.serverURL)

	if task.DataDir != "" {
		if err := s.writeReceipt(task, created.TaskID); err != nil {
			return nil, err
		}
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	path := "/tasks/" + url.PathEscape(created.TaskID)
	for {
		var t models.Task
		if err := s.do(ctx, http.MethodGet, path, nil, &t); err != nil {
			if ctx.Err() != nil {
				return nil, errors.Wrapf(ctx.Err(), "task %s not finished in time", created.TaskID)
			}
			return nil, errors.Wrapf(err, "poll task %s", created.TaskID)
		}
		if task.Progress != nil {
			task.Progress(t.Progress)
		}
		switch t.Status {
		case models.StatusDone:
			out := make([][]byte, 0, len(t.Outputs))
			for _, o := range t.Outputs {
				out = append(out, []byte(o))
			}
			return out, nil
		case models.StatusFailed:
			return nil, errors.Errorf("task %s failed: %s", t.ID, t.Error)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "task %s not finished in time", created.TaskID)
		case <-ticker.C:
		}
	}
}

func (s *HTTPSubmitter) writeReceipt(task Task, id string) error {
	if err := os.MkdirAll(task.DataDir, 0o755); err != nil {
		return errors.Wrap(err, "create data directory")
	}
	data, err := json.MarshalIndent(models.Receipt{
		TaskID:      id,
		Server:      s.serverURL,
		Workspace:   task.Workspace,
		SubmittedAt: time.Now().UTC(),
	}, "", "    ")
	if err != nil {
		return err
	}
	file := filepath.Join(task.DataDir, id+".json")
	return errors.Wrap(os.WriteFile(file, data, 0o644), "write receipt")
}

func (s *HTTPSubmitter) do(ctx context.Context, method, path string, in, out interface{}) error {
	_, err := jsonapi.Do(ctx, s.client, method, s.serverURL+path, in, out)
	return err
}
