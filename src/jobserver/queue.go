package jobserver

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"golemate/src/models"
)

var (
	ErrQueueFull    = errors.New("task queue is full")
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskFinished = errors.New("task already finished")
)

var taskSeq uint64

func newTaskID() string {
	return fmt.Sprintf("task_%d_%d", time.Now().UnixNano(), atomic.AddUint64(&taskSeq, 1))
}

// AddTask stores a new task and queues it for the workers.
func (s *Server) AddTask(req models.TaskRequest) (models.Task, error) {
	now := time.Now().UTC()
	t := &models.Task{
		ID:        newTaskID(),
		Name:      req.Name,
		Input:     req.Input,
		Status:    models.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.queue <- t.ID:
	default:
		return models.Task{}, ErrQueueFull
	}
	s.tasks[t.ID] = t
	s.logx.Infof("added task %s (%s) to queue", t.ID, t.Name)
	return *t, nil
}

// ClaimTask hands the next queued task to a worker, waiting at most the claim
// wait. ok is false when nothing was queued in time.
func (s *Server) ClaimTask(ctx context.Context) (models.Task, bool) {
	timer := time.NewTimer(s.claimWait)
	defer timer.Stop()
	for {
		select {
		case id := <-s.queue:
			s.mu.Lock()
			t, exists := s.tasks[id]
			if !exists || t.Status != models.StatusQueued {
				s.mu.Unlock()
				continue
			}
			t.Status = models.StatusRunning
			t.UpdatedAt = time.Now().UTC()
			claimed := *t
			s.mu.Unlock()
			s.logx.Infof("task %s claimed", id)
			return claimed, true
		case <-timer.C:
			return models.Task{}, false
		case <-ctx.Done():
			return models.Task{}, false
		}
	}
}

func (s *Server) GetTask(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	cp := *t
	cp.Outputs = append([]string(nil), t.Outputs...)
	return cp, true
}

// UpdateProgress records a worker's progress; lower values than the current one are ignored.
func (s *Server) UpdateProgress(id string, progress float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status.Finished() {
		return ErrTaskFinished
	}
	if progress > 1 {
		progress = 1
	}
	if progress > t.Progress {
		t.Progress = progress
		t.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// CompleteTask stores the worker's result.
func (s *Server) CompleteTask(id string, res models.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if t.Status.Finished() {
		return ErrTaskFinished
	}
	t.UpdatedAt = time.Now().UTC()
	if res.Error != "" {
		t.Status = models.StatusFailed
		t.Error = res.Error
		s.logx.Warnf("task %s failed: %s", id, res.Error)
		return nil
	}
	t.Status = models.StatusDone
	t.Progress = 1
	t.Outputs = res.Outputs
	s.logx.Infof("received result for task %s: %d outputs", id, len(res.Outputs))
	return nil
}

func (s *Server) QueueStatus() models.QueueStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]string, 0)
	for id, t := range s.tasks {
		if t.Status == models.StatusQueued {
			pending = append(pending, id)
		}
	}
	sort.Strings(pending)
	return models.QueueStatus{QueueLength: len(s.queue), Pending: pending}
}
