package engine

import (
	"fmt"
)

type ErrorKind uint8

const (
	KindSpawnFailed ErrorKind = iota + 1
	KindExecutionFailed
	KindIO
	KindSubmissionFailed
	KindWorkspaceConflict
	KindUnexpectedArtifactCount
)

func (k ErrorKind) String() string {
	switch k {
	case KindSpawnFailed:
		return "spawn failed"
	case KindExecutionFailed:
		return "execution failed"
	case KindIO:
		return "i/o failure"
	case KindSubmissionFailed:
		return "submission failed"
	case KindWorkspaceConflict:
		return "workspace conflict"
	case KindUnexpectedArtifactCount:
		return "unexpected artifact count"
	default:
		return "unknown backend error"
	}
}

// BackendError is returned by every Backend. Op names the step that failed.
type BackendError struct {
	Kind ErrorKind
	Op   string
	Err  error

	// ExitCode is set for KindExecutionFailed coming from a process.
	ExitCode int
	// Stderr holds the tail of the engine's stderr, if any.
	Stderr string
	// Artifacts is set for KindUnexpectedArtifactCount.
	Artifacts int
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	switch e.Kind {
	case KindExecutionFailed:
		if e.ExitCode != 0 {
			msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
		}
	case KindUnexpectedArtifactCount:
		msg += fmt.Sprintf(" (got %d, want 1)", e.Artifacts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf(" [stderr: %s]", e.Stderr)
	}
	return msg
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is matches another *BackendError by kind, so errors.Is(err, ErrWorkspaceConflict) works.
func (e *BackendError) Is(target error) bool {
	t, ok := target.(*BackendError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrSpawnFailed             = &BackendError{Kind: KindSpawnFailed}
	ErrExecutionFailed         = &BackendError{Kind: KindExecutionFailed}
	ErrIO                      = &BackendError{Kind: KindIO}
	ErrSubmissionFailed        = &BackendError{Kind: KindSubmissionFailed}
	ErrWorkspaceConflict       = &BackendError{Kind: KindWorkspaceConflict}
	ErrUnexpectedArtifactCount = &BackendError{Kind: KindUnexpectedArtifactCount}
)

func NewError(kind ErrorKind, op string, err error) *BackendError {
	return &BackendError{Kind: kind, Op: op, Err: err}
}
