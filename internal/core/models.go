package core

import (
	"errors"
	"strconv"
	"time"
)

// Operation is the kind of invocation recorded in history
type Operation string

const (
	OperationInstall Operation = "install"
	OperationRemove  Operation = "remove"
)

// HistoryRecord represents one install or remove invocation in the database
type HistoryRecord struct {
	ID         int64     `json:"id"`
	Operation  Operation `json:"operation"`
	Requested  []string  `json:"requested"`
	Packages   []string  `json:"packages"`
	State      string    `json:"state"`
	Reason     string    `json:"reason,omitempty"`
	DryRun     bool      `json:"dry_run"`
	Trace      []string  `json:"trace"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the invocation ran
func (r HistoryRecord) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneral         = 1
	ExitInvalidArgs     = 2
	ExitInstallFailed   = 3
	ExitRemoveFailed    = 4
	ExitCommandNotFound = 8
	ExitInterrupted     = 130
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeOf maps a command error to a process exit code
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneral
}
