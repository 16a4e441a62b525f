package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/task"
)

// Status is the lifecycle state of one task in a run
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped" // output already existed
	StatusFailed  Status = "failed"
	StatusBlocked Status = "blocked" // a dependency failed
)

// Satisfied reports whether dependents may run
func (s Status) Satisfied() bool {
	return s == StatusDone || s == StatusSkipped
}

// Result is the outcome of one task
type Result struct {
	ID       task.ID         `json:"id"`
	Stage    contracts.Stage `json:"stage,omitempty"`
	Status   Status          `json:"status"`
	Err      error           `json:"-"`
	Duration time.Duration   `json:"duration"`
	Output   string          `json:"output,omitempty"`
}

// Report is the per-task outcome of one executor run
type Report struct {
	RunID    string
	Roots    []task.ID
	Order    []task.ID // planned tasks in execution order
	Results  map[task.ID]*Result
	Started  time.Time
	Duration time.Duration
}

// Success is true iff every root is Done or Skipped
func (r *Report) Success() bool {
	for _, id := range r.Roots {
		res, ok := r.Results[id]
		if !ok || !res.Status.Satisfied() {
			return false
		}
	}
	return true
}

// Failures returns failed and blocked tasks in execution order
func (r *Report) Failures() []*Result {
	var out []*Result
	for _, id := range r.Order {
		if res := r.Results[id]; res.Status == StatusFailed || res.Status == StatusBlocked {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the errors of failed tasks; blocked tasks are implied by them
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failures() {
		if res.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", res.ID, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Count returns how many tasks ended in status s
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Summary converts the report for the API, CLI and scheduler history
func (r *Report) Summary(command string) contracts.PipelineResult {
	out := contracts.PipelineResult{
		RunID:    r.RunID,
		Command:  command,
		Success:  r.Success(),
		Tasks:    len(r.Results),
		Done:     r.Count(StatusDone),
		Skipped:  r.Count(StatusSkipped),
		Failed:   r.Count(StatusFailed),
		Blocked:  r.Count(StatusBlocked),
		Duration: r.Duration.Milliseconds(),
	}
	for _, res := range r.Failures() {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", res.ID, res.Err))
	}
	return out
}
