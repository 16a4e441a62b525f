package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/logger"
)

// Event is emitted on every task state change
type Event struct {
	RunID  string          `json:"run_id"`
	ID     task.ID         `json:"id"`
	Stage  contracts.Stage `json:"stage,omitempty"`
	Status Status          `json:"status"`
	Err    string          `json:"error,omitempty"`
	At     time.Time       `json:"at"`
}

// Observer receives events; calls are serialized by the executor
type Observer func(Event)

// Executor runs task graphs with skip-if-output-exists semantics.
// Concurrent runs share it safely: a task ID runs at most once at a time
// across all of them, and a run waiting on another skips what it produced.
// ⭐ SSOT: 태스크 실행은 이 실행기를 통해서만 수행
type Executor struct {
	workers int
	logger  *logger.Logger
	claims  *claims

	obsMu     sync.Mutex
	observers []Observer
}

// NewExecutor creates an executor running at most workers tasks at once
func NewExecutor(workers int, log *logger.Logger) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		workers: workers,
		logger:  log.Module("executor"),
		claims:  newClaims(),
	}
}

// OnEvent registers an observer
func (e *Executor) OnEvent(fn Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, fn)
}

func (e *Executor) emit(report *Report, id task.ID, s Status, err error) {
	ev := Event{RunID: report.RunID, ID: id, Status: s, At: time.Now()}
	if res, ok := report.Results[id]; ok {
		ev.Stage = res.Stage
	}
	if err != nil {
		ev.Err = err.Error()
	}

	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	for _, fn := range e.observers {
		fn(ev)
	}
}

// Run builds the graph of roots, plans it and executes what is missing.
// Graph errors are returned before anything runs; task failures are in the Report.
func (e *Executor) Run(ctx context.Context, roots ...task.Task) (*Report, error) {
	g, err := Build(roots...)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Roots:   g.Roots,
		Results: make(map[task.ID]*Result),
		Started: time.Now(),
	}

	e.plan(ctx, g, report)
	e.execute(ctx, g, report)

	report.Duration = time.Since(report.Started)

	e.logger.WithFields(map[string]interface{}{
		"run_id":   report.RunID,
		"roots":    len(report.Roots),
		"tasks":    len(report.Results),
		"done":     report.Count(StatusDone),
		"skipped":  report.Count(StatusSkipped),
		"failed":   report.Count(StatusFailed),
		"blocked":  report.Count(StatusBlocked),
		"success":  report.Success(),
		"duration": report.Duration.String(),
	}).Info("Pipeline run finished")

	return report, nil
}

// plan walks from the roots. A task whose output exists is Skipped and its
// dependencies are not visited; everything else becomes Pending.
func (e *Executor) plan(ctx context.Context, g *Graph, report *Report) {
	var walk func(id task.ID)
	walk = func(id task.ID) {
		if _, seen := report.Results[id]; seen {
			return
		}
		node := g.Nodes[id]
		res := &Result{ID: id, Stage: task.StageOf(node.Task)}
		report.Results[id] = res

		if out := node.Task.Output(); out != nil {
			res.Output = out.URI()
			exists, err := out.Exists(ctx)
			if err != nil {
				res.Status = StatusFailed
				res.Err = fmt.Errorf("check output %s: %w", out.URI(), err)
				return
			}
			if exists {
				res.Status = StatusSkipped
				return
			}
		}

		res.Status = StatusPending
		for _, dep := range node.Deps {
			walk(dep)
		}
	}
	for _, r := range g.Roots {
		walk(r)
	}

	for _, id := range g.Order {
		if res, ok := report.Results[id]; ok {
			report.Order = append(report.Order, id)
			e.emit(report, id, res.Status, res.Err)
			if res.Status == StatusSkipped {
				e.logger.WithField("task", id.String()).Debug("Output exists, skipping")
			}
		}
	}

	// 출력 확인 자체가 실패한 노드의 하위는 실행 불가
	for _, id := range report.Order {
		if report.Results[id].Status == StatusFailed {
			e.block(g, report, id)
		}
	}
}

type outcome struct {
	id       task.ID
	skipped  bool
	err      error
	duration time.Duration
}

// execute dispatches pending tasks as soon as their planned dependencies are satisfied
func (e *Executor) execute(ctx context.Context, g *Graph, report *Report) {
	pending := 0
	for _, id := range report.Order {
		if report.Results[id].Status == StatusPending {
			pending++
		}
	}
	if pending == 0 {
		return
	}

	// 버퍼 = 대기 태스크 수, 완료 보고가 디스패처를 막지 않음
	results := make(chan outcome, pending)

	var eg errgroup.Group
	eg.SetLimit(e.workers)

	ready := func(id task.ID) bool {
		if report.Results[id].Status != StatusPending {
			return false
		}
		for _, dep := range g.Nodes[id].Deps {
			if !report.Results[dep].Status.Satisfied() {
				return false
			}
		}
		return true
	}

	var queue []task.ID
	for _, id := range report.Order {
		if ready(id) {
			queue = append(queue, id)
		}
	}

	inflight := 0
	for {
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if report.Results[id].Status != StatusPending {
				continue
			}

			report.Results[id].Status = StatusRunning
			e.emit(report, id, StatusRunning, nil)
			inflight++

			t := g.Nodes[id].Task
			eg.Go(func() error {
				start := time.Now()
				skipped, err := e.runOne(ctx, t)
				results <- outcome{id: id, skipped: skipped, err: err, duration: time.Since(start)}
				return nil // 실패는 리포트에 기록, errgroup 중단하지 않음
			})
		}

		if inflight == 0 {
			break
		}

		out := <-results
		inflight--

		res := report.Results[out.id]
		res.Duration = out.duration
		log := e.logger.WithFields(map[string]interface{}{
			"task":     out.id.String(),
			"stage":    res.Stage.ShortName(),
			"duration": out.duration.String(),
		})

		if out.err != nil {
			res.Status = StatusFailed
			res.Err = out.err
			e.emit(report, out.id, StatusFailed, out.err)
			log.WithError(out.err).Error("Task failed")
			e.block(g, report, out.id)
			continue
		}

		if out.skipped {
			res.Status = StatusSkipped
			e.emit(report, out.id, StatusSkipped, nil)
			log.Debug("Output written by a concurrent run, skipping")
		} else {
			res.Status = StatusDone
			e.emit(report, out.id, StatusDone, nil)
			log.Info("Task done")
		}

		for _, dep := range g.Nodes[out.id].Dependents {
			if _, planned := report.Results[dep]; planned && ready(dep) {
				queue = append(queue, dep)
			}
		}
	}

	_ = eg.Wait()
}

// runOne claims t's ID, runs t unless another run has produced its output
// meanwhile, and verifies the output was actually written
func (e *Executor) runOne(ctx context.Context, t task.Task) (skipped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	release, err := e.claims.acquire(ctx, t.ID())
	if err != nil {
		return false, err
	}
	defer release()

	out := t.Output()
	if out != nil {
		exists, err := out.Exists(ctx)
		if err != nil {
			return false, fmt.Errorf("check output %s: %w", out.URI(), err)
		}
		if exists {
			return true, nil
		}
	}

	if err := t.Run(ctx); err != nil {
		return false, err
	}

	if out == nil {
		return false, nil
	}
	exists, err := out.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("verify output %s: %w", out.URI(), err)
	}
	if !exists {
		return false, fmt.Errorf("output %s missing after run: %w", out.URI(), contracts.ErrPersistence)
	}
	return false, nil
}

// block marks every planned transitive dependent of failed as Blocked
func (e *Executor) block(g *Graph, report *Report, failed task.ID) {
	var walk func(id task.ID)
	walk = func(id task.ID) {
		for _, dep := range g.Nodes[id].Dependents {
			res, planned := report.Results[dep]
			if !planned || res.Status != StatusPending {
				continue
			}
			res.Status = StatusBlocked
			res.Err = fmt.Errorf("%s: %w", failed, contracts.ErrUpstreamFailed)
			e.emit(report, dep, StatusBlocked, res.Err)
			walk(dep)
		}
	}
	walk(failed)
}
