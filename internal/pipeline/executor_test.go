package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/target"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
)

// fakeTask writes "<id>" to its object on Run unless told otherwise
type fakeTask struct {
	id      task.ID
	deps    []task.Task
	store   *objstore.Memory
	wrapper bool

	runs    int32
	err     error
	noWrite bool
	delay   time.Duration
	onRun   func()
}

func newFake(store *objstore.Memory, name string, deps ...task.Task) *fakeTask {
	return &fakeTask{id: task.NewID("Fake", name), store: store, deps: deps}
}

func (f *fakeTask) ID() task.ID { return f.id }

func (f *fakeTask) Deps() task.Deps { return task.List(f.deps...) }

func (f *fakeTask) Output() target.Target {
	if f.wrapper {
		return nil
	}
	return target.NewObject(f.store, f.id.Params)
}

func (f *fakeTask) Run(ctx context.Context) error {
	atomic.AddInt32(&f.runs, 1)
	if f.onRun != nil {
		f.onRun()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return f.err
	}
	if f.wrapper || f.noWrite {
		return nil
	}
	return f.store.Put(ctx, f.id.Params, []byte(f.id.String()))
}

func (f *fakeTask) ran() int { return int(atomic.LoadInt32(&f.runs)) }

func newTestExecutor(workers int) *Executor {
	return NewExecutor(workers, logger.Nop())
}

func TestRunInDependencyOrder(t *testing.T) {
	store := objstore.NewMemory("t")
	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	prices := newFake(store, "prices")
	prices.onRun = record("prices")
	tweets := newFake(store, "tweets")
	tweets.onRun = record("tweets")
	extract := newFake(store, "extract", tweets, prices)
	extract.onRun = record("extract")
	analyze := newFake(store, "analyze", extract)
	analyze.onRun = record("analyze")

	report, err := newTestExecutor(4).Run(context.Background(), analyze)
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.NoError(t, report.Err())

	require.Len(t, order, 4)
	assert.ElementsMatch(t, []string{"prices", "tweets"}, order[:2])
	assert.Equal(t, []string{"extract", "analyze"}, order[2:])
	assert.Equal(t, 4, report.Count(StatusDone))
}

func TestSkipWhenOutputExists(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory("t")

	upstream := newFake(store, "upstream")
	root := newFake(store, "root", upstream)
	require.NoError(t, store.Put(ctx, "root", []byte("already there")))

	report, err := newTestExecutor(2).Run(ctx, root)
	require.NoError(t, err)

	assert.True(t, report.Success())
	assert.Equal(t, StatusSkipped, report.Results[root.ID()].Status)
	assert.Equal(t, 0, root.ran())
	// dependencies of a complete task are never considered
	assert.Equal(t, 0, upstream.ran())
	_, planned := report.Results[upstream.ID()]
	assert.False(t, planned)
}

func TestSecondRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory("t")
	a := newFake(store, "a")
	b := newFake(store, "b", a)

	first, err := newTestExecutor(2).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count(StatusDone))

	second, err := newTestExecutor(2).Run(ctx, b)
	require.NoError(t, err)
	assert.True(t, second.Success())
	assert.Equal(t, 0, second.Count(StatusDone))
	assert.Equal(t, 1, a.ran())
	assert.Equal(t, 1, b.ran())
}

func TestSharedDependencyRunsOnce(t *testing.T) {
	store := objstore.NewMemory("t")
	universe := newFake(store, "universe")
	universe.delay = 10 * time.Millisecond

	var roots []task.Task
	for _, ticker := range []string{"AAL", "AAPL", "ADBE", "ADI"} {
		roots = append(roots, newFake(store, ticker, universe))
	}

	report, err := newTestExecutor(4).Run(context.Background(), roots...)
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, 1, universe.ran())
	assert.Len(t, report.Results, 5)
}

func TestCycleRejectedBeforeRun(t *testing.T) {
	store := objstore.NewMemory("t")

	self := newFake(store, "self")
	self.deps = []task.Task{self}

	a := newFake(store, "a")
	b := newFake(store, "b", a)
	a.deps = []task.Task{b}

	x := newFake(store, "x")
	y := newFake(store, "y", x)
	z := newFake(store, "z", y)
	x.deps = []task.Task{z}
	top := newFake(store, "top", z)

	tests := []struct {
		name string
		root task.Task
		ran  []*fakeTask
	}{
		{"self", self, []*fakeTask{self}},
		{"mutual", a, []*fakeTask{a, b}},
		{"transitive", top, []*fakeTask{top, x, y, z}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := newTestExecutor(2).Run(context.Background(), tt.root)
			assert.Nil(t, report)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCycle))
			assert.True(t, errors.Is(err, contracts.ErrCycle))

			var gerr *GraphError
			assert.True(t, errors.As(err, &gerr))
			for _, f := range tt.ran {
				assert.Equal(t, 0, f.ran(), "%s must not run", f.id)
			}
		})
	}
}

func TestFailureIsolation(t *testing.T) {
	store := objstore.NewMemory("t")

	badPrices := newFake(store, "prices-AAL")
	badPrices.err = fmt.Errorf("yahoo: %w", contracts.ErrUpstreamFetch)
	badExtract := newFake(store, "extract-AAL", badPrices)
	badAnalyze := newFake(store, "analyze-AAL", badExtract)

	goodPrices := newFake(store, "prices-AAPL")
	goodAnalyze := newFake(store, "analyze-AAPL", goodPrices)

	all := newFake(store, "all", badAnalyze, goodAnalyze)
	all.wrapper = true

	report, err := newTestExecutor(2).Run(context.Background(), all)
	require.NoError(t, err)

	assert.False(t, report.Success())
	assert.Equal(t, StatusFailed, report.Results[badPrices.ID()].Status)
	assert.Equal(t, StatusBlocked, report.Results[badExtract.ID()].Status)
	assert.Equal(t, StatusBlocked, report.Results[badAnalyze.ID()].Status)
	assert.Equal(t, StatusBlocked, report.Results[all.ID()].Status)
	assert.True(t, errors.Is(report.Results[badAnalyze.ID()].Err, contracts.ErrUpstreamFailed))

	// unrelated branch still completes
	assert.Equal(t, StatusDone, report.Results[goodAnalyze.ID()].Status)
	assert.Equal(t, 1, goodAnalyze.ran())
	assert.Equal(t, 0, badExtract.ran())

	assert.Len(t, report.Failures(), 4)
	assert.True(t, errors.Is(report.Err(), contracts.ErrUpstreamFetch))

	summary := report.Summary("analyze")
	assert.False(t, summary.Success)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, summary.Blocked)
}

func TestMissingOutputAfterRunFails(t *testing.T) {
	store := objstore.NewMemory("t")
	lazy := newFake(store, "lazy")
	lazy.noWrite = true

	report, err := newTestExecutor(1).Run(context.Background(), lazy)
	require.NoError(t, err)
	assert.False(t, report.Success())
	assert.True(t, errors.Is(report.Results[lazy.ID()].Err, contracts.ErrPersistence))
}

func TestPanicBecomesFailure(t *testing.T) {
	store := objstore.NewMemory("t")
	boom := newFake(store, "boom")
	boom.onRun = func() { panic("bad row") }

	report, err := newTestExecutor(1).Run(context.Background(), boom)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Results[boom.ID()].Status)
	assert.Contains(t, report.Results[boom.ID()].Err.Error(), "bad row")
}

func TestWorkerBound(t *testing.T) {
	store := objstore.NewMemory("t")
	var current, peak int32

	var roots []task.Task
	for i := 0; i < 12; i++ {
		f := newFake(store, fmt.Sprintf("t%02d", i))
		f.onRun = func() {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
		}
		roots = append(roots, f)
	}

	report, err := newTestExecutor(3).Run(context.Background(), roots...)
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestObserverEvents(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory("t")
	done := newFake(store, "done")
	require.NoError(t, store.Put(ctx, "done", []byte("x")))
	fresh := newFake(store, "fresh")
	root := newFake(store, "root", done, fresh)

	var events []Event
	exec := newTestExecutor(2)
	exec.OnEvent(func(ev Event) { events = append(events, ev) })

	report, err := exec.Run(ctx, root)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)

	statuses := map[task.ID][]Status{}
	for _, ev := range events {
		assert.Equal(t, report.RunID, ev.RunID)
		statuses[ev.ID] = append(statuses[ev.ID], ev.Status)
	}
	assert.Equal(t, []Status{StatusSkipped}, statuses[done.ID()])
	assert.Equal(t, []Status{StatusPending, StatusRunning, StatusDone}, statuses[fresh.ID()])
	assert.Equal(t, []Status{StatusPending, StatusRunning, StatusDone}, statuses[root.ID()])

	again, err := exec.Run(ctx, root)
	require.NoError(t, err)
	assert.NotEqual(t, report.RunID, again.RunID)
}

func TestConcurrentRunsShareTaskIDs(t *testing.T) {
	ctx := context.Background()
	store := objstore.NewMemory("t")
	exec := newTestExecutor(4)

	// 두 실행이 같은 ID의 서로 다른 인스턴스를 가짐 (매 요청마다 새 그래프)
	first := newFake(store, "prices-AAL")
	second := newFake(store, "prices-AAL")

	started := make(chan struct{})
	release := make(chan struct{})
	first.onRun = func() {
		close(started)
		<-release
	}

	var mu sync.Mutex
	running := 0
	secondPlanned := make(chan struct{})
	exec.OnEvent(func(ev Event) {
		if ev.ID != first.ID() || ev.Status != StatusRunning {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		running++
		if running == 2 {
			close(secondPlanned)
		}
	})

	reports := make(chan *Report, 2)
	go func() {
		r, err := exec.Run(ctx, first)
		assert.NoError(t, err)
		reports <- r
	}()
	<-started

	go func() {
		r, err := exec.Run(ctx, second)
		assert.NoError(t, err)
		reports <- r
	}()

	select {
	case <-secondPlanned:
	case <-time.After(5 * time.Second):
		t.Fatal("second run never dispatched the task")
	}
	close(release)

	var statuses []Status
	for i := 0; i < 2; i++ {
		r := <-reports
		require.True(t, r.Success())
		statuses = append(statuses, r.Results[first.ID()].Status)
	}

	assert.Equal(t, 1, first.ran())
	assert.Equal(t, 0, second.ran(), "waits for the first run and finds the output")
	assert.ElementsMatch(t, []Status{StatusDone, StatusSkipped}, statuses)
	assert.Equal(t, 0, exec.claims.held())
}

func TestClaimsHonorContext(t *testing.T) {
	c := newClaims()
	id := task.NewID("Fake", "x")

	release, err := c.acquire(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.acquire(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.Equal(t, 0, c.held())

	release, err = c.acquire(context.Background(), id)
	require.NoError(t, err)
	release()
}
