// Package task defines pipeline units of work and their identity.
package task

import (
	"context"
	"sort"
	"strings"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/target"
)

// ID identifies a task by kind and canonical parameters.
// Two tasks with the same ID are the same task.
type ID struct {
	Kind   string `json:"kind"`
	Params string `json:"params,omitempty"`
}

// NewID joins params with "," into the canonical parameter string
func NewID(kind string, params ...string) ID {
	return ID{Kind: kind, Params: strings.Join(params, ",")}
}

func (id ID) String() string {
	if id.Params == "" {
		return id.Kind
	}
	return id.Kind + "(" + id.Params + ")"
}

// Task is one node of the pipeline graph.
// ⭐ SSOT: 모든 파이프라인 단계는 이 인터페이스를 구현
type Task interface {
	ID() ID
	// Deps is resolved lazily; repeated calls return the same instances.
	Deps() Deps
	// Output is nil for wrapper tasks
	Output() target.Target
	Run(ctx context.Context) error
}

// Staged is implemented by tasks that belong to one pipeline stage
type Staged interface {
	Stage() contracts.Stage
}

// StageOf returns t's stage, empty for wrappers
func StageOf(t Task) contracts.Stage {
	if s, ok := t.(Staged); ok {
		return s.Stage()
	}
	return ""
}

type depsKind int

const (
	depsNone depsKind = iota
	depsOne
	depsNamed
	depsList
)

// Deps is a task's requirements: none, one task, a name → task mapping or a list
type Deps struct {
	kind  depsKind
	one   Task
	named map[string]Task
	list  []Task
}

func NoDeps() Deps                     { return Deps{} }
func One(t Task) Deps                  { return Deps{kind: depsOne, one: t} }
func Named(m map[string]Task) Deps     { return Deps{kind: depsNamed, named: m} }
func List(tasks ...Task) Deps          { return Deps{kind: depsList, list: tasks} }
func (d Deps) Empty() bool             { return len(d.All()) == 0 }
func (d Deps) Lookup(name string) Task { return d.named[name] }

// All flattens the dependencies; named ones come in sorted-name order
func (d Deps) All() []Task {
	switch d.kind {
	case depsOne:
		return []Task{d.one}
	case depsNamed:
		names := make([]string, 0, len(d.named))
		for n := range d.named {
			names = append(names, n)
		}
		sort.Strings(names)
		out := make([]Task, len(names))
		for i, n := range names {
			out[i] = d.named[n]
		}
		return out
	case depsList:
		return append([]Task(nil), d.list...)
	default:
		return nil
	}
}

// Complete reports whether t's output exists, or for wrappers whether every dependency is complete
func Complete(ctx context.Context, t Task) (bool, error) {
	if out := t.Output(); out != nil {
		return out.Exists(ctx)
	}
	for _, dep := range t.Deps().All() {
		ok, err := Complete(ctx, dep)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
