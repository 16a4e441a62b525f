package task

import (
	"context"
	"sync"

	"github.com/wonny/twitstock/internal/target"
)

// Wrapper has no output; it is complete when every dependency is.
// The dependency list is computed on first demand and then fixed.
type Wrapper struct {
	id   ID
	deps func() []Task

	once     sync.Once
	resolved []Task
}

func NewWrapper(id ID, deps func() []Task) *Wrapper {
	return &Wrapper{id: id, deps: deps}
}

func (w *Wrapper) ID() ID                    { return w.id }
func (w *Wrapper) Output() target.Target     { return nil }
func (w *Wrapper) Run(context.Context) error { return nil }

func (w *Wrapper) Deps() Deps {
	w.once.Do(func() { w.resolved = w.deps() })
	return List(w.resolved...)
}
