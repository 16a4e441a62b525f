package task

import "sync"

// Registry memoizes task construction by ID.
// Safe for concurrent use; the first stored instance wins.
type Registry struct {
	mu    sync.Mutex
	tasks map[ID]Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[ID]Task)}
}

// Get returns the task registered under id, building it on first use.
// build runs outside the lock so it may itself call Get.
func (r *Registry) Get(id ID, build func() Task) Task {
	r.mu.Lock()
	if t, ok := r.tasks[id]; ok {
		r.mu.Unlock()
		return t
	}
	r.mu.Unlock()

	built := build()

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		return t
	}
	r.tasks[id] = built
	return built
}

// Len returns the number of distinct tasks constructed so far
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
