// Package target holds the existence-checked outputs of pipeline tasks.
//
// Exists is always re-queried against the backing store, and every writer
// commits atomically, so a target exists only once its data is fully written.
package target

import "context"

// Target is a task output whose presence marks the task complete
type Target interface {
	Exists(ctx context.Context) (bool, error)
	// URI identifies the target in logs, reports and graph views
	URI() string
}
