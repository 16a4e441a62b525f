package contracts

import "errors"

// Error taxonomy shared by every task.
// Wrap with fmt.Errorf("...: %w", Err...) and test with errors.Is.
var (
	// ErrInvalidInput: a ticker or date that cannot name a target
	ErrInvalidInput = errors.New("invalid input")

	// ErrLookup: a required local input or stored row is absent
	ErrLookup = errors.New("lookup failed")

	// ErrUpstreamFetch: the market-data source failed or returned nothing
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrPersistence: a target could not be written or read back
	ErrPersistence = errors.New("persistence failed")

	// ErrCycle: the dependency graph is not a DAG
	ErrCycle = errors.New("dependency cycle")

	// ErrUpstreamFailed: a dependency failed so this task never ran
	ErrUpstreamFailed = errors.New("upstream task failed")
)
