package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/twitstock/internal/contracts"
)

// ErrInvalidGraph marks a graph that cannot be built (nil task, no roots)
var ErrInvalidGraph = errors.New("invalid task graph")

// ErrCycle is the graph-level cycle sentinel
var ErrCycle = contracts.ErrCycle

// GraphError wraps graph validation failures found before any task runs
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	return &GraphError{Kind: ErrCycle, Msg: strings.Join(path, " -> ")}
}
