package storesync

import (
	"sync"

	pkgsync "github.com/agentstation/storesync/pkg/sync"
)

// Hook function types for run events
type (
	// OperationHook is called when a storefront operation reaches a terminal state
	OperationHook func(outcome pkgsync.Outcome)

	// RunCompleteHook is called when a run finishes, aborted runs included
	RunCompleteHook func(result *pkgsync.Result)
)

// Hooks provides event callback registration.
type Hooks interface {
	// OnOperation registers a callback for every finished storefront operation
	OnOperation(fn OperationHook)

	// OnRunComplete registers a callback for every finished run
	OnRunComplete(fn RunCompleteHook)
}

// hooks manages event callbacks for runs
type hooks struct {
	mu            sync.RWMutex
	onOperation   []OperationHook
	onRunComplete []RunCompleteHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnOperation registers a callback for every finished storefront operation
func (h *hooks) OnOperation(fn OperationHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onOperation = append(h.onOperation, fn)
}

// OnRunComplete registers a callback for every finished run
func (h *hooks) OnRunComplete(fn RunCompleteHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRunComplete = append(h.onRunComplete, fn)
}

// triggerOperation calls the operation hooks. The lock is released before
// calling out so a hook may register further hooks.
func (h *hooks) triggerOperation(outcome pkgsync.Outcome) {
	h.mu.RLock()
	fns := h.onOperation
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(outcome)
	}
}

// triggerRunComplete calls the run hooks.
func (h *hooks) triggerRunComplete(result *pkgsync.Result) {
	h.mu.RLock()
	fns := h.onRunComplete
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(result)
	}
}
