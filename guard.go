package storesync

import (
	"fmt"

	"github.com/agentstation/storesync/pkg/errors"
)

// checkGuard refuses a plan built from a desired catalog that is
// implausibly smaller than the current one, which is what a partial or
// corrupt supplier fetch looks like.
func checkGuard(desired, current int, maxShrinkage float64) error {
	if current == 0 {
		return nil
	}

	ratio := float64(desired) / float64(current)
	if ratio < 1-maxShrinkage {
		return &errors.GuardTrippedError{
			Reason:    fmt.Sprintf("desired catalog is %.0f%% of the current one", ratio*100),
			Desired:   desired,
			Current:   current,
			Threshold: maxShrinkage,
		}
	}
	return nil
}

// incompleteSnapshot is the guard error for a supplier feed that signalled
// it is partial.
func incompleteSnapshot(records int) error {
	return &errors.GuardTrippedError{
		Reason:  "supplier snapshot is incomplete",
		Desired: records,
	}
}
