package constants_test

import (
	"fmt"
	"time"

	"github.com/agentstation/storesync/pkg/constants"
)

// Example demonstrates deriving the capped retry schedule from the constants.
func Example() {
	backoff := constants.RetryBackoff
	for attempt := 1; attempt < constants.MaxAttempts; attempt++ {
		fmt.Printf("retry %d after %s\n", attempt, backoff)
		backoff *= 2
		if backoff > constants.MaxRetryBackoff {
			backoff = constants.MaxRetryBackoff
		}
	}

	// Output:
	// retry 1 after 1s
	// retry 2 after 2s
	// retry 3 after 4s
}

// Example_runBudget shows the default budget fitting inside the schedule interval.
func Example_runBudget() {
	fmt.Println(constants.RunTimeout < constants.DefaultScheduleInterval)
	fmt.Println(time.Duration(float64(time.Second) / constants.DefaultRequestsPerSecond))

	// Output:
	// true
	// 500ms
}
