package errors_test

import (
	"fmt"

	"github.com/agentstation/storesync/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := &errors.NotFoundError{
		Resource: "product",
		ID:       "8841",
	}

	if errors.IsNotFound(err) {
		fmt.Println("Resource not found")
	}

	// Output: Resource not found
}

// ExampleClassify shows how API failures map to retry decisions.
func ExampleClassify() {
	for _, status := range []int{429, 503, 401, 422} {
		kind := errors.Classify(errors.NewAPIError("shopify", status, ""))
		fmt.Printf("%d %s retryable=%t fatal=%t\n", status, kind, kind.Retryable(), kind.Fatal())
	}

	// Output:
	// 429 rate_limited retryable=true fatal=false
	// 503 transient retryable=true fatal=false
	// 401 auth retryable=false fatal=true
	// 422 validation retryable=false fatal=false
}
