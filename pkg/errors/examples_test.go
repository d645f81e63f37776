package errors_test

import (
	"fmt"

	"github.com/agentstation/menumerge/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := errors.NewNotFoundError("record", "data_c")

	if errors.IsNotFound(err) {
		fmt.Println("snapshot not available yet")
	}

	// Output: snapshot not available yet
}

// Example_fetchFailed shows how a cycle distinguishes retry exhaustion from bad payloads.
func Example_fetchFailed() {
	var err error = errors.NewFetchFailedError("data-b", 3, errors.NewAPIError("data-b", 503, "unavailable"))

	switch {
	case errors.IsFetchInvalid(err):
		fmt.Println("upstream sent garbage")
	case errors.IsFetchFailed(err):
		fmt.Println("upstream down, keeping last snapshot")
	}

	// Output: upstream down, keeping last snapshot
}
