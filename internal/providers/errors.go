package providers

import (
	"fmt"

	"github.com/opendocket/docket/internal/records"
)

// FetchError records a category fetch that failed after retry exhaustion
// or a permanent feed condition.
type FetchError struct {
	SubjectID string
	Category  records.Category
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Category, e.SubjectID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
