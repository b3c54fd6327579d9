package snapshots

import (
	"fmt"

	"github.com/opendocket/docket/internal/records"
)

// NormalizationError reports a category payload that could not be converted
// into canonical records. It names the category and provider so a job error
// entry can identify the offending feed; sibling categories are unaffected.
type NormalizationError struct {
	Category records.Category
	Provider string
	Reason   string
}

func (e *NormalizationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("normalize %s: %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("normalize %s (%s): %s", e.Category, e.Provider, e.Reason)
}
