package classify

import "fmt"

// ClassificationError reports a classifier failure for one (promise, vote)
// pair. The tracker degrades the affected promise to not-addressed for the
// run instead of failing the pipeline.
type ClassificationError struct {
	PromiseID string
	VoteID    string
	Err       error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify promise %s against vote %s: %v", e.PromiseID, e.VoteID, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}
