package pipeline

import "fmt"

// SetupError marks a batch that could not enumerate its subjects. The only
// error class that fails a whole job.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("enumerate batch subjects: %v", e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// PersistenceError marks a persist-stage failure. Fatal to that subject's
// unit only; sibling units continue.
type PersistenceError struct {
	SubjectID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist results for %s: %v", e.SubjectID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
