package parsing

import "fmt"

// RejectError marks a raw record that cannot become a canonical company row.
// Rejection is not a failure: callers count the record as skipped and move on.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("record rejected: %s", e.Reason)
}

// IsReject reports whether err is a record rejection.
func IsReject(err error) bool {
	_, ok := err.(*RejectError)
	return ok
}
