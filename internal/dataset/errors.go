package dataset

import "fmt"

// LoadError is returned when an input file cannot be turned into a Table:
// it is missing, unreadable, malformed or has no data rows.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "load error"
	}
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }
