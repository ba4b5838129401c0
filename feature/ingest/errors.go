package ingest

import "fmt"

// FatalConfigurationError aborts startup: the service cannot run with this setup.
type FatalConfigurationError struct {
	Reason string
	Err    error
}

func (e *FatalConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal configuration: %s: %v", e.Reason, e.Err)
	}
	return "fatal configuration: " + e.Reason
}

func (e *FatalConfigurationError) Unwrap() error { return e.Err }
