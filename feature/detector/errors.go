package detector

import "fmt"

// MissingFieldError reports that no listing of a batch carried a field a detector
// needs. The upstream schema drifts over time; the detector yields no matches.
type MissingFieldError struct {
	Variant string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("detector %s: field %q missing from batch", e.Variant, e.Field)
}
