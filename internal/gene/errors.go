package gene

// ErrValidation matches any *ValidationError via errors.Is.
var ErrValidation = &ValidationError{}

// ValidationError reports a gene value outside its legal domain.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "gene validation error"
	}
	return "gene validation error: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}
