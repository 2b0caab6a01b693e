package domain

// ValidationError reports a missing or blank client-supplied field.
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return e.Field + " is required"
}
