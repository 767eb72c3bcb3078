package validators

// Result collects messages per field. An empty result means valid.
type Result map[string][]string

func (r Result) Add(field, msg string) {
	r[field] = append(r[field], msg)
}

func (r Result) Valid() bool {
	return len(r) == 0
}

// Merge copies other's messages into r.
func (r Result) Merge(other Result) {
	for f, msgs := range other {
		r[f] = append(r[f], msgs...)
	}
}

// ValidationError carries a failed Result through error returns.
type ValidationError struct {
	Fields Result
}

func (e *ValidationError) Error() string {
	return "validation_failed"
}

// Err returns nil when r is valid.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Fields: r}
}
