package classify

import "errors"

var (
	ErrInferenceTimeout = errors.New("classification timeout")
	ErrInvalidResponse  = errors.New("classification provider returned invalid response")
)
