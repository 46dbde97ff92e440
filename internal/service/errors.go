package service

// HTTPError carries the status code the API layer should answer with when a
// resolution fails (401 no session, 502 exchange failure, 400 bad input).
// TODO(future): replace the raw HTTP status with a transport-neutral error
// kind if a second transport ever shows up.
type HTTPError struct {
	StatusCode int
	Wrapped    error
}

func (e HTTPError) Error() string {
	return e.Wrapped.Error()
}

func (e HTTPError) Unwrap() error {
	return e.Wrapped
}

func httpError(statusCode int, err error) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Wrapped:    err,
	}
}
