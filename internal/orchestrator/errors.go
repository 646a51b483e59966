package orchestrator

// modelNotFoundError is returned by Select for a path that is not registered.
type modelNotFoundError struct{ path string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.path }

// ErrModelNotFound returns an error for a path missing from the registry.
func ErrModelNotFound(path string) error { return modelNotFoundError{path: path} }

// IsModelNotFound reports whether err indicates an unknown model path.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// closedError is returned by operations on a closed Orchestrator.
type closedError struct{}

func (closedError) Error() string { return "orchestrator closed" }

// ErrClosed is returned after Close.
var ErrClosed error = closedError{}

// IsClosed reports whether err indicates the orchestrator was closed.
func IsClosed(err error) bool {
	_, ok := err.(closedError)
	return ok
}

// invalidModelError is returned when a manually added path fails validation.
type invalidModelError struct{ path string }

func (e invalidModelError) Error() string { return invalidPrefix + e.path }

// ErrInvalidModel returns an error for a path that is not a usable model file.
func ErrInvalidModel(path string) error { return invalidModelError{path: path} }

// IsInvalidModel reports whether err indicates a rejected model file.
func IsInvalidModel(err error) bool {
	_, ok := err.(invalidModelError)
	return ok
}
