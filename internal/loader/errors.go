package loader

import (
	"errors"
	"fmt"
)

// Kind classifies a LoadError.
type Kind int

const (
	// KindValidation means the path was rejected before any engine I/O.
	KindValidation Kind = iota + 1
	// KindEngine means the engine failed to parse or allocate the model.
	KindEngine
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// LoadError reports why a model could not be loaded.
type LoadError struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Msg)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is a LoadError of any kind.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsValidation reports whether err rejected the path without touching the
// engine.
func IsValidation(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == KindValidation
}

func validationError(path, msg string) error {
	return &LoadError{Kind: KindValidation, Path: path, Msg: msg}
}

func engineError(path string, err error) error {
	return &LoadError{Kind: KindEngine, Path: path, Msg: "engine failed to load model", Err: err}
}
