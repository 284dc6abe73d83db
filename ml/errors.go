package ml

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotLoaded is returned for requests made before a model was loaded.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrAlreadyLoaded is returned when a loaded adapter is asked to load again.
	ErrAlreadyLoaded = errors.New("model already loaded")
)

// ArtifactLoadError reports a model, catalog or reference file that could not be read at startup.
type ArtifactLoadError struct {
	Kind string
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// PredictionError reports a failure of the classifier on a single request.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// InputError reports a malformed prediction request.
type InputError struct {
	Feature string
	Reason  string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input for %q: %s", e.Feature, e.Reason)
}

// UnseenCategory is the warning emitted when a value is missing from its feature mapping.
type UnseenCategory struct {
	Feature string `json:"feature"`
	Value   string `json:"value"`
}

func (w UnseenCategory) String() string {
	return fmt.Sprintf("unseen label %q for feature %s, using code %d", w.Value, w.Feature, DefaultCode)
}
