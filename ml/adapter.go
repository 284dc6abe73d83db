package ml

import (
	"errors"
	"fmt"
	"math"
)

// probabilityTolerance bounds how far the class probabilities may drift from summing to 1.
const probabilityTolerance = 1e-6

// State is the lifecycle state of an Adapter.
type State int

const (
	Unloaded State = iota
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// Prediction is a label together with its matching probability pair.
type Prediction struct {
	Label         Label         `json:"label"`
	Probabilities Probabilities `json:"probabilities"`
}

// Adapter wraps a trained classifier. It moves from Unloaded to Loaded exactly once and is
// read-only afterwards.
type Adapter struct {
	state  State
	model  Classifier
	source string
}

func NewAdapter() *Adapter {
	return &Adapter{}
}

// Load reads the model artifact and moves the adapter to Loaded.
func (a *Adapter) Load(modelType, path string, nFeatures int) error {
	if a.state == Loaded {
		return ErrAlreadyLoaded
	}
	model, err := LoadModel(modelType, path, nFeatures)
	if err != nil {
		return err
	}
	a.model = model
	a.source = path
	a.state = Loaded
	return nil
}

// Attach installs an already constructed classifier.
func (a *Adapter) Attach(model Classifier, source string) error {
	if a.state == Loaded {
		return ErrAlreadyLoaded
	}
	if model == nil {
		return errors.New("nil classifier")
	}
	a.model = model
	a.source = source
	a.state = Loaded
	return nil
}

func (a *Adapter) State() State { return a.state }

// Source names where the loaded model came from.
func (a *Adapter) Source() string { return a.source }

// Predict returns the label of vector.
func (a *Adapter) Predict(vector FeatureVector) (Label, error) {
	p, err := a.Classify(vector)
	if err != nil {
		return 0, err
	}
	return p.Label, nil
}

// PredictProbability returns the class probabilities of vector.
func (a *Adapter) PredictProbability(vector FeatureVector) (Probabilities, error) {
	if a.state != Loaded {
		return Probabilities{}, ErrModelNotLoaded
	}
	probs, err := a.probabilities(vector.Floats())
	if err != nil {
		return Probabilities{}, &PredictionError{Err: err}
	}
	return probs, nil
}

// Classify runs both model operations on one vector and rejects a label that is less
// probable than the other class.
func (a *Adapter) Classify(vector FeatureVector) (Prediction, error) {
	if a.state != Loaded {
		return Prediction{}, ErrModelNotLoaded
	}
	features := vector.Floats()

	label, err := a.label(features)
	if err != nil {
		return Prediction{}, &PredictionError{Err: err}
	}
	probs, err := a.probabilities(features)
	if err != nil {
		return Prediction{}, &PredictionError{Err: err}
	}
	// the label must be a most probable class, ties allowed
	if probs.Of(label) < probs.Of(1-label) {
		return Prediction{}, &PredictionError{
			Err: fmt.Errorf("label %s disagrees with probabilities %+v", label, probs)}
	}
	return Prediction{Label: label, Probabilities: probs}, nil
}

func (a *Adapter) label(features []float64) (label Label, err error) {
	defer recoverInto(&err)

	raw, err := a.model.Predict(features)
	if err != nil {
		return 0, err
	}
	if raw != int(Edible) && raw != int(Poisonous) {
		return 0, fmt.Errorf("model returned unknown class %d", raw)
	}
	return Label(raw), nil
}

func (a *Adapter) probabilities(features []float64) (probs Probabilities, err error) {
	defer recoverInto(&err)

	raw, err := a.model.PredictProbability(features)
	if err != nil {
		return Probabilities{}, err
	}
	if len(raw) != 2 {
		return Probabilities{}, fmt.Errorf("model returned %d probabilities, want 2", len(raw))
	}
	for _, p := range raw {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Probabilities{}, fmt.Errorf("model returned invalid probability %v", p)
		}
	}
	if math.Abs(raw[0]+raw[1]-1) > probabilityTolerance {
		return Probabilities{}, fmt.Errorf("probabilities sum to %v", raw[0]+raw[1])
	}
	return Probabilities{Edible: raw[0], Poisonous: raw[1]}, nil
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("model panicked: %v", r)
	}
}
