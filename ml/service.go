package ml

import (
	"time"

	"go.uber.org/zap"
)

// Result is the outcome of one prediction request.
type Result struct {
	Prediction
	Vector    FeatureVector    `json:"vector"`
	Warnings  []UnseenCategory `json:"warnings,omitempty"`
	Defaulted []string         `json:"defaulted,omitempty"`
	Duration  time.Duration    `json:"-"`
}

// Service runs the encode, assemble and classify steps for one request.
// It is built once at startup and shared read-only by all requests.
type Service struct {
	catalog *Catalog
	encoder *Encoder
	adapter *Adapter
	logger  *zap.Logger
}

func NewService(catalog *Catalog, adapter *Adapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: catalog,
		encoder: NewEncoder(catalog),
		adapter: adapter,
		logger:  logger,
	}
}

func (s *Service) Catalog() *Catalog { return s.catalog }

func (s *Service) Adapter() *Adapter { return s.adapter }

// Ready reports whether predictions can be served.
func (s *Service) Ready() bool {
	return s.adapter != nil && s.adapter.State() == Loaded
}

// Encode turns the user selections into a full feature vector.
func (s *Service) Encode(selections map[string]string) (FeatureVector, []UnseenCategory, []string, error) {
	for name := range selections {
		if _, ok := s.catalog.Index(name); !ok {
			return nil, nil, nil, &InputError{Feature: name, Reason: "not a catalog feature"}
		}
	}

	encoded := make(map[string]int, len(selections))
	var warnings []UnseenCategory
	for _, name := range s.catalog.Names() {
		value, ok := selections[name]
		if !ok {
			continue
		}
		code, warning := s.encoder.Encode(name, value)
		if warning != nil {
			s.logger.Warn("Unseen label encountered",
				zap.String("feature", warning.Feature),
				zap.String("label", warning.Value))
			warnings = append(warnings, *warning)
		}
		encoded[name] = code
	}

	vector, defaulted := Assemble(s.catalog.Names(), encoded)
	return vector, warnings, defaulted, nil
}

// Predict encodes selections and classifies the resulting vector.
func (s *Service) Predict(selections map[string]string) (*Result, error) {
	start := time.Now()

	vector, warnings, defaulted, err := s.Encode(selections)
	if err != nil {
		return nil, err
	}
	if s.adapter == nil {
		return nil, ErrModelNotLoaded
	}
	prediction, err := s.adapter.Classify(vector)
	if err != nil {
		s.logger.Error("Error during prediction", zap.Error(err))
		return nil, err
	}

	result := &Result{
		Prediction: prediction,
		Vector:     vector,
		Warnings:   warnings,
		Defaulted:  defaulted,
		Duration:   time.Since(start),
	}
	s.logger.Info("Prediction made successfully",
		zap.Stringer("label", prediction.Label),
		zap.Float64("p_edible", prediction.Probabilities.Edible),
		zap.Float64("p_poisonous", prediction.Probabilities.Poisonous),
		zap.Int("warnings", len(warnings)))
	return result, nil
}
