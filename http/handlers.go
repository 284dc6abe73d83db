package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/joeharson/mushroom-classification/ml"
	"github.com/joeharson/mushroom-classification/monitoring"
	"github.com/joeharson/mushroom-classification/pipeline"
)

// predictionFailedMessage is shown instead of a result when the classifier fails.
const predictionFailedMessage = "An error occurred during prediction. Please check the logs for more details."

// Handlers serves the prediction API and pages. All fields are set once at startup.
type Handlers struct {
	service      *ml.Service
	reference    *pipeline.Reference
	referenceErr error
	metrics      *monitoring.MetricsCollector
	logger       *zap.Logger
	pages        *pages
}

// Deps groups what the handlers need
type Deps struct {
	Service      *ml.Service
	Reference    *pipeline.Reference
	ReferenceErr error
	Metrics      *monitoring.MetricsCollector
	MetricsPath  string
	Logger       *zap.Logger
}

func NewHandlers(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		service:      deps.Service,
		reference:    deps.Reference,
		referenceErr: deps.ReferenceErr,
		metrics:      deps.Metrics,
		logger:       logger,
		pages:        mustParsePages(),
	}
}

// RegisterHandlers registers every route on mux
func RegisterHandlers(mux *http.ServeMux, deps Deps) *Handlers {
	h := NewHandlers(deps)

	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/features", h.handleFeatures)
	mux.HandleFunc("POST /api/predict", h.handleAPIPredict)

	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /predict", h.handlePredictForm)
	mux.HandleFunc("POST /predict", h.handlePredictSubmit)

	if deps.Metrics != nil && deps.MetricsPath != "" {
		mux.Handle("GET "+deps.MetricsPath, deps.Metrics.Handler())
	}
	return h
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	model := ml.Unloaded.String()
	if h.service != nil && h.service.Ready() {
		model = ml.Loaded.String()
	} else {
		status = "degraded"
	}
	reference := "loaded"
	if h.reference == nil {
		reference = "unavailable"
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":    status,
		"model":     model,
		"reference": reference,
	})
}

type featureInfo struct {
	Name    string         `json:"name"`
	Display string         `json:"display"`
	Index   int            `json:"index"`
	Active  bool           `json:"active"`
	Codes   map[string]int `json:"codes,omitempty"`
	Labels  []string       `json:"labels,omitempty"`
	Options []string       `json:"options,omitempty"`
}

func (h *Handlers) handleFeatures(w http.ResponseWriter, r *http.Request) {
	catalog := h.service.Catalog()

	features := make([]featureInfo, 0, catalog.Len())
	for i, name := range catalog.Names() {
		spec, _ := catalog.Feature(name)
		features = append(features, featureInfo{
			Name:    name,
			Display: displayName(name),
			Index:   i,
			Active:  spec.Active(),
			Codes:   spec.Encoding,
			Labels:  catalog.Labels(name),
			Options: h.reference.Options(name),
		})
	}

	reference := map[string]interface{}{"available": h.reference != nil}
	if h.reference != nil {
		reference["source"] = h.reference.Source
		reference["rows"] = h.reference.Rows
		reference["rejected"] = h.reference.Stats.Rejected
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"catalog":   catalog.Names(),
		"active":    catalog.ActiveFeatures(),
		"features":  features,
		"reference": reference,
	})
}

type predictRequest struct {
	Features map[string]string `json:"features"`
}

type predictResponse struct {
	Label         string              `json:"label"`
	LabelCode     int                 `json:"label_code"`
	Probability   float64             `json:"probability"`
	Probabilities ml.Probabilities    `json:"probabilities"`
	Vector        ml.FeatureVector    `json:"vector"`
	Warnings      []ml.UnseenCategory `json:"warnings,omitempty"`
	Defaulted     []string            `json:"defaulted,omitempty"`
}

func newPredictResponse(result *ml.Result) predictResponse {
	return predictResponse{
		Label:         result.Label.String(),
		LabelCode:     int(result.Label),
		Probability:   result.Probabilities.Of(result.Label),
		Probabilities: result.Probabilities,
		Vector:        result.Vector,
		Warnings:      result.Warnings,
		Defaulted:     result.Defaulted,
	}
}

func (h *Handlers) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.predict(r, req.Features)
	if err != nil {
		status, message := errorStatus(err)
		respondError(w, status, message)
		return
	}
	respondJSON(w, http.StatusOK, newPredictResponse(result))
}

// predict runs one prediction and records its outcome
func (h *Handlers) predict(r *http.Request, selections map[string]string) (*ml.Result, error) {
	start := time.Now()
	result, err := h.service.Predict(selections)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordError(err, time.Since(start))
		}
		h.logger.Error("Prediction request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("kind", monitoring.ErrorKind(err)),
			zap.Error(err))
		return nil, err
	}
	if h.metrics != nil {
		h.metrics.RecordResult(result)
	}
	return result, nil
}

// errorStatus maps prediction errors to a status code and a message safe to show
func errorStatus(err error) (int, string) {
	var inputErr *ml.InputError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, inputErr.Error()
	case errors.Is(err, ml.ErrModelNotLoaded):
		return http.StatusServiceUnavailable, "the classifier is not loaded"
	default:
		return http.StatusInternalServerError, predictionFailedMessage
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
