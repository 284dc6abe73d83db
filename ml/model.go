package ml

// Label is the predicted class of a specimen.
type Label int

const (
	Edible    Label = 0
	Poisonous Label = 1
)

func (l Label) String() string {
	switch l {
	case Edible:
		return "Edible"
	case Poisonous:
		return "Poisonous"
	default:
		return "Unknown"
	}
}

// Probabilities holds the class probabilities of one prediction.
type Probabilities struct {
	Edible    float64 `json:"edible"`
	Poisonous float64 `json:"poisonous"`
}

// Of returns the probability of the given label.
func (p Probabilities) Of(l Label) float64 {
	if l == Poisonous {
		return p.Poisonous
	}
	return p.Edible
}

// Classifier is a trained binary model over encoded feature vectors.
type Classifier interface {
	Predict(features []float64) (int, error)
	PredictProbability(features []float64) ([]float64, error)
}
