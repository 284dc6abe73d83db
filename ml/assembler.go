package ml

// FeatureVector is the ordered encoding of one specimen, one entry per catalog feature.
type FeatureVector []int

// Floats converts the vector to the representation consumed by the models.
func (v FeatureVector) Floats() []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Assemble builds a full vector in catalog order. Features missing from encoded are
// zero-filled and reported in the second return value.
//
// Zero-filling is kept for compatibility with the deployed model even though it biases
// predictions when many features are left out.
func Assemble(names []string, encoded map[string]int) (FeatureVector, []string) {
	vector := make(FeatureVector, len(names))
	var filled []string
	for i, name := range names {
		code, ok := encoded[name]
		if !ok {
			vector[i] = DefaultCode
			filled = append(filled, name)
			continue
		}
		vector[i] = code
	}
	return vector, filled
}
