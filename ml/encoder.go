package ml

// DefaultCode is used for unseen labels and for features without a mapping.
const DefaultCode = 0

// Encoder maps category labels to the integer codes used during training.
type Encoder struct {
	catalog *Catalog
}

func NewEncoder(catalog *Catalog) *Encoder {
	return &Encoder{catalog: catalog}
}

// Encode returns the code of value for feature. An unseen value of an active feature yields
// DefaultCode and a warning; a feature without a mapping always yields DefaultCode.
func (e *Encoder) Encode(feature, value string) (int, *UnseenCategory) {
	spec, ok := e.catalog.Feature(feature)
	if !ok || !spec.Active() {
		return DefaultCode, nil
	}
	code, ok := spec.Encoding[value]
	if !ok {
		return DefaultCode, &UnseenCategory{Feature: feature, Value: value}
	}
	return code, nil
}
