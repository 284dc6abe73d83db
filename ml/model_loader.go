package ml

import (
	"fmt"
)

const (
	ModelTypeDecisionTree = "decision_tree"
	ModelTypeRandomForest = "random_forest"
)

// LoadModel reads a model artifact of the given type.
// nFeatures, when positive, must match the feature count declared by the artifact.
func LoadModel(modelType, path string, nFeatures int) (Classifier, error) {
	switch modelType {
	case ModelTypeDecisionTree, ModelTypeRandomForest:
		rf, err := LoadForest(path)
		if err != nil {
			return nil, &ArtifactLoadError{Kind: "model", Path: path, Err: err}
		}
		if modelType == ModelTypeDecisionTree && len(rf.Trees) != 1 {
			return nil, &ArtifactLoadError{Kind: "model", Path: path,
				Err: fmt.Errorf("decision_tree artifact holds %d trees", len(rf.Trees))}
		}
		if nFeatures > 0 && rf.NFeatures != nFeatures {
			return nil, &ArtifactLoadError{Kind: "model", Path: path,
				Err: fmt.Errorf("artifact expects %d features, catalog has %d", rf.NFeatures, nFeatures)}
		}
		return rf, nil
	default:
		return nil, &ArtifactLoadError{Kind: "model", Path: path,
			Err: fmt.Errorf("unsupported model type %q", modelType)}
	}
}
