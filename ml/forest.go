package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// TreeNode is one node of an exported tree. Samples with
// features[FeatureIdx] <= Threshold go to LeftChild.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

// DecisionTree is a trained classification tree.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// RandomForest averages the class distributions of its trees.
type RandomForest struct {
	ModelType string         `json:"model_type"`
	NFeatures int            `json:"n_features"`
	Classes   []int          `json:"classes"`
	Trees     []DecisionTree `json:"trees"`
}

// LoadForest reads a JSON forest artifact. A decision_tree artifact is a forest of one tree.
func LoadForest(path string) (*RandomForest, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf RandomForest
	if err := json.Unmarshal(payload, &rf); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := rf.Validate(); err != nil {
		return nil, err
	}
	return &rf, nil
}

// Save writes the forest as JSON.
func (rf *RandomForest) Save(path string) error {
	if len(rf.Trees) == 0 {
		return errors.New("model has no trees")
	}
	payload, err := json.Marshal(rf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// Validate checks the structure of every tree so that prediction never walks out of bounds.
func (rf *RandomForest) Validate() error {
	if len(rf.Classes) != 2 || rf.Classes[0] != int(Edible) || rf.Classes[1] != int(Poisonous) {
		return fmt.Errorf("classes must be [0 1], got %v", rf.Classes)
	}
	if len(rf.Trees) == 0 {
		return errors.New("model has no trees")
	}
	for t, tree := range rf.Trees {
		if err := tree.validate(len(rf.Classes), rf.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
	}
	return nil
}

func (dt *DecisionTree) validate(classes, nFeatures int) error {
	if len(dt.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			if len(node.Value) != classes {
				return fmt.Errorf("node %d: leaf has %d class counts, want %d", i, len(node.Value), classes)
			}
			total := 0.0
			for _, v := range node.Value {
				if v < 0 {
					return fmt.Errorf("node %d: negative class count", i)
				}
				total += v
			}
			if total == 0 {
				return fmt.Errorf("node %d: empty leaf", i)
			}
			continue
		}
		if node.FeatureIdx < 0 || (nFeatures > 0 && node.FeatureIdx >= nFeatures) {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		// children always follow their parent, which also rules out cycles
		if node.LeftChild <= i || node.LeftChild >= len(dt.Nodes) {
			return fmt.Errorf("node %d: invalid left child %d", i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(dt.Nodes) {
			return fmt.Errorf("node %d: invalid right child %d", i, node.RightChild)
		}
	}
	return nil
}

// leaf walks the tree down to the leaf reached by features.
func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.Nodes) == 0 {
		return TreeNode{}, errors.New("model not trained")
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.Nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
}

// PredictProbability returns the normalized class counts of the reached leaf.
func (dt *DecisionTree) PredictProbability(features []float64) ([]float64, error) {
	node, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, v := range node.Value {
		total += v
	}
	if total <= 0 {
		return nil, errors.New("empty leaf")
	}
	probs := make([]float64, len(node.Value))
	for i, v := range node.Value {
		probs[i] = v / total
	}
	return probs, nil
}

// Predict returns the most probable class of the reached leaf.
func (dt *DecisionTree) Predict(features []float64) (int, error) {
	probs, err := dt.PredictProbability(features)
	if err != nil {
		return 0, err
	}
	return argmax(probs), nil
}

// PredictProbability averages the per-tree class distributions.
func (rf *RandomForest) PredictProbability(features []float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("model not trained")
	}
	if rf.NFeatures > 0 && len(features) != rf.NFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", rf.NFeatures, len(features))
	}
	sum := make([]float64, len(rf.Classes))
	for t := range rf.Trees {
		probs, err := rf.Trees[t].PredictProbability(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", t, err)
		}
		if len(probs) != len(sum) {
			return nil, fmt.Errorf("tree %d: %d class probabilities, want %d", t, len(probs), len(sum))
		}
		for i, p := range probs {
			sum[i] += p
		}
	}
	n := float64(len(rf.Trees))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}

// Predict returns the class with the highest mean probability.
func (rf *RandomForest) Predict(features []float64) (int, error) {
	probs, err := rf.PredictProbability(features)
	if err != nil {
		return 0, err
	}
	return rf.Classes[argmax(probs)], nil
}

// argmax picks the first maximum.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
