package ml

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// FeatureSpec describes one column of the feature catalog.
type FeatureSpec struct {
	Name     string            `yaml:"name"`
	Legend   map[string]string `yaml:"legend"`
	Encoding map[string]int    `yaml:"encoding"`
}

// Active reports whether the feature carries a category mapping.
func (f FeatureSpec) Active() bool {
	return len(f.Encoding) > 0
}

type catalogFile struct {
	Class    FeatureSpec   `yaml:"class"`
	Features []FeatureSpec `yaml:"features"`
}

// Catalog is the ordered feature catalog together with its category mappings.
// It is read-only after construction.
type Catalog struct {
	class    FeatureSpec
	features []FeatureSpec
	index    map[string]int
}

// DefaultCatalog parses the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// MustDefaultCatalog is DefaultCatalog for callers that cannot recover.
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a catalog from a YAML file. An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Kind: "catalog", Path: path, Err: err}
	}
	c, err := ParseCatalog(payload)
	if err != nil {
		return nil, &ArtifactLoadError{Kind: "catalog", Path: path, Err: err}
	}
	return c, nil
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(payload []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Features) == 0 {
		return nil, errors.New("catalog has no features")
	}

	c := &Catalog{
		class:    file.Class,
		features: file.Features,
		index:    make(map[string]int, len(file.Features)),
	}
	for i, f := range file.Features {
		if f.Name == "" {
			return nil, fmt.Errorf("feature %d has no name", i)
		}
		if _, dup := c.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate feature %q", f.Name)
		}
		c.index[f.Name] = i

		seen := make(map[int]string, len(f.Encoding))
		for label, code := range f.Encoding {
			if code < 0 {
				return nil, fmt.Errorf("feature %q: negative code %d for %q", f.Name, code, label)
			}
			if other, ok := seen[code]; ok {
				return nil, fmt.Errorf("feature %q: code %d used by %q and %q", f.Name, code, other, label)
			}
			seen[code] = label
		}
	}
	return c, nil
}

// Names returns the feature names in training order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.features))
	for i, f := range c.features {
		names[i] = f.Name
	}
	return names
}

// Len is the length of every feature vector built from this catalog.
func (c *Catalog) Len() int {
	return len(c.features)
}

// Index returns the column of a feature.
func (c *Catalog) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Feature looks up a feature by name.
func (c *Catalog) Feature(name string) (FeatureSpec, bool) {
	i, ok := c.index[name]
	if !ok {
		return FeatureSpec{}, false
	}
	return c.features[i], true
}

// ActiveFeatures returns the features with a category mapping, in catalog order.
func (c *Catalog) ActiveFeatures() []string {
	active := make([]string, 0, len(c.features))
	for _, f := range c.features {
		if f.Active() {
			active = append(active, f.Name)
		}
	}
	return active
}

// Labels returns the known labels of an active feature ordered by code.
func (c *Catalog) Labels(name string) []string {
	f, ok := c.Feature(name)
	if !ok {
		return nil
	}
	labels := make([]string, 0, len(f.Encoding))
	for label := range f.Encoding {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return f.Encoding[labels[i]] < f.Encoding[labels[j]]
	})
	return labels
}

// Expand maps a raw dataset code of a feature to its readable label.
// Unknown codes are returned unchanged.
func (c *Catalog) Expand(name, code string) string {
	if name == c.class.Name {
		if label, ok := c.class.Legend[code]; ok {
			return label
		}
		return code
	}
	f, ok := c.Feature(name)
	if !ok {
		return code
	}
	if label, ok := f.Legend[code]; ok {
		return label
	}
	return code
}

// KnownCode reports whether a raw dataset code is part of the column legend.
func (c *Catalog) KnownCode(name, code string) bool {
	if name == c.class.Name {
		_, ok := c.class.Legend[code]
		return ok
	}
	f, ok := c.Feature(name)
	if !ok {
		return false
	}
	_, ok = f.Legend[code]
	return ok
}

// ClassColumn is the name of the target column in the reference dataset.
func (c *Catalog) ClassColumn() string {
	return c.class.Name
}
