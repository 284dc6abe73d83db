package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	want := []string{
		"cap-shape", "cap-surface", "cap-color", "bruises", "odor", "gill-attachment",
		"gill-spacing", "gill-size", "gill-color", "stalk-shape", "stalk-root",
		"stalk-surface-above-ring", "stalk-surface-below-ring", "stalk-color-above-ring",
		"stalk-color-below-ring", "veil-type", "veil-color", "ring-number", "ring-type",
		"spore-print-color", "population", "habitat",
	}
	assert.Equal(t, want, c.Names())
	assert.Equal(t, 22, c.Len())

	idx, ok := c.Index("odor")
	require.True(t, ok)
	assert.Equal(t, 4, idx)
}

func TestDefaultCatalogActiveFeatures(t *testing.T) {
	c := MustDefaultCatalog()
	assert.Equal(t, []string{
		"bruises", "odor", "gill-spacing", "gill-size", "gill-color",
		"stalk-surface-below-ring", "veil-color", "ring-type", "population", "habitat",
	}, c.ActiveFeatures())

	assert.Equal(t, []string{"narrow", "broad"}, c.Labels("gill-size"))
	assert.Nil(t, c.Labels("no-such-feature"))
}

func TestCatalogExpand(t *testing.T) {
	c := MustDefaultCatalog()

	assert.Equal(t, "none", c.Expand("odor", "n"))
	assert.Equal(t, "no bruises", c.Expand("bruises", "f"))
	assert.Equal(t, "yellow", c.Expand("gill-color", "y"))
	assert.Equal(t, "missing", c.Expand("stalk-root", "?"))
	assert.Equal(t, "edible", c.Expand("class", "e"))
	assert.Equal(t, "q", c.Expand("odor", "q"))

	assert.True(t, c.KnownCode("class", "p"))
	assert.False(t, c.KnownCode("odor", "q"))
	assert.False(t, c.KnownCode("no-such-feature", "a"))
	assert.Equal(t, "class", c.ClassColumn())
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", "features: []"},
		{"unnamed", "features:\n  - legend: {\"a\": x}"},
		{"duplicate", "features:\n  - name: a\n  - name: a"},
		{"negative code", "features:\n  - name: a\n    encoding: {x: -1}"},
		{"shared code", "features:\n  - name: a\n    encoding: {x: 1, y: 1}"},
		{"not yaml", "features: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog("testdata/does-not-exist.yaml")
	var loadErr *ArtifactLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "catalog", loadErr.Kind)
}
