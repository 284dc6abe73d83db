package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeharson/mushroom-classification/db"
	"github.com/joeharson/mushroom-classification/ml"
)

const sampleCSV = "testdata/mushrooms_sample.csv"

func TestReadCSV(t *testing.T) {
	header, rows, err := ReadCSV(strings.NewReader("Class, Odor\ne,n\np,f,extra\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"class", "odor"}, header)
	assert.Equal(t, [][]string{{"e", "n"}, {"p", "f", "extra"}}, rows)

	_, _, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadReferenceCSV(t *testing.T) {
	ref, err := LoadReference(sampleCSV, ml.MustDefaultCatalog(), nil)
	require.NoError(t, err)

	assert.Equal(t, sampleCSV, ref.Source)
	assert.Equal(t, 9, ref.Rows)
	assert.EqualValues(t, 1, ref.Stats.Rejected)
	require.Len(t, ref.Issues, 1)
	assert.Equal(t, "known_code", ref.Issues[0].Type)

	assert.Equal(t, []string{"almond", "anise", "foul", "none", "pungent"}, ref.Options("odor"))
	assert.Equal(t, []string{"bruises", "no bruises"}, ref.Options("bruises"))
	assert.Equal(t, map[string]int{"edible": 5, "poisonous": 4}, ref.ClassBalance())
	assert.Nil(t, ref.Options("class"))
}

func TestLoadReferenceSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mushrooms.db")
	store, err := db.Open(path)
	require.NoError(t, err)
	result, err := ImportCSV(sampleCSV, store)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 10}, result)
	require.NoError(t, store.Close())

	fromDB, err := LoadReference(path, ml.MustDefaultCatalog(), nil)
	require.NoError(t, err)
	fromCSV, err := LoadReference(sampleCSV, ml.MustDefaultCatalog(), nil)
	require.NoError(t, err)

	assert.Equal(t, fromCSV.Rows, fromDB.Rows)
	for _, feature := range ml.MustDefaultCatalog().Names() {
		assert.Equal(t, fromCSV.Options(feature), fromDB.Options(feature), feature)
	}
}

func TestLoadReferenceMissingFile(t *testing.T) {
	for _, path := range []string{"testdata/nope.csv", "testdata/nope.db"} {
		_, err := LoadReference(path, ml.MustDefaultCatalog(), nil)
		var loadErr *ml.ArtifactLoadError
		require.ErrorAs(t, err, &loadErr, path)
		assert.Equal(t, "reference", loadErr.Kind)
	}
}

func TestLoadReferenceWithoutCatalogColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600))

	_, err := LoadReference(path, ml.MustDefaultCatalog(), nil)
	assert.Error(t, err)
}

func TestNilReference(t *testing.T) {
	var ref *Reference
	assert.Nil(t, ref.Options("odor"))
	assert.Nil(t, ref.ClassBalance())
}

func TestImportCSVCountsSkippedRows(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "ragged.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("class,odor\ne,n\np\np,f,x\ne,a\n"), 0o600))

	store, err := db.Open(filepath.Join(t.TempDir(), "ragged.db"))
	require.NoError(t, err)
	defer store.Close()

	result, err := ImportCSV(csvPath, store)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2, Skipped: 2}, result)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
