package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeharson/mushroom-classification/ml"
)

var testHeader = []string{"class", "odor", "gill-color"}

func row(line int, fields ...string) *Row {
	return &Row{Line: line, Header: testHeader, Fields: fields}
}

func TestNewDataCleaner(t *testing.T) {
	cleaner := NewDataCleaner(ml.MustDefaultCatalog(), nil)
	if cleaner == nil {
		t.Fatal("NewDataCleaner returned nil")
	}

	if len(cleaner.rules) == 0 {
		t.Error("No default rules added")
	}
}

func TestColumnCountRule(t *testing.T) {
	rule := NewColumnCountRule()

	_, err := rule.Apply(row(2, "e", "n", "w"))
	assert.NoError(t, err)

	_, err = rule.Apply(row(3, "e", "n"))
	assert.Error(t, err)
}

func TestKnownCodeRule(t *testing.T) {
	rule := NewKnownCodeRule(ml.MustDefaultCatalog())

	tests := []struct {
		name    string
		row     *Row
		wantErr bool
	}{
		{"valid row", row(2, "e", "n", "w"), false},
		{"unknown class", row(3, "x", "n", "w"), true},
		{"unknown odor", row(4, "e", "q", "w"), true},
		{"unknown column ignored", &Row{Line: 5, Header: []string{"odor", "notes"}, Fields: []string{"n", "anything"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rule.Apply(tt.row)
			if (err != nil) != tt.wantErr {
				t.Errorf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrimRule(t *testing.T) {
	rule := NewTrimRule()

	same := row(2, "e", "n", "w")
	out, err := rule.Apply(same)
	require.NoError(t, err)
	assert.Same(t, same, out)

	out, err = rule.Apply(row(3, " E", "n ", "W"))
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "n", "w"}, out.Fields)
}

func TestDuplicateDetectionRule(t *testing.T) {
	rule := NewDuplicateDetectionRule()

	_, err := rule.Apply(row(2, "e", "n", "w"))
	assert.NoError(t, err)
	_, err = rule.Apply(row(3, "e", "n", "w"))
	assert.EqualError(t, err, "line 3 duplicates line 2")
	_, err = rule.Apply(row(4, "p", "f", "w"))
	assert.NoError(t, err)
}

func TestDataCleaner_Clean(t *testing.T) {
	cleaner := NewDataCleaner(ml.MustDefaultCatalog(), nil)

	rows := []*Row{
		row(2, "e", "n", "w"),
		row(3, "p", "f", "k"),
		row(4, "e", "n"),         // ragged
		row(5, "e", "z", "w"),    // unknown odor
		row(6, "e", "n", "w"),    // duplicate of line 2
		row(7, " P", "F", "k "), // corrected, then duplicate of line 3
		row(8, "E", "A", "W"),    // corrected
	}

	cleaned, issues := cleaner.Clean(rows)
	assert.Len(t, cleaned, 3)
	require.Len(t, issues, 4)

	stats := cleaner.GetStats()
	assert.EqualValues(t, 7, stats.TotalProcessed)
	assert.EqualValues(t, 3, stats.Passed)
	assert.EqualValues(t, 4, stats.Rejected)
	assert.EqualValues(t, 1, stats.Corrected)
	assert.EqualValues(t, 1, stats.Issues["column_count"])
	assert.EqualValues(t, 1, stats.Issues["known_code"])
	assert.EqualValues(t, 2, stats.Issues["duplicate_detection"])

	assert.Equal(t, "high", issues[0].Severity)
	assert.Equal(t, 4, issues[0].Line)
	assert.Equal(t, "medium", issues[1].Severity)
	assert.Equal(t, "low", issues[2].Severity)

	assert.Len(t, cleaner.GetIssues(2), 2)
	assert.Len(t, cleaner.GetIssues(0), 4)
}

func TestRowGet(t *testing.T) {
	r := row(2, "e", "n", "w")
	assert.Equal(t, "n", r.Get("odor"))
	assert.Equal(t, "", r.Get("habitat"))
}
