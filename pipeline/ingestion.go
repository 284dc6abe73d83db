package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/joeharson/mushroom-classification/db"
	"github.com/joeharson/mushroom-classification/ml"
)

// RowSource yields the raw reference rows
type RowSource interface {
	Rows() ([]string, [][]string, error)
}

// CSVSource reads the reference dataset from a CSV file
type CSVSource struct {
	Path string
}

func (s CSVSource) Rows() ([]string, [][]string, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV parses a header line followed by data rows. Ragged rows are returned as-is and
// left to the cleaning rules.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("reference dataset is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

// SourceFor picks the row source by file extension: SQLite databases for .db, .sqlite and
// .sqlite3, CSV otherwise. The returned close function releases the source.
func SourceFor(path string) (RowSource, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		if _, err := os.Stat(path); err != nil {
			return nil, nil, err
		}
		store, err := db.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return CSVSource{Path: path}, func() error { return nil }, nil
	}
}

// Reference is the cleaned reference dataset reduced to what the form needs
type Reference struct {
	Source  string
	Rows    int
	Stats   CleaningStats
	Issues  []QualityIssue
	options map[string][]string
	classes map[string]int
}

// Options returns the sorted readable labels seen for a feature
func (r *Reference) Options(feature string) []string {
	if r == nil {
		return nil
	}
	return r.options[feature]
}

// ClassBalance counts the cleaned rows per readable class label
func (r *Reference) ClassBalance() map[string]int {
	if r == nil {
		return nil
	}
	out := make(map[string]int, len(r.classes))
	for k, v := range r.classes {
		out[k] = v
	}
	return out
}

// Ingest cleans raw rows and collects the per-feature options
func Ingest(catalog *ml.Catalog, header []string, raw [][]string, logger *zap.Logger) (*Reference, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	known := 0
	for _, column := range header {
		if _, ok := catalog.Index(column); ok {
			known++
		}
	}
	if known == 0 {
		return nil, errors.New("reference header has no catalog features")
	}

	rows := make([]*Row, len(raw))
	for i, fields := range raw {
		// line 1 is the header
		rows[i] = &Row{Line: i + 2, Header: header, Fields: fields}
	}

	cleaner := NewDataCleaner(catalog, logger)
	cleaned, issues := cleaner.Clean(rows)
	for _, issue := range issues {
		logger.Warn("Reference row rejected",
			zap.Int("line", issue.Line),
			zap.String("rule", issue.Type),
			zap.String("severity", issue.Severity),
			zap.String("message", issue.Message))
	}

	seen := make(map[string]map[string]struct{})
	classes := make(map[string]int)
	for _, row := range cleaned {
		for i, column := range header {
			value := catalog.Expand(column, row.Fields[i])
			if column == catalog.ClassColumn() {
				classes[value]++
				continue
			}
			if _, ok := catalog.Index(column); !ok {
				continue
			}
			if seen[column] == nil {
				seen[column] = make(map[string]struct{})
			}
			seen[column][value] = struct{}{}
		}
	}

	options := make(map[string][]string, len(seen))
	for column, values := range seen {
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		options[column] = list
	}

	return &Reference{
		Rows:    len(cleaned),
		Stats:   cleaner.GetStats(),
		Issues:  issues,
		options: options,
		classes: classes,
	}, nil
}

// LoadReference reads and cleans the reference dataset at path.
// Failures are reported as *ml.ArtifactLoadError.
func LoadReference(path string, catalog *ml.Catalog, logger *zap.Logger) (*Reference, error) {
	source, closeFn, err := SourceFor(path)
	if err != nil {
		return nil, &ml.ArtifactLoadError{Kind: "reference", Path: path, Err: err}
	}
	defer closeFn()

	header, raw, err := source.Rows()
	if err != nil {
		return nil, &ml.ArtifactLoadError{Kind: "reference", Path: path, Err: err}
	}
	ref, err := Ingest(catalog, header, raw, logger)
	if err != nil {
		return nil, &ml.ArtifactLoadError{Kind: "reference", Path: path, Err: err}
	}
	ref.Source = path
	return ref, nil
}

// ImportResult counts the rows of one CSV import
type ImportResult struct {
	Imported int
	// Skipped rows have a different width than the header
	Skipped int
}

// ImportCSV copies a CSV reference dataset into a SQLite reference database.
// Rows whose width differs from the header are skipped and counted.
func ImportCSV(csvPath string, store *db.ReferenceStore) (ImportResult, error) {
	header, rows, err := CSVSource{Path: csvPath}.Rows()
	if err != nil {
		return ImportResult{}, err
	}
	var result ImportResult
	var kept [][]string
	for _, row := range rows {
		if len(row) != len(header) {
			result.Skipped++
			continue
		}
		kept = append(kept, row)
	}
	if err := store.ImportRows(header, kept); err != nil {
		return ImportResult{}, err
	}
	result.Imported = len(kept)
	return result, nil
}
