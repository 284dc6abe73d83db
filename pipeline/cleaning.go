package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joeharson/mushroom-classification/ml"
)

// Row is one record of the reference dataset
type Row struct {
	Line   int
	Header []string
	Fields []string
}

// Get returns the value of a column, or "" if the column does not exist
func (r *Row) Get(column string) string {
	for i, name := range r.Header {
		if name == column && i < len(r.Fields) {
			return r.Fields[i]
		}
	}
	return ""
}

// CleaningRule validates or corrects one row. Returning an error rejects the row.
type CleaningRule interface {
	Apply(*Row) (*Row, error)
	Name() string
}

// QualityIssue describes a rejected row
type QualityIssue struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"` // low, medium, high
	Message   string    `json:"message"`
	Line      int       `json:"line"`
	Timestamp time.Time `json:"timestamp"`
}

// CleaningStats summarizes one cleaning run
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Rejected       int64            `json:"rejected"`
	Corrected      int64            `json:"corrected"`
	Issues         map[string]int64 `json:"issues"`
	LastClean      time.Time        `json:"last_clean"`
}

// severity is implemented by rules whose issues are not high severity
type severity interface {
	Severity() string
}

// DataCleaner runs the cleaning rules over reference rows
type DataCleaner struct {
	rules  []CleaningRule
	issues []QualityIssue
	stats  CleaningStats
	logger *zap.Logger
}

// NewDataCleaner creates a cleaner with the default rules for catalog
func NewDataCleaner(catalog *ml.Catalog, logger *zap.Logger) *DataCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleaner := &DataCleaner{
		stats:  CleaningStats{Issues: make(map[string]int64)},
		logger: logger,
	}

	cleaner.AddRule(NewTrimRule())
	cleaner.AddRule(NewColumnCountRule())
	cleaner.AddRule(NewKnownCodeRule(catalog))
	cleaner.AddRule(NewDuplicateDetectionRule())

	return cleaner
}

// AddRule appends a rule; rules run in the order they were added
func (dc *DataCleaner) AddRule(rule CleaningRule) {
	dc.rules = append(dc.rules, rule)
	dc.logger.Debug("Added cleaning rule", zap.String("rule", rule.Name()))
}

// Clean returns the rows that passed every rule and the issues of the rejected ones.
// A row is rejected on its first failing rule.
func (dc *DataCleaner) Clean(rows []*Row) ([]*Row, []QualityIssue) {
	var cleaned []*Row
	var issues []QualityIssue

	for _, row := range rows {
		dc.stats.TotalProcessed++

		original := strings.Join(row.Fields, ",")
		var rowIssue *QualityIssue

		for _, rule := range dc.rules {
			next, err := rule.Apply(row)
			if err != nil {
				level := "high"
				if s, ok := rule.(severity); ok {
					level = s.Severity()
				}
				rowIssue = &QualityIssue{
					Type:      rule.Name(),
					Severity:  level,
					Message:   err.Error(),
					Line:      row.Line,
					Timestamp: time.Now(),
				}
				dc.stats.Issues[rule.Name()]++
				break
			}
			if next != nil {
				row = next
			}
		}

		if rowIssue != nil {
			dc.stats.Rejected++
			issues = append(issues, *rowIssue)
			continue
		}
		if strings.Join(row.Fields, ",") != original {
			dc.stats.Corrected++
		}
		dc.stats.Passed++
		cleaned = append(cleaned, row)
	}

	dc.issues = append(dc.issues, issues...)
	dc.stats.LastClean = time.Now()
	return cleaned, issues
}

// GetStats returns the statistics collected so far
func (dc *DataCleaner) GetStats() CleaningStats {
	stats := dc.stats
	stats.Issues = make(map[string]int64, len(dc.stats.Issues))
	for k, v := range dc.stats.Issues {
		stats.Issues[k] = v
	}
	return stats
}

// GetIssues returns the most recent issues, at most limit (all when limit <= 0)
func (dc *DataCleaner) GetIssues(limit int) []QualityIssue {
	if limit <= 0 || limit > len(dc.issues) {
		limit = len(dc.issues)
	}

	issues := make([]QualityIssue, limit)
	copy(issues, dc.issues[len(dc.issues)-limit:])
	return issues
}

// ============ rules ============

// TrimRule strips whitespace and lower-cases every field
type TrimRule struct{}

func NewTrimRule() *TrimRule { return &TrimRule{} }

func (r *TrimRule) Name() string { return "trim" }

func (r *TrimRule) Apply(row *Row) (*Row, error) {
	changed := false
	fields := make([]string, len(row.Fields))
	for i, f := range row.Fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
		if fields[i] != f {
			changed = true
		}
	}
	if !changed {
		return row, nil
	}
	return &Row{Line: row.Line, Header: row.Header, Fields: fields}, nil
}

// ColumnCountRule rejects rows whose width differs from the header
type ColumnCountRule struct{}

func NewColumnCountRule() *ColumnCountRule { return &ColumnCountRule{} }

func (r *ColumnCountRule) Name() string { return "column_count" }

func (r *ColumnCountRule) Apply(row *Row) (*Row, error) {
	if len(row.Fields) != len(row.Header) {
		return nil, fmt.Errorf("line %d has %d fields, header has %d", row.Line, len(row.Fields), len(row.Header))
	}
	return row, nil
}

// KnownCodeRule rejects rows holding codes missing from the column legend.
// Columns the catalog does not know are not checked.
type KnownCodeRule struct {
	catalog *ml.Catalog
}

func NewKnownCodeRule(catalog *ml.Catalog) *KnownCodeRule {
	return &KnownCodeRule{catalog: catalog}
}

func (r *KnownCodeRule) Name() string { return "known_code" }

func (r *KnownCodeRule) Severity() string { return "medium" }

func (r *KnownCodeRule) Apply(row *Row) (*Row, error) {
	for i, column := range row.Header {
		if column != r.catalog.ClassColumn() {
			if _, ok := r.catalog.Index(column); !ok {
				continue
			}
		}
		if !r.catalog.KnownCode(column, row.Fields[i]) {
			return nil, fmt.Errorf("line %d: unknown code %q for %s", row.Line, row.Fields[i], column)
		}
	}
	return row, nil
}

// DuplicateDetectionRule rejects rows identical to an earlier row
type DuplicateDetectionRule struct {
	seenMap map[string]int
}

func NewDuplicateDetectionRule() *DuplicateDetectionRule {
	return &DuplicateDetectionRule{seenMap: make(map[string]int)}
}

func (r *DuplicateDetectionRule) Name() string { return "duplicate_detection" }

func (r *DuplicateDetectionRule) Severity() string { return "low" }

func (r *DuplicateDetectionRule) Apply(row *Row) (*Row, error) {
	key := strings.Join(row.Fields, ",")
	if first, exists := r.seenMap[key]; exists {
		return nil, fmt.Errorf("line %d duplicates line %d", row.Line, first)
	}
	r.seenMap[key] = row.Line
	return row, nil
}
