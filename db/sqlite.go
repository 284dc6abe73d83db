package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ReferenceTable holds the reference dataset rows.
const ReferenceTable = "mushrooms"

// rowIDColumn keeps insertion order. Dataset headers may not use it.
const rowIDColumn = "_rowid"

// ReferenceStore is a SQLite copy of the reference dataset
type ReferenceStore struct {
	database *sql.DB
	path     string
}

// Open opens (or creates) the SQLite reference database at path
func Open(path string) (*ReferenceStore, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, err
	}
	return &ReferenceStore{database: database, path: path}, nil
}

// Close closes the database
func (s *ReferenceStore) Close() error {
	return s.database.Close()
}

// Path returns the database file
func (s *ReferenceStore) Path() string {
	return s.path
}

// ImportRows replaces the reference table with the given rows. Every column is stored as TEXT.
func (s *ReferenceStore) ImportRows(header []string, rows [][]string) error {
	if len(header) == 0 {
		return errors.New("header is empty")
	}

	columns := make([]string, len(header))
	for i, name := range header {
		if name == rowIDColumn {
			return fmt.Errorf("column name %q is reserved", rowIDColumn)
		}
		columns[i] = quoteIdent(name) + " TEXT"
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")

	tx, err := s.database.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + quoteIdent(ReferenceTable)); err != nil {
		tx.Rollback()
		return err
	}
	create := fmt.Sprintf(`CREATE TABLE %s (%s INTEGER PRIMARY KEY AUTOINCREMENT, %s)`,
		quoteIdent(ReferenceTable), quoteIdent(rowIDColumn), strings.Join(columns, ", "))
	if _, err := tx.Exec(create); err != nil {
		tx.Rollback()
		return err
	}

	quoted := make([]string, len(header))
	for i, name := range header {
		quoted[i] = quoteIdent(name)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(ReferenceTable), strings.Join(quoted, ", "), placeholders))
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(header))
	for n, row := range rows {
		if len(row) != len(header) {
			tx.Rollback()
			return fmt.Errorf("row %d has %d columns, want %d", n+1, len(row), len(header))
		}
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// Rows returns the header and all rows in insertion order
func (s *ReferenceStore) Rows() ([]string, [][]string, error) {
	rows, err := s.database.Query(fmt.Sprintf(`SELECT * FROM %s ORDER BY %s`,
		quoteIdent(ReferenceTable), quoteIdent(rowIDColumn)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	if len(columns) < 2 {
		return nil, nil, errors.New("reference table has no data columns")
	}

	values := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	var out [][]string
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}
		// skip the row id column
		row := make([]string, len(columns)-1)
		for i := 1; i < len(columns); i++ {
			row[i-1] = values[i].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns[1:], out, nil
}

// DistinctValues queries the distinct values of one column
func (s *ReferenceStore) DistinctValues(column string) ([]string, error) {
	rows, err := s.database.Query(fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s`,
		quoteIdent(column), quoteIdent(ReferenceTable), quoteIdent(column), quoteIdent(column)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Count returns the number of stored rows
func (s *ReferenceStore) Count() (int, error) {
	var n int
	err := s.database.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(ReferenceTable))).Scan(&n)
	return n, err
}

// quoteIdent quotes an identifier; feature names contain hyphens
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
