// Package csvdb loads tab separated metric tables into a file-backed sqlite
// database, one table per metric set keyed by sample_id. Loading always
// replaces the target table so that re-running a pipeline never mixes stale
// rows into fresh results.
package csvdb

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// DB wraps the project sqlite database.
type DB struct {
	*sql.DB
}

// Open opens or creates the database file.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

// ToTable derives a table name from a .load marker path.
func ToTable(loadPath string) string {
	return strings.TrimSuffix(filepath.Base(loadPath), ".load")
}

// sanitizeColumn rewrites a header field into a legal column name, e.g.
// "All_Reads.normalized_coverage" -> "All_Reads_normalized_coverage".
func sanitizeColumn(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

type table struct {
	columns []string
	rows    [][]string
}

func readTable(path string) (*table, error) {
	file := fileio.EasyOpen(path)
	header, done := fileio.EasyNextRealLine(file)
	if done {
		file.Close()
		return nil, fmt.Errorf("%s: empty table", path)
	}
	answer := &table{}
	for _, col := range strings.Split(header, "\t") {
		answer.columns = append(answer.columns, sanitizeColumn(col))
	}
	var line string
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		fields := strings.Split(line, "\t")
		if len(fields) != len(answer.columns) {
			file.Close()
			return nil, fmt.Errorf("%s: row has %d fields, header has %d:\n%s", path, len(fields), len(answer.columns), line)
		}
		answer.rows = append(answer.rows, fields)
	}
	err := file.Close()
	exception.PanicOnErr(err)
	return answer, nil
}

// columnTypes assigns NUMERIC affinity to columns whose every non-empty
// value parses as a number, TEXT otherwise.
func columnTypes(t *table) []string {
	types := make([]string, len(t.columns))
	for i := range t.columns {
		numeric := true
		seen := false
		for _, row := range t.rows {
			if row[i] == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(row[i], 64); err != nil {
				numeric = false
				break
			}
		}
		if numeric && seen {
			types[i] = "NUMERIC"
		} else {
			types[i] = "TEXT"
		}
	}
	return types
}

func (db *DB) createAndFill(name string, t *table, index []string) error {
	if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, name)); err != nil {
		return err
	}
	types := columnTypes(t)
	defs := make([]string, len(t.columns))
	for i := range t.columns {
		defs[i] = fmt.Sprintf(`"%s" %s`, t.columns[i], types[i])
	}
	ddl := fmt.Sprintf(`CREATE TABLE "%s" (%s)`, name, strings.Join(defs, ", "))
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(t.columns)), ",")
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO "%s" VALUES (%s)`, name, placeholders))
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, row := range t.rows {
		args := make([]interface{}, len(row))
		for i := range row {
			if row[i] == "" {
				args[i] = nil
			} else {
				args[i] = row[i]
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, col := range index {
		idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "idx_%s_%s" ON "%s" ("%s")`, name, col, name, col)
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}
	return nil
}

func writeMarker(loadPath, tableName string) error {
	out := fileio.EasyCreate(loadPath)
	_, err := fmt.Fprintf(out, "%s\n", tableName)
	exception.PanicOnErr(err)
	return out.Close()
}

// Load reads one delimited file into the table named by the .load marker
// path, then writes the marker.
func (db *DB) Load(tsv, loadPath string, index ...string) error {
	t, err := readTable(tsv)
	if err != nil {
		return err
	}
	name := ToTable(loadPath)
	if err := db.createAndFill(name, t, index); err != nil {
		return err
	}
	return writeMarker(loadPath, name)
}

// ConcatenateAndLoad concatenates per-sample tables into one table named by
// the .load marker path. The cat column (normally sample_id) is derived from
// each file name by the first capture group of filenameRegex and prepended
// to every row. All files must share one header.
func (db *DB) ConcatenateAndLoad(files []string, loadPath, filenameRegex, cat string, index ...string) error {
	if len(files) == 0 {
		return fmt.Errorf("%s: no files to load", loadPath)
	}
	re, err := regexp.Compile(filenameRegex)
	if err != nil {
		return err
	}

	combined := &table{}
	for _, file := range files {
		m := re.FindStringSubmatch(file)
		if len(m) < 2 {
			return fmt.Errorf("%s does not match %s", file, filenameRegex)
		}
		t, err := readTable(file)
		if err != nil {
			return err
		}
		if combined.columns == nil {
			combined.columns = append([]string{sanitizeColumn(cat)}, t.columns...)
		} else if len(t.columns)+1 != len(combined.columns) {
			return fmt.Errorf("%s: header does not match earlier files", file)
		}
		for _, row := range t.rows {
			combined.rows = append(combined.rows, append([]string{m[1]}, row...))
		}
	}

	name := ToTable(loadPath)
	if err := db.createAndFill(name, combined, index); err != nil {
		return err
	}
	return writeMarker(loadPath, name)
}

// QueryToTSV runs a query and writes the result as tab separated text with a
// header row. NULLs become empty fields.
func (db *DB) QueryToTSV(query, outPath string) error {
	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	out := fileio.EasyCreate(outPath)
	_, err = fmt.Fprintln(out, strings.Join(columns, "\t"))
	exception.PanicOnErr(err)

	values := make([]sql.NullString, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	fields := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			out.Close()
			return err
		}
		for i := range values {
			if values[i].Valid {
				fields[i] = values[i].String
			} else {
				fields[i] = ""
			}
		}
		_, err = fmt.Fprintln(out, strings.Join(fields, "\t"))
		exception.PanicOnErr(err)
	}
	if err := rows.Err(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
