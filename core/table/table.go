// Package table reads the input CSV files shared by every calibration table.
// Each file starts with a template row naming the table and its version,
// followed by the column header and the data grid.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/fleeteffects/core/logger"
)

var (
	// ErrMissingInputFile is returned when an input path does not exist.
	ErrMissingInputFile = errors.New("missing input file")
	// ErrBadTemplateHeader is returned for template name/version mismatches
	// and missing required columns.
	ErrBadTemplateHeader = errors.New("bad template header")
)

// Template describes the expected identity and columns of an input file.
type Template struct {
	Name     string
	Version  string
	Columns  []string
	Optional []string
}

func (t Template) String() string { return t.Name + " v" + t.Version }

// Table is a loaded data grid addressed by column name.
type Table struct {
	Template Template
	Path     string
	ModTime  time.Time
	Comment  string
	header   map[string]int
	rows     [][]string
}

// Read opens path and parses it against tmpl.
func Read(path string, tmpl Template) (*Table, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingInputFile, path, tmpl)
		}
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	t, err := Parse(f, tmpl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path
	t.ModTime = st.ModTime()
	return t, nil
}

// Parse reads a template-headed CSV stream.
func Parse(r io.Reader, tmpl Template) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading template row: %v", ErrBadTemplateHeader, tmpl, err)
	}
	comment, err := checkTemplateRow(first, tmpl)
	if err != nil {
		return nil, err
	}
	cols, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading column header: %v", ErrBadTemplateHeader, tmpl, err)
	}
	t := &Table{Template: tmpl, Comment: comment, header: make(map[string]int, len(cols))}
	for i, c := range cols {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if c == "" {
			continue
		}
		t.header[c] = i
	}
	var missing []string
	for _, c := range tmpl.Columns {
		if _, ok := t.header[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s: missing columns %v", ErrBadTemplateHeader, tmpl, missing)
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func checkTemplateRow(row []string, tmpl Template) (string, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(strings.TrimPrefix(row[i], "\ufeff"))
		}
		return ""
	}
	if cell(0) != "input_template_name" || cell(2) != "input_template_version" {
		return "", fmt.Errorf("%w: %s: first row must name input_template_name and input_template_version", ErrBadTemplateHeader, tmpl)
	}
	if cell(1) != tmpl.Name {
		return "", fmt.Errorf("%w: template name %q, want %q", ErrBadTemplateHeader, cell(1), tmpl.Name)
	}
	if !sameVersion(cell(3), tmpl.Version) {
		return "", fmt.Errorf("%w: %s version %q, want %q", ErrBadTemplateHeader, tmpl.Name, cell(3), tmpl.Version)
	}
	return cell(4), nil
}

func sameVersion(got, want string) bool {
	g, gerr := strconv.ParseFloat(got, 64)
	w, werr := strconv.ParseFloat(want, 64)
	if gerr == nil && werr == nil {
		return g == w
	}
	return got == want
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether the file carries column c.
func (t *Table) HasColumn(c string) bool {
	_, ok := t.header[c]
	return ok
}

// Columns returns the header names present in the file.
func (t *Table) Columns() []string {
	out := make([]string, 0, len(t.header))
	for c := range t.header {
		out = append(out, c)
	}
	return out
}

// Each calls fn for every data row. The first conversion error recorded on the
// row, or returned by fn, stops the iteration.
func (t *Table) Each(fn func(r *Row) error) error {
	for i, rec := range t.rows {
		r := &Row{t: t, cells: rec, line: i + 3}
		if err := fn(r); err != nil {
			return fmt.Errorf("%s line %d: %w", t.Template.Name, r.line, err)
		}
		if r.err != nil {
			return fmt.Errorf("%s line %d: %w", t.Template.Name, r.line, r.err)
		}
	}
	return nil
}

// Row is a single data row. Conversion helpers record the first error instead
// of returning it so loaders read naturally.
type Row struct {
	t     *Table
	cells []string
	line  int
	err   error
}

// Err returns the first conversion error.
func (r *Row) Err() error { return r.err }

// Line is the 1-based line number in the source file.
func (r *Row) Line() int { return r.line }

// Has reports whether column c exists and is non-empty on this row.
func (r *Row) Has(c string) bool {
	return strings.TrimSpace(r.raw(c)) != ""
}

func (r *Row) raw(c string) string {
	i, ok := r.t.header[c]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// String returns the trimmed cell value.
func (r *Row) String(c string) string { return strings.TrimSpace(r.raw(c)) }

// Float parses a numeric cell. Empty cells and "nan" read as zero.
func (r *Row) Float(c string) float64 {
	s := r.String(c)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(fmt.Errorf("column %s: %w", c, err))
		return 0
	}
	return v
}

// Int parses an integer cell, accepting float notation such as "2025.0".
func (r *Row) Int(c string) int {
	s := r.String(c)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		r.fail(fmt.Errorf("column %s: %q is not an integer", c, s))
		return 0
	}
	return int(f)
}

// Fail records an error raised by the caller's own validation.
func (r *Row) Fail(err error) { r.fail(err) }

func (r *Row) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Loader reads tables and logs each load with the file's modification time.
type Loader struct {
	Log logger.Logger
}

// Load reads path against tmpl.
func (l Loader) Load(path string, tmpl Template) (*Table, error) {
	t, err := Read(path, tmpl)
	if err != nil {
		if l.Log != nil {
			l.Log.Errorf("%v", err)
		}
		return nil, err
	}
	if l.Log != nil {
		l.Log.Infof("loaded %s from %s (modified %s, %d rows)", tmpl, path, t.ModTime.Format(time.RFC3339), t.Len())
	}
	return t, nil
}
