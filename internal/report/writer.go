package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Format selects the report encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts csv or json, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// DefaultPath is the report file name for envt.
func DefaultPath(envt string, format Format) string {
	ext := "csv"
	if format == FormatJSON {
		ext = "json"
	}
	return fmt.Sprintf("auto_testrunners_report_%s.%s", envt, ext)
}

// Options controls which columns are written and how.
type Options struct {
	Format        Format
	LimitFieldset bool
	// Fields replaces DefaultFieldset when LimitFieldset is set.
	Fields []string
}

// Columns resolves the column list for rows: the declared fieldset when
// limited, otherwise every key in first-seen order. Unlimited rows with no
// fields at all fall back to the declared fieldset so a header is still written.
func (o Options) Columns(rows Rows) []string {
	if !o.LimitFieldset {
		if cols := rows.Columns(); len(cols) > 0 {
			return cols
		}
	}
	if len(o.Fields) > 0 {
		return o.Fields
	}
	return DefaultFieldset()
}

// WriteFile writes rows to path in a single pass.
func WriteFile(path string, rows Rows, opts Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("write report %q: %w", path, cerr)
		}
	}()

	if err := Write(f, rows, opts); err != nil {
		return fmt.Errorf("write report %q: %w", path, err)
	}
	return nil
}

// Write encodes rows to w according to opts.
func Write(w io.Writer, rows Rows, opts Options) error {
	columns := opts.Columns(rows)
	switch opts.Format {
	case "", FormatCSV:
		return WriteCSV(w, rows, columns)
	case FormatJSON:
		return WriteJSON(w, rows, columns)
	default:
		return fmt.Errorf("unsupported format %q", opts.Format)
	}
}

// WriteCSV writes a header of columns followed by one record per row.
// Fields a row lacks are left blank; fields outside columns are dropped. With
// no columns nothing is written.
func WriteCSV(w io.Writer, rows Rows, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			v, _ := row.Lookup(c)
			record[i] = formatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rows as an indented array of objects restricted to columns.
func WriteJSON(w io.Writer, rows Rows, columns []string) error {
	projected := make([]*Row, 0, len(rows))
	for _, row := range rows {
		projected = append(projected, row.Project(columns))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(projected)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
