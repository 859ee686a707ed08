// Package csvcodec reads and writes the ledger's comma-separated table.
//
// Only the quoting form is supported: a field containing a comma, a double
// quote, or a line break is wrapped in double quotes and its internal quotes
// are doubled. There is no other escape sequence.
package csvcodec

import "strings"

// Record maps a column name to its cell value.
type Record map[string]string

// Parse decodes a document whose first row is the header. Rows are keyed by
// header name; cells beyond the header width are dropped and missing cells
// read as empty. Empty or header-only documents yield no records.
func Parse(text string) []Record {
	rows := readRows(text)
	if len(rows) < 2 {
		return []Record{}
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// Header returns the column names of a document, or nil when it has none.
func Header(text string) []string {
	rows := readRows(text)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// Serialize encodes records under the given columns. The header is always
// columns in order; fields absent from a record are written empty.
func Serialize(records []Record, columns []string) string {
	var b strings.Builder

	writeRow(&b, columns)
	for _, rec := range records {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = rec[col]
		}
		writeRow(&b, values)
	}

	return b.String()
}

func writeRow(b *strings.Builder, values []string) {
	// A single empty cell would otherwise serialize as a blank line, which
	// Parse skips.
	if len(values) == 1 && values[0] == "" {
		b.WriteString(`""` + "\n")
		return
	}

	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(v))
	}
	b.WriteByte('\n')
}

func escape(v string) string {
	if !strings.ContainsAny(v, ",\"\n\r") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// readRows splits text into rows of raw cells. Blank lines are skipped and a
// final row without a trailing newline is kept, as is one left open by an
// unterminated quote.
func readRows(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
		started  bool
	)

	endRow := func() {
		if started {
			row = append(row, field.String())
			rows = append(rows, row)
		}
		row = nil
		field.Reset()
		started = false
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inQuotes = true
			started = true
		case ',':
			row = append(row, field.String())
			field.Reset()
			started = true
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			field.WriteByte(c)
			started = true
		case '\n':
			endRow()
		default:
			field.WriteByte(c)
			started = true
		}
	}
	endRow()

	return rows
}
