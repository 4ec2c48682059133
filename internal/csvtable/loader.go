// Package csvtable reads catalog CSV files into header-keyed rows.
package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/models"
)

// Table is a parsed CSV file: the header in file order plus every
// well-formed data row.
type Table struct {
	Header []string
	Rows   []models.Row
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func readHeader(cr *csv.Reader) ([]string, error) {
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return header, nil
}

// buildRow turns one record into a Row. Records that failed to read or
// whose field count does not match the header are dropped with a
// warning rather than failing the import, matching how ragged legacy
// exports are handled.
func buildRow(header, record []string, err error, line int, log *logrus.Entry) (models.Row, bool) {
	if err != nil {
		if log != nil {
			log.WithError(err).WithField("line", line).Warn("Skipping unreadable csv row")
		}
		return models.Row{}, false
	}
	if len(record) != len(header) {
		if log != nil {
			log.WithFields(logrus.Fields{
				"line":     line,
				"expected": len(header),
				"got":      len(record),
			}).Warn("Skipping csv row with mismatched column count")
		}
		return models.Row{}, false
	}
	fields := make(map[string]string, len(header))
	for i, h := range header {
		fields[h] = record[i]
	}
	return models.Row{Line: line, Fields: fields}, true
}

// Parse reads an entire CSV stream.
func Parse(r io.Reader, log *logrus.Entry) (*Table, error) {
	cr := newReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	table := &Table{Header: header}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if row, ok := buildRow(header, record, err, line, log); ok {
			table.Rows = append(table.Rows, row)
		}
	}
	return table, nil
}

// ParseSlice reads rows [offset, offset+limit) of a CSV stream without
// materializing anything outside that window, so chunked callers can
// walk files larger than memory. The scan continues past the window to
// count the remaining well-formed rows; the total comes back without a
// second pass. limit <= 0 means to the end of the file.
func ParseSlice(r io.Reader, offset, limit int, log *logrus.Entry) ([]models.Row, int, error) {
	cr := newReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}

	var rows []models.Row
	line := 1
	total := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		row, ok := buildRow(header, record, err, line, log)
		if !ok {
			continue
		}
		if total >= offset && (limit <= 0 || total < offset+limit) {
			rows = append(rows, row)
		}
		total++
	}
	return rows, total, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
