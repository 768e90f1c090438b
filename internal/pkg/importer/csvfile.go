package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RowError flags one unusable input row. It aborts that row only, never the
// run.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

// DecodeFile parses the raw bytes of an uploaded delimited file into a Data
// set. The first non-empty line is the field-name header; the delimiter is a
// comma unless the header contains none, in which case a semicolon. A
// leading UTF-8 byte order mark is stripped. Rows whose field count does not
// match the header are flagged and skipped, decoding of later rows
// continues.
func DecodeFile(data []byte) (*Data, []RowError, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, errors.New("import file is empty")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("could not read header row: %w", err)
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
	}

	var rows [][]string
	var rowErrs []RowError
	line := 1 // header
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		rows = append(rows, record)
	}

	return NewData(header, rows), rowErrs, nil
}

// detectDelimiter inspects the first non-empty line: comma unless the line
// contains none, then semicolon.
func detectDelimiter(data []byte) rune {
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if bytes.ContainsRune(line, ',') {
			return ','
		}
		return ';'
	}
	return ','
}
