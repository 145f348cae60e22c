// Package parsers turns the raw delimited text of the CVM registry tables
// into typed records. Parsing is purely functional: no I/O, no caching,
// and the same input always yields the same record sequence. Malformed
// rows are skipped and reported, never fatal.
package parsers

import (
	"bufio"
	"io"
	"strings"

	"github.com/consolida/consolida"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Delimiter used by every CVM table.
const delimiter = ";"

// Result carries what a table parse produced besides the records.
type Result struct {
	// Lines read, excluding the header.
	Lines int
	// Rows skipped as malformed.
	Skipped int
}

// rowFunc receives the header position map and one data row. Returning a
// *consolida.MalformedRecordError skips the row; any other error aborts.
type rowFunc func(header map[string]int, fields []string, line int) error

// scan loops through the table line by line. The first non-empty line is
// the header; its column names resolve field positions so that column
// reordering between monthly snapshots does not break parsing.
func scan(r io.Reader, log zerolog.Logger, fn rowFunc) (Result, error) {
	var res Result
	header := make(map[string]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, delimiter)

		if len(header) == 0 {
			for i, h := range fields {
				header[strings.TrimSpace(h)] = i
			}
			continue
		}

		res.Lines++
		if len(fields) != len(header) {
			res.Skipped++
			merr := &consolida.MalformedRecordError{
				Line:   line,
				Reason: "número de campos inválido",
			}
			log.Warn().Int("line", line).Int("fields", len(fields)).
				Int("want", len(header)).Msg(merr.Reason)
			continue
		}

		if err := fn(header, fields, line); err != nil {
			var merr *consolida.MalformedRecordError
			if errors.As(err, &merr) {
				res.Skipped++
				log.Warn().Int("line", merr.Line).Msg(merr.Reason)
				continue
			}
			return res, err
		}
	}

	if err := scanner.Err(); err != nil {
		return res, errors.Wrap(err, "erro ao ler tabela")
	}
	return res, nil
}

// field returns the trimmed value of a named column, or "" when the table
// does not carry the column at all.
func field(header map[string]int, fields []string, name string) string {
	i, ok := header[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// has reports whether the header carries all the named columns. Used to
// reject a reader that is not the expected table.
func has(header map[string]int, names ...string) bool {
	for _, n := range names {
		if _, ok := header[n]; !ok {
			return false
		}
	}
	return true
}
