// Package parsers loads the reconciliation core's inputs from CSV exports:
// payment records, residents and invoices.
//
// Real-world exports are messy, so the parsers tolerate header aliases,
// varying date formats, currency symbols in amounts and unknown extra
// columns. Row-level failures are collected rather than aborting the whole
// file; the caller decides how many bad rows are acceptable.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"expensas-reconciler/pkg/errors"
	"expensas-reconciler/pkg/logger"
)

// ParseConfig holds configuration common to all CSV parsers
type ParseConfig struct {
	HasHeader bool
	Delimiter rune
	// ColumnAliases maps alternative header names to canonical column names
	ColumnAliases map[string]string
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader: true,
		Delimiter: ',',
	}
}

// ParseStats summarizes a parsing run
type ParseStats struct {
	TotalRows   int
	ParsedRows  int
	SkippedRows int
	Errors      []error
}

// HasErrors reports whether any row failed to parse
func (s *ParseStats) HasErrors() bool {
	return len(s.Errors) > 0
}

// String returns a short summary of the parsing run
func (s *ParseStats) String() string {
	return fmt.Sprintf("ParseStats{Total: %d, Parsed: %d, Skipped: %d, Errors: %d}",
		s.TotalRows, s.ParsedRows, s.SkippedRows, len(s.Errors))
}

// baseParser provides header mapping and record iteration shared by the
// typed parsers.
type baseParser struct {
	config *ParseConfig
	log    logger.Logger
}

func newBaseParser(config *ParseConfig, component string) *baseParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &baseParser{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent(component),
	}
}

// canonicalColumn resolves a header cell to its canonical column name,
// applying trimming, lowercasing and the configured aliases.
func (bp *baseParser) canonicalColumn(header string) string {
	name := strings.ToLower(strings.TrimSpace(header))
	if bp.config.ColumnAliases != nil {
		if canonical, ok := bp.config.ColumnAliases[name]; ok {
			return canonical
		}
	}
	return name
}

// row is one CSV record with its header-resolved fields and source line
type row struct {
	line   int
	fields map[string]string
}

// get returns the trimmed value of a column, or "" when absent
func (r *row) get(column string) string {
	return strings.TrimSpace(r.fields[column])
}

// readRows opens the file and yields every data row through the callback.
// The callback returns an error to record the row as failed; parsing
// continues with the next row either way.
func (bp *baseParser) readRows(path string, requiredColumns []string, stats *ParseStats, handle func(*row) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return errors.FileError(errors.CodeFilePermission, path, err)
		}
		return errors.Wrap(err, errors.CategoryFile, errors.CodeFileNotFound, fmt.Sprintf("cannot open %s", path))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var columns []string
	line := 0

	if bp.config.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return errors.ParseError(errors.CodeInvalidFormat, path, 1, "", "", err)
		}
		line++

		for _, cell := range header {
			columns = append(columns, bp.canonicalColumn(cell))
		}

		for _, required := range requiredColumns {
			if !containsColumn(columns, required) {
				return errors.ParseError(errors.CodeMissingColumn, path, 1, required, "", nil)
			}
		}
	} else {
		columns = requiredColumns
	}

	bp.log.WithFields(logger.Fields{
		"file":    path,
		"columns": len(columns),
	}).Debug("Parsing CSV file")

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++

		if err != nil {
			stats.TotalRows++
			stats.SkippedRows++
			stats.Errors = append(stats.Errors,
				errors.ParseError(errors.CodeInvalidFormat, path, line, "", "", err))
			continue
		}

		if isEmptyRecord(record) {
			continue
		}

		stats.TotalRows++

		fields := make(map[string]string, len(columns))
		for i, value := range record {
			if i < len(columns) {
				fields[columns[i]] = value
			}
		}

		if err := handle(&row{line: line, fields: fields}); err != nil {
			stats.SkippedRows++
			stats.Errors = append(stats.Errors,
				errors.ParseError(errors.CodeInvalidData, path, line, "", "", err))
			continue
		}

		stats.ParsedRows++
	}

	return nil
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
