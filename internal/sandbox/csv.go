package sandbox

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/resource"
)

// maxImportErrors caps the row messages returned with an import result.
const maxImportErrors = 100

// Import creates one record per CSV row. Header cells match field names or
// labels case-insensitively; unknown columns are ignored. Rows are stored
// independently so a bad row never rolls back good ones.
func (s *Service) Import(kind string, src io.Reader) (resource.ImportResult, error) {
	var result resource.ImportResult

	def, err := definition(kind)
	if err != nil {
		return result, err
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return result, internal.NewValidationError("File is empty", internal.ErrCodeInvalidFile)
	}
	if err != nil {
		return result, internal.NewValidationError("File is not valid CSV", internal.ErrCodeInvalidFile).WithCause(err)
	}

	columns := make([]string, len(header))
	matched := 0
	for i, cell := range header {
		columns[i] = columnField(def, cell)
		if columns[i] != "" {
			matched++
		}
	}
	if matched == 0 {
		return result, internal.NewValidationError(
			fmt.Sprintf("No recognised columns, expected: %s", strings.Join(def.Schema.Names(), ", ")),
			internal.ErrCodeInvalidFile)
	}

	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.TotalRows++
			result.FailedCount++
			addImportError(&result, parseErr.StartLine, parseErr.Err.Error())
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to read import file: %w", err)
		}
		row, _ := reader.FieldPos(0)
		if blank(cells) {
			continue
		}
		result.TotalRows++

		input := map[string]any{}
		for i, cell := range cells {
			if i < len(columns) && columns[i] != "" {
				input[columns[i]] = cell
			}
		}

		fields := normalize(def, input)
		if err := checkFields(s.repo, def, fields, 0); err != nil {
			result.FailedCount++
			if appErr, ok := internal.IsAppError(err); ok && len(appErr.Fields) > 0 {
				addImportError(&result, row, fieldSummary(def, appErr.Fields))
				continue
			}
			return result, err
		}

		r := &Record{Kind: def.Kind, Fields: fields, Derived: map[string]any{}}
		if err := save(s.repo, def, r, true); err != nil {
			return result, err
		}
		result.ImportedCount++
	}

	s.logger.Info("RecordService: import finished", "resource", kind,
		"total", result.TotalRows, "imported", result.ImportedCount, "failed", result.FailedCount)
	return result, nil
}

func addImportError(result *resource.ImportResult, row int, message string) {
	if len(result.Errors) < maxImportErrors {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", row, message))
	}
}

func columnField(def resource.Definition, cell string) string {
	cell = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
	for _, f := range def.Schema.Fields {
		if strings.EqualFold(cell, f.Name) || strings.EqualFold(cell, f.Label) {
			return f.Name
		}
	}
	return ""
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ExportRows renders every record matching q, ignoring pagination, as CSV
// rows with a header first.
func (s *Service) ExportRows(kind string, q resource.Query) ([][]string, error) {
	def, err := definition(kind)
	if err != nil {
		return nil, err
	}
	records, err := load(s.repo, def)
	if err != nil {
		return nil, err
	}
	matched := match(def, records, q)
	order(def, matched, q.SortColumn, q.SortDirection)

	header := append([]string{"id"}, def.Schema.Names()...)
	if def.SystemFlag != "" {
		header = append(header, def.SystemFlag)
	}
	header = append(header, def.UsageFields...)
	if def.Kind == resource.KindLocation {
		header = append(header, "siteName")
	}

	rows := make([][]string, 0, len(matched)+1)
	rows = append(rows, header)
	for _, r := range matched {
		doc := r.Document(def)
		line := make([]string, len(header))
		for i, column := range header {
			line[i] = text(doc[column])
		}
		rows = append(rows, line)
	}

	s.logger.Info("RecordService: export prepared", "resource", kind, "rows", len(matched))
	return rows, nil
}
