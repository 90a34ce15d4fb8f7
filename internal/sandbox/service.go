package sandbox

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/core/common/validation"
	"github.com/frahmantamala/asset-management/internal/resource"
)

var ErrRecordNotFound = internal.NewHTTPError(404, "Record not found")

type ListResult struct {
	Data       []map[string]any    `json:"data"`
	Pagination resource.Pagination `json:"pagination"`
}

// Service implements the resource collections on top of one record table.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func definition(kind string) (resource.Definition, error) {
	def, ok := resource.Lookup(kind)
	if !ok {
		return resource.Definition{}, internal.NewHTTPError(404, fmt.Sprintf("Unknown resource %q", kind))
	}
	return def, nil
}

// ParseID rejects anything that is not a positive integer.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrRecordNotFound
	}
	return id, nil
}

func load(repo RepositoryAPI, def resource.Definition) ([]*Record, error) {
	rows, err := repo.ListByKind(def.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", def.Kind, err)
	}
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		r, err := FromDataModel(row)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := derive(repo, def, records); err != nil {
		return nil, fmt.Errorf("failed to derive %s usage: %w", def.Kind, err)
	}
	return records, nil
}

func getRecord(repo RepositoryAPI, def resource.Definition, id int64) (*Record, error) {
	row, err := repo.GetByID(def.Kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", def.Kind, id, err)
	}
	if row == nil {
		return nil, ErrRecordNotFound
	}
	r, err := FromDataModel(row)
	if err != nil {
		return nil, err
	}
	if err := derive(repo, def, []*Record{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) List(kind string, q resource.Query) (*ListResult, error) {
	def, err := definition(kind)
	if err != nil {
		return nil, err
	}
	if appErr := validation.ValidatePageSize(q.PageSize, resource.PageSizes); appErr != nil {
		return nil, appErr
	}

	records, err := load(s.repo, def)
	if err != nil {
		return nil, err
	}
	matched := match(def, records, q)
	order(def, matched, q.SortColumn, q.SortDirection)

	page := window(matched, q.Page, q.PageSize)
	data := make([]map[string]any, 0, len(page))
	for _, r := range page {
		data = append(data, r.Document(def))
	}

	s.logger.Debug("RecordService: listed records", "resource", kind, "total", len(matched), "page", q.Page)
	return &ListResult{
		Data:       data,
		Pagination: resource.NewPagination(q.Page, q.PageSize, len(matched)),
	}, nil
}

func (s *Service) Get(kind string, id int64) (map[string]any, error) {
	def, err := definition(kind)
	if err != nil {
		return nil, err
	}
	r, err := getRecord(s.repo, def, id)
	if err != nil {
		return nil, err
	}
	return r.Document(def), nil
}

func (s *Service) Create(kind string, input map[string]any) (map[string]any, error) {
	def, err := definition(kind)
	if err != nil {
		return nil, err
	}

	fields := normalize(def, input)
	if err := checkFields(s.repo, def, fields, 0); err != nil {
		return nil, err
	}

	r := &Record{Kind: def.Kind, Fields: fields, Derived: map[string]any{}}
	if err := save(s.repo, def, r, true); err != nil {
		return nil, err
	}
	s.logger.Info("RecordService: record created", "resource", kind, "id", r.ID)
	return r.Document(def), nil
}

// Update replaces the writable fields of a record. Server managed values
// survive and locked fields of system records cannot change.
func (s *Service) Update(kind string, id int64, input map[string]any) (map[string]any, error) {
	def, err := definition(kind)
	if err != nil {
		return nil, err
	}
	existing, err := getRecord(s.repo, def, id)
	if err != nil {
		return nil, err
	}

	fields := normalize(def, input)
	if existing.System {
		for _, name := range def.Schema.LockedFields() {
			current, had := existing.Fields[name]
			next, ok := fields[name]
			if !ok {
				if had {
					fields[name] = current
				}
				continue
			}
			if text(next) != text(current) {
				field, _ := def.Schema.Field(name)
				return nil, internal.NewBusinessRuleError(
					fmt.Sprintf("%s cannot be changed on system records", field.Label),
					internal.ErrCodeSystemOwned)
			}
		}
	}
	if err := checkFields(s.repo, def, fields, id); err != nil {
		return nil, err
	}

	merged := map[string]any{}
	for k, v := range existing.Fields {
		if _, writable := def.Schema.Field(k); !writable {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	existing.Fields = merged

	if err := save(s.repo, def, existing, false); err != nil {
		return nil, err
	}
	s.logger.Info("RecordService: record updated", "resource", kind, "id", id)
	return existing.Document(def), nil
}

func save(repo RepositoryAPI, def resource.Definition, r *Record, create bool) error {
	model, err := ToDataModel(r, def)
	if err != nil {
		return err
	}
	if create {
		err = repo.Create(model)
	} else {
		err = repo.Update(model)
	}
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", def.Kind, err)
	}
	r.ID = model.ID
	r.CreatedAt = model.CreatedAt
	r.UpdatedAt = model.UpdatedAt
	return derive(repo, def, []*Record{r})
}

func (s *Service) Delete(kind string, id int64) error {
	def, err := definition(kind)
	if err != nil {
		return err
	}
	if err := deleteOne(s.repo, def, id); err != nil {
		return err
	}
	s.logger.Info("RecordService: record deleted", "resource", kind, "id", id)
	return nil
}

// BulkDelete removes every id or none of them.
func (s *Service) BulkDelete(kind string, ids []resource.ID) error {
	def, err := definition(kind)
	if err != nil {
		return err
	}

	validator := validation.NewValidator()
	validator.Field("ids", len(ids)).MinInt(1, internal.ErrCodeValidationFailed)
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	parsed := make([]int64, 0, len(ids))
	for _, raw := range ids {
		id, err := ParseID(raw.String())
		if err != nil {
			return internal.NewValidationError(fmt.Sprintf("Invalid id %q", raw), internal.ErrCodeValidationFailed)
		}
		parsed = append(parsed, id)
	}

	err = s.repo.WithTx(func(tx RepositoryAPI) error {
		for _, id := range parsed {
			if err := deleteOne(tx, def, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("RecordService: bulk delete rolled back", "resource", kind, "count", len(parsed), "error", err)
		return err
	}
	s.logger.Info("RecordService: records deleted", "resource", kind, "count", len(parsed))
	return nil
}

func deleteOne(repo RepositoryAPI, def resource.Definition, id int64) error {
	r, err := getRecord(repo, def, id)
	if err != nil {
		return err
	}
	name := text(r.Fields[def.NameField])
	if r.System {
		return internal.NewBusinessRuleError(
			fmt.Sprintf("%s is a system record and cannot be deleted", name),
			internal.ErrCodeSystemOwned)
	}
	if n := usageTotal(def, r); n > 0 {
		return internal.NewBusinessRuleError(
			fmt.Sprintf("%s is in use by %d records and cannot be deleted", name, n),
			internal.ErrCodeRecordInUse)
	}
	if err := repo.Delete(def.Kind, id); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", def.Kind, id, err)
	}
	return nil
}

// normalize keeps only writable fields, trims text, drops blanks and turns
// text numbers into JSON numbers so schema validation sees real types.
func normalize(def resource.Definition, input map[string]any) map[string]any {
	out := make(map[string]any, len(def.Schema.Fields))
	for _, f := range def.Schema.Fields {
		v, ok := input[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Type {
		case resource.FieldInteger:
			if s, isText := v.(string); isText {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				if _, err := strconv.ParseInt(s, 10, 64); err == nil {
					v = json.Number(s)
				} else {
					v = s
				}
			}
		case resource.FieldBool:
			if s, isText := v.(string); isText {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				if b, err := strconv.ParseBool(s); err == nil {
					v = b
				} else {
					v = s
				}
			}
		default:
			if n, isNumber := v.(json.Number); isNumber {
				v = n.String()
			}
			if s, isText := v.(string); isText {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				v = s
			}
		}
		out[f.Name] = v
	}
	return out
}

// checkFields runs schema validation, then pointer and name uniqueness
// checks, and reports every failing field at once.
func checkFields(repo RepositoryAPI, def resource.Definition, fields map[string]any, selfID int64) error {
	fieldErrs := def.Schema.ValidatePayload(fields)

	for name, kind := range targets {
		if _, failed := fieldErrs[name]; failed {
			continue
		}
		raw, ok := fields[name]
		if !ok {
			continue
		}
		field, ok := def.Schema.Field(name)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(text(raw), 10, 64)
		if err != nil {
			fieldErrs[name] = fmt.Sprintf("%s is invalid", field.Label)
			continue
		}
		row, err := repo.GetByID(kind, id)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", name, err)
		}
		if row == nil {
			fieldErrs[name] = fmt.Sprintf("%s does not exist", field.Label)
		}
	}

	key := keyField(def)
	if _, failed := fieldErrs[key]; !failed {
		if value := text(fields[key]); value != "" {
			row, err := repo.GetByName(def.Kind, value)
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", key, err)
			}
			if row != nil && row.ID != selfID {
				field, _ := def.Schema.Field(key)
				fieldErrs[key] = fmt.Sprintf("%s already exists", field.Label)
			}
		}
	}

	if len(fieldErrs) > 0 {
		return internal.NewValidationFieldsError(fieldErrs)
	}
	return nil
}

// fieldSummary joins field messages in field order, for import reports.
func fieldSummary(def resource.Definition, fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	index := map[string]int{}
	for i, f := range def.Schema.Fields {
		index[f.Name] = i
	}
	sort.Slice(names, func(i, j int) bool { return index[names[i]] < index[names[j]] })

	messages := make([]string, len(names))
	for i, name := range names {
		messages[i] = fields[name]
	}
	return strings.Join(messages, "; ")
}
