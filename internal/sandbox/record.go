package sandbox

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	recordDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/record"
	"github.com/frahmantamala/asset-management/internal/resource"
)

// RepositoryAPI stores records of every kind. Lookups return nil, nil when
// nothing matches.
type RepositoryAPI interface {
	ListByKind(kind string) ([]*recordDatamodel.Record, error)
	GetByID(kind string, id int64) (*recordDatamodel.Record, error)
	GetByName(kind, name string) (*recordDatamodel.Record, error)
	Create(record *recordDatamodel.Record) error
	Update(record *recordDatamodel.Record) error
	Delete(kind string, id int64) error
	// MemberCounts counts active users per department id.
	MemberCounts() (map[string]int, error)
	// WithTx runs fn against a repository bound to one transaction.
	WithTx(fn func(repo RepositoryAPI) error) error
}

// Record is a decoded row. Fields holds what was written through the API
// plus server managed values; Derived is computed per request.
type Record struct {
	ID        int64
	Kind      string
	Fields    map[string]any
	Derived   map[string]any
	System    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func FromDataModel(m *recordDatamodel.Record) (*Record, error) {
	fields := map[string]any{}
	if m.Payload != "" {
		dec := json.NewDecoder(strings.NewReader(m.Payload))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", m.ID, err)
		}
	}
	return &Record{
		ID:        m.ID,
		Kind:      m.Kind,
		Fields:    fields,
		Derived:   map[string]any{},
		System:    m.System,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func ToDataModel(r *Record, def resource.Definition) (*recordDatamodel.Record, error) {
	payload, err := json.Marshal(r.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return &recordDatamodel.Record{
		ID:        r.ID,
		Kind:      def.Kind,
		Name:      text(r.Fields[keyField(def)]),
		Payload:   string(payload),
		System:    r.System,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// keyField names the field that must be unique within a kind.
func keyField(def resource.Definition) string {
	switch def.Kind {
	case resource.KindAsset:
		return "assetTag"
	case resource.KindInventory:
		return "sku"
	}
	return def.NameField
}

// Value looks a column up the way filters and sorting see it.
func (r *Record) Value(column string) (any, bool) {
	if column == "id" {
		return r.ID, true
	}
	if v, ok := r.Derived[column]; ok {
		return v, true
	}
	v, ok := r.Fields[column]
	return v, ok
}

// Document renders the record as the API returns it.
func (r *Record) Document(def resource.Definition) map[string]any {
	out := make(map[string]any, len(r.Fields)+len(r.Derived)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	for _, f := range def.UsageFields {
		if _, ok := out[f]; !ok {
			out[f] = 0
		}
	}
	for k, v := range r.Derived {
		out[k] = v
	}
	out["id"] = r.ID
	if def.SystemFlag != "" {
		out[def.SystemFlag] = r.System
	}
	out["createdAt"] = r.CreatedAt
	out["updatedAt"] = r.UpdatedAt
	return out
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	}
	return fmt.Sprint(v)
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
