package resource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

type FieldType string

const (
	FieldText    FieldType = "text"
	FieldInteger FieldType = "integer"
	FieldBool    FieldType = "bool"
	FieldEnum    FieldType = "enum"
)

// Field describes one editable attribute of a resource.
type Field struct {
	Name      string
	Label     string
	Type      FieldType
	Required  bool
	MinLength int
	MaxLength int
	Minimum   *int64
	Enum      []string
	// SystemLocked fields cannot change on system owned records.
	SystemLocked bool
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

type Schema struct {
	Fields []Field
}

func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// LockedFields lists the fields a system owned record keeps fixed.
func (s Schema) LockedFields() []string {
	var locked []string
	for _, f := range s.Fields {
		if f.SystemLocked {
			locked = append(locked, f.Name)
		}
	}
	return locked
}

// OpenAPI renders the write model of the resource as an object schema.
func (s Schema) OpenAPI() *openapi3.Schema {
	obj := openapi3.NewObjectSchema()
	var required []string
	for _, f := range s.Fields {
		obj.WithProperty(f.Name, f.openAPI())
		if f.Required {
			required = append(required, f.Name)
		}
	}
	if len(required) > 0 {
		obj.WithRequired(required)
	}
	return obj
}

func (f Field) openAPI() *openapi3.Schema {
	var schema *openapi3.Schema
	switch f.Type {
	case FieldInteger:
		schema = openapi3.NewInt64Schema()
		if f.Minimum != nil {
			schema.WithMin(float64(*f.Minimum))
		}
	case FieldBool:
		schema = openapi3.NewBoolSchema()
	case FieldEnum:
		values := make([]any, len(f.Enum))
		for i, v := range f.Enum {
			values[i] = v
		}
		schema = openapi3.NewStringSchema().WithEnum(values...)
	default:
		schema = openapi3.NewStringSchema()
		if f.MinLength > 0 {
			schema.WithMinLength(int64(f.MinLength))
		}
		if f.MaxLength > 0 {
			schema.WithMaxLength(int64(f.MaxLength))
		}
	}
	schema.Title = f.label()
	return schema
}

// Payload converts raw form values into the JSON body sent to the backend.
// Strings are trimmed, typed fields are parsed, blank typed fields are left
// out. Values that fail to parse are kept as text so validation reports them.
func (s Schema) Payload(values map[string]string) map[string]any {
	payload := make(map[string]any, len(values))
	for _, f := range s.Fields {
		raw, ok := values[f.Name]
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		switch f.Type {
		case FieldInteger:
			if raw == "" {
				continue
			}
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				payload[f.Name] = n
			} else {
				payload[f.Name] = raw
			}
		case FieldBool:
			if raw == "" {
				continue
			}
			if b, err := strconv.ParseBool(raw); err == nil {
				payload[f.Name] = b
			} else {
				payload[f.Name] = raw
			}
		default:
			payload[f.Name] = raw
		}
	}
	return payload
}

// Validate checks raw form values and returns one message per failing field.
// An empty map means the values are acceptable.
func (s Schema) Validate(values map[string]string) map[string]string {
	payload := s.Payload(values)
	for k, v := range payload {
		if str, ok := v.(string); ok && str == "" {
			delete(payload, k)
		}
	}

	return s.ValidatePayload(payload)
}

// ValidatePayload checks an already typed JSON body, as received by a server.
func (s Schema) ValidatePayload(payload map[string]any) map[string]string {
	fieldErrors := map[string]string{}
	err := s.OpenAPI().VisitJSON(payload, openapi3.MultiErrors())
	if err == nil {
		return fieldErrors
	}

	for _, schemaErr := range flattenSchemaErrors(err) {
		name := ""
		if path := schemaErr.JSONPointer(); len(path) > 0 {
			name = path[0]
		}
		f, ok := s.Field(name)
		if !ok {
			continue
		}
		if _, seen := fieldErrors[name]; seen {
			continue
		}
		fieldErrors[name] = f.message(schemaErr.SchemaField)
	}
	return fieldErrors
}

func (f Field) message(schemaField string) string {
	label := f.label()
	switch schemaField {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "minLength":
		return fmt.Sprintf("%s must be at least %d characters", label, f.MinLength)
	case "maxLength":
		return fmt.Sprintf("%s must not exceed %d characters", label, f.MaxLength)
	case "enum":
		return fmt.Sprintf("%s must be one of %s", label, strings.Join(f.Enum, ", "))
	case "minimum":
		if f.Minimum != nil {
			return fmt.Sprintf("%s must be at least %d", label, *f.Minimum)
		}
	case "type":
		switch f.Type {
		case FieldInteger:
			return fmt.Sprintf("%s must be a whole number", label)
		case FieldBool:
			return fmt.Sprintf("%s must be true or false", label)
		}
	}
	return fmt.Sprintf("%s is invalid", label)
}

func flattenSchemaErrors(err error) []*openapi3.SchemaError {
	var out []*openapi3.SchemaError
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			out = append(out, flattenSchemaErrors(e)...)
		}
		return out
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		out = append(out, schemaErr)
	}
	return out
}

func minimum(n int64) *int64 {
	return &n
}
