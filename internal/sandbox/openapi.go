package sandbox

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/frahmantamala/asset-management/internal/resource"
	"github.com/getkin/kin-openapi/openapi3"
)

const bearerScheme = "bearerAuth"

// Document describes the sandbox API, generated from the resource catalog.
func Document(serverURL string) *openapi3.T {
	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{
		"Error":          openapi3.NewSchemaRef("", errorSchema()),
		"Pagination":     openapi3.NewSchemaRef("", paginationSchema()),
		"ImportResult":   openapi3.NewSchemaRef("", importResultSchema()),
		"BulkDelete":     openapi3.NewSchemaRef("", bulkDeleteSchema()),
		"Login":          openapi3.NewSchemaRef("", loginSchema()),
		"DashboardState": openapi3.NewSchemaRef("", openapi3.NewObjectSchema()),
	}
	components.SecuritySchemes = openapi3.SecuritySchemes{
		bearerScheme: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
	}

	doc := &openapi3.T{
		OpenAPI:    "3.0.3",
		Info:       &openapi3.Info{Title: "Asset Management Sandbox API", Version: "1.0.0"},
		Components: &components,
		Paths:      openapi3.NewPaths(),
		Security:   *openapi3.NewSecurityRequirements().With(openapi3.NewSecurityRequirement().Authenticate(bearerScheme)),
	}
	if serverURL != "" {
		doc.Servers = openapi3.Servers{{URL: serverURL}}
	}

	doc.Paths.Set("/auth/login", &openapi3.PathItem{
		Post: operation("login", "Exchange credentials for tokens",
			openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref("Login")),
			http.StatusOK, http.StatusUnauthorized),
	})
	doc.Paths.Set("/dashboard/config", &openapi3.PathItem{
		Get: operation("getDashboardConfig", "Saved dashboard layout", nil, http.StatusOK, http.StatusNotFound),
		Put: operation("saveDashboardConfig", "Replace dashboard layout",
			openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref("DashboardState")),
			http.StatusOK, http.StatusBadRequest),
	})

	for _, def := range resource.Definitions() {
		name := schemaName(def.Kind)
		components.Schemas[name] = openapi3.NewSchemaRef("", def.Schema.OpenAPI())
		body := openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref(name))

		list := operation("list"+name, "List "+strings.ToLower(def.Label), nil, http.StatusOK, http.StatusBadRequest)
		list.Parameters = listParameters(def)
		doc.Paths.Set(def.Path, &openapi3.PathItem{
			Get:  list,
			Post: operation("create"+name, "Create", body, http.StatusCreated, http.StatusBadRequest),
		})

		idParam := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewInt64Schema())}
		doc.Paths.Set(def.Path+"/{id}", &openapi3.PathItem{
			Parameters: openapi3.Parameters{idParam},
			Get:        operation("get"+name, "Get one", nil, http.StatusOK, http.StatusNotFound),
			Put:        operation("update"+name, "Update", body, http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusConflict),
			Delete:     operation("delete"+name, "Delete", nil, http.StatusNoContent, http.StatusNotFound, http.StatusConflict),
		})
		doc.Paths.Set(def.Path+"/bulk-delete", &openapi3.PathItem{
			Post: operation("bulkDelete"+name, "Delete several records or none",
				openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref("BulkDelete")),
				http.StatusNoContent, http.StatusBadRequest, http.StatusConflict),
		})

		upload := openapi3.NewObjectSchema().WithProperty("file", openapi3.NewStringSchema().WithFormat("binary"))
		upload.Required = []string{"file"}
		doc.Paths.Set(def.Path+"/import", &openapi3.PathItem{
			Post: operation("import"+name, "Import CSV rows",
				openapi3.NewRequestBody().WithRequired(true).WithFormDataSchema(upload),
				http.StatusOK, http.StatusBadRequest, http.StatusUnsupportedMediaType),
		})

		export := operation("export"+name, "Export matching records as CSV", nil, http.StatusOK, http.StatusBadRequest)
		export.Parameters = append(listParameters(def)[2:], &openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter("format").WithSchema(openapi3.NewStringSchema().WithEnum("csv")),
		})
		doc.Paths.Set(def.Path+"/export", &openapi3.PathItem{Get: export})
	}
	return doc
}

func operation(id, summary string, body *openapi3.RequestBody, statuses ...int) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = id
	op.Summary = summary
	if body != nil {
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	opts := make([]openapi3.NewResponsesOption, 0, len(statuses))
	for _, status := range statuses {
		response := openapi3.NewResponse().WithDescription(http.StatusText(status))
		if status >= http.StatusBadRequest {
			response.WithJSONSchemaRef(ref("Error"))
		}
		opts = append(opts, openapi3.WithStatus(status, &openapi3.ResponseRef{Value: response}))
	}
	op.Responses = openapi3.NewResponses(opts...)
	return op
}

// listParameters starts with page and limit so export can drop them.
func listParameters(def resource.Definition) openapi3.Parameters {
	sizes := make([]any, len(resource.PageSizes))
	for i, n := range resource.PageSizes {
		sizes[i] = n
	}
	columns := make([]any, len(def.SortColumns))
	for i, c := range def.SortColumns {
		columns[i] = c
	}

	params := openapi3.Parameters{
		{Value: openapi3.NewQueryParameter("page").WithSchema(openapi3.NewIntegerSchema().WithMin(1))},
		{Value: openapi3.NewQueryParameter("limit").WithSchema(openapi3.NewIntegerSchema().WithEnum(sizes...))},
		{Value: openapi3.NewQueryParameter("sortBy").WithSchema(openapi3.NewStringSchema().WithEnum(columns...))},
		{Value: openapi3.NewQueryParameter("sortDir").WithSchema(openapi3.NewStringSchema().WithEnum("asc", "desc"))},
		{Value: openapi3.NewQueryParameter("search").WithSchema(openapi3.NewStringSchema())},
	}
	for _, f := range def.Schema.Fields {
		params = append(params, &openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter(f.Name).WithDescription("Exact match filter").WithSchema(openapi3.NewStringSchema()),
		})
	}
	return params
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func schemaName(kind string) string {
	var b strings.Builder
	for _, part := range strings.Split(kind, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("code", openapi3.NewStringSchema()).
		WithProperty("details", openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema()))
}

func paginationSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("totalRecords", openapi3.NewIntegerSchema()).
		WithProperty("totalPages", openapi3.NewIntegerSchema()).
		WithProperty("startRecord", openapi3.NewIntegerSchema()).
		WithProperty("endRecord", openapi3.NewIntegerSchema())
}

func importResultSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("importedCount", openapi3.NewIntegerSchema()).
		WithProperty("failedCount", openapi3.NewIntegerSchema()).
		WithProperty("totalRows", openapi3.NewIntegerSchema()).
		WithProperty("errors", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))
}

func bulkDeleteSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("ids", openapi3.NewArraySchema().WithItems(openapi3.NewInt64Schema()).WithMinItems(1))
	s.Required = []string{"ids"}
	return s
}

func loginSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("email", openapi3.NewStringSchema()).
		WithProperty("password", openapi3.NewStringSchema().WithFormat("password"))
	s.Required = []string{"email", "password"}
	return s
}

// DescribeKinds lists kinds with their collection paths, for logs and CLI help.
func DescribeKinds() string {
	parts := make([]string, 0, len(resource.Definitions()))
	for _, def := range resource.Definitions() {
		parts = append(parts, fmt.Sprintf("%s=%s", def.Kind, def.Path))
	}
	return strings.Join(parts, " ")
}
