package resource

import (
	"sort"
)

const (
	KindCategory      = "category"
	KindDepartment    = "department"
	KindSite          = "site"
	KindLocation      = "location"
	KindSecurityGroup = "security-group"
	KindDocument      = "document"
	KindImage         = "image"
	KindAsset         = "asset"
	KindInventory     = "inventory"
	KindCustomField   = "custom-field"
)

// Definition is everything the client and the sandbox need to know about one
// resource kind.
type Definition struct {
	Kind  string
	Label string
	// Path is relative to the API base URL.
	Path      string
	NameField string
	// Columns are the table headers matching Tabular.TableRow.
	Columns      []string
	SortColumns  []string
	SearchFields []string
	UsageFields  []string
	// SystemFlag names the boolean that marks a record as system owned.
	SystemFlag string
	Schema     Schema
}

func (d Definition) Sortable(column string) bool {
	for _, c := range d.SortColumns {
		if c == column {
			return true
		}
	}
	return false
}

var (
	nameField = Field{Name: "name", Label: "Name", Type: FieldText, Required: true, MinLength: 2, MaxLength: 100}
	descField = Field{Name: "description", Label: "Description", Type: FieldText, MaxLength: 500}

	titleField    = Field{Name: "title", Label: "Title", Type: FieldText, Required: true, MinLength: 2, MaxLength: 150}
	fileNameField = Field{Name: "fileName", Label: "File name", Type: FieldText, MaxLength: 255}
	mimeTypeField = Field{Name: "mimeType", Label: "MIME type", Type: FieldText, MaxLength: 100}
)

func idField(name, label string) Field {
	return Field{Name: name, Label: label, Type: FieldText, MaxLength: 64}
}

func lockedName() Field {
	f := nameField
	f.SystemLocked = true
	return f
}

var AssetStatuses = []string{"available", "assigned", "maintenance", "retired", "lost"}

var CustomFieldTypes = []string{"text", "number", "date", "boolean", "select"}

var definitions = []Definition{
	{
		Kind:         KindCategory,
		Label:        "Categories",
		Path:         "/categories",
		NameField:    "name",
		Columns:      []string{"ID", "NAME", "DESCRIPTION", "ASSETS"},
		SortColumns:  []string{"id", "name", "assetCount"},
		SearchFields: []string{"name", "description"},
		UsageFields:  []string{"assetCount"},
		Schema:       Schema{Fields: []Field{nameField, descField}},
	},
	{
		Kind:         KindDepartment,
		Label:        "Departments",
		Path:         "/departments",
		NameField:    "name",
		Columns:      []string{"ID", "NAME", "DESCRIPTION", "ASSETS", "USERS"},
		SortColumns:  []string{"id", "name", "assetCount", "userCount"},
		SearchFields: []string{"name", "description"},
		UsageFields:  []string{"assetCount", "userCount"},
		Schema:       Schema{Fields: []Field{nameField, descField}},
	},
	{
		Kind:         KindSite,
		Label:        "Sites",
		Path:         "/sites",
		NameField:    "name",
		Columns:      []string{"ID", "NAME", "CITY", "COUNTRY", "LOCATIONS", "ASSETS"},
		SortColumns:  []string{"id", "name", "city", "country", "locationCount", "assetCount"},
		SearchFields: []string{"name", "description", "address", "city", "state", "country"},
		UsageFields:  []string{"locationCount", "assetCount"},
		Schema: Schema{Fields: []Field{
			nameField,
			descField,
			{Name: "address", Label: "Address", Type: FieldText, MaxLength: 255},
			{Name: "city", Label: "City", Type: FieldText, MaxLength: 100},
			{Name: "state", Label: "State", Type: FieldText, MaxLength: 100},
			{Name: "country", Label: "Country", Type: FieldText, MaxLength: 100},
		}},
	},
	{
		Kind:         KindLocation,
		Label:        "Locations",
		Path:         "/locations",
		NameField:    "name",
		Columns:      []string{"ID", "NAME", "SITE", "ASSETS"},
		SortColumns:  []string{"id", "name", "assetCount"},
		SearchFields: []string{"name", "description"},
		UsageFields:  []string{"assetCount"},
		Schema:       Schema{Fields: []Field{nameField, descField, idField("siteId", "Site")}},
	},
	{
		Kind:         KindSecurityGroup,
		Label:        "Security groups",
		Path:         "/security-groups",
		NameField:    "name",
		Columns:      []string{"ID", "NAME", "DESCRIPTION", "SYSTEM", "MEMBERS"},
		SortColumns:  []string{"id", "name", "memberCount"},
		SearchFields: []string{"name", "description"},
		UsageFields:  []string{"memberCount"},
		SystemFlag:   "isSystemGroup",
		Schema:       Schema{Fields: []Field{lockedName(), descField}},
	},
	{
		Kind:         KindDocument,
		Label:        "Documents",
		Path:         "/documents",
		NameField:    "title",
		Columns:      []string{"ID", "TITLE", "FILE", "TYPE", "SIZE", "ASSETS"},
		SortColumns:  []string{"id", "title", "fileName", "fileSize", "assetCount"},
		SearchFields: []string{"title", "description", "fileName"},
		UsageFields:  []string{"assetCount"},
		Schema:       Schema{Fields: []Field{titleField, descField, fileNameField, mimeTypeField}},
	},
	{
		Kind:         KindImage,
		Label:        "Images",
		Path:         "/images",
		NameField:    "title",
		Columns:      []string{"ID", "TITLE", "FILE", "TYPE", "SIZE", "ASSETS"},
		SortColumns:  []string{"id", "title", "fileName", "fileSize", "assetCount"},
		SearchFields: []string{"title", "description", "fileName"},
		UsageFields:  []string{"assetCount"},
		Schema:       Schema{Fields: []Field{titleField, descField, fileNameField, mimeTypeField}},
	},
	{
		Kind:         KindAsset,
		Label:        "Assets",
		Path:         "/assets",
		NameField:    "name",
		Columns:      []string{"ID", "TAG", "NAME", "STATUS", "SERIAL"},
		SortColumns:  []string{"id", "assetTag", "name", "status", "serialNumber"},
		SearchFields: []string{"assetTag", "name", "description", "serialNumber"},
		Schema: Schema{Fields: []Field{
			{Name: "assetTag", Label: "Asset tag", Type: FieldText, Required: true, MinLength: 1, MaxLength: 50},
			nameField,
			descField,
			{Name: "serialNumber", Label: "Serial number", Type: FieldText, MaxLength: 100},
			{Name: "status", Label: "Status", Type: FieldEnum, Required: true, Enum: AssetStatuses},
			idField("categoryId", "Category"),
			idField("siteId", "Site"),
			idField("locationId", "Location"),
			idField("departmentId", "Department"),
		}},
	},
	{
		Kind:         KindInventory,
		Label:        "Inventory",
		Path:         "/inventory",
		NameField:    "name",
		Columns:      []string{"ID", "SKU", "NAME", "QTY", "MIN"},
		SortColumns:  []string{"id", "sku", "name", "quantity", "minQuantity"},
		SearchFields: []string{"sku", "name", "description"},
		Schema: Schema{Fields: []Field{
			{Name: "sku", Label: "SKU", Type: FieldText, Required: true, MinLength: 1, MaxLength: 50},
			nameField,
			descField,
			{Name: "quantity", Label: "Quantity", Type: FieldInteger, Required: true, Minimum: minimum(0)},
			{Name: "minQuantity", Label: "Minimum quantity", Type: FieldInteger, Minimum: minimum(0)},
			idField("categoryId", "Category"),
			idField("locationId", "Location"),
		}},
	},
	{
		Kind:         KindCustomField,
		Label:        "Custom fields",
		Path:         "/custom-fields",
		NameField:    "name",
		Columns:      []string{"ID", "NAME", "TYPE", "REQUIRED", "SYSTEM"},
		SortColumns:  []string{"id", "name", "fieldType"},
		SearchFields: []string{"name", "description"},
		SystemFlag:   "isSystemField",
		Schema: Schema{Fields: []Field{
			lockedName(),
			{Name: "fieldType", Label: "Field type", Type: FieldEnum, Required: true, Enum: CustomFieldTypes, SystemLocked: true},
			descField,
			{Name: "isRequired", Label: "Required", Type: FieldBool},
		}},
	},
}

// Definitions returns every known resource kind ordered by kind name.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func Lookup(kind string) (Definition, bool) {
	for _, d := range definitions {
		if d.Kind == kind {
			return d, true
		}
	}
	return Definition{}, false
}
