package resource

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/frahmantamala/asset-management/internal"
)

// Record is anything a list screen can show and address by id.
type Record interface {
	RecordID() ID
}

// Editable records can seed a form draft.
type Editable interface {
	Record
	FormValues() map[string]string
}

// UsageCounter is implemented by records that other records point at. A
// positive count means the server will refuse a delete.
type UsageCounter interface {
	UsageCount() int
}

// SystemOwned is implemented by records that can be platform defaults.
type SystemOwned interface {
	IsSystemOwned() bool
}

// Tabular records render as one table row, in the column order of their Definition.
type Tabular interface {
	TableRow() []string
}

// DeleteBlocked reports why a record cannot be deleted, or nil when it can.
func DeleteBlocked(r Record) error {
	if so, ok := r.(SystemOwned); ok && so.IsSystemOwned() {
		return internal.ErrSystemOwned
	}
	if uc, ok := r.(UsageCounter); ok && uc.UsageCount() > 0 {
		return internal.ErrRecordInUse
	}
	return nil
}

type Pagination struct {
	TotalRecords int `json:"totalRecords"`
	TotalPages   int `json:"totalPages"`
	StartRecord  int `json:"startRecord"`
	EndRecord    int `json:"endRecord"`
}

// NewPagination derives the window for a page. Both bounds are zero when
// there is nothing to show.
func NewPagination(page, pageSize, totalRecords int) Pagination {
	if totalRecords <= 0 || pageSize <= 0 {
		return Pagination{}
	}
	if page < 1 {
		page = 1
	}
	totalPages := (totalRecords + pageSize - 1) / pageSize
	// pages past the end are empty; checked before multiplying so a huge
	// page cannot overflow
	if page > totalPages {
		return Pagination{TotalRecords: totalRecords, TotalPages: totalPages}
	}
	start := (page-1)*pageSize + 1
	end := start + pageSize - 1
	if end > totalRecords {
		end = totalRecords
	}
	return Pagination{
		TotalRecords: totalRecords,
		TotalPages:   totalPages,
		StartRecord:  start,
		EndRecord:    end,
	}
}

type Page[T Record] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Flip() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

var PageSizes = []int{10, 25, 50, 100}

const DefaultPageSize = 25

func ValidPageSize(n int) bool {
	for _, size := range PageSizes {
		if size == n {
			return true
		}
	}
	return false
}

// Query is the client owned part of a list request.
type Query struct {
	Page          int
	PageSize      int
	SortColumn    string
	SortDirection SortDirection
	Search        string
	Filters       map[string]string
}

func NewQuery(pageSize int) Query {
	if !ValidPageSize(pageSize) {
		pageSize = DefaultPageSize
	}
	return Query{
		Page:          1,
		PageSize:      pageSize,
		SortDirection: SortAsc,
		Filters:       map[string]string{},
	}
}

func (q Query) Clone() Query {
	filters := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		filters[k] = v
	}
	q.Filters = filters
	return q
}

// reservedParams cannot be used as filter keys.
var reservedParams = map[string]bool{
	"page": true, "limit": true, "sortBy": true, "sortDir": true, "search": true, "format": true,
}

func IsReservedParam(key string) bool {
	return reservedParams[key]
}

// Values encodes the query as the backend expects it.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.PageSize))
	if q.SortColumn != "" {
		v.Set("sortBy", q.SortColumn)
		dir := q.SortDirection
		if dir == "" {
			dir = SortAsc
		}
		v.Set("sortDir", string(dir))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if q.Filters[k] == "" || IsReservedParam(k) {
			continue
		}
		v.Set(k, q.Filters[k])
	}
	return v
}

// QueryFromValues is the inverse of Values, with defaults for anything missing.
func QueryFromValues(v url.Values) Query {
	q := NewQuery(DefaultPageSize)
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	if l, err := strconv.Atoi(v.Get("limit")); err == nil && l > 0 && l <= 100 {
		q.PageSize = l
	}
	q.SortColumn = v.Get("sortBy")
	if strings.EqualFold(v.Get("sortDir"), string(SortDesc)) {
		q.SortDirection = SortDesc
	}
	q.Search = strings.TrimSpace(v.Get("search"))
	for k, vals := range v {
		if IsReservedParam(k) || len(vals) == 0 || vals[0] == "" {
			continue
		}
		q.Filters[k] = vals[0]
	}
	return q
}

type ImportResult struct {
	ImportedCount int      `json:"importedCount"`
	FailedCount   int      `json:"failedCount"`
	TotalRows     int      `json:"totalRows"`
	Errors        []string `json:"errors,omitempty"`
}

// Partial reports an import where some rows were rejected.
func (r ImportResult) Partial() bool {
	return r.FailedCount > 0
}
