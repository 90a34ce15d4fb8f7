package sandbox

import (
	"sort"
	"strings"

	"github.com/frahmantamala/asset-management/internal/resource"
)

// filterable reports whether column can be used as an equality filter.
func filterable(def resource.Definition, column string) bool {
	if column == "id" || column == "siteName" || column == def.SystemFlag {
		return true
	}
	if _, ok := def.Schema.Field(column); ok {
		return true
	}
	for _, f := range def.UsageFields {
		if f == column {
			return true
		}
	}
	return false
}

// match applies filters and search. Unknown filter keys are ignored.
func match(def resource.Definition, records []*Record, q resource.Query) []*Record {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]*Record, 0, len(records))

	for _, r := range records {
		if !matchFilters(def, r, q.Filters) {
			continue
		}
		if search != "" && !matchSearch(def, r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchFilters(def resource.Definition, r *Record, filters map[string]string) bool {
	for column, want := range filters {
		if want == "" || !filterable(def, column) {
			continue
		}
		var got string
		if column == def.SystemFlag && def.SystemFlag != "" {
			got = text(r.System)
		} else {
			v, _ := r.Value(column)
			got = text(v)
		}
		if !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}

func matchSearch(def resource.Definition, r *Record, search string) bool {
	for _, column := range def.SearchFields {
		v, ok := r.Value(column)
		if ok && strings.Contains(strings.ToLower(text(v)), search) {
			return true
		}
	}
	return false
}

// order sorts in place by a sortable column, id ascending otherwise. Numbers
// compare numerically, everything else case-insensitively.
func order(def resource.Definition, records []*Record, column string, dir resource.SortDirection) {
	if !def.Sortable(column) {
		column, dir = "id", resource.SortAsc
	}
	desc := dir == resource.SortDesc

	sort.SliceStable(records, func(i, j int) bool {
		c := compare(records[i], records[j], column)
		if c == 0 {
			return records[i].ID < records[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b *Record, column string) int {
	av, _ := a.Value(column)
	bv, _ := b.Value(column)

	an, aok := number(av)
	bn, bok := number(bv)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(text(av)), strings.ToLower(text(bv)))
}

// window returns the records of one page.
func window(records []*Record, page, pageSize int) []*Record {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || page-1 >= (len(records)+pageSize-1)/pageSize {
		return nil
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
