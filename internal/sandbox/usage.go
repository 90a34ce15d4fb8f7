package sandbox

import (
	"github.com/frahmantamala/asset-management/internal/resource"
)

// reference is a pointer field on one kind that counts as usage of another.
type reference struct {
	from  string
	field string
	usage string
}

var references = map[string][]reference{
	resource.KindCategory: {
		{from: resource.KindAsset, field: "categoryId", usage: "assetCount"},
		{from: resource.KindInventory, field: "categoryId", usage: "itemCount"},
	},
	resource.KindDepartment: {
		{from: resource.KindAsset, field: "departmentId", usage: "assetCount"},
	},
	resource.KindSite: {
		{from: resource.KindLocation, field: "siteId", usage: "locationCount"},
		{from: resource.KindAsset, field: "siteId", usage: "assetCount"},
	},
	resource.KindLocation: {
		{from: resource.KindAsset, field: "locationId", usage: "assetCount"},
		{from: resource.KindInventory, field: "locationId", usage: "itemCount"},
	},
}

// targets maps pointer fields to the kind they must point at.
var targets = map[string]string{
	"categoryId":   resource.KindCategory,
	"departmentId": resource.KindDepartment,
	"siteId":       resource.KindSite,
	"locationId":   resource.KindLocation,
}

// derive fills usage counts and display names computed from other records.
func derive(repo RepositoryAPI, def resource.Definition, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	for _, ref := range references[def.Kind] {
		counts, err := countReferences(repo, ref)
		if err != nil {
			return err
		}
		for _, r := range records {
			r.Derived[ref.usage] = counts[text(r.ID)]
		}
	}

	if def.Kind == resource.KindDepartment {
		members, err := repo.MemberCounts()
		if err != nil {
			return err
		}
		for _, r := range records {
			r.Derived["userCount"] = members[text(r.ID)]
		}
	}

	if def.Kind == resource.KindLocation {
		names, err := namesByID(repo, resource.KindSite)
		if err != nil {
			return err
		}
		for _, r := range records {
			if name, ok := names[text(r.Fields["siteId"])]; ok {
				r.Derived["siteName"] = name
			}
		}
	}
	return nil
}

func countReferences(repo RepositoryAPI, ref reference) (map[string]int, error) {
	rows, err := repo.ListByKind(ref.from)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, row := range rows {
		r, err := FromDataModel(row)
		if err != nil {
			return nil, err
		}
		if id := text(r.Fields[ref.field]); id != "" {
			counts[id]++
		}
	}
	return counts, nil
}

func namesByID(repo RepositoryAPI, kind string) (map[string]string, error) {
	rows, err := repo.ListByKind(kind)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[text(row.ID)] = row.Name
	}
	return names, nil
}

// usageTotal is what blocks a delete: every count shown to the client plus
// references the client does not display.
func usageTotal(def resource.Definition, r *Record) int {
	seen := map[string]bool{}
	total := 0
	add := func(field string) {
		if seen[field] {
			return
		}
		seen[field] = true
		v, ok := r.Value(field)
		if !ok {
			return
		}
		if n, ok := number(v); ok {
			total += int(n)
		}
	}
	for _, f := range def.UsageFields {
		add(f)
	}
	for _, ref := range references[def.Kind] {
		add(ref.usage)
	}
	return total
}
