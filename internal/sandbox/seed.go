package sandbox

import (
	"fmt"

	"github.com/frahmantamala/asset-management/internal/resource"
)

type seedRecord struct {
	kind   string
	system bool
	fields map[string]any
	// refs name fields that point at another seeded record by its key.
	refs map[string]string
}

var seedData = []seedRecord{
	{kind: resource.KindCategory, fields: map[string]any{"name": "Laptops", "description": "Portable computers"}},
	{kind: resource.KindCategory, fields: map[string]any{"name": "Monitors", "description": "External displays"}},
	{kind: resource.KindCategory, fields: map[string]any{"name": "Networking", "description": "Switches, routers and access points"}},
	{kind: resource.KindCategory, fields: map[string]any{"name": "Peripherals"}},
	{kind: resource.KindCategory, fields: map[string]any{"name": "Furniture"}},

	{kind: resource.KindDepartment, fields: map[string]any{"name": "Engineering"}},
	{kind: resource.KindDepartment, fields: map[string]any{"name": "Finance"}},
	{kind: resource.KindDepartment, fields: map[string]any{"name": "Operations"}},

	{kind: resource.KindSite, fields: map[string]any{"name": "Headquarters", "address": "Jl. Sudirman 1", "city": "Jakarta", "country": "Indonesia"}},
	{kind: resource.KindSite, fields: map[string]any{"name": "Warehouse", "city": "Surabaya", "country": "Indonesia"}},
	{kind: resource.KindSite, fields: map[string]any{"name": "Branch Office", "city": "Bandung", "country": "Indonesia"}},

	{kind: resource.KindLocation, fields: map[string]any{"name": "HQ Floor 1"}, refs: map[string]string{"siteId": "Headquarters"}},
	{kind: resource.KindLocation, fields: map[string]any{"name": "HQ Floor 2"}, refs: map[string]string{"siteId": "Headquarters"}},
	{kind: resource.KindLocation, fields: map[string]any{"name": "Bay A"}, refs: map[string]string{"siteId": "Warehouse"}},

	{kind: resource.KindSecurityGroup, system: true, fields: map[string]any{"name": "Administrators", "description": "Full access", "memberCount": 1}},
	{kind: resource.KindSecurityGroup, system: true, fields: map[string]any{"name": "Auditors", "description": "Read only access"}},
	{kind: resource.KindSecurityGroup, fields: map[string]any{"name": "Field Technicians"}},

	{kind: resource.KindCustomField, system: true, fields: map[string]any{"name": "Warranty Expiry", "fieldType": "date", "isRequired": false}},
	{kind: resource.KindCustomField, fields: map[string]any{"name": "Purchase Order", "fieldType": "text", "isRequired": false}},

	{kind: resource.KindDocument, fields: map[string]any{"title": "Warranty Policy", "fileName": "warranty.pdf", "mimeType": "application/pdf", "fileSize": 183204, "assetCount": 2}},
	{kind: resource.KindDocument, fields: map[string]any{"title": "Network Diagram", "fileName": "network.pdf", "mimeType": "application/pdf", "fileSize": 92011}},
	{kind: resource.KindImage, fields: map[string]any{"title": "Server Rack", "fileName": "rack.jpg", "mimeType": "image/jpeg", "fileSize": 402113, "assetCount": 1}},

	{kind: resource.KindInventory, fields: map[string]any{"sku": "CBL-HDMI-2M", "name": "HDMI cable 2m", "quantity": 40, "minQuantity": 10}, refs: map[string]string{"categoryId": "Peripherals", "locationId": "Bay A"}},
	{kind: resource.KindInventory, fields: map[string]any{"sku": "MSE-USB", "name": "USB mouse", "quantity": 4, "minQuantity": 10}, refs: map[string]string{"categoryId": "Peripherals", "locationId": "Bay A"}},
	{kind: resource.KindInventory, fields: map[string]any{"sku": "KBD-USB", "name": "USB keyboard", "quantity": 12, "minQuantity": 5}, refs: map[string]string{"categoryId": "Peripherals"}},
}

var seedAssets = []struct {
	name, category, site, location, department string
}{
	{"MacBook Pro 14", "Laptops", "Headquarters", "HQ Floor 1", "Engineering"},
	{"ThinkPad X1", "Laptops", "Headquarters", "HQ Floor 2", "Finance"},
	{"Dell U2723QE", "Monitors", "Headquarters", "HQ Floor 1", "Engineering"},
	{"LG 27UL500", "Monitors", "Branch Office", "", "Operations"},
	{"Catalyst 9200", "Networking", "Warehouse", "Bay A", "Operations"},
	{"UniFi AP", "Networking", "Headquarters", "HQ Floor 2", ""},
}

// Seed fills an empty database with sample records and reports how many it
// created. A database that already holds categories is left alone.
func (s *Service) Seed() (int, error) {
	existing, err := s.repo.ListByKind(resource.KindCategory)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.Info("RecordService: seed skipped, data present")
		return 0, nil
	}

	created := 0
	err = s.repo.WithTx(func(tx RepositoryAPI) error {
		ids := map[string]map[string]int64{}
		add := func(rec seedRecord) error {
			def, err := definition(rec.kind)
			if err != nil {
				return err
			}
			fields := make(map[string]any, len(rec.fields)+len(rec.refs))
			for k, v := range rec.fields {
				fields[k] = v
			}
			for field, key := range rec.refs {
				id, ok := ids[targets[field]][key]
				if !ok {
					return fmt.Errorf("seed %s: unknown %s %q", rec.kind, field, key)
				}
				fields[field] = text(id)
			}

			r := &Record{Kind: def.Kind, Fields: fields, Derived: map[string]any{}, System: rec.system}
			if err := save(tx, def, r, true); err != nil {
				return err
			}
			if ids[def.Kind] == nil {
				ids[def.Kind] = map[string]int64{}
			}
			ids[def.Kind][text(fields[keyField(def)])] = r.ID
			created++
			return nil
		}

		for _, rec := range seedData {
			if err := add(rec); err != nil {
				return err
			}
		}
		for i, a := range seedAssets {
			refs := map[string]string{"categoryId": a.category, "siteId": a.site}
			if a.location != "" {
				refs["locationId"] = a.location
			}
			if a.department != "" {
				refs["departmentId"] = a.department
			}
			rec := seedRecord{
				kind: resource.KindAsset,
				fields: map[string]any{
					"assetTag":     fmt.Sprintf("AST-%04d", i+1),
					"name":         a.name,
					"serialNumber": fmt.Sprintf("SN%06d", 100000+i*7919),
					"status":       resource.AssetStatuses[i%len(resource.AssetStatuses)],
				},
				refs: refs,
			}
			if err := add(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed records: %w", err)
	}

	s.logger.Info("RecordService: seeded records", "count", created)
	return created, nil
}
