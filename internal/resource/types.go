package resource

import (
	"strconv"
)

type Category struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AssetCount  int    `json:"assetCount"`
}

func (c Category) RecordID() ID    { return c.ID }
func (c Category) UsageCount() int { return c.AssetCount }

func (c Category) FormValues() map[string]string {
	return map[string]string{"name": c.Name, "description": c.Description}
}

func (c Category) TableRow() []string {
	return []string{c.ID.String(), c.Name, c.Description, strconv.Itoa(c.AssetCount)}
}

type Department struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AssetCount  int    `json:"assetCount"`
	UserCount   int    `json:"userCount"`
}

func (d Department) RecordID() ID    { return d.ID }
func (d Department) UsageCount() int { return d.AssetCount + d.UserCount }

func (d Department) FormValues() map[string]string {
	return map[string]string{"name": d.Name, "description": d.Description}
}

func (d Department) TableRow() []string {
	return []string{d.ID.String(), d.Name, d.Description, strconv.Itoa(d.AssetCount), strconv.Itoa(d.UserCount)}
}

type Site struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Country       string `json:"country,omitempty"`
	LocationCount int    `json:"locationCount"`
	AssetCount    int    `json:"assetCount"`
}

func (s Site) RecordID() ID    { return s.ID }
func (s Site) UsageCount() int { return s.LocationCount + s.AssetCount }

func (s Site) FormValues() map[string]string {
	return map[string]string{
		"name":        s.Name,
		"description": s.Description,
		"address":     s.Address,
		"city":        s.City,
		"state":       s.State,
		"country":     s.Country,
	}
}

func (s Site) TableRow() []string {
	return []string{s.ID.String(), s.Name, s.City, s.Country, strconv.Itoa(s.LocationCount), strconv.Itoa(s.AssetCount)}
}

type Location struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SiteID      ID     `json:"siteId,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	AssetCount  int    `json:"assetCount"`
}

func (l Location) RecordID() ID    { return l.ID }
func (l Location) UsageCount() int { return l.AssetCount }

func (l Location) FormValues() map[string]string {
	return map[string]string{"name": l.Name, "description": l.Description, "siteId": l.SiteID.String()}
}

func (l Location) TableRow() []string {
	return []string{l.ID.String(), l.Name, l.SiteName, strconv.Itoa(l.AssetCount)}
}

type SecurityGroup struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	IsSystemGroup bool   `json:"isSystemGroup"`
	MemberCount   int    `json:"memberCount"`
}

func (g SecurityGroup) RecordID() ID        { return g.ID }
func (g SecurityGroup) IsSystemOwned() bool { return g.IsSystemGroup }
func (g SecurityGroup) UsageCount() int     { return g.MemberCount }

func (g SecurityGroup) FormValues() map[string]string {
	return map[string]string{"name": g.Name, "description": g.Description}
}

func (g SecurityGroup) TableRow() []string {
	return []string{g.ID.String(), g.Name, g.Description, strconv.FormatBool(g.IsSystemGroup), strconv.Itoa(g.MemberCount)}
}

// Document and Image share a shape; the backend stores the file itself.
type Document struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	FileSize    int64  `json:"fileSize"`
	AssetCount  int    `json:"assetCount"`
}

func (d Document) RecordID() ID    { return d.ID }
func (d Document) UsageCount() int { return d.AssetCount }

func (d Document) FormValues() map[string]string {
	return map[string]string{"title": d.Title, "description": d.Description, "fileName": d.FileName, "mimeType": d.MimeType}
}

func (d Document) TableRow() []string {
	return []string{d.ID.String(), d.Title, d.FileName, d.MimeType, strconv.FormatInt(d.FileSize, 10), strconv.Itoa(d.AssetCount)}
}

type Image struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	FileSize    int64  `json:"fileSize"`
	AssetCount  int    `json:"assetCount"`
}

func (i Image) RecordID() ID    { return i.ID }
func (i Image) UsageCount() int { return i.AssetCount }

func (i Image) FormValues() map[string]string {
	return map[string]string{"title": i.Title, "description": i.Description, "fileName": i.FileName, "mimeType": i.MimeType}
}

func (i Image) TableRow() []string {
	return []string{i.ID.String(), i.Title, i.FileName, i.MimeType, strconv.FormatInt(i.FileSize, 10), strconv.Itoa(i.AssetCount)}
}

type Asset struct {
	ID           ID     `json:"id"`
	AssetTag     string `json:"assetTag"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	Status       string `json:"status"`
	CategoryID   ID     `json:"categoryId,omitempty"`
	SiteID       ID     `json:"siteId,omitempty"`
	LocationID   ID     `json:"locationId,omitempty"`
	DepartmentID ID     `json:"departmentId,omitempty"`
}

func (a Asset) RecordID() ID { return a.ID }

func (a Asset) FormValues() map[string]string {
	return map[string]string{
		"assetTag":     a.AssetTag,
		"name":         a.Name,
		"description":  a.Description,
		"serialNumber": a.SerialNumber,
		"status":       a.Status,
		"categoryId":   a.CategoryID.String(),
		"siteId":       a.SiteID.String(),
		"locationId":   a.LocationID.String(),
		"departmentId": a.DepartmentID.String(),
	}
}

func (a Asset) TableRow() []string {
	return []string{a.ID.String(), a.AssetTag, a.Name, a.Status, a.SerialNumber}
}

type InventoryItem struct {
	ID          ID     `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int64  `json:"quantity"`
	MinQuantity int64  `json:"minQuantity"`
	CategoryID  ID     `json:"categoryId,omitempty"`
	LocationID  ID     `json:"locationId,omitempty"`
}

func (i InventoryItem) RecordID() ID { return i.ID }

// LowStock reports an item at or below its reorder level.
func (i InventoryItem) LowStock() bool {
	return i.MinQuantity > 0 && i.Quantity <= i.MinQuantity
}

func (i InventoryItem) FormValues() map[string]string {
	return map[string]string{
		"sku":         i.SKU,
		"name":        i.Name,
		"description": i.Description,
		"quantity":    strconv.FormatInt(i.Quantity, 10),
		"minQuantity": strconv.FormatInt(i.MinQuantity, 10),
		"categoryId":  i.CategoryID.String(),
		"locationId":  i.LocationID.String(),
	}
}

func (i InventoryItem) TableRow() []string {
	return []string{i.ID.String(), i.SKU, i.Name, strconv.FormatInt(i.Quantity, 10), strconv.FormatInt(i.MinQuantity, 10)}
}

type CustomField struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	FieldType     string `json:"fieldType"`
	Description   string `json:"description,omitempty"`
	IsRequired    bool   `json:"isRequired"`
	IsSystemField bool   `json:"isSystemField"`
}

func (f CustomField) RecordID() ID        { return f.ID }
func (f CustomField) IsSystemOwned() bool { return f.IsSystemField }

func (f CustomField) FormValues() map[string]string {
	return map[string]string{
		"name":        f.Name,
		"fieldType":   f.FieldType,
		"description": f.Description,
		"isRequired":  strconv.FormatBool(f.IsRequired),
	}
}

func (f CustomField) TableRow() []string {
	return []string{f.ID.String(), f.Name, f.FieldType, strconv.FormatBool(f.IsRequired), strconv.FormatBool(f.IsSystemField)}
}
