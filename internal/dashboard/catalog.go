package dashboard

type Kind string

const (
	KindWidget Kind = "widget"
	KindChart  Kind = "chart"
)

func (k Kind) Valid() bool {
	return k == KindWidget || k == KindChart
}

// Item is one placeable tile on the dashboard.
type Item struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var defaultCatalog = []Item{
	{ID: "total-assets", Kind: KindWidget, Name: "Total assets", Description: "Count of all registered assets"},
	{ID: "available-assets", Kind: KindWidget, Name: "Available assets", Description: "Assets ready to be assigned"},
	{ID: "assigned-assets", Kind: KindWidget, Name: "Assigned assets", Description: "Assets checked out to people or sites"},
	{ID: "maintenance-assets", Kind: KindWidget, Name: "In maintenance", Description: "Assets under repair or service"},
	{ID: "low-stock", Kind: KindWidget, Name: "Low stock", Description: "Inventory items at or below their minimum"},
	{ID: "recent-activity", Kind: KindWidget, Name: "Recent activity", Description: "Latest changes across resources"},

	{ID: "assets-by-status", Kind: KindChart, Name: "Assets by status", Description: "Distribution of asset statuses"},
	{ID: "assets-by-category", Kind: KindChart, Name: "Assets by category", Description: "Asset counts per category"},
	{ID: "assets-by-site", Kind: KindChart, Name: "Assets by site", Description: "Asset counts per site"},
	{ID: "inventory-levels", Kind: KindChart, Name: "Inventory levels", Description: "Quantity against minimum per item"},
	{ID: "alerts", Kind: KindChart, Name: "Alerts", Description: "Open alerts over time"},
	{ID: "monthly-additions", Kind: KindChart, Name: "Monthly additions", Description: "Assets added per month"},
}

// DefaultCatalog returns every item the dashboard knows about, widgets first.
func DefaultCatalog() []Item {
	out := make([]Item, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}
