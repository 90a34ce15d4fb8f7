package dashboard

import "time"

// ConfigPath is where the aggregate layout is read and written.
const ConfigPath = "/dashboard/config"

type ItemRef struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// LayoutConfig is the persisted state of one item kind. Sizes are only
// present for selected charts.
type LayoutConfig struct {
	AvailableItems []ItemRef      `json:"availableItems"`
	SelectedItems  []ItemRef      `json:"selectedItems"`
	Columns        int            `json:"columns"`
	Sizes          map[string]int `json:"sizes,omitempty"`
}

// Config is the single object saved for a user's dashboard.
type Config struct {
	Widgets   LayoutConfig `json:"widgets"`
	Charts    LayoutConfig `json:"charts"`
	UpdatedAt *time.Time   `json:"updatedAt,omitempty"`
}

func (c Config) Layout(kind Kind) LayoutConfig {
	if kind == KindChart {
		return c.Charts
	}
	return c.Widgets
}

func refs(ids []string) []ItemRef {
	out := make([]ItemRef, len(ids))
	for i, id := range ids {
		out[i] = ItemRef{ID: id, Order: i}
	}
	return out
}
