package detail

import (
	"github.com/frahmantamala/asset-management/internal/resource"
)

type Line struct {
	Label string
	Value string
}

// Describe lays a record out as label/value lines in the column order of its
// definition.
func Describe(def resource.Definition, record resource.Tabular) []Line {
	row := record.TableRow()
	lines := make([]Line, 0, len(def.Columns))
	for i, col := range def.Columns {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		lines = append(lines, Line{Label: col, Value: value})
	}
	return lines
}
