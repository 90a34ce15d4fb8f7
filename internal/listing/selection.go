package listing

import (
	"github.com/frahmantamala/asset-management/internal/resource"
)

// The helpers below expect mu to be held.

func (c *Controller[T]) rowByID(id resource.ID) (T, bool) {
	for _, r := range c.rows {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T]) selectedInRowOrder() []resource.ID {
	ids := make([]resource.ID, 0, len(c.selected))
	for _, r := range c.rows {
		if _, ok := c.selected[r.RecordID()]; ok {
			ids = append(ids, r.RecordID())
		}
	}
	return ids
}

func (c *Controller[T]) pruneSelection() {
	onPage := make(map[resource.ID]struct{}, len(c.rows))
	for _, r := range c.rows {
		onPage[r.RecordID()] = struct{}{}
	}
	for id := range c.selected {
		if _, ok := onPage[id]; !ok {
			delete(c.selected, id)
		}
	}
	c.selectAllUndo = nil
}

func (c *Controller[T]) allOnPageSelected() bool {
	if len(c.rows) == 0 {
		return false
	}
	for _, r := range c.rows {
		if _, ok := c.selected[r.RecordID()]; !ok {
			return false
		}
	}
	return true
}

// ToggleRowSelection flips one row and reports whether it is now selected.
// Ids that are not on the current page are ignored.
func (c *Controller[T]) ToggleRowSelection(id resource.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.rowByID(id); !ok {
		return false
	}
	c.selectAllUndo = nil
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false
	}
	c.selected[id] = struct{}{}
	return true
}

// ToggleSelectAllOnPage selects every row on the page, or undoes that when
// they already are. Two calls in a row leave the selection as it was.
func (c *Controller[T]) ToggleSelectAllOnPage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.allOnPageSelected() {
		restore := c.selectAllUndo
		c.selected = map[resource.ID]struct{}{}
		for id := range restore {
			c.selected[id] = struct{}{}
		}
		c.selectAllUndo = nil
		return
	}

	prior := make(map[resource.ID]struct{}, len(c.selected))
	for id := range c.selected {
		prior[id] = struct{}{}
	}
	for _, r := range c.rows {
		c.selected[r.RecordID()] = struct{}{}
	}
	c.selectAllUndo = prior
}

func (c *Controller[T]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = map[resource.ID]struct{}{}
	c.selectAllUndo = nil
}

// SelectIDs replaces the selection with the ids that are on the current page
// and returns how many were kept.
func (c *Controller[T]) SelectIDs(ids []resource.ID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = map[resource.ID]struct{}{}
	c.selectAllUndo = nil
	for _, id := range ids {
		if _, ok := c.rowByID(id); ok {
			c.selected[id] = struct{}{}
		}
	}
	return len(c.selected)
}
