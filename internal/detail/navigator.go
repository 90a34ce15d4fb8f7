package detail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/listing"
	"github.com/frahmantamala/asset-management/internal/resource"
)

// Pager is the part of the list controller a detail view walks over.
type Pager[T resource.Record] interface {
	State() listing.State[T]
	SetPage(ctx context.Context, n int) error
}

var (
	ErrNoPrevious = internal.NewValidationError("Already at the first record", "NO_PREVIOUS")
	ErrNoNext     = internal.NewValidationError("Already at the last record", "NO_NEXT")
)

// Navigator shows one record of the controller's result set and steps to its
// neighbours, crossing page boundaries through the controller.
type Navigator[T resource.Record] struct {
	pager  Pager[T]
	logger *slog.Logger

	mu      sync.Mutex
	current resource.ID
}

func NewNavigator[T resource.Record](pager Pager[T], id resource.ID, logger *slog.Logger) *Navigator[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator[T]{pager: pager, current: id, logger: logger}
}

// position returns the index of the current record in rows, -1 if it is not
// on the loaded page.
func (n *Navigator[T]) position(rows []T) int {
	for i, r := range rows {
		if r.RecordID() == n.current {
			return i
		}
	}
	return -1
}

// Current returns the record on display, if it is still on the loaded page.
func (n *Navigator[T]) Current() (T, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	rows := n.pager.State().Rows
	if i := n.position(rows); i >= 0 {
		return rows[i], true
	}
	var zero T
	return zero, false
}

func (n *Navigator[T]) HasPrev() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	state := n.pager.State()
	return n.position(state.Rows) > 0 || state.Query.Page > 1
}

func (n *Navigator[T]) HasNext() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	state := n.pager.State()
	return n.position(state.Rows) < len(state.Rows)-1 || state.Query.Page < state.Pagination.TotalPages
}

// Next moves to the following record, loading the next page when the current
// record is the last one on its page.
func (n *Navigator[T]) Next(ctx context.Context) (T, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var zero T
	state := n.pager.State()
	i := n.position(state.Rows)
	if i < len(state.Rows)-1 {
		n.current = state.Rows[i+1].RecordID()
		return state.Rows[i+1], nil
	}
	if state.Query.Page >= state.Pagination.TotalPages {
		return zero, ErrNoNext
	}

	if err := n.pager.SetPage(ctx, state.Query.Page+1); err != nil {
		return zero, err
	}
	rows := n.pager.State().Rows
	if len(rows) == 0 {
		return zero, ErrNoNext
	}
	n.current = rows[0].RecordID()
	n.logger.Debug("Navigator: crossed to next page", "page", state.Query.Page+1, "id", n.current)
	return rows[0], nil
}

// Prev moves to the preceding record, landing on the last row of the previous
// page when needed.
func (n *Navigator[T]) Prev(ctx context.Context) (T, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var zero T
	state := n.pager.State()
	i := n.position(state.Rows)
	if i > 0 {
		n.current = state.Rows[i-1].RecordID()
		return state.Rows[i-1], nil
	}
	if i < 0 && len(state.Rows) > 0 {
		last := state.Rows[len(state.Rows)-1]
		n.current = last.RecordID()
		return last, nil
	}
	if state.Query.Page <= 1 {
		return zero, ErrNoPrevious
	}

	if err := n.pager.SetPage(ctx, state.Query.Page-1); err != nil {
		return zero, err
	}
	rows := n.pager.State().Rows
	if len(rows) == 0 {
		return zero, ErrNoPrevious
	}
	last := rows[len(rows)-1]
	n.current = last.RecordID()
	n.logger.Debug("Navigator: crossed to previous page", "page", state.Query.Page-1, "id", n.current)
	return last, nil
}
