package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/core/common/validation"
	"github.com/frahmantamala/asset-management/internal/core/events"
	"github.com/frahmantamala/asset-management/internal/resource"
)

// Source is the part of the resource API a list screen needs.
type Source[T resource.Record] interface {
	List(ctx context.Context, q resource.Query) (resource.Page[T], error)
	Delete(ctx context.Context, id resource.ID) error
	BulkDelete(ctx context.Context, ids []resource.ID) error
	Import(ctx context.Context, fileName string, src io.Reader) (resource.ImportResult, error)
	Export(ctx context.Context, format string, q resource.Query, w io.Writer) (int64, error)
}

// Authorizer reports whether a session is present. It lets Fetch stop before
// touching the network.
type Authorizer interface {
	Authorized(ctx context.Context) error
}

var (
	ErrCancelled       = errors.New("cancelled by user")
	ErrNothingSelected = internal.NewValidationError("Please select at least one record", internal.ErrCodeValidationFailed)
)

const fetchFallback = "Failed to load records"

type Options struct {
	Kind              string
	PageSize          int
	SearchDebounce    time.Duration
	ImportMaxBytes    int64
	AllowedExtensions []string
	// InitialQuery seeds the query before the first fetch.
	InitialQuery *resource.Query
	Confirmer    Confirmer
	Auth         Authorizer
	Bus          *events.EventBus
	Logger       *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PageSize == 0 {
		o.PageSize = resource.DefaultPageSize
	}
	if o.ImportMaxBytes <= 0 {
		o.ImportMaxBytes = 10 * 1024 * 1024
	}
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = []string{".xlsx", ".xls", ".csv"}
	}
	if o.Confirmer == nil {
		o.Confirmer = AlwaysConfirm
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// State is a snapshot of everything a list screen renders.
type State[T resource.Record] struct {
	Rows          []T
	Pagination    resource.Pagination
	Query         resource.Query
	Selected      []resource.ID
	Loading       bool
	Error         string
	Message       string
	LoginRequired bool
}

// Controller owns the query, rows and selection of one resource list. Every
// mutation goes through the server and is followed by a fresh fetch.
type Controller[T resource.Record] struct {
	src  Source[T]
	opts Options

	mu            sync.Mutex
	query         resource.Query
	rows          []T
	pagination    resource.Pagination
	selected      map[resource.ID]struct{}
	selectAllUndo map[resource.ID]struct{}
	loading       bool
	errMsg        string
	message       string
	loginRequired bool

	seq          uint64
	cancelFetch  context.CancelFunc
	searchTimer  *time.Timer
	searchGen    uint64
	pendingQuery string
}

func NewController[T resource.Record](src Source[T], opts Options) *Controller[T] {
	opts = opts.withDefaults()
	query := resource.NewQuery(opts.PageSize)
	if opts.InitialQuery != nil {
		query = opts.InitialQuery.Clone()
		if query.Page < 1 {
			query.Page = 1
		}
		if !resource.ValidPageSize(query.PageSize) {
			query.PageSize = resource.NewQuery(opts.PageSize).PageSize
		}
		if query.SortDirection == "" {
			query.SortDirection = resource.SortAsc
		}
	}
	return &Controller[T]{
		src:      src,
		opts:     opts,
		query:    query,
		rows:     []T{},
		selected: map[resource.ID]struct{}{},
	}
}

func (c *Controller[T]) Kind() string {
	return c.opts.Kind
}

func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]T, len(c.rows))
	copy(rows, c.rows)
	return State[T]{
		Rows:          rows,
		Pagination:    c.pagination,
		Query:         c.query.Clone(),
		Selected:      c.selectedInRowOrder(),
		Loading:       c.loading,
		Error:         c.errMsg,
		Message:       c.message,
		LoginRequired: c.loginRequired,
	}
}

// Fetch loads the page described by the current query. A newer fetch cancels
// an older one still in flight, and a superseded response never touches state.
func (c *Controller[T]) Fetch(ctx context.Context) error {
	if c.opts.Auth != nil {
		if err := c.opts.Auth.Authorized(ctx); err != nil {
			c.mu.Lock()
			c.seq++
			if c.cancelFetch != nil {
				c.cancelFetch()
				c.cancelFetch = nil
			}
			c.loading = false
			c.fail(err)
			c.mu.Unlock()
			return err
		}
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	q := c.query.Clone()
	c.loading = true
	c.mu.Unlock()

	page, err := c.src.List(fetchCtx, q)
	cancel()

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.opts.Logger.Debug("ListController: dropped stale response", "resource", c.opts.Kind, "seq", seq)
		return nil
	}
	c.loading = false
	c.cancelFetch = nil

	if err != nil {
		c.fail(err)
		msg := c.errMsg
		c.mu.Unlock()
		c.opts.Logger.Warn("ListController: fetch failed", "resource", c.opts.Kind, "error", err)
		c.emit(ctx, events.NewAlertEvent(events.AlertError, msg))
		return err
	}

	rows := page.Data
	if rows == nil {
		rows = []T{}
	}
	c.rows = rows
	c.pagination = page.Pagination
	c.errMsg = ""
	c.loginRequired = false
	c.pruneSelection()

	// the window we asked for no longer exists; step back to the last real page
	refetch := false
	if len(rows) == 0 && q.Page > 1 && page.Pagination.TotalPages < q.Page {
		if page.Pagination.TotalPages > 0 {
			c.query.Page = page.Pagination.TotalPages
			refetch = true
		} else {
			c.query.Page = 1
		}
	}
	c.mu.Unlock()

	c.emit(ctx, events.NewRecordsFetchedEvent(c.opts.Kind, q.Page, len(rows), page.Pagination.TotalRecords))
	if refetch {
		return c.Fetch(ctx)
	}
	return nil
}

// fail records a fetch failure. Callers hold mu.
func (c *Controller[T]) fail(err error) {
	c.rows = []T{}
	c.pagination = resource.Pagination{}
	c.selected = map[resource.ID]struct{}{}
	c.selectAllUndo = nil
	c.errMsg = internal.DisplayMessage(err, fetchFallback)
	c.loginRequired = internal.IsType(err, internal.ErrorTypeAuthMissing)
}

func (c *Controller[T]) emit(ctx context.Context, evs ...events.Event) {
	if c.opts.Bus == nil {
		return
	}
	for _, ev := range evs {
		_ = c.opts.Bus.PublishSync(ctx, ev)
	}
}

// setError records a user facing error outside of fetch and returns err.
func (c *Controller[T]) setError(ctx context.Context, err error, fallback string) error {
	msg := internal.DisplayMessage(err, fallback)
	c.mu.Lock()
	c.errMsg = msg
	c.message = ""
	if internal.IsType(err, internal.ErrorTypeAuthMissing) {
		c.loginRequired = true
	}
	c.mu.Unlock()
	c.emit(ctx, events.NewAlertEvent(events.AlertError, msg))
	return err
}

func (c *Controller[T]) setMessage(ctx context.Context, level events.AlertLevel, msg string) {
	c.mu.Lock()
	c.message = msg
	if level != events.AlertError && level != events.AlertWarning {
		c.errMsg = ""
	}
	c.mu.Unlock()
	c.emit(ctx, events.NewAlertEvent(level, msg))
}

// SetSort sorts by column, flipping the direction when it is already the sort key.
func (c *Controller[T]) SetSort(ctx context.Context, column string) error {
	if column == "" {
		return c.setError(ctx, internal.NewValidationError("Sort column is required", internal.ErrCodeValidationFailed), "")
	}
	c.mu.Lock()
	if c.query.SortColumn == column {
		c.query.SortDirection = c.query.SortDirection.Flip()
	} else {
		c.query.SortColumn = column
		c.query.SortDirection = resource.SortAsc
	}
	c.query.Page = 1
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// SetSearchQuery debounces search input: only the last call inside the window
// fetches. With no debounce configured it fetches right away.
func (c *Controller[T]) SetSearchQuery(ctx context.Context, text string) error {
	c.mu.Lock()
	c.searchGen++
	gen := c.searchGen
	c.pendingQuery = text
	if c.searchTimer != nil {
		c.searchTimer.Stop()
		c.searchTimer = nil
	}
	if c.opts.SearchDebounce <= 0 {
		c.mu.Unlock()
		return c.applySearch(ctx, gen)
	}
	c.searchTimer = time.AfterFunc(c.opts.SearchDebounce, func() {
		_ = c.applySearch(ctx, gen)
	})
	c.mu.Unlock()
	return nil
}

func (c *Controller[T]) applySearch(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	if gen != c.searchGen {
		c.mu.Unlock()
		return nil
	}
	c.searchTimer = nil
	c.query.Search = c.pendingQuery
	c.query.Page = 1
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// FlushSearch applies a pending debounced search immediately.
func (c *Controller[T]) FlushSearch(ctx context.Context) error {
	c.mu.Lock()
	if c.searchTimer == nil || !c.searchTimer.Stop() {
		c.mu.Unlock()
		return nil
	}
	gen := c.searchGen
	c.mu.Unlock()
	return c.applySearch(ctx, gen)
}

// SetPage moves to page n. Pages outside 1..totalPages are ignored.
func (c *Controller[T]) SetPage(ctx context.Context, n int) error {
	c.mu.Lock()
	if n < 1 || n > c.pagination.TotalPages {
		c.mu.Unlock()
		return nil
	}
	c.query.Page = n
	c.selected = map[resource.ID]struct{}{}
	c.selectAllUndo = nil
	c.mu.Unlock()
	return c.Fetch(ctx)
}

func (c *Controller[T]) SetPageSize(ctx context.Context, n int) error {
	if appErr := validation.ValidatePageSize(n, resource.PageSizes); appErr != nil {
		return c.setError(ctx, appErr, "")
	}
	c.mu.Lock()
	c.query.PageSize = n
	c.query.Page = 1
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// SetFilter narrows the list by an extra query parameter. An empty value
// removes the filter.
func (c *Controller[T]) SetFilter(ctx context.Context, key, value string) error {
	if key == "" || resource.IsReservedParam(key) {
		return c.setError(ctx, internal.NewValidationError(
			fmt.Sprintf("%q cannot be used as a filter", key), internal.ErrCodeValidationFailed), "")
	}
	c.mu.Lock()
	if value == "" {
		delete(c.query.Filters, key)
	} else {
		c.query.Filters[key] = value
	}
	c.query.Page = 1
	c.mu.Unlock()
	return c.Fetch(ctx)
}

func (c *Controller[T]) ClearFilters(ctx context.Context) error {
	c.mu.Lock()
	c.query.Filters = map[string]string{}
	c.query.Page = 1
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// Refresh refetches without changing the query.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	return c.Fetch(ctx)
}

// Close stops a pending debounced search and cancels any fetch in flight.
// The cancelled response is dropped, so state keeps the last loaded page.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchGen++
	c.seq++
	c.loading = false
	if c.searchTimer != nil {
		c.searchTimer.Stop()
		c.searchTimer = nil
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

// Delete removes one record after confirmation. Records that are in use or
// system owned are refused before any network call.
func (c *Controller[T]) Delete(ctx context.Context, id resource.ID) error {
	c.mu.Lock()
	row, found := c.rowByID(id)
	c.mu.Unlock()

	if found {
		if err := resource.DeleteBlocked(row); err != nil {
			return c.setError(ctx, err, "")
		}
	}

	if !c.opts.Confirmer.Confirm(ctx, "Are you sure you want to delete this record? This action cannot be undone.") {
		return ErrCancelled
	}

	if err := c.src.Delete(ctx, id); err != nil {
		c.opts.Logger.Warn("ListController: delete failed", "resource", c.opts.Kind, "id", id, "error", err)
		return c.setError(ctx, err, "Failed to delete record")
	}

	c.mu.Lock()
	delete(c.selected, id)
	c.selectAllUndo = nil
	c.mu.Unlock()

	c.setMessage(ctx, events.AlertSuccess, "Record deleted successfully")
	c.emit(ctx, events.NewRecordDeletedEvent(c.opts.Kind, id.String()))
	return c.Fetch(ctx)
}

// BulkDelete deletes every selected record in one request.
func (c *Controller[T]) BulkDelete(ctx context.Context) error {
	c.mu.Lock()
	ids := c.selectedInRowOrder()
	c.mu.Unlock()

	if len(ids) == 0 {
		c.setMessage(ctx, events.AlertWarning, ErrNothingSelected.Message)
		return ErrNothingSelected
	}

	prompt := fmt.Sprintf("Are you sure you want to delete %d selected record(s)? This action cannot be undone.", len(ids))
	if !c.opts.Confirmer.Confirm(ctx, prompt) {
		return ErrCancelled
	}

	if err := c.src.BulkDelete(ctx, ids); err != nil {
		c.opts.Logger.Warn("ListController: bulk delete failed", "resource", c.opts.Kind, "count", len(ids), "error", err)
		return c.setError(ctx, err, "Failed to delete selected records")
	}

	c.mu.Lock()
	c.selected = map[resource.ID]struct{}{}
	c.selectAllUndo = nil
	c.mu.Unlock()

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	c.setMessage(ctx, events.AlertSuccess, fmt.Sprintf("%d record(s) deleted successfully", len(ids)))
	c.emit(ctx, events.NewRecordsBulkDeletedEvent(c.opts.Kind, raw))
	return c.Fetch(ctx)
}

// Import uploads a spreadsheet after checking its name and size, then
// refetches whether or not some rows were rejected.
func (c *Controller[T]) Import(ctx context.Context, fileName string, size int64, src io.Reader) (resource.ImportResult, error) {
	if appErr := validation.ValidateImportFile(fileName, size, c.opts.AllowedExtensions, c.opts.ImportMaxBytes); appErr != nil {
		return resource.ImportResult{}, c.setError(ctx, appErr, "")
	}

	result, err := c.src.Import(ctx, fileName, src)
	if err != nil {
		c.opts.Logger.Warn("ListController: import failed", "resource", c.opts.Kind, "file", fileName, "error", err)
		return resource.ImportResult{}, c.setError(ctx, err, "Failed to import file")
	}

	level := events.AlertSuccess
	if result.Partial() {
		level = events.AlertWarning
	}
	c.setMessage(ctx, level, fmt.Sprintf("Import completed: %d imported, %d failed, %d total rows",
		result.ImportedCount, result.FailedCount, result.TotalRows))
	c.emit(ctx, events.NewRecordsImportedEvent(c.opts.Kind, result.ImportedCount, result.FailedCount, result.TotalRows))
	return result, c.Fetch(ctx)
}

// Export writes every record matching the current query to w.
func (c *Controller[T]) Export(ctx context.Context, format string, w io.Writer) (int64, error) {
	c.mu.Lock()
	q := c.query.Clone()
	c.mu.Unlock()

	n, err := c.src.Export(ctx, format, q, w)
	if err != nil {
		return n, c.setError(ctx, err, "Failed to export records")
	}
	return n, nil
}
