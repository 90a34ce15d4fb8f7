package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/core/common/validation"
	"github.com/frahmantamala/asset-management/internal/core/events"
)

// Store reads and writes JSON documents, normally the API client.
type Store interface {
	GetJSON(ctx context.Context, path string, out any) error
	PutJSON(ctx context.Context, path string, in, out any) error
}

const (
	MinSize = 1
	MaxSize = 3

	saveFallback = "Failed to save dashboard configuration"
	loadFallback = "Failed to load dashboard configuration"
)

type Banner struct {
	Level   events.AlertLevel
	Message string
}

type Options struct {
	Catalog       []Item
	WidgetColumns int
	ChartColumns  int
	// BannerTTL is how long a save banner stays up. Zero keeps it until dismissed.
	BannerTTL time.Duration
	Bus       *events.EventBus
	Logger    *slog.Logger
}

type layout struct {
	available []string
	selected  []string
	columns   int
	sizes     map[string]int
}

// Editor manages the available and selected items of both kinds and persists
// them as one configuration object.
type Editor struct {
	store Store
	opts  Options
	items map[string]Item

	mu        sync.Mutex
	layouts   map[Kind]*layout
	banner    *Banner
	bannerGen uint64
	timer     *time.Timer
}

func NewEditor(store Store, opts Options) *Editor {
	if len(opts.Catalog) == 0 {
		opts.Catalog = DefaultCatalog()
	}
	if opts.WidgetColumns < 1 || opts.WidgetColumns > 4 {
		opts.WidgetColumns = 3
	}
	if opts.ChartColumns < 1 || opts.ChartColumns > 4 {
		opts.ChartColumns = 2
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Editor{store: store, opts: opts, items: map[string]Item{}}
	for _, item := range opts.Catalog {
		e.items[item.ID] = item
	}
	e.layouts = e.defaultLayouts()
	return e
}

func (e *Editor) defaultLayouts() map[Kind]*layout {
	layouts := map[Kind]*layout{
		KindWidget: {columns: e.opts.WidgetColumns, sizes: map[string]int{}},
		KindChart:  {columns: e.opts.ChartColumns, sizes: map[string]int{}},
	}
	for _, item := range e.opts.Catalog {
		if l, ok := layouts[item.Kind]; ok {
			l.available = append(l.available, item.ID)
		}
	}
	return layouts
}

func (e *Editor) lookup(id string, kind Kind) (Item, error) {
	if !kind.Valid() {
		return Item{}, internal.NewValidationError(fmt.Sprintf("Unknown item kind %q", kind), internal.ErrCodeValidationFailed)
	}
	item, ok := e.items[id]
	if !ok || item.Kind != kind {
		return Item{}, internal.NewValidationError(fmt.Sprintf("Unknown %s %q", kind, id), internal.ErrCodeValidationFailed)
	}
	return item, nil
}

func (e *Editor) resolve(ids []string) []Item {
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.items[id])
	}
	return out
}

func (e *Editor) Available(kind Kind) []Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.layouts[kind]; ok {
		return e.resolve(l.available)
	}
	return nil
}

// Selected returns the selected items in display order.
func (e *Editor) Selected(kind Kind) []Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.layouts[kind]; ok {
		return e.resolve(l.selected)
	}
	return nil
}

func (e *Editor) Columns(kind Kind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.layouts[kind]; ok {
		return l.columns
	}
	return 0
}

// Size returns the size of a selected chart, or 0 when it has none.
func (e *Editor) Size(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layouts[KindChart].sizes[id]
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func remove(ids []string, i int) []string {
	out := make([]string, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...)
}

// MoveToSelected appends the item to the selected list. Charts start at size 1.
func (e *Editor) MoveToSelected(id string, kind Kind) error {
	if _, err := e.lookup(id, kind); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.layouts[kind]
	i := indexOf(l.available, id)
	if i < 0 {
		return internal.NewValidationError(fmt.Sprintf("%s %q is not available", kind, id), internal.ErrCodeValidationFailed)
	}
	l.available = remove(l.available, i)
	l.selected = append(l.selected, id)
	if kind == KindChart {
		l.sizes[id] = MinSize
	}
	return nil
}

// MoveToAvailable appends the item back to the available list and forgets its size.
func (e *Editor) MoveToAvailable(id string, kind Kind) error {
	if _, err := e.lookup(id, kind); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.layouts[kind]
	i := indexOf(l.selected, id)
	if i < 0 {
		return internal.NewValidationError(fmt.Sprintf("%s %q is not selected", kind, id), internal.ErrCodeValidationFailed)
	}
	l.selected = remove(l.selected, i)
	l.available = append(l.available, id)
	delete(l.sizes, id)
	return nil
}

// SetSize resizes a selected chart.
func (e *Editor) SetSize(id string, size int) error {
	if _, err := e.lookup(id, KindChart); err != nil {
		return err
	}
	validator := validation.NewValidator()
	validator.Field("size", size).
		MinInt(MinSize, internal.ErrCodeValidationFailed).
		MaxInt(MaxSize, internal.ErrCodeValidationFailed)
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.layouts[KindChart]
	if indexOf(l.selected, id) < 0 {
		return internal.NewValidationError(fmt.Sprintf("chart %q is not selected", id), internal.ErrCodeValidationFailed)
	}
	l.sizes[id] = size
	return nil
}

// SetColumns stores the column count of one kind without touching the other.
func (e *Editor) SetColumns(kind Kind, n int) error {
	if !kind.Valid() {
		return internal.NewValidationError(fmt.Sprintf("Unknown item kind %q", kind), internal.ErrCodeValidationFailed)
	}
	if appErr := validation.ValidateColumns(string(kind), n); appErr != nil {
		return appErr
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.layouts[kind].columns = n
	return nil
}

// Config snapshots the current state as the persisted object.
func (e *Editor) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config()
}

func (e *Editor) config() Config {
	toLayout := func(l *layout, withSizes bool) LayoutConfig {
		lc := LayoutConfig{
			AvailableItems: refs(l.available),
			SelectedItems:  refs(l.selected),
			Columns:        l.columns,
		}
		if withSizes {
			lc.Sizes = make(map[string]int, len(l.sizes))
			for k, v := range l.sizes {
				lc.Sizes[k] = v
			}
		}
		return lc
	}
	return Config{
		Widgets: toLayout(e.layouts[KindWidget], false),
		Charts:  toLayout(e.layouts[KindChart], true),
	}
}

// Save persists both kinds in one request and raises a banner either way.
func (e *Editor) Save(ctx context.Context) error {
	cfg := e.Config()

	var saved Config
	if err := e.store.PutJSON(ctx, ConfigPath, cfg, &saved); err != nil {
		e.opts.Logger.Error("Dashboard: save failed", "error", err)
		msg := internal.DisplayMessage(err, saveFallback)
		e.showBanner(events.AlertError, msg)
		e.publish(ctx, events.NewAlertEvent(events.AlertError, msg))
		return err
	}

	const msg = "Dashboard configuration saved successfully"
	e.opts.Logger.Info("Dashboard: configuration saved",
		"widgets", len(cfg.Widgets.SelectedItems),
		"charts", len(cfg.Charts.SelectedItems))
	e.showBanner(events.AlertSuccess, msg)
	e.publish(ctx,
		events.NewDashboardSavedEvent(len(cfg.Widgets.SelectedItems), len(cfg.Charts.SelectedItems)),
		events.NewAlertEvent(events.AlertSuccess, msg))
	return nil
}

// Load replaces the state with the persisted configuration. A user without a
// saved configuration gets the defaults.
func (e *Editor) Load(ctx context.Context) error {
	var cfg Config
	if err := e.store.GetJSON(ctx, ConfigPath, &cfg); err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode == http.StatusNotFound {
			e.mu.Lock()
			e.layouts = e.defaultLayouts()
			e.mu.Unlock()
			return nil
		}
		e.opts.Logger.Error("Dashboard: load failed", "error", err)
		e.showBanner(events.AlertError, internal.DisplayMessage(err, loadFallback))
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.apply(cfg)
	return nil
}

// apply rebuilds both layouts from cfg against the catalog. Unknown ids are
// dropped and catalog items missing from cfg become available.
func (e *Editor) apply(cfg Config) {
	layouts := map[Kind]*layout{}
	for _, kind := range []Kind{KindWidget, KindChart} {
		lc := cfg.Layout(kind)
		l := &layout{columns: lc.Columns, sizes: map[string]int{}}
		if l.columns < 1 || l.columns > 4 {
			l.columns = e.opts.WidgetColumns
			if kind == KindChart {
				l.columns = e.opts.ChartColumns
			}
		}

		placed := map[string]bool{}
		for _, ref := range ordered(lc.SelectedItems) {
			if item, ok := e.items[ref.ID]; !ok || item.Kind != kind || placed[ref.ID] {
				continue
			}
			placed[ref.ID] = true
			l.selected = append(l.selected, ref.ID)
			if kind == KindChart {
				size := lc.Sizes[ref.ID]
				if size < MinSize || size > MaxSize {
					size = MinSize
				}
				l.sizes[ref.ID] = size
			}
		}
		for _, ref := range ordered(lc.AvailableItems) {
			if item, ok := e.items[ref.ID]; !ok || item.Kind != kind || placed[ref.ID] {
				continue
			}
			placed[ref.ID] = true
			l.available = append(l.available, ref.ID)
		}
		for _, item := range e.opts.Catalog {
			if item.Kind == kind && !placed[item.ID] {
				placed[item.ID] = true
				l.available = append(l.available, item.ID)
			}
		}
		layouts[kind] = l
	}
	e.layouts = layouts
}

func ordered(in []ItemRef) []ItemRef {
	out := make([]ItemRef, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Banner returns the banner on display, if any.
func (e *Editor) Banner() *Banner {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.banner == nil {
		return nil
	}
	b := *e.banner
	return &b
}

func (e *Editor) DismissBanner() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearBanner()
}

func (e *Editor) clearBanner() {
	e.bannerGen++
	e.banner = nil
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Editor) showBanner(level events.AlertLevel, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearBanner()
	e.banner = &Banner{Level: level, Message: msg}
	if e.opts.BannerTTL <= 0 {
		return
	}
	gen := e.bannerGen
	e.timer = time.AfterFunc(e.opts.BannerTTL, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.bannerGen == gen {
			e.banner = nil
			e.timer = nil
		}
	})
}

// Close stops the banner timer.
func (e *Editor) Close() {
	e.DismissBanner()
}

func (e *Editor) publish(ctx context.Context, evs ...events.Event) {
	if e.opts.Bus == nil {
		return
	}
	for _, ev := range evs {
		if err := e.opts.Bus.PublishSync(ctx, ev); err != nil {
			e.opts.Logger.Warn("Dashboard: event handler failed", "event_type", ev.EventType(), "error", err)
		}
	}
}
