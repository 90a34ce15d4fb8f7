package form

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/core/events"
	"github.com/frahmantamala/asset-management/internal/resource"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Saver is the write half of a resource API.
type Saver[T resource.Editable] interface {
	Create(ctx context.Context, payload map[string]any) (T, error)
	Update(ctx context.Context, id resource.ID, payload map[string]any) (T, error)
}

// Refresher is notified after a successful save, normally the list controller.
type Refresher interface {
	Refresh(ctx context.Context) error
}

const submitFallback = "Failed to save record. Please try again."

var ErrNotOpen = internal.NewValidationError("Form is not open", internal.ErrCodeValidationFailed)

type State struct {
	Open        bool
	Mode        Mode
	RecordID    resource.ID
	Fields      map[string]string
	Errors      map[string]string
	SubmitError string
	Submitting  bool
	Locked      []string
}

type Options struct {
	Refresher Refresher
	Bus       *events.EventBus
	Logger    *slog.Logger
}

// Form holds the draft of one record between open and submit or cancel.
type Form[T resource.Editable] struct {
	def   resource.Definition
	saver Saver[T]
	opts  Options

	mu          sync.Mutex
	open        bool
	mode        Mode
	recordID    resource.ID
	fields      map[string]string
	errors      map[string]string
	submitErr   string
	submitting  bool
	lockedWants map[string]string
}

func New[T resource.Editable](def resource.Definition, saver Saver[T], opts Options) *Form[T] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Form[T]{def: def, saver: saver, opts: opts}
}

// OpenCreate starts an empty draft.
func (f *Form[T]) OpenCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reset()
	f.open = true
	f.mode = ModeCreate
	for _, name := range f.def.Schema.Names() {
		f.fields[name] = ""
	}
}

// OpenEdit seeds the draft from record. Locked fields of a system owned
// record keep their current values.
func (f *Form[T]) OpenEdit(record T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reset()
	f.open = true
	f.mode = ModeEdit
	f.recordID = record.RecordID()

	values := record.FormValues()
	for _, name := range f.def.Schema.Names() {
		f.fields[name] = values[name]
	}
	if so, ok := any(record).(resource.SystemOwned); ok && so.IsSystemOwned() {
		for _, name := range f.def.Schema.LockedFields() {
			f.lockedWants[name] = values[name]
		}
	}
}

// Open dispatches on mode; record is ignored for create.
func (f *Form[T]) Open(mode Mode, record T) {
	if mode == ModeEdit {
		f.OpenEdit(record)
		return
	}
	f.OpenCreate()
}

func (f *Form[T]) reset() {
	f.open = false
	f.mode = ""
	f.recordID = ""
	f.fields = map[string]string{}
	f.errors = map[string]string{}
	f.submitErr = ""
	f.submitting = false
	f.lockedWants = map[string]string{}
}

func (f *Form[T]) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

// Set changes one field of the draft. Locked fields cannot be changed.
func (f *Form[T]) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return ErrNotOpen
	}
	field, ok := f.def.Schema.Field(name)
	if !ok {
		return internal.NewValidationError(fmt.Sprintf("Unknown field %q", name), internal.ErrCodeValidationFailed)
	}
	if want, locked := f.lockedWants[name]; locked && value != want {
		return internal.ErrSystemOwned
	}
	f.fields[name] = value
	delete(f.errors, field.Name)
	return nil
}

// Validate recomputes errors from the current fields and reports whether the
// draft can be submitted.
func (f *Form[T]) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validate()
}

func (f *Form[T]) validate() bool {
	f.errors = f.def.Schema.Validate(f.fields)
	for name, want := range f.lockedWants {
		if f.fields[name] != want {
			field, _ := f.def.Schema.Field(name)
			label := field.Label
			if label == "" {
				label = name
			}
			f.errors[name] = fmt.Sprintf("%s cannot be changed on system records", label)
		}
	}
	return len(f.errors) == 0
}

// Submit validates and saves the draft. Nothing is sent when validation fails.
// On success the refresher reloads and the form closes.
func (f *Form[T]) Submit(ctx context.Context) (T, error) {
	var zero T

	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return zero, ErrNotOpen
	}
	f.submitErr = ""
	if !f.validate() {
		fieldErrs := copyMap(f.errors)
		f.mu.Unlock()
		return zero, internal.NewValidationFieldsError(fieldErrs)
	}
	mode, id := f.mode, f.recordID
	payload := f.def.Schema.Payload(f.fields)
	f.submitting = true
	f.mu.Unlock()

	var saved T
	var err error
	if mode == ModeEdit {
		saved, err = f.saver.Update(ctx, id, payload)
	} else {
		saved, err = f.saver.Create(ctx, payload)
	}

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeValidation && len(appErr.Fields) > 0 {
			for k, v := range appErr.Fields {
				f.errors[k] = v
			}
		} else {
			f.submitErr = internal.DisplayMessage(err, submitFallback)
		}
		f.mu.Unlock()
		f.opts.Logger.Warn("Form: submit failed", "resource", f.def.Kind, "mode", mode, "error", err)
		return zero, err
	}
	f.reset()
	f.mu.Unlock()

	f.opts.Logger.Info("Form: record saved", "resource", f.def.Kind, "mode", mode, "id", saved.RecordID())
	if f.opts.Bus != nil {
		_ = f.opts.Bus.PublishSync(ctx, events.NewRecordSavedEvent(f.def.Kind, saved.RecordID().String(), mode == ModeCreate))
		_ = f.opts.Bus.PublishSync(ctx, events.NewAlertEvent(events.AlertSuccess, successMessage(mode)))
	}
	if f.opts.Refresher != nil {
		if rerr := f.opts.Refresher.Refresh(ctx); rerr != nil {
			f.opts.Logger.Warn("Form: refresh after save failed", "resource", f.def.Kind, "error", rerr)
		}
	}
	return saved, nil
}

func successMessage(mode Mode) string {
	if mode == ModeEdit {
		return "Record updated successfully"
	}
	return "Record created successfully"
}

func (f *Form[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	locked := make([]string, 0, len(f.lockedWants))
	for name := range f.lockedWants {
		locked = append(locked, name)
	}
	sort.Strings(locked)
	return State{
		Open:        f.open,
		Mode:        f.mode,
		RecordID:    f.recordID,
		Fields:      copyMap(f.fields),
		Errors:      copyMap(f.errors),
		SubmitError: f.submitErr,
		Submitting:  f.submitting,
		Locked:      locked,
	}
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
