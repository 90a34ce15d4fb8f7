package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRecordsFetched     = "records.fetched"
	EventTypeRecordSaved        = "record.saved"
	EventTypeRecordDeleted      = "record.deleted"
	EventTypeRecordsBulkDeleted = "records.bulk_deleted"
	EventTypeRecordsImported    = "records.imported"
	EventTypeDashboardSaved     = "dashboard.saved"
	EventTypeAlert              = "alert"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type RecordsFetchedEvent struct {
	BaseEvent
	Resource     string `json:"resource"`
	Page         int    `json:"page"`
	Rows         int    `json:"rows"`
	TotalRecords int    `json:"total_records"`
}

func NewRecordsFetchedEvent(resource string, page, rows, totalRecords int) *RecordsFetchedEvent {
	return &RecordsFetchedEvent{
		BaseEvent: newBase(EventTypeRecordsFetched, map[string]interface{}{
			"resource":      resource,
			"page":          page,
			"rows":          rows,
			"total_records": totalRecords,
		}),
		Resource:     resource,
		Page:         page,
		Rows:         rows,
		TotalRecords: totalRecords,
	}
}

type RecordSavedEvent struct {
	BaseEvent
	Resource string `json:"resource"`
	RecordID string `json:"record_id"`
	Created  bool   `json:"created"`
}

func NewRecordSavedEvent(resource, recordID string, created bool) *RecordSavedEvent {
	return &RecordSavedEvent{
		BaseEvent: newBase(EventTypeRecordSaved, map[string]interface{}{
			"resource":  resource,
			"record_id": recordID,
			"created":   created,
		}),
		Resource: resource,
		RecordID: recordID,
		Created:  created,
	}
}

type RecordsDeletedEvent struct {
	BaseEvent
	Resource  string   `json:"resource"`
	RecordIDs []string `json:"record_ids"`
}

func NewRecordDeletedEvent(resource, recordID string) *RecordsDeletedEvent {
	return newRecordsDeleted(EventTypeRecordDeleted, resource, []string{recordID})
}

func NewRecordsBulkDeletedEvent(resource string, recordIDs []string) *RecordsDeletedEvent {
	return newRecordsDeleted(EventTypeRecordsBulkDeleted, resource, recordIDs)
}

func newRecordsDeleted(eventType, resource string, recordIDs []string) *RecordsDeletedEvent {
	return &RecordsDeletedEvent{
		BaseEvent: newBase(eventType, map[string]interface{}{
			"resource":   resource,
			"record_ids": recordIDs,
		}),
		Resource:  resource,
		RecordIDs: recordIDs,
	}
}

type RecordsImportedEvent struct {
	BaseEvent
	Resource      string `json:"resource"`
	ImportedCount int    `json:"imported_count"`
	FailedCount   int    `json:"failed_count"`
	TotalRows     int    `json:"total_rows"`
}

func NewRecordsImportedEvent(resource string, imported, failed, total int) *RecordsImportedEvent {
	return &RecordsImportedEvent{
		BaseEvent: newBase(EventTypeRecordsImported, map[string]interface{}{
			"resource":       resource,
			"imported_count": imported,
			"failed_count":   failed,
			"total_rows":     total,
		}),
		Resource:      resource,
		ImportedCount: imported,
		FailedCount:   failed,
		TotalRows:     total,
	}
}

type DashboardSavedEvent struct {
	BaseEvent
	Widgets int `json:"widgets"`
	Charts  int `json:"charts"`
}

func NewDashboardSavedEvent(widgets, charts int) *DashboardSavedEvent {
	return &DashboardSavedEvent{
		BaseEvent: newBase(EventTypeDashboardSaved, map[string]interface{}{
			"widgets": widgets,
			"charts":  charts,
		}),
		Widgets: widgets,
		Charts:  charts,
	}
}

type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertSuccess AlertLevel = "success"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error"
)

// AlertEvent is a transient user facing message.
type AlertEvent struct {
	BaseEvent
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
}

func NewAlertEvent(level AlertLevel, message string) *AlertEvent {
	return &AlertEvent{
		BaseEvent: newBase(EventTypeAlert, map[string]interface{}{
			"level":   string(level),
			"message": message,
		}),
		Level:   level,
		Message: message,
	}
}
