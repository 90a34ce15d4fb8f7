package sandbox

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/core/common/validation"
	"github.com/frahmantamala/asset-management/internal/dashboard"
	"github.com/frahmantamala/asset-management/internal/resource"
	"github.com/frahmantamala/asset-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(kind string, q resource.Query) (*ListResult, error)
	Get(kind string, id int64) (map[string]any, error)
	Create(kind string, input map[string]any) (map[string]any, error)
	Update(kind string, id int64, input map[string]any) (map[string]any, error)
	Delete(kind string, id int64) error
	BulkDelete(kind string, ids []resource.ID) error
	Import(kind string, src io.Reader) (resource.ImportResult, error)
	ExportRows(kind string, q resource.Query) ([][]string, error)
}

type DashboardServiceAPI interface {
	Get(userID string) (*dashboard.Config, error)
	Save(userID string, cfg dashboard.Config) (*dashboard.Config, error)
}

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	Dashboards DashboardServiceAPI
	Import     internal.ImportConfig
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, dashboards DashboardServiceAPI, importCfg internal.ImportConfig) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
		Dashboards:  dashboards,
		Import:      importCfg,
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	if _, ok := internal.IsAppError(err); ok {
		h.WriteAppError(w, err)
		return
	}
	h.Logger.Error(op+": failed", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, err)
		return 0, false
	}
	return id, true
}

// List handles GET /{resource}
func (h *Handler) List(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := h.Service.List(kind, resource.QueryFromValues(r.URL.Query()))
		if err != nil {
			h.writeServiceError(w, "List", err)
			return
		}
		h.WriteJSON(w, http.StatusOK, result)
	}
}

// Get handles GET /{resource}/{id}
func (h *Handler) Get(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.recordID(w, r)
		if !ok {
			return
		}
		doc, err := h.Service.Get(kind, id)
		if err != nil {
			h.writeServiceError(w, "Get", err)
			return
		}
		h.WriteJSON(w, http.StatusOK, doc)
	}
}

// Create handles POST /{resource}
func (h *Handler) Create(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input map[string]any
		if !h.DecodeJSON(w, r, &input) {
			return
		}
		doc, err := h.Service.Create(kind, input)
		if err != nil {
			h.writeServiceError(w, "Create", err)
			return
		}
		h.WriteJSON(w, http.StatusCreated, doc)
	}
}

// Update handles PUT /{resource}/{id}
func (h *Handler) Update(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.recordID(w, r)
		if !ok {
			return
		}
		var input map[string]any
		if !h.DecodeJSON(w, r, &input) {
			return
		}
		doc, err := h.Service.Update(kind, id, input)
		if err != nil {
			h.writeServiceError(w, "Update", err)
			return
		}
		h.WriteJSON(w, http.StatusOK, doc)
	}
}

// Delete handles DELETE /{resource}/{id}
func (h *Handler) Delete(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.recordID(w, r)
		if !ok {
			return
		}
		if err := h.Service.Delete(kind, id); err != nil {
			h.writeServiceError(w, "Delete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type BulkDeleteRequest struct {
	IDs []resource.ID `json:"ids"`
}

// BulkDelete handles POST /{resource}/bulk-delete
func (h *Handler) BulkDelete(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkDeleteRequest
		if !h.DecodeJSON(w, r, &req) {
			return
		}
		if err := h.Service.BulkDelete(kind, req.IDs); err != nil {
			h.writeServiceError(w, "BulkDelete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ImportFile handles POST /{resource}/import with a multipart "file" field.
func (h *Handler) ImportFile(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.Import.MaxBytes+1<<20)
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				validator := validation.NewValidator()
				validator.Field("size", h.Import.MaxBytes+1).MaxBytes(h.Import.MaxBytes)
				h.WriteAppError(w, validator.Validate())
				return
			}
			h.WriteError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		if appErr := validation.ValidateImportFile(header.Filename, header.Size, h.Import.AllowedExtensions, h.Import.MaxBytes); appErr != nil {
			h.WriteAppError(w, appErr)
			return
		}
		if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" {
			h.WriteError(w, http.StatusUnsupportedMediaType, "Excel files are not supported here, please upload a CSV file")
			return
		}

		result, err := h.Service.Import(kind, file)
		if err != nil {
			h.writeServiceError(w, "ImportFile", err)
			return
		}
		h.WriteJSON(w, http.StatusOK, result)
	}
}

// Export handles GET /{resource}/export?format=csv
func (h *Handler) Export(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if format := r.URL.Query().Get("format"); format != "" && !strings.EqualFold(format, "csv") {
			h.WriteError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
			return
		}

		q := resource.QueryFromValues(r.URL.Query())
		rows, err := h.Service.ExportRows(kind, q)
		if err != nil {
			h.writeServiceError(w, "Export", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-export.csv"`, kind))
		w.WriteHeader(http.StatusOK)

		writer := csv.NewWriter(w)
		if err := writer.WriteAll(rows); err != nil {
			h.Logger.Error("Export: failed to write csv", "resource", kind, "error", err)
		}
	}
}

// GetDashboardConfig handles GET /dashboard/config
func (h *Handler) GetDashboardConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Dashboards.Get(internal.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, "GetDashboardConfig", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, cfg)
}

// SaveDashboardConfig handles PUT /dashboard/config
func (h *Handler) SaveDashboardConfig(w http.ResponseWriter, r *http.Request) {
	var cfg dashboard.Config
	if !h.DecodeJSON(w, r, &cfg) {
		return
	}
	saved, err := h.Dashboards.Save(internal.UserIDFromContext(r.Context()), cfg)
	if err != nil {
		h.writeServiceError(w, "SaveDashboardConfig", err)
		return
	}
	h.WriteJSON(w, http.StatusOK, saved)
}
