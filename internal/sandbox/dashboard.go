package sandbox

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/core/common/validation"
	dashboardDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/dashboard"
	"github.com/frahmantamala/asset-management/internal/dashboard"
)

var ErrDashboardNotFound = internal.NewHTTPError(404, "Dashboard configuration not found")

type DashboardRepositoryAPI interface {
	Get(userID string) (*dashboardDatamodel.Config, error)
	Save(cfg *dashboardDatamodel.Config) error
}

// DashboardService keeps one layout document per user.
type DashboardService struct {
	repo    DashboardRepositoryAPI
	catalog map[string]dashboard.Kind
	logger  *slog.Logger
}

func NewDashboardService(repo DashboardRepositoryAPI, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	catalog := map[string]dashboard.Kind{}
	for _, item := range dashboard.DefaultCatalog() {
		catalog[item.ID] = item.Kind
	}
	return &DashboardService{repo: repo, catalog: catalog, logger: logger}
}

func (s *DashboardService) Get(userID string) (*dashboard.Config, error) {
	row, err := s.repo.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard config: %w", err)
	}
	if row == nil {
		return nil, ErrDashboardNotFound
	}
	var cfg dashboard.Config
	if err := json.Unmarshal([]byte(row.Document), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard config: %w", err)
	}
	return &cfg, nil
}

func (s *DashboardService) Save(userID string, cfg dashboard.Config) (*dashboard.Config, error) {
	if appErr := s.validate(cfg); appErr != nil {
		return nil, appErr
	}

	now := time.Now().UTC()
	cfg.UpdatedAt = &now
	doc, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dashboard config: %w", err)
	}
	if err := s.repo.Save(&dashboardDatamodel.Config{UserID: userID, Document: string(doc)}); err != nil {
		return nil, fmt.Errorf("failed to save dashboard config: %w", err)
	}

	s.logger.Info("DashboardService: config saved", "userID", userID,
		"widgets", len(cfg.Widgets.SelectedItems), "charts", len(cfg.Charts.SelectedItems))
	return &cfg, nil
}

func (s *DashboardService) validate(cfg dashboard.Config) *internal.AppError {
	validator := validation.NewValidator()
	s.validateLayout(validator, "widgets", dashboard.KindWidget, cfg.Widgets)
	s.validateLayout(validator, "charts", dashboard.KindChart, cfg.Charts)
	for id, size := range cfg.Charts.Sizes {
		validator.Field("charts.sizes."+id, size).
			MinInt(dashboard.MinSize, internal.ErrCodeValidationFailed).
			MaxInt(dashboard.MaxSize, internal.ErrCodeValidationFailed)
	}
	return validator.Validate()
}

func (s *DashboardService) validateLayout(validator *validation.ValidationBuilder, name string, kind dashboard.Kind, layout dashboard.LayoutConfig) {
	validator.Field(name+".columns", layout.Columns).
		MinInt(1, internal.ErrCodeValidationFailed).
		MaxInt(4, internal.ErrCodeValidationFailed)

	refs := append(append([]dashboard.ItemRef{}, layout.AvailableItems...), layout.SelectedItems...)
	for _, ref := range refs {
		id := ref.ID
		validator.Field(name+"."+id, id).Custom(func(interface{}) *internal.AppError {
			if s.catalog[id] != kind {
				return internal.NewValidationError(fmt.Sprintf("Unknown %s %q", kind, id), internal.ErrCodeValidationFailed)
			}
			return nil
		})
	}
}
