package postgres

import (
	"errors"
	"strings"

	dashboardDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/dashboard"
	recordDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/record"
	userDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/user"
	"github.com/frahmantamala/asset-management/internal/sandbox"
	"gorm.io/gorm"
)

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) sandbox.RepositoryAPI {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) ListByKind(kind string) ([]*recordDatamodel.Record, error) {
	var records []*recordDatamodel.Record
	err := r.db.Where("kind = ?", kind).Order("id ASC").Find(&records).Error
	return records, err
}

func (r *RecordRepository) GetByID(kind string, id int64) (*recordDatamodel.Record, error) {
	var rec recordDatamodel.Record
	err := r.db.Where("kind = ? AND id = ?", kind, id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// GetByName matches the unique key of a kind case-insensitively.
func (r *RecordRepository) GetByName(kind, name string) (*recordDatamodel.Record, error) {
	var rec recordDatamodel.Record
	err := r.db.Where("kind = ? AND LOWER(name) = ?", kind, strings.ToLower(name)).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *RecordRepository) Create(rec *recordDatamodel.Record) error {
	return r.db.Create(rec).Error
}

func (r *RecordRepository) Update(rec *recordDatamodel.Record) error {
	return r.db.Save(rec).Error
}

func (r *RecordRepository) Delete(kind string, id int64) error {
	return r.db.Where("kind = ? AND id = ?", kind, id).Delete(&recordDatamodel.Record{}).Error
}

func (r *RecordRepository) MemberCounts() (map[string]int, error) {
	var rows []struct {
		Department string
		Total      int
	}
	err := r.db.Model(&userDatamodel.User{}).
		Select("department, COUNT(*) AS total").
		Where("is_active = ? AND department <> ''", true).
		Group("department").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Department] = row.Total
	}
	return counts, nil
}

func (r *RecordRepository) WithTx(fn func(repo sandbox.RepositoryAPI) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&RecordRepository{db: tx})
	})
}

type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) sandbox.DashboardRepositoryAPI {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) Get(userID string) (*dashboardDatamodel.Config, error) {
	var cfg dashboardDatamodel.Config
	err := r.db.Where("user_id = ?", userID).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// Save inserts or replaces the row keyed by user id.
func (r *DashboardRepository) Save(cfg *dashboardDatamodel.Config) error {
	return r.db.Save(cfg).Error
}
