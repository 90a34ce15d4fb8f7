package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	sessionDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/session"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SessionStore keeps sessions in a local sqlite file so that a login survives
// between command invocations.
type SessionStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the sqlite file at path and applies pending migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SessionStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" databases shared
	sqlDB.SetMaxOpenConns(1)

	s := New(db, logger)
	if _, err := s.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func New(db *gorm.DB, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{db: db, logger: logger}
}

func (s *SessionStore) provider() (*goose.Provider, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectSQLite3, sqlDB, fsys)
}

// Migrate applies every pending migration and returns what ran.
func (s *SessionStore) Migrate(ctx context.Context) ([]*goose.MigrationResult, error) {
	p, err := s.provider()
	if err != nil {
		return nil, fmt.Errorf("goose: failed to create provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		s.logger.Debug("SessionStore: migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return results, nil
}

// Rollback reverts the latest migration.
func (s *SessionStore) Rollback(ctx context.Context) (*goose.MigrationResult, error) {
	p, err := s.provider()
	if err != nil {
		return nil, fmt.Errorf("goose: failed to create provider: %w", err)
	}
	result, err := p.Down(ctx)
	if err != nil {
		return result, fmt.Errorf("goose down: %w", err)
	}
	return result, nil
}

func (s *SessionStore) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	p, err := s.provider()
	if err != nil {
		return nil, fmt.Errorf("goose: failed to create provider: %w", err)
	}
	return p.Status(ctx)
}

// Load returns the session for profile, or nil when there is none.
func (s *SessionStore) Load(ctx context.Context, profile string) (*sessionDatamodel.Session, error) {
	var sess sessionDatamodel.Session
	err := s.db.WithContext(ctx).Where("profile = ?", profile).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *sessionDatamodel.Session) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}},
		DoUpdates: clause.AssignmentColumns([]string{"base_url", "email", "access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(sess).Error
}

func (s *SessionStore) Delete(ctx context.Context, profile string) error {
	return s.db.WithContext(ctx).Where("profile = ?", profile).Delete(&sessionDatamodel.Session{}).Error
}

func (s *SessionStore) List(ctx context.Context) ([]*sessionDatamodel.Session, error) {
	var sessions []*sessionDatamodel.Session
	err := s.db.WithContext(ctx).Order("profile ASC").Find(&sessions).Error
	return sessions, err
}

func (s *SessionStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
