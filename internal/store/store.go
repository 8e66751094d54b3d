package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/RianMcHale/Container-Security-Scanner/internal/model"
)

// ErrNotFound is returned by GetByID when no record has the given id.
var ErrNotFound = errors.New("scan not found")

// Store persists scan records in a single SQLite table. Records are
// append-only; there is no update or delete path.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and
// ensures the scans table exists. Migration is idempotent, so calling
// Open against an existing database is safe.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&model.ScanRecord{}); err != nil {
		return nil, fmt.Errorf("migrate scans table: %w", err)
	}
	return &Store{db: db}, nil
}

// Save appends one record and returns its assigned id. The report is
// stored verbatim so it round-trips losslessly.
func (s *Store) Save(ctx context.Context, image, createdAt string, report []byte) (int64, error) {
	rec := model.ScanRecord{
		Image:     image,
		CreatedAt: createdAt,
		Report:    string(report),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("insert scan: %w", err)
	}
	return rec.ID, nil
}

// ListAll returns every record, most recently created first.
func (s *Store) ListAll(ctx context.Context) ([]model.ScanRecord, error) {
	var recs []model.ScanRecord
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return recs, nil
}

// GetByID returns the record with the given id, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*model.ScanRecord, error) {
	var rec model.ScanRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %d: %w", id, err)
	}
	return &rec, nil
}

// Count reports the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.ScanRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count scans: %w", err)
	}
	return n, nil
}
