package toolchain

import (
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/soft_delete"
)

// BuildRecord is one cached artifact.
type BuildRecord struct {
	ID int64 `gorm:"primarykey"`
	// hash of compiler, flags, kind and source
	CacheKey string `gorm:"index:idx_cache_key,unique"`
	Kind     string
	Compiler string
	// path the artifact was last written to
	Output      string `gorm:"index:idx_output"`
	OutputHash  string
	OutputBytes int64
	SourceBytes int64
	CreatedAt   int64
	LastAccess  int64 `gorm:"index:idx_last_access"`
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `gorm:"softDelete:flag;default:0"`
}

func (BuildRecord) TableName() string {
	return "build_record"
}

// BuildLog persists BuildRecords in a sqlite database.
type BuildLog struct {
	db *gorm.DB
}

// OpenBuildLog opens (creating if needed) the database at path and migrates
// its schema.
func OpenBuildLog(path string) (*BuildLog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&BuildRecord{}); err != nil {
		return nil, err
	}
	return &BuildLog{db: db}, nil
}

func (l *BuildLog) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Lookup returns the live record for key, or nil when there is none.
func (l *BuildLog) Lookup(key string) (*BuildRecord, error) {
	var rec BuildRecord
	err := l.db.Where("`cache_key`=?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Record inserts rec, reviving and overwriting a forgotten record with the
// same key.
func (l *BuildLog) Record(rec *BuildRecord) error {
	now := time.Now().Unix()
	rec.LastAccess = now
	return l.db.Transaction(func(tx *gorm.DB) error {
		var existing BuildRecord
		err := tx.Unscoped().Where("`cache_key`=?", rec.CacheKey).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec.ID = 0
			return tx.Create(rec).Error
		}
		if err != nil {
			return err
		}
		rec.ID = existing.ID
		rec.CreatedAt = now
		rec.Deleted = 0
		return tx.Unscoped().Save(rec).Error
	})
}

// Touch updates the last access time of key.
func (l *BuildLog) Touch(key string) error {
	return l.db.Model(&BuildRecord{}).Where("`cache_key`=?", key).
		Update("last_access", time.Now().Unix()).Error
}

// Forget soft-deletes the record for key.
func (l *BuildLog) Forget(key string) error {
	return l.db.Where("`cache_key`=?", key).Delete(&BuildRecord{}).Error
}

// Stale lists live records not accessed since before, oldest first.
func (l *BuildLog) Stale(before time.Time, limit int) ([]*BuildRecord, error) {
	var items []*BuildRecord
	if err := l.db.Model(&BuildRecord{}).
		Where("`last_access` < ?", before.Unix()).
		Order("last_access asc").
		Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count reports the number of live records.
func (l *BuildLog) Count() (int64, error) {
	var cnt int64
	if err := l.db.Model(&BuildRecord{}).Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}
