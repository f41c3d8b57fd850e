package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrObjectExists is returned when a non-upsert upload targets an occupied path
	ErrObjectExists = errors.New("the resource already exists")

	// ErrObjectNotFound is returned when no object is stored at a path
	ErrObjectNotFound = errors.New("object not found")
)

// StoredObject is a blob kept in the database, addressed by bucket and path
type StoredObject struct {
	Bucket       string    `gorm:"primaryKey;size:100" json:"bucket"`
	Path         string    `gorm:"primaryKey;size:512" json:"path"`
	ContentType  string    `gorm:"size:255;not null" json:"content_type"`
	CacheControl string    `gorm:"size:64" json:"cache_control"`
	Size         int64     `gorm:"not null" json:"size"`
	Data         []byte    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (StoredObject) TableName() string {
	return "storage_objects"
}

// UploadOptions control how an object is written
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// ObjectStore stores blobs and derives their public URLs
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, opts UploadOptions) error
	Download(ctx context.Context, bucket, path string) (*StoredObject, error)
	PublicURL(bucket, path string) string
}

// GormObjectStore is an ObjectStore backed by the storage_objects table
type GormObjectStore struct {
	db      *gorm.DB
	baseURL string
}

// NewGormObjectStore creates an object store whose public URLs start with baseURL
func NewGormObjectStore(db *gorm.DB, baseURL string) *GormObjectStore {
	return &GormObjectStore{
		db:      db,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload writes data at bucket/path. Without Upsert an occupied path fails with ErrObjectExists.
func (s *GormObjectStore) Upload(ctx context.Context, bucket, path string, data []byte, opts UploadOptions) error {
	if bucket == "" || path == "" {
		return errors.New("bucket and path are required")
	}

	object := &StoredObject{
		Bucket:       bucket,
		Path:         path,
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
		Size:         int64(len(data)),
		Data:         data,
	}

	if opts.Upsert {
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(object).Error
		if err != nil {
			return fmt.Errorf("failed to upsert object: %w", err)
		}
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&StoredObject{}).Where("bucket = ? AND path = ?", bucket, path).Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check object: %w", err)
		}
		if count > 0 {
			return ErrObjectExists
		}
		if err := tx.Create(object).Error; err != nil {
			return fmt.Errorf("failed to create object: %w", err)
		}
		return nil
	})
}

// Download reads the object stored at bucket/path
func (s *GormObjectStore) Download(ctx context.Context, bucket, path string) (*StoredObject, error) {
	var object StoredObject
	err := s.db.WithContext(ctx).Where("bucket = ? AND path = ?", bucket, path).First(&object).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return &object, nil
}

// PublicURL returns the URL the storage handler serves bucket/path under.
// It is derived from the inputs alone and does not check that the object exists.
func (s *GormObjectStore) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s%s/%s/%s", s.baseURL, PublicObjectPrefix, bucket, strings.TrimLeft(path, "/"))
}
