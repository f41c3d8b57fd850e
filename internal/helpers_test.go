package internal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"community-admin/apiv1"
	"community-admin/meta"
)

// testModel is a minimal resource for exercising the generic DAO
type testModel struct {
	meta.ObjectMeta
	Name  string `gorm:"not null"`
	Score int
}

// setupTestDB opens a migrated sqlite database in a temp directory
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		NowFunc: utcNow,
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, NewDAO[testModel](db).AutoMigrate())

	t.Cleanup(func() {
		_ = CloseDatabase(db)
	})
	return db
}

// seedTestimonial inserts a row with an explicit creation time
func seedTestimonial(t *testing.T, db *gorm.DB, name string, order int, createdAt time.Time) apiv1.PartnerTestimonial {
	t.Helper()

	row := apiv1.PartnerTestimonial{
		ObjectMeta:   meta.ObjectMeta{CreatedAt: createdAt},
		PartnerName:  name,
		Testimonial:  name + " says hello",
		DisplayOrder: order,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
