package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNormalizeStoragePath(t *testing.T) {
	type testCase struct {
		In, Out string
	}
	cases := []testCase{
		{In: "", Out: ""},
		{In: "videos/a.mp4", Out: "/storage/videos/a.mp4"},
		{In: "/storage/videos/a.mp4", Out: "/storage/videos/a.mp4"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.Out, NormalizeStoragePath(tc.In))
		// idempotent
		assert.Equal(t, tc.Out, NormalizeStoragePath(NormalizeStoragePath(tc.In)))
	}
}

func TestHumanizeSince(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "now", HumanizeSince(now, now))
	assert.Equal(t, "10 seconds ago", HumanizeSince(now.Add(-10*time.Second), now))
	assert.Equal(t, "1 minute ago", HumanizeSince(now.Add(-time.Minute), now))
	assert.Equal(t, "3 hours ago", HumanizeSince(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2 days ago", HumanizeSince(now.AddDate(0, 0, -2), now))
	assert.Equal(t, "2 weeks ago", HumanizeSince(now.AddDate(0, 0, -14), now))
	assert.Equal(t, "1 year ago", HumanizeSince(now.AddDate(-1, 0, -1), now))
	assert.Equal(t, "3 hours from now", HumanizeSince(now.Add(3*time.Hour+time.Minute), now))
	assert.Equal(t, "", HumanizeSince(time.Time{}, now))
}

func TestPasswordHash(t *testing.T) {
	var u User
	require.NoError(t, u.SetPassword("password1"))
	assert.NotEqual(t, "password1", u.Password)
	assert.True(t, u.CheckPassword("password1"))
	assert.False(t, u.CheckPassword("password2"))
}

func TestPersistenceHooks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}, &Video{}))

	p := Product{Name: "Shoe", Description: "A running shoe", Category: CategoryClothing, DateAndTime: time.Now().Add(time.Hour), Images: []string{"/storage/products/a.gif", "/storage/products/b.gif"}}
	require.NoError(t, db.Create(&p).Error)
	var gotP Product
	require.NoError(t, db.First(&gotP, p.ID).Error)
	assert.Equal(t, p.Images, gotP.Images)

	thumb := "thumbnails/t.png"
	v := Video{Title: "Clip", URL: "videos/c.mp4", Thumbnail: &thumb}
	require.NoError(t, db.Create(&v).Error)
	assert.Equal(t, "/storage/videos/c.mp4", v.URL)
	assert.Equal(t, "now", v.FormattedCreatedAt)

	// a legacy raw row is normalized on read
	require.NoError(t, db.Exec("UPDATE videos SET url = ? WHERE id = ?", "videos/raw.mp4", v.ID).Error)
	var gotV Video
	require.NoError(t, db.First(&gotV, v.ID).Error)
	assert.Equal(t, "/storage/videos/raw.mp4", gotV.URL)
	require.NotNil(t, gotV.Thumbnail)
	assert.Equal(t, "/storage/thumbnails/t.png", *gotV.Thumbnail)
}
