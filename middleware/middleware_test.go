package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/session"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.SessionActivity{}))
	return db
}

func testEngine(store session.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(session.Middleware(store, session.Options{CookieName: "sid", Secret: "k", Lifetime: time.Hour}, nil))
	return r
}

func TestAuthRequired(t *testing.T) {
	db := testDB(t)
	user := models.User{Name: "User One", Email: "user1@example.com"}
	require.NoError(t, user.SetPassword("password1"))
	require.NoError(t, db.Create(&user).Error)

	r := testEngine(session.NewMemoryStore())
	r.POST("/as", func(c *gin.Context) {
		session.Default(c).SetUserID(user.ID)
		c.Status(http.StatusNoContent)
	})
	r.GET("/private", AuthRequired(db), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Email)
	})

	// browser navigation is redirected
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))

	// JSON callers get 401
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/as", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(cookies[len(cookies)-1])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user1@example.com", w.Body.String())
}

func TestLocationTracking(t *testing.T) {
	r := testEngine(session.NewMemoryStore())
	show := func(c *gin.Context) {
		c.JSON(http.StatusOK, session.Default(c).Location())
	}
	r.GET("/", LocationTracking(), show)
	r.POST("/", LocationTracking(), show)

	type testCase struct {
		Name   string
		Method string
		Query  string
		Set    bool
	}
	cases := []testCase{
		{Name: "valid pair", Method: http.MethodGet, Query: "?latitude=10.3157&longitude=123.8854", Set: true},
		{Name: "only latitude", Method: http.MethodGet, Query: "?latitude=10.3157"},
		{Name: "blank longitude", Method: http.MethodGet, Query: "?latitude=10.3157&longitude="},
		{Name: "out of range", Method: http.MethodGet, Query: "?latitude=100&longitude=0"},
		{Name: "not numbers", Method: http.MethodGet, Query: "?latitude=north&longitude=east"},
		{Name: "none", Method: http.MethodGet, Query: ""},
		{Name: "post is ignored", Method: http.MethodPost, Query: "?latitude=10.3157&longitude=123.8854"},
	}
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.Method, "/"+tc.Query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			if tc.Set {
				assert.Contains(t, w.Body.String(), `"latitude":10.3157`)
				assert.Contains(t, w.Body.String(), `"longitude":123.8854`)
			} else {
				assert.Contains(t, w.Body.String(), `"latitude":null`)
			}
		})
	}
}

func TestSessionActivityRecorder(t *testing.T) {
	db := testDB(t)
	r := testEngine(session.NewMemoryStore())
	r.Use(SessionActivityRecorder(db))
	r.GET("/page", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var count int64
	require.NoError(t, db.Model(&models.SessionActivity{}).Count(&count).Error)
	assert.Zero(t, count)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.AddCookie(cookies[len(cookies)-1])
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, db.Model(&models.SessionActivity{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimitMiddleware(4), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	// burst is half the per-minute allowance
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.5:1234"
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(c))

	c.Request.Header.Set("CF-Connecting-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(c))
}
