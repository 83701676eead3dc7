package routes

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/praxxy/backoffice/attachments"
	"github.com/praxxy/backoffice/config"
	"github.com/praxxy/backoffice/dashboard"
	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/storage"
	"github.com/praxxy/backoffice/utils"
)

const cookieName = "backoffice_session"

var (
	gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	mp4Bytes = []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2mp41")
)

type upload struct {
	field, name string
	body        []byte
}

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	dir    string
	router *gin.Engine
	cookie *http.Cookie
	user   models.User
}

func (s *RouterTestSuite) SetupTest() {
	base := s.T().TempDir()
	s.dir = filepath.Join(base, "public")

	db, err := gorm.Open(sqlite.Open(filepath.Join(base, "test.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(config.AllModels()...))
	s.Require().NoError(config.Seed(db, utils.Logger))
	s.db = db
	s.Require().NoError(db.Where("email = ?", "user1@example.com").First(&s.user).Error)

	blobs, err := storage.NewLocalStore(s.dir)
	s.Require().NoError(err)

	cfg := config.AppConfig{
		AppKey:                 "test-key",
		AllowedOrigins:         []string{"*"},
		RateLimitPerMinute:     600,
		SessionCookie:          cookieName,
		SessionLifetimeMinutes: 60,
		GinMode:                "test",
	}
	s.router = SetupRouter(cfg, Deps{
		DB:         db,
		Blobs:      blobs,
		Sessions:   session.NewMemoryStore(),
		Reconciler: attachments.NewReconciler(blobs, attachments.NewDBQueue(db), utils.Logger),
		Aggregator: dashboard.NewAggregator(db, utils.Logger),
	})
	s.cookie = nil
}

// do sends the request with the current session cookie and keeps whatever cookie comes back.
func (s *RouterTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			s.cookie = c
		}
	}
	return w
}

func (s *RouterTestSuite) jsonRequest(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return s.do(req)
}

func (s *RouterTestSuite) multipartRequest(method, path string, fields url.Values, files []upload, asJSON bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			s.Require().NoError(w.WriteField(k, v))
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		s.Require().NoError(err)
		_, err = part.Write(f.body)
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	return s.do(req)
}

func (s *RouterTestSuite) decode(w *httptest.ResponseRecorder) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (s *RouterTestSuite) login() {
	w := s.jsonRequest(http.MethodPost, "/login", gin.H{"email": "user1@example.com", "password": "password1"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *RouterTestSuite) blobCount() int {
	n := 0
	_ = filepath.WalkDir(s.dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func (s *RouterTestSuite) blobExists(u string) bool {
	key, err := storage.KeyFromURL(u)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodGet, storage.PublicURL(key), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w.Code == http.StatusOK
}

func productFields() url.Values {
	return url.Values{
		"name":          {"Trail Shoes"},
		"description":   {"Grippy trail running shoes for wet rock."},
		"category":      {models.CategoryClothing},
		"date_and_time": {time.Now().Add(48 * time.Hour).Format("2006-01-02T15:04")},
	}
}

func images(field string, n int) []upload {
	files := make([]upload, n)
	for i := range files {
		files[i] = upload{field: field, name: "photo.gif", body: gifBytes}
	}
	return files
}

func (s *RouterTestSuite) createProduct(n int) models.Product {
	w := s.multipartRequest(http.MethodPost, "/products", productFields(), images("images[]", n), true)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	env := s.decode(w)
	s.Equal("Product created successfully", env.Message)
	var p models.Product
	s.Require().NoError(json.Unmarshal(env.Data, &p))
	return p
}

func (s *RouterTestSuite) TestHealthIsPublic() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterTestSuite) TestProtectedRoutesNeedLogin() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/login", w.Header().Get("Location"))

	w = s.jsonRequest(http.MethodGet, "/products", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) TestLoginRejectsBadCredentials() {
	w := s.jsonRequest(http.MethodPost, "/login", gin.H{"email": "user1@example.com", "password": "wrong-password"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("These credentials do not match our records.", s.decode(w).Errors["email"])

	// browsers get a flash and go back to the form
	form := url.Values{"email": {"user1@example.com"}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = s.do(req)
	s.Equal(http.StatusSeeOther, w.Code)
	s.Equal("/login", w.Header().Get("Location"))
}

func (s *RouterTestSuite) TestLoginThenLogout() {
	before := s.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	s.Equal(http.StatusOK, before.Code)
	anonymous := s.cookie.Value

	s.login()
	s.NotEqual(anonymous, s.cookie.Value)

	// logged in users skip the login page
	w := s.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	s.Equal(http.StatusFound, w.Code)

	w = s.jsonRequest(http.MethodPost, "/logout", nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.jsonRequest(http.MethodGet, "/products", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) TestCreateProductStoresEveryImage() {
	s.login()
	before := s.blobCount()
	p := s.createProduct(3)

	s.Len(p.Images, 3)
	for _, u := range p.Images {
		s.True(strings.HasPrefix(u, "/storage/products/"), u)
		s.True(s.blobExists(u), u)
	}
	s.Equal(before+3, s.blobCount())
}

func (s *RouterTestSuite) TestCreateProductValidation() {
	s.login()
	fields := productFields()
	fields.Set("category", "Toys")
	fields.Set("date_and_time", "2001-01-01T10:00")
	w := s.multipartRequest(http.MethodPost, "/products", fields, images("images[]", 6), true)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	errs := s.decode(w).Errors
	s.Equal("Please select a valid category", errs["category"])
	s.Equal("Date and time must be in the future", errs["date_and_time"])
	s.Equal("Maximum 5 images allowed", errs["images"])
	s.Zero(s.blobCount())

	w = s.multipartRequest(http.MethodPost, "/products", productFields(), nil, true)
	s.Equal("At least one image is required", s.decode(w).Errors["images"])
}

func (s *RouterTestSuite) TestCreateProductValidatesSanitizedText() {
	s.login()
	fields := productFields()
	fields.Set("name", "<i>ab</i>")
	fields.Set("description", "<script>alert(1)</script>")
	w := s.multipartRequest(http.MethodPost, "/products", fields, images("images[]", 1), true)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	errs := s.decode(w).Errors
	s.Equal("Product name must be at least 3 characters", errs["name"])
	s.Equal("Product description is required", errs["description"])
	s.Zero(s.blobCount())

	fields = productFields()
	fields.Set("name", "<b>Salt & Pepper</b>")
	fields.Set("description", "Salt & Pepper grinder <em>set</em>")
	w = s.multipartRequest(http.MethodPost, "/products", fields, images("images[]", 1), true)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	s.Require().NoError(json.Unmarshal(s.decode(w).Data, &product))
	s.Equal("Salt & Pepper", product.Name)
	s.Equal("Salt & Pepper grinder set", product.Description)

	w = s.jsonRequest(http.MethodGet, "/products?search="+url.QueryEscape("salt & pepper"), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page struct {
		Items []models.Product `json:"items"`
	}
	s.Require().NoError(json.Unmarshal(s.decode(w).Data, &page))
	s.Require().Len(page.Items, 1)
	s.Equal(product.ID, page.Items[0].ID)
}

func (s *RouterTestSuite) TestUpdateOverImageCapChangesNothing() {
	s.login()
	p := s.createProduct(2)
	before := s.blobCount()

	fields := productFields()
	fields.Set("name", "Renamed Shoes")
	fields["existing_images[]"] = p.Images
	w := s.multipartRequest(http.MethodPut, "/products/"+itoa(p.ID), fields, images("new_images[]", 4), true)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("Maximum 5 images allowed", s.decode(w).Errors["images"])
	s.Equal(before, s.blobCount())

	var stored models.Product
	s.Require().NoError(s.db.First(&stored, p.ID).Error)
	s.Equal("Trail Shoes", stored.Name)
	s.Equal(p.Images, stored.Images)
}

func (s *RouterTestSuite) TestUpdateReplacesImages() {
	s.login()
	p := s.createProduct(2)
	kept, dropped := p.Images[0], p.Images[1]

	fields := productFields()
	fields["existing_images[]"] = []string{kept, dropped}
	fields["images_to_delete[]"] = []string{dropped}
	w := s.multipartRequest(http.MethodPut, "/products/"+itoa(p.ID), fields, images("new_images[]", 1), true)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated models.Product
	s.Require().NoError(json.Unmarshal(s.decode(w).Data, &updated))
	s.Len(updated.Images, 2)
	s.Equal(kept, updated.Images[0])
	s.True(s.blobExists(updated.Images[1]))
	s.False(s.blobExists(dropped))
}

func (s *RouterTestSuite) TestUpdateMissingProduct() {
	s.login()
	w := s.multipartRequest(http.MethodPut, "/products/9999", productFields(), images("new_images[]", 1), true)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Product not found", s.decode(w).Message)
}

func (s *RouterTestSuite) TestDeleteProductKeepsFiles() {
	s.login()
	p := s.createProduct(1)

	w := s.jsonRequest(http.MethodDelete, "/products/"+itoa(p.ID), nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("Product deleted successfully", s.decode(w).Message)
	s.True(s.blobExists(p.Images[0]))

	w = s.jsonRequest(http.MethodDelete, "/products/"+itoa(p.ID), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterTestSuite) TestListProductsFiltersAndPaginates() {
	s.login()
	when := time.Now().Add(24 * time.Hour)
	for i := 0; i < 12; i++ {
		s.Require().NoError(s.db.Create(&models.Product{
			Name: "Running SHOE " + itoa(uint(i)), Description: "Road shoe", Category: models.CategoryClothing,
			DateAndTime: when, Images: []string{},
		}).Error)
	}
	s.Require().NoError(s.db.Create(&models.Product{
		Name: "Shoe rack", Description: "Holds shoes", Category: models.CategoryOther, DateAndTime: when, Images: []string{},
	}).Error)

	w := s.jsonRequest(http.MethodGet, "/products?search=shoe&category=clothing", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page struct {
		Items      []models.Product `json:"items"`
		Pagination struct {
			Page       int   `json:"page"`
			PageSize   int   `json:"page_size"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(s.decode(w).Data, &page))
	s.Len(page.Items, 10)
	// twelve added plus the seeded "Running Shoes"
	s.EqualValues(13, page.Pagination.Total)
	s.Equal(2, page.Pagination.TotalPages)
	for _, p := range page.Items {
		s.Equal(models.CategoryClothing, p.Category)
	}

	w = s.jsonRequest(http.MethodGet, "/products?search=shoe&category=clothing&page=2", nil)
	s.Require().NoError(json.Unmarshal(s.decode(w).Data, &page))
	s.Len(page.Items, 3)
}

func (s *RouterTestSuite) TestVideoLifecycle() {
	s.login()
	w := s.multipartRequest(http.MethodPost, "/videos", url.Values{"title": {"Launch"}}, []upload{
		{field: "video", name: "clip.mp4", body: mp4Bytes},
		{field: "thumbnail", name: "thumb.gif", body: gifBytes},
	}, true)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("Video uploaded successfully!", s.decode(w).Message)

	var video models.Video
	s.Require().NoError(json.Unmarshal(s.decode(w).Data, &video))
	s.Require().NotNil(video.Thumbnail)
	s.True(s.blobExists(video.URL))
	s.True(s.blobExists(*video.Thumbnail))

	w = s.jsonRequest(http.MethodDelete, "/videos/"+itoa(video.ID), nil)
	s.Equal(http.StatusOK, w.Code)
	s.False(s.blobExists(video.URL))
	s.False(s.blobExists(*video.Thumbnail))
	var count int64
	s.db.Model(&models.Video{}).Count(&count)
	s.Zero(count)
}

func (s *RouterTestSuite) TestVideoTitleOfOnlyMarkupIsRequired() {
	s.login()
	w := s.multipartRequest(http.MethodPost, "/videos", url.Values{"title": {"<b></b>"}}, []upload{
		{field: "video", name: "clip.mp4", body: mp4Bytes},
	}, true)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("The title field is required.", s.decode(w).Errors["title"])
	s.Zero(s.blobCount())
}

func (s *RouterTestSuite) TestVideoDeleteWithMissingBlob() {
	s.login()
	video := models.Video{Title: "Orphan", URL: "videos/gone.mp4"}
	s.Require().NoError(s.db.Create(&video).Error)

	w := s.jsonRequest(http.MethodDelete, "/videos/"+itoa(video.ID), nil)
	s.Equal(http.StatusOK, w.Code)
	var pending int64
	s.db.Model(&models.PendingBlobDeletion{}).Count(&pending)
	s.Zero(pending)
}

func (s *RouterTestSuite) TestVideoFormRedirectsWithFlash() {
	s.login()
	w := s.multipartRequest(http.MethodPost, "/videos", url.Values{"title": {"No file"}}, nil, false)
	s.Equal(http.StatusSeeOther, w.Code)
	s.Equal("/video-management", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/video-management", nil)
	req.Header.Set("X-Inertia", "true")
	w = s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)
	var page struct {
		Component string `json:"component"`
		Props     struct {
			Flash struct {
				Success string `json:"success"`
				Error   string `json:"error"`
			} `json:"flash"`
		} `json:"props"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	s.Equal("Sidebar/VideoManagement", page.Component)
	s.Equal("The video field is required.", page.Props.Flash.Error)

	// consumed on read
	req = httptest.NewRequest(http.MethodGet, "/video-management", nil)
	req.Header.Set("X-Inertia", "true")
	w = s.do(req)
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	s.Empty(page.Props.Flash.Error)
}

func (s *RouterTestSuite) TestUserManagement() {
	s.login()
	w := s.jsonRequest(http.MethodPost, "/users", gin.H{"name": "New Admin", "email": "user2@example.com", "password": "longenough"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("The email has already been taken.", s.decode(w).Errors["email"])

	w = s.jsonRequest(http.MethodPost, "/users", gin.H{"name": "<b></b>", "email": "other@example.com", "password": "longenough"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("The name field is required.", s.decode(w).Errors["name"])

	w = s.jsonRequest(http.MethodPost, "/users", gin.H{"name": "New Admin", "email": " new@example.com ", "password": "longenough"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created models.UserSummary
	s.Require().NoError(json.Unmarshal(s.decode(w).Data, &created))
	s.NotContains(w.Body.String(), "password")
	s.Equal("new@example.com", created.Email)

	// password stays when omitted
	w = s.jsonRequest(http.MethodPut, "/users/"+itoa(created.ID), gin.H{"name": "Renamed", "email": "new@example.com"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var stored models.User
	s.Require().NoError(s.db.First(&stored, created.ID).Error)
	s.Equal("Renamed", stored.Name)
	s.True(stored.CheckPassword("longenough"))

	w = s.jsonRequest(http.MethodGet, "/users?page=1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"total":4`)

	w = s.jsonRequest(http.MethodDelete, "/users/"+itoa(s.user.ID), nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("You cannot delete your own account.", s.decode(w).Message)

	w = s.jsonRequest(http.MethodDelete, "/users/"+itoa(created.ID), nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.jsonRequest(http.MethodGet, "/users/"+itoa(created.ID), nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("User not found", s.decode(w).Message)
}

func (s *RouterTestSuite) TestDashboardHasSevenDays() {
	s.login()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("X-Inertia", "true")
	w := s.do(req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("true", w.Header().Get("X-Inertia"))

	var page struct {
		Component string `json:"component"`
		Props     struct {
			Stats dashboard.Stats `json:"stats"`
			Auth  struct {
				User struct {
					Email string `json:"email"`
				} `json:"user"`
			} `json:"auth"`
		} `json:"props"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	s.Equal("Dashboard", page.Component)
	s.Len(page.Props.Stats.ChartData.Dates, dashboard.Days)
	s.EqualValues(3, page.Props.Stats.UsersCount)
	s.EqualValues(5, page.Props.Stats.ProductsCount)
	s.Equal("user1@example.com", page.Props.Auth.User.Email)

	// browsers get the HTML shell
	w = s.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `<div id="app" data-page="`)
}

func (s *RouterTestSuite) TestLocation() {
	s.login()
	// a rejected update writes nothing, even when the query string carries a valid pair
	w := s.jsonRequest(http.MethodPost, "/location?latitude=1&longitude=1", gin.H{"latitude": 91, "longitude": 10})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("The latitude must be between -90 and 90.", s.decode(w).Errors["latitude"])

	w = s.jsonRequest(http.MethodPost, "/location", gin.H{"latitude": "14.5995", "longitude": 120.9842})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("The latitude field has an invalid type.", s.decode(w).Errors["latitude"])

	w = s.jsonRequest(http.MethodGet, "/location", nil)
	s.JSONEq(`{"latitude":null,"longitude":null,"last_updated":null}`, string(s.decode(w).Data))

	w = s.jsonRequest(http.MethodPost, "/location", gin.H{"latitude": 14.5995, "longitude": 120.9842})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("Location updated successfully", s.decode(w).Message)

	w = s.jsonRequest(http.MethodGet, "/location", nil)
	var loc session.Location
	s.Require().NoError(json.Unmarshal(s.decode(w).Data, &loc))
	s.Require().NotNil(loc.Latitude)
	s.InDelta(14.5995, *loc.Latitude, 1e-9)
	s.InDelta(120.9842, *loc.Longitude, 1e-9)

	var activity models.SessionActivity
	s.Require().NoError(s.db.Where("user_id = ?", s.user.ID).First(&activity).Error)
	s.Require().NotNil(activity.LocationLatitude)
	s.InDelta(14.5995, *activity.LocationLatitude, 1e-9)
}

func (s *RouterTestSuite) TestStorageRejectsTraversal() {
	w := s.do(httptest.NewRequest(http.MethodGet, "/storage/../test.db", nil))
	s.Equal(http.StatusNotFound, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
