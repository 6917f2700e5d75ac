package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"school-directory/config"
	"school-directory/controllers"
	"school-directory/driver"
	"school-directory/models"
	"school-directory/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	router   http.Handler
	imageDir string
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	cfg := &config.Config{DB: config.DBConfig{
		Driver:       config.DriverSQLite3,
		Path:         filepath.Join(t.TempDir(), "schools.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}}
	require.NoError(t, driver.Migrate(cfg))

	gateway, err := driver.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { gateway.Close() })

	imageDir := filepath.Join(t.TempDir(), "schoolImages")
	sc := controllers.SchoolController{
		Schools:          gateway,
		Images:           storage.NewLocalFileStore(imageDir, 5<<20),
		MaxImageBytes:    5 << 20,
		ImageBasePath:    "/schoolImages",
		ImagePlaceholder: "/placeholder-school.jpg",
	}
	return testApp{router: NewRouter(sc, Options{StaticDir: imageDir}), imageDir: imageDir}
}

func (a testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a testApp) create(t *testing.T, name, imageName string, image []byte) int64 {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	fields := map[string]string{
		"name":     name,
		"address":  "7 Lake View\nSector 4",
		"city":     "Jaipur",
		"state":    "Rajasthan",
		"contact":  "0141222333",
		"email_id": "hello@" + strings.ToLower(name) + ".in",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := mw.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/schools", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := a.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var created models.Created
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, "School added successfully", created.Message)
	return created.ID
}

func (a testApp) list(t *testing.T) models.SchoolList {
	t.Helper()
	rr := a.do(t, httptest.NewRequest(http.MethodGet, "/schools", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var list models.SchoolList
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	return list
}

func ids(list models.SchoolList) []int64 {
	out := make([]int64, 0, len(list.Schools))
	for _, s := range list.Schools {
		out = append(out, s.ID)
	}
	return out
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	app := newTestApp(t)
	app.create(t, "Existing", "", nil)

	for _, method := range []string{http.MethodPatch, http.MethodOptions} {
		rr := app.do(t, httptest.NewRequest(method, "/schools?id=1", strings.NewReader(`{"id":1}`)))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, method)
		assert.JSONEq(t, `{"message":"Method not allowed"}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"), method)
	}

	rr := app.do(t, httptest.NewRequest(http.MethodPost, "/schools/1/image", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	list := app.list(t)
	require.Len(t, list.Schools, 1)
	assert.Equal(t, "Existing", list.Schools[0].Name)
}

func TestRouter_NotFound(t *testing.T) {
	app := newTestApp(t)
	rr := app.do(t, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_SchoolLifecycle(t *testing.T) {
	app := newTestApp(t)

	t.Run("should list empty table", func(t *testing.T) {
		list := app.list(t)
		assert.Empty(t, list.Schools)
		assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 1}, list.Pagination)
	})

	first := app.create(t, "Alpha", "", nil)
	second := app.create(t, "Beta", "crest.png", []byte("crest"))
	third := app.create(t, "Gamma", "crest.png", []byte("crest-2"))

	t.Run("should list newest first", func(t *testing.T) {
		list := app.list(t)
		assert.Equal(t, []int64{third, second, first}, ids(list))
		assert.Equal(t, 3, list.Pagination.TotalSchools)
		assert.Equal(t, "", list.Schools[2].Image)
	})

	t.Run("should store distinct local images", func(t *testing.T) {
		list := app.list(t)
		gammaImage, betaImage := list.Schools[0].Image, list.Schools[1].Image
		assert.NotEqual(t, gammaImage, betaImage)
		assert.True(t, strings.HasSuffix(betaImage, "-crest.png"))

		data, err := os.ReadFile(filepath.Join(app.imageDir, betaImage))
		require.NoError(t, err)
		assert.Equal(t, "crest", string(data))

		rr := app.do(t, httptest.NewRequest(http.MethodGet, "/schoolImages/"+gammaImage, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "crest-2", rr.Body.String())

		rr = app.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/schools/%d/image", second), nil))
		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/schoolImages/"+betaImage, rr.Header().Get("Location"))
	})

	t.Run("should update mutable fields only", func(t *testing.T) {
		before := app.list(t).Schools[1]

		body := fmt.Sprintf(`{"id": %d, "name": "Beta Senior Secondary", "address": "New Campus", "city": "Udaipur", "state": "RJ", "contact": 294000111, "email_id": "office@beta.in"}`, second)
		rr := app.do(t, httptest.NewRequest(http.MethodPut, "/schools", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.JSONEq(t, `{"message":"School updated successfully"}`, rr.Body.String())

		after := app.list(t).Schools[1]
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.Image, after.Image)
		assert.Equal(t, "Beta Senior Secondary", after.Name)
		assert.Equal(t, "Udaipur", after.City)
	})

	t.Run("should accept an update that changes nothing", func(t *testing.T) {
		body := fmt.Sprintf(`{"id": %d, "name": "Beta Senior Secondary", "address": "New Campus", "city": "Udaipur", "state": "RJ", "contact": 294000111, "email_id": "office@beta.in"}`, second)
		rr := app.do(t, httptest.NewRequest(http.MethodPut, "/schools", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	})

	t.Run("should not create rows on update of unknown id", func(t *testing.T) {
		body := `{"id": 99999, "name": "Ghost", "address": "x", "city": "x", "state": "x", "contact": "1", "email_id": "g@x.in"}`
		rr := app.do(t, httptest.NewRequest(http.MethodPut, "/schools", strings.NewReader(body)))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Len(t, app.list(t).Schools, 3)
	})

	t.Run("should delete once and then report not found", func(t *testing.T) {
		target := fmt.Sprintf("/schools?id=%d", first)

		rr := app.do(t, httptest.NewRequest(http.MethodDelete, target, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []int64{third, second}, ids(app.list(t)))

		rr = app.do(t, httptest.NewRequest(http.MethodDelete, target, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"message":"School not found"}`, rr.Body.String())
	})

	t.Run("should keep image file after delete", func(t *testing.T) {
		image := app.list(t).Schools[1].Image
		rr := app.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/schools?id=%d", second), nil))
		require.Equal(t, http.StatusOK, rr.Code)

		_, err := os.Stat(filepath.Join(app.imageDir, image))
		assert.NoError(t, err)
	})

	t.Run("should report health", func(t *testing.T) {
		rr := app.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})
}
