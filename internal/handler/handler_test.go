package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_admin/internal/auth"
	"github.com/GTDGit/gtd_admin/internal/form"
	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/service"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testLimits = ListConfig{DefaultLimit: 10, MaxLimit: 50}

// fakeCatalog records catalog API calls and answers from routes keyed by
// "METHOD /path".
type fakeCatalog struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string]string
	routes map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeCatalog(t *testing.T) (*fakeCatalog, *catalogapi.Client) {
	t.Helper()
	f := &fakeCatalog{bodies: map[string]string{}, routes: map[string]func(http.ResponseWriter, *http.Request){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.bodies[key] = string(body)
		h, ok := f.routes[key]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"success":false,"message":"no route"}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, catalogapi.NewClient(catalogapi.Config{BaseURL: srv.URL}, nil)
}

func (f *fakeCatalog) on(key, body string) {
	f.onStatus(key, http.StatusOK, body)
}

func (f *fakeCatalog) onStatus(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[key] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (f *fakeCatalog) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}

func (f *fakeCatalog) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

var testAdmin = &auth.Identity{ID: "admin_1", Role: models.RoleAdmin, Permissions: models.AllPermissions}

// asSession stands in for the auth middleware.
func asSession(sessionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("session_id", sessionID)
		c.Set("identity", testAdmin)
		c.Next()
	}
}

func newProductRouter(t *testing.T) (*gin.Engine, *fakeCatalog, *listview.Registry) {
	t.Helper()
	fake, client := newFakeCatalog(t)
	registry := listview.NewRegistry()
	h := NewProductHandler(service.NewProductService(client), registry, testLimits)
	r := gin.New()
	h.Register(r.Group("/admin/products", asSession("s1")))
	return r, fake, registry
}

func productsJSON(ids ...string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf(`{"id":%q,"name":"Product %s","sku":"SKU-%s","basePrice":100,"isActive":true}`, id, id, id)
	}
	return fmt.Sprintf(`{"success":true,"data":[%s],"pagination":{"page":1,"limit":10,"total":%d}}`, strings.Join(parts, ","), len(ids))
}

func jsonBody(body any) io.Reader {
	b, _ := json.Marshal(body)
	return bytes.NewReader(b)
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = jsonBody(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type listBody struct {
	Success bool `json:"success"`
	Data    struct {
		Items  []models.Product  `json:"items"`
		Search string            `json:"search"`
		Total  int               `json:"total"`
		Page   int               `json:"page"`
		Loaded bool              `json:"loaded"`
		Error  string            `json:"error"`
		Filter map[string]string `json:"filters"`
	} `json:"data"`
	Error *utils.ErrorInfo `json:"error"`
	Meta  utils.Meta       `json:"meta"`
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listBody {
	t.Helper()
	var body listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestListProducts_FetchesOnlyWhenIntentChanges(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.on("GET /products", productsJSON("p1", "p2"))

	w := do(r, http.MethodGet, "/admin/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeList(t, w)
	assert.True(t, body.Data.Loaded)
	assert.Len(t, body.Data.Items, 2)
	require.NotNil(t, body.Meta.Pagination)
	assert.Equal(t, 2, body.Meta.Pagination.Total)
	assert.Equal(t, 1, fake.count("GET /products"))

	do(r, http.MethodGet, "/admin/products", nil)
	assert.Equal(t, 1, fake.count("GET /products"), "unchanged intent must not refetch")

	do(r, http.MethodGet, "/admin/products?refresh=true", nil)
	assert.Equal(t, 2, fake.count("GET /products"))

	w = do(r, http.MethodGet, "/admin/products?search=steel&status=active", nil)
	assert.Equal(t, 3, fake.count("GET /products"))
	body = decodeList(t, w)
	assert.Equal(t, "steel", body.Data.Search)
	assert.Equal(t, map[string]string{"status": "active"}, body.Data.Filter)

	do(r, http.MethodGet, "/admin/products?search=steel", nil)
	assert.Equal(t, 3, fake.count("GET /products"), "filters persist in the session")
}

func TestListProducts_InvalidPage(t *testing.T) {
	r, _, _ := newProductRouter(t)

	w := do(r, http.MethodGet, "/admin/products?page=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ErrInvalidPage.Error(), decodeResponse(t, w).Error.Code)
}

func TestListProducts_UpstreamUnauthorizedRedirects(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.onStatus("GET /products", http.StatusUnauthorized, `{"message":"Unauthenticated"}`)

	w := do(r, http.MethodGet, "/admin/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "/sign-in", resp.Error.Redirect)
}

func TestListProducts_UpstreamFailureKeepsState(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.onStatus("GET /products", http.StatusInternalServerError, `{"message":"database down"}`)

	w := do(r, http.MethodGet, "/admin/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeList(t, w)
	assert.Equal(t, "database down", body.Data.Error)
	assert.Empty(t, body.Data.Items)
}

func TestBulkDelete_RemovesFromSessionList(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.on("GET /products", productsJSON("p1", "p2", "p3"))
	fake.on("POST /products/bulk-delete", `{"success":true}`)

	do(r, http.MethodGet, "/admin/products", nil)
	w := do(r, http.MethodPost, "/admin/products/bulk-delete", gin.H{"ids": []string{"p1", "p3"}})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeList(t, w)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "p2", body.Data.Items[0].ID)
	assert.Equal(t, 1, body.Data.Total)
	assert.JSONEq(t, `{"ids":["p1","p3"]}`, fake.body("POST /products/bulk-delete"))
	assert.Equal(t, 1, fake.count("GET /products"))
}

func TestBulkDelete_EmptySelection(t *testing.T) {
	r, fake, _ := newProductRouter(t)

	w := do(r, http.MethodPost, "/admin/products/bulk-delete", gin.H{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ErrEmptySelection.Error(), decodeResponse(t, w).Error.Code)
	assert.Zero(t, fake.count("POST /products/bulk-delete"))
}

func TestBulkStatus_PatchesItems(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.on("GET /products", productsJSON("p1", "p2"))
	fake.on("PATCH /products/bulk-status", `{"success":true}`)

	do(r, http.MethodGet, "/admin/products", nil)
	w := do(r, http.MethodPatch, "/admin/products/bulk-status", gin.H{"ids": []string{"p2"}, "isActive": false})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeList(t, w)
	assert.True(t, body.Data.Items[0].IsActive)
	assert.False(t, body.Data.Items[1].IsActive)
}

func TestProductForm_ValidateThenCreate(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.on("GET /products", productsJSON("p1"))
	fake.on("POST /products", `{"success":true,"data":{"id":"p9","name":"Steel Beam","slug":"steel-beam","sku":"SB-100","basePrice":1500}}`)

	do(r, http.MethodGet, "/admin/products", nil)

	w := do(r, http.MethodPost, "/admin/products/form", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"create"`)

	w = do(r, http.MethodPatch, "/admin/products/form", gin.H{"name": "Steel Beam"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"steel-beam"`)

	w = do(r, http.MethodPost, "/admin/products/form/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	assert.Contains(t, resp.Error.Fields, "sku")
	assert.Contains(t, resp.Error.Fields, "basePrice")
	assert.Zero(t, fake.count("POST /products"), "invalid drafts never reach the API")

	w = do(r, http.MethodPatch, "/admin/products/form", gin.H{
		"description":      "Hot rolled structural steel beam",
		"shortDescription": "Steel beam",
		"sku":              "sb-100",
		"categoryId":       "c1",
		"brandId":          "b1",
		"basePrice":        1500,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/admin/products/form/submit", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, fake.body("POST /products"), `"sku":"SB-100"`)
	assert.Contains(t, fake.body("POST /products"), `"price":1500`)
	assert.Equal(t, 2, fake.count("GET /products"), "create refetches the list")

	w = do(r, http.MethodGet, "/admin/products/form", nil)
	assert.Contains(t, w.Body.String(), `"mode":"closed"`)

	w = do(r, http.MethodPost, "/admin/products/form/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProductForm_EditReplacesListItem(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.on("GET /products", productsJSON("p1", "p2"))
	fake.on("GET /products/p1", `{"success":true,"data":{"id":"p1","name":"Old Name","slug":"old-name","description":"Long enough description","shortDescription":"Short","sku":"SKU-P1","categoryId":"c1","brandId":"b1","basePrice":100,"unitOfMeasurement":"pieces","minOrderQuantity":1,"isActive":true}}`)
	fake.on("PATCH /products/p1", `{"success":true,"data":{"id":"p1","name":"New Name","sku":"SKU-P1","basePrice":100}}`)

	do(r, http.MethodGet, "/admin/products", nil)

	w := do(r, http.MethodPost, "/admin/products/form", gin.H{"id": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"edit"`)

	do(r, http.MethodPatch, "/admin/products/form", gin.H{"name": "New Name"})
	w = do(r, http.MethodPost, "/admin/products/form/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, fake.body("PATCH /products/p1"), `"slug":"new-name"`)

	w = do(r, http.MethodGet, "/admin/products", nil)
	body := decodeList(t, w)
	assert.Equal(t, "New Name", body.Data.Items[0].Name)
	assert.Equal(t, 1, fake.count("GET /products"), "edits patch the list in place")
}

func TestProductForm_ServerErrorKeepsFormOpen(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.onStatus("POST /products", http.StatusConflict, `{"success":false,"message":"SKU already exists"}`)

	do(r, http.MethodPost, "/admin/products/form", nil)
	do(r, http.MethodPatch, "/admin/products/form", gin.H{
		"name":             "Steel Beam",
		"description":      "Hot rolled structural steel beam",
		"shortDescription": "Steel beam",
		"sku":              "SB-100",
		"categoryId":       "c1",
		"brandId":          "b1",
		"basePrice":        1500,
	})

	w := do(r, http.MethodPost, "/admin/products/form/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SKU already exists", decodeResponse(t, w).Error.Message)

	w = do(r, http.MethodGet, "/admin/products/form", nil)
	assert.Contains(t, w.Body.String(), `"mode":"create"`)
	assert.Contains(t, w.Body.String(), `"serverError":"SKU already exists"`)
}

func TestProductForm_RejectedEditLeavesDraftUnchanged(t *testing.T) {
	r, _, _ := newProductRouter(t)

	do(r, http.MethodPost, "/admin/products/form", nil)
	w := do(r, http.MethodPatch, "/admin/products/form", gin.H{"maxOrderQuantity": 5, "weightKg": 1.5})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPatch, "/admin/products/form", gin.H{"maxOrderQuantity": 9, "weightKg": 7, "basePrice": "oops"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/admin/products/form", nil)
	var body struct {
		Data form.State[form.ProductDraft] `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Draft.MaxOrderQuantity)
	require.NotNil(t, body.Data.Draft.WeightKg)
	assert.Equal(t, 5, *body.Data.Draft.MaxOrderQuantity)
	assert.Equal(t, 1.5, *body.Data.Draft.WeightKg)
}

func TestUploadImages_RejectsMissingFiles(t *testing.T) {
	r, fake, _ := newProductRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/products/p1/images", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE", decodeResponse(t, w).Error.Code)
	assert.Empty(t, fake.calls)
}

func TestExportProducts_UsesSessionFilters(t *testing.T) {
	r, fake, _ := newProductRouter(t)
	fake.on("GET /products", productsJSON("p1"))
	fake.mu.Lock()
	fake.routes["POST /products/export"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "id,name\np1,Product p1\n")
	}
	fake.mu.Unlock()

	do(r, http.MethodGet, "/admin/products?search=beam", nil)
	w := do(r, http.MethodGet, "/admin/products/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="products-`)
	assert.Equal(t, "id,name\np1,Product p1\n", w.Body.String())
	assert.Contains(t, fake.body("POST /products/export"), `"search":"beam"`)
}

func TestSessionsDoNotShareViews(t *testing.T) {
	fake, client := newFakeCatalog(t)
	fake.on("GET /products", productsJSON("p1"))
	registry := listview.NewRegistry()
	h := NewProductHandler(service.NewProductService(client), registry, testLimits)
	r := gin.New()
	h.Register(r.Group("/a", asSession("s1")))
	h.Register(r.Group("/b", asSession("s2")))

	do(r, http.MethodGet, "/a?search=steel", nil)
	w := do(r, http.MethodGet, "/b", nil)

	assert.Empty(t, decodeList(t, w).Data.Search)
	assert.Equal(t, 2, fake.count("GET /products"))
	assert.Equal(t, 2, registry.Len())
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &form.ValidationError{Fields: map[string]string{"name": "is required"}}, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"closed form", form.ErrClosed, http.StatusConflict, "FORM_CLOSED"},
		{"submitting", form.ErrSubmitting, http.StatusConflict, "FORM_SUBMITTING"},
		{"transition", fmt.Errorf("%w: delivered to pending", utils.ErrStatusTransition), http.StatusConflict, utils.ErrStatusTransition.Error()},
		{"wrapped cycle", fmt.Errorf("move: %w", utils.ErrCategoryCycle), http.StatusBadRequest, utils.ErrCategoryCycle.Error()},
		{"bad role", utils.ErrInvalidRole, http.StatusBadRequest, utils.ErrInvalidRole.Error()},
		{"unsupported file", catalogapi.ErrUnsupportedType, http.StatusBadRequest, "INVALID_FILE"},
		{"file too large", catalogapi.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"api rejection", &catalogapi.APIError{Status: http.StatusNotFound, Message: "Product not found"}, http.StatusNotFound, "UPSTREAM_REJECTED"},
		{"api server error", &catalogapi.APIError{Status: http.StatusInternalServerError, Message: "boom"}, http.StatusBadGateway, "UPSTREAM_REJECTED"},
		{"unknown", errors.New("weird"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestGetSettings_FiltersPageSizes(t *testing.T) {
	r := gin.New()
	r.GET("/settings", NewSettingsHandler(ListConfig{DefaultLimit: 10, MaxLimit: 25}).GetSettings)

	w := do(r, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Pagination struct {
				Options []int `json:"options"`
			} `json:"pagination"`
			Units       []string            `json:"units"`
			RolePresets map[string][]string `json:"rolePresets"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []int{5, 10, 25}, body.Data.Pagination.Options)
	assert.Equal(t, models.UnitsOfMeasurement, body.Data.Units)
	assert.NotEmpty(t, body.Data.RolePresets)
}
