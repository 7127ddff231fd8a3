package catalogapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/api/"}, tokens)
}

func TestClient_ResolvesTokenOnEveryRequest(t *testing.T) {
	var calls atomic.Int32
	tokens := TokenFunc(func(ctx context.Context) (string, error) {
		n := calls.Add(1)
		if n == 1 {
			return "first", nil
		}
		return "refreshed", nil
	})

	var mu sync.Mutex
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}, tokens)

	require.NoError(t, c.Get(context.Background(), "/products", nil, nil))
	require.NoError(t, c.Get(context.Background(), "/products", nil, nil))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer first", "Bearer refreshed"}, seen)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_TokenErrorSendsUnauthenticated(t *testing.T) {
	tokens := TokenFunc(func(ctx context.Context) (string, error) {
		return "", errors.New("session expired")
	})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated"}`))
	}, tokens)

	err := c.Get(context.Background(), "/products", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthenticated", apiErr.Message)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestClient_APIErrorMessagePriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message wins", `{"message":"m","error":"e","errors":["x"]}`, "m"},
		{"error string", `{"error":"bad sku"}`, "bad sku"},
		{"error object", `{"error":{"code":"SKU_EXISTS","message":"sku exists"}}`, "sku exists"},
		{"errors list", `{"errors":["name required","price invalid"]}`, "name required, price invalid"},
		{"plain text", `gateway exploded`, "gateway exploded"},
		{"empty object", `{}`, genericMessage},
		{"empty body", ``, genericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = io.WriteString(w, tt.body)
			}, nil)

			err := c.Post(context.Background(), "/products", map[string]string{"name": "x"}, nil)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Equal(t, KindAPI, KindOf(err))
			assert.Equal(t, tt.want, UserMessage(err))
		})
	}
}

func TestClient_SuccessFalseIsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Product is locked"}`))
	}, nil)

	err := c.Patch(context.Background(), "/products/1", map[string]bool{"isActive": true}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Product is locked", apiErr.Message)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: base}, nil)
	err := c.Get(context.Background(), "/products", nil, nil)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.MethodGet, netErr.Method)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Contains(t, UserMessage(err), "try again")
}

func TestClient_QueryAndRawBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "steel", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`[{"id":"a"}]`))
	}, nil)

	var raw json.RawMessage
	q := url.Values{"search": {"steel"}, "page": {"2"}}
	require.NoError(t, c.Get(context.Background(), "products", q, &raw))
	assert.JSONEq(t, `[{"id":"a"}]`, string(raw))
}

func TestClient_UploadIsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "prod-1", r.FormValue("productId"))
		files := r.MultipartForm.File[FieldImages]
		if !assert.Len(t, files, 2) {
			return
		}
		assert.Equal(t, "a.png", files[0].Filename)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"success":true,"data":["/uploads/a.png","/uploads/b.png"]}`))
	}, TokenFunc(func(ctx context.Context) (string, error) { return "tok", nil }))

	files := []FilePart{
		{Field: FieldImages, Filename: "a.png", ContentType: "image/png", Data: pngBytes},
		{Field: FieldImages, Filename: "b.png", ContentType: "image/png", Data: pngBytes},
	}
	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, c.Upload(context.Background(), "/products/images", map[string]string{"productId": "prod-1"}, files, &resp))
	assert.Len(t, resp.Data, 2)
}

func TestClient_Download(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"search":"bar"}`, string(body))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id,name\n1,bar\n"))
	}, nil)

	blob, err := c.Download(context.Background(), "/products/export", map[string]string{"search": "bar"})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", blob.ContentType)
	assert.Equal(t, "id,name\n1,bar\n", string(blob.Data))
}
