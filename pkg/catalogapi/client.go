package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL matches the local development backend.
	DefaultBaseURL = "http://localhost:3000/api"
)

// Config holds catalog API configuration.
type Config struct {
	BaseURL string
	// Timeout of zero means no client-side timeout; the caller's context is the only bound.
	Timeout time.Duration
	Debug   bool
}

// TokenProvider resolves the bearer token for a single outgoing request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a plain function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Client is the catalog REST API client. It holds no session state; every
// request asks the TokenProvider for the current token.
type Client struct {
	httpClient *http.Client
	config     Config
	tokens     TokenProvider
}

// NewClient creates a new catalog API client.
func NewClient(config Config, tokens TokenProvider) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		tokens:     tokens,
	}
}

// WithHTTPClient replaces the underlying http.Client (tests, custom transports).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Get issues a GET with the given query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a JSON POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a JSON PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a JSON PATCH.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs a JSON request and decodes the response body into out.
// out may be nil, *json.RawMessage (raw body) or any JSON-decodable value.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.endpoint(path, query)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.Debug {
		ev := log.Debug().Str("method", method).Str("endpoint", endpoint)
		if payload != nil {
			ev = ev.RawJSON("request", payload)
		}
		ev.Msg("[CATALOG] Outgoing request")
	}

	respBody, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	return decodeInto(respBody, out)
}

// FilePart is one file of a multipart upload.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Upload posts a multipart form. The JSON content type is not set; the
// multipart boundary header is used instead.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, files []FilePart, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(f.Field), escapeQuotes(f.Filename)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write form file: %w", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	endpoint := c.endpoint(path, nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if c.config.Debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("files", len(files)).
			Int("bytes", buf.Len()).
			Msg("[CATALOG] Outgoing upload")
	}

	respBody, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	return decodeInto(respBody, out)
}

// Blob is a binary download such as a CSV export.
type Blob struct {
	ContentType string
	Data        []byte
}

// Download posts body as JSON and returns the raw response bytes.
func (c *Client) Download(ctx context.Context, path string, body any) (*Blob, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, contentType, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Blob{ContentType: contentType, Data: data}, nil
}

func (c *Client) send(ctx context.Context, req *http.Request) ([]byte, error) {
	data, _, err := c.roundTrip(ctx, req)
	return data, err
}

// roundTrip attaches auth, executes the request and maps failures to
// *NetworkError or *APIError.
func (c *Client) roundTrip(ctx context.Context, req *http.Request) ([]byte, string, error) {
	c.authorize(ctx, req)
	req.Header.Set("X-Request-ID", uuid.New().String())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &NetworkError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &NetworkError{Method: req.Method, URL: req.URL.String(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if c.config.Debug {
		log.Debug().
			Str("method", req.Method).
			Str("endpoint", req.URL.Path).
			Int("status_code", resp.StatusCode).
			Dur("latency", time.Since(start)).
			Int("bytes", len(respBody)).
			Msg("[CATALOG] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", newAPIError(resp.StatusCode, respBody)
	}
	return respBody, resp.Header.Get("Content-Type"), nil
}

// authorize re-resolves the token for every call so a refreshed token is
// used as soon as the provider returns it.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", req.URL.Path).Msg("[CATALOG] Failed to resolve token, sending unauthenticated")
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// decodeInto decodes a successful body. An envelope reporting success:false
// is turned into an *APIError so callers never act on a rejected mutation.
func decodeInto(body []byte, out any) error {
	if env, ok := peekEnvelope(body); ok && env.Success != nil && !*env.Success {
		return &APIError{Status: http.StatusOK, Message: env.errorMessage()}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], body...)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ShapeError{Reason: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
