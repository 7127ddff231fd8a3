package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// Resource maps the common CRUD and bulk operations of one catalog entity
// onto the API client.
type Resource[T any] struct {
	client   *catalogapi.Client
	name     string
	path     string
	listPath string
}

// NewResource creates a Resource rooted at path, e.g. "/products".
func NewResource[T any](client *catalogapi.Client, name, path string) *Resource[T] {
	path = "/" + strings.Trim(path, "/")
	return &Resource[T]{client: client, name: name, path: path, listPath: path}
}

// WithListPath overrides the endpoint used by List.
func (r *Resource[T]) WithListPath(p string) *Resource[T] {
	r.listPath = p
	return r
}

// Name returns the resource name used in logs and export file names.
func (r *Resource[T]) Name() string { return r.name }

// Path returns the resource base path.
func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) itemPath(id string, suffix ...string) string {
	p := r.path + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// List fetches one page. An unrecognized envelope is logged and treated as
// an empty page.
func (r *Resource[T]) List(ctx context.Context, params ListParams) (catalogapi.Page[T], error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, r.listPath, params.Query(), &raw); err != nil {
		return catalogapi.EmptyPage[T](params.ListQuery()), err
	}
	return normalizeList[T](r.name, raw, params.ListQuery())
}

func normalizeList[T any](name string, raw []byte, q catalogapi.ListQuery) (catalogapi.Page[T], error) {
	page, err := catalogapi.Normalize[T](raw, q)
	if err != nil {
		var shapeErr *catalogapi.ShapeError
		if errors.As(err, &shapeErr) {
			log.Warn().Str("resource", name).Str("reason", shapeErr.Reason).Msg("Unrecognized list envelope, showing empty page")
			return catalogapi.EmptyPage[T](q), nil
		}
		return page, err
	}
	return page, nil
}

// Get fetches a single item.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, utils.ErrInvalidID
	}
	return r.fetchOne(ctx, r.itemPath(id))
}

// Create posts body and returns the created item, or nil when the API
// answers without a body.
func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	var raw json.RawMessage
	if err := r.client.Post(ctx, r.path, body, &raw); err != nil {
		return nil, err
	}
	return decodeOptional[T](raw)
}

// Update patches id with body and returns the updated item, or nil when the
// API answers without a body.
func (r *Resource[T]) Update(ctx context.Context, id string, body any) (*T, error) {
	if id == "" {
		return nil, utils.ErrInvalidID
	}
	var raw json.RawMessage
	if err := r.client.Patch(ctx, r.itemPath(id), body, &raw); err != nil {
		return nil, err
	}
	return decodeOptional[T](raw)
}

// Delete removes id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return utils.ErrInvalidID
	}
	return r.client.Delete(ctx, r.itemPath(id), nil)
}

// BulkDelete removes ids in one request.
func (r *Resource[T]) BulkDelete(ctx context.Context, ids []string) error {
	if err := validateSelection(ids); err != nil {
		return err
	}
	return r.client.Post(ctx, r.path+"/bulk-delete", map[string]any{"ids": ids}, nil)
}

// BulkUpdateStatus sets isActive on ids in one request.
func (r *Resource[T]) BulkUpdateStatus(ctx context.Context, ids []string, isActive bool) error {
	if err := validateSelection(ids); err != nil {
		return err
	}
	return r.client.Patch(ctx, r.path+"/bulk-status", map[string]any{"ids": ids, "isActive": isActive}, nil)
}

// Export downloads the CSV export for the current search and filters.
func (r *Resource[T]) Export(ctx context.Context, params ListParams) (*catalogapi.Blob, error) {
	blob, err := r.client.Download(ctx, r.path+"/export", params.ExportBody())
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", r.name, err)
	}
	return blob, nil
}

func (r *Resource[T]) fetchOne(ctx context.Context, path string) (*T, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeItem[T](raw)
}

// fetchList reads a non-paginated list endpoint, tolerating every list shape.
func fetchList[T any](ctx context.Context, client *catalogapi.Client, name, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := client.Get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	page, err := normalizeList[T](name, raw, catalogapi.ListQuery{})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func fetchData[T any](ctx context.Context, client *catalogapi.Client, path string, query url.Values) (*T, error) {
	var raw json.RawMessage
	if err := client.Get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	return decodeItem[T](raw)
}

func decodeItem[T any](raw json.RawMessage) (*T, error) {
	item, err := catalogapi.DecodeData[T](raw)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// decodeOptional is decodeItem for mutation responses, where an empty body
// or a bare {success:true} envelope carries no item.
func decodeOptional[T any](raw json.RawMessage) (*T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if trimmed[0] == '{' && json.Unmarshal(trimmed, &env) == nil && env.Data == nil && bytes.Contains(trimmed, []byte(`"success"`)) {
		return nil, nil
	}
	return decodeItem[T](trimmed)
}

func validateSelection(ids []string) error {
	if len(ids) == 0 {
		return utils.ErrEmptySelection
	}
	for _, id := range ids {
		if id == "" {
			return utils.ErrInvalidID
		}
	}
	return nil
}

// ExportFilename names a CSV download, e.g. products-20240102-150405.csv.
func ExportFilename(resource string, at time.Time) string {
	return fmt.Sprintf("%s-%s.csv", resource, at.Format("20060102-150405"))
}
