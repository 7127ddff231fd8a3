package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/auth"
	"github.com/GTDGit/gtd_admin/internal/form"
	"github.com/GTDGit/gtd_admin/internal/listview"
	"github.com/GTDGit/gtd_admin/internal/middleware"
	"github.com/GTDGit/gtd_admin/internal/service"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

const maxImportBytes = 10 * 1024 * 1024

// ListConfig carries the page size limits of list views.
type ListConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type idsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type bulkStatusRequest struct {
	IDs      []string `json:"ids" binding:"required"`
	IsActive *bool    `json:"isActive" binding:"required"`
}

// viewOwner keys server-side view state. Bearer requests have no console
// session and fall back to the user id.
func viewOwner(c *gin.Context) string {
	if id := middleware.GetSessionID(c); id != "" {
		return id
	}
	if ident := middleware.GetIdentity(c); ident != nil {
		return "bearer:" + ident.ID
	}
	return "anonymous"
}

// listView binds one resource list to the per-session controller registry.
type listView[T any] struct {
	registry *listview.Registry
	resource string
	filters  []string
	list     func(ctx context.Context, p service.ListParams) (catalogapi.Page[T], error)
	key      listview.KeyFunc[T]
	limits   ListConfig
}

func newListView[T any](registry *listview.Registry, resource string, filters []string, list func(context.Context, service.ListParams) (catalogapi.Page[T], error), key listview.KeyFunc[T], limits ListConfig) *listView[T] {
	return &listView[T]{
		registry: registry,
		resource: resource,
		filters:  filters,
		list:     list,
		key:      key,
		limits:   limits,
	}
}

func (v *listView[T]) controller(c *gin.Context) *listview.Controller[T] {
	return v.controllerFor(viewOwner(c))
}

func (v *listView[T]) controllerFor(owner string) *listview.Controller[T] {
	return listview.Lookup[*listview.Controller[T]](v.registry, owner, v.resource, func() *listview.Controller[T] {
		fetch := func(ctx context.Context, q listview.Query) (catalogapi.Page[T], error) {
			return v.list(ctx, service.ListParams(q))
		}
		return listview.New[T](fetch, v.key, listview.Options{
			Resource: v.resource,
			Limit:    v.limits.DefaultLimit,
			MaxLimit: v.limits.MaxLimit,
		})
	})
}

// serve folds search, page, limit and filter query parameters into the
// session's controller. A fetch is issued only when the intent changed,
// the view was never loaded, or refresh=true is passed.
func (v *listView[T]) serve(c *gin.Context) {
	ctrl := v.controller(c)
	st := ctrl.State()
	q, changed, err := v.intent(c, st)
	if err != nil {
		respondError(c, err)
		return
	}
	if changed || !st.Loaded || c.Query("refresh") == "true" {
		st = ctrl.Apply(c.Request.Context(), q)
	}
	respondList(c, v.resource, st)
}

func (v *listView[T]) intent(c *gin.Context, st listview.State[T]) (listview.Query, bool, error) {
	q := listview.Query{Page: st.Page, Limit: st.Limit, Search: st.Search, Filters: map[string]string{}}
	for k, val := range st.Filters {
		q.Filters[k] = val
	}
	changed := false

	if s, ok := c.GetQuery("search"); ok {
		q.Search = strings.TrimSpace(s)
		changed = changed || q.Search != st.Search
	}
	if raw, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, false, utils.ErrInvalidPage
		}
		q.Page = n
		changed = changed || n != st.Page
	}
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, false, utils.ErrInvalidPage
		}
		q.Limit = n
		changed = changed || n != st.Limit
	}
	for _, key := range v.filters {
		val, ok := c.GetQuery(key)
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		if val == "" {
			delete(q.Filters, key)
		} else {
			q.Filters[key] = val
		}
		changed = changed || st.Filters[key] != val
	}
	return q, changed, nil
}

// params returns the current search and filters for exports.
func (v *listView[T]) params(c *gin.Context) service.ListParams {
	st := v.controller(c).State()
	return service.ListParams{Page: st.Page, Limit: st.Limit, Search: st.Search, Filters: st.Filters}
}

func respondList[T any](c *gin.Context, resource string, st listview.State[T]) {
	if st.Err != nil && catalogapi.IsStatus(st.Err, http.StatusUnauthorized) {
		utils.Redirect(c, http.StatusUnauthorized, "UPSTREAM_UNAUTHENTICATED", st.Error, auth.SignIn.Redirect())
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, resource+" retrieved", st, st.Page, st.Limit, st.Total)
}

// formView binds a per-session form controller to HTTP endpoints.
type formView[D any, T any] struct {
	registry *listview.Registry
	name     string
	create   func(owner string) *form.Controller[D, T]
	load     func(ctx context.Context, id string) (*T, error)
	editOnly bool
	// saved runs after a successful submit with the request context.
	saved func(c *gin.Context, item *T, created bool)
}

func (f *formView[D, T]) controller(c *gin.Context) *form.Controller[D, T] {
	owner := viewOwner(c)
	return listview.Lookup[*form.Controller[D, T]](f.registry, owner, f.name, func() *form.Controller[D, T] {
		return f.create(owner)
	})
}

type openFormRequest struct {
	ID string `json:"id"`
}

// Open handles POST .../form. An id opens the edit form seeded from the
// current record; no id opens the create form.
func (f *formView[D, T]) Open(c *gin.Context) {
	var req openFormRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}
	ctrl := f.controller(c)
	if req.ID == "" {
		if f.editOnly {
			respondError(c, utils.ErrInvalidID)
			return
		}
		utils.Success(c, http.StatusOK, "Form opened", ctrl.OpenCreate())
		return
	}
	item, err := f.load(c.Request.Context(), req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", "Record not found")
		return
	}
	utils.Success(c, http.StatusOK, "Form opened", ctrl.OpenEdit(req.ID, *item))
}

// State handles GET .../form.
func (f *formView[D, T]) State(c *gin.Context) {
	utils.Success(c, http.StatusOK, "Form state", f.controller(c).State())
}

// Edit handles PATCH .../form with a partial draft.
func (f *formView[D, T]) Edit(c *gin.Context) {
	ctrl := f.controller(c)
	st := ctrl.State()
	if st.Mode == form.ModeClosed {
		respondError(c, form.ErrClosed)
		return
	}
	next, err := cloneDraft(st.Draft)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
		return
	}
	if err := c.ShouldBindJSON(next); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	utils.Success(c, http.StatusOK, "Form updated", ctrl.Edit(func(d *D) { *d = *next }))
}

// cloneDraft returns a deep copy of d, so a request body bound onto it never
// reaches the controller's draft through shared pointers.
func cloneDraft[D any](d D) (*D, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	out := new(D)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Submit handles POST .../form/submit.
func (f *formView[D, T]) Submit(c *gin.Context) {
	ctrl := f.controller(c)
	created := ctrl.State().Mode == form.ModeCreate
	saved, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if f.saved != nil {
		f.saved(c, saved, created)
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	utils.Success(c, code, "Saved successfully", saved)
}

// Close handles DELETE .../form.
func (f *formView[D, T]) Close(c *gin.Context) {
	f.controller(c).Close()
	utils.Success(c, http.StatusOK, "Form closed", nil)
}

func (f *formView[D, T]) mount(g *gin.RouterGroup) {
	g.GET("/form", f.State)
	g.POST("/form", f.Open)
	g.PATCH("/form", f.Edit)
	g.DELETE("/form", f.Close)
	g.POST("/form/submit", f.Submit)
}

// replaceItem returns an OnSaved callback that swaps the saved record into
// owner's list view without a fetch.
func replaceItem[T any](v *listView[T], owner string) func(*T) {
	return func(saved *T) {
		if saved == nil {
			return
		}
		id := v.key(*saved)
		v.controllerFor(owner).OptimisticPatch([]string{id}, func(it *T) { *it = *saved })
	}
}

// refetchOnCreate reloads the list after a create so the new record shows
// in server order.
func refetchOnCreate[T any](v *listView[T]) func(c *gin.Context, item *T, created bool) {
	return func(c *gin.Context, _ *T, created bool) {
		if created {
			v.controller(c).Refetch(c.Request.Context())
		}
	}
}

// respondError maps service, form and transport errors to responses.
func respondError(c *gin.Context, err error) {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.FieldErrors(c, "Validation failed", verr.Fields)
	case errors.Is(err, form.ErrClosed):
		utils.Error(c, http.StatusConflict, "FORM_CLOSED", "Form is not open")
	case errors.Is(err, form.ErrSubmitting):
		utils.Error(c, http.StatusConflict, "FORM_SUBMITTING", "Form is already submitting")
	case errors.Is(err, utils.ErrStatusTransition):
		utils.Error(c, http.StatusConflict, utils.ErrStatusTransition.Error(), err.Error())
	case errors.Is(err, utils.ErrInvalidID),
		errors.Is(err, utils.ErrEmptySelection),
		errors.Is(err, utils.ErrInvalidStatus),
		errors.Is(err, utils.ErrInvalidRole),
		errors.Is(err, utils.ErrCategoryCycle),
		errors.Is(err, utils.ErrInvalidQuantity),
		errors.Is(err, utils.ErrInvalidAmount),
		errors.Is(err, utils.ErrInvalidPage):
		utils.Error(c, http.StatusBadRequest, rootCode(err), err.Error())
	case errors.Is(err, catalogapi.ErrEmptyFile),
		errors.Is(err, catalogapi.ErrUnsupportedType),
		errors.Is(err, catalogapi.ErrTooManyFiles):
		utils.Error(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
	case errors.Is(err, catalogapi.ErrFileTooLarge):
		utils.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	default:
		utils.UpstreamError(c, err)
	}
}

// rootCode returns the sentinel code of a wrapped utils error.
func rootCode(err error) string {
	for _, sentinel := range []error{
		utils.ErrInvalidID, utils.ErrEmptySelection, utils.ErrInvalidStatus,
		utils.ErrInvalidRole, utils.ErrCategoryCycle, utils.ErrInvalidQuantity,
		utils.ErrInvalidAmount, utils.ErrInvalidPage,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "INVALID_REQUEST"
}

// readParts reads the multipart files under field. Each file is read up to
// maxBytes+1 so oversize files fail validation instead of being truncated.
func readParts(c *gin.Context, field string, maxBytes int) ([]catalogapi.FilePart, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: expected multipart form", catalogapi.ErrEmptyFile)
	}
	headers := mf.File[field]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no %q files", catalogapi.ErrEmptyFile, field)
	}
	parts := make([]catalogapi.FilePart, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", h.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", h.Filename, err)
		}
		parts = append(parts, catalogapi.FilePart{
			Field:       field,
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return parts, nil
}

func sendExport(c *gin.Context, resource string, blob *catalogapi.Blob) {
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	filename := service.ExportFilename(resource, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, blob.Data)
}
