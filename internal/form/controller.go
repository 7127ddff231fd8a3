// Package form holds the server-side state of create/edit modals.
package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// ErrClosed is returned when submitting a form that is not open.
var ErrClosed = errors.New("form is not open")

// ErrSubmitting is returned when a submit is already in flight.
var ErrSubmitting = errors.New("form is already submitting")

// Mode is the open state of a form.
type Mode string

const (
	ModeClosed Mode = "closed"
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Sluggable drafts regenerate their slug when their name changes.
type Sluggable interface {
	SlugSource() string
	SetSlug(string)
}

// Options wires a Controller to its entity.
type Options[D any, T any] struct {
	// New returns the defaults of a create form.
	New func() D
	// FromItem seeds an edit form.
	FromItem func(T) D
	// Save creates (id == "") or updates the entity.
	Save func(ctx context.Context, id string, draft D) (*T, error)
	// Check adds rules that need context outside the draft. Optional.
	Check func(id string, draft D, errs *ValidationError)
	// OnSaved runs after a successful submit. Optional.
	OnSaved func(saved *T)
}

// State is a snapshot of a form.
type State[D any] struct {
	Mode        Mode              `json:"mode"`
	ID          string            `json:"id,omitempty"`
	Draft       D                 `json:"draft"`
	Errors      map[string]string `json:"errors,omitempty"`
	ServerError string            `json:"serverError,omitempty"`
	Submitting  bool              `json:"submitting"`
}

// Controller owns a draft record, validates it and delegates the write.
type Controller[D any, T any] struct {
	mu   sync.Mutex
	opts Options[D, T]

	mode        Mode
	id          string
	draft       D
	errors      map[string]string
	serverError string
	submitting  bool
	lastUsed    time.Time
}

// NewController creates a closed form.
func NewController[D any, T any](opts Options[D, T]) *Controller[D, T] {
	return &Controller[D, T]{opts: opts, mode: ModeClosed, lastUsed: time.Now()}
}

// LastUsed returns when the form was last looked up.
func (c *Controller[D, T]) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// Touch marks the form as used now.
func (c *Controller[D, T]) Touch() {
	c.mu.Lock()
	c.lastUsed = time.Now()
	c.mu.Unlock()
}

// OpenCreate opens the form with defaults.
func (c *Controller[D, T]) OpenCreate() State[D] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(ModeCreate, "", c.opts.New())
	return c.snapshot()
}

// OpenEdit opens the form seeded from item.
func (c *Controller[D, T]) OpenEdit(id string, item T) State[D] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(ModeEdit, id, c.opts.FromItem(item))
	return c.snapshot()
}

// Edit applies change to the draft. A draft whose slug source changed gets
// a regenerated slug; a slug edited by hand is kept until then.
func (c *Controller[D, T]) Edit(change func(*D)) State[D] {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := ""
	if s, ok := any(&c.draft).(Sluggable); ok {
		before = s.SlugSource()
	}
	change(&c.draft)
	if s, ok := any(&c.draft).(Sluggable); ok && s.SlugSource() != before {
		s.SetSlug(Slugify(s.SlugSource()))
	}
	return c.snapshot()
}

// Close discards the draft.
func (c *Controller[D, T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero D
	c.reset(ModeClosed, "", zero)
}

// State returns the current snapshot.
func (c *Controller[D, T]) State() State[D] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Submit validates the draft and saves it. Validation failures return a
// *ValidationError without calling Save. A failed save keeps the form open
// with ServerError set; a successful one closes it and runs OnSaved.
func (c *Controller[D, T]) Submit(ctx context.Context) (*T, error) {
	c.mu.Lock()
	if c.mode == ModeClosed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitting
	}
	if err := c.validate(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.submitting = true
	c.serverError = ""
	id, draft := c.id, c.draft
	c.mu.Unlock()

	saved, err := c.opts.Save(ctx, id, draft)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.serverError = catalogapi.UserMessage(err)
		c.mu.Unlock()
		log.Warn().Err(err).Str("id", id).Msg("Form submit failed")
		return nil, err
	}
	var zero D
	c.reset(ModeClosed, "", zero)
	c.mu.Unlock()

	if c.opts.OnSaved != nil {
		c.opts.OnSaved(saved)
	}
	return saved, nil
}

func (c *Controller[D, T]) validate() error {
	err := Validate(&c.draft)
	var verr *ValidationError
	switch {
	case err == nil:
		verr = &ValidationError{}
	case errors.As(err, &verr):
	default:
		return err
	}
	if c.opts.Check != nil {
		c.opts.Check(c.id, c.draft, verr)
	}
	if len(verr.Fields) > 0 {
		c.errors = verr.Fields
		return verr
	}
	c.errors = nil
	return nil
}

func (c *Controller[D, T]) reset(mode Mode, id string, draft D) {
	c.mode = mode
	c.id = id
	c.draft = draft
	c.errors = nil
	c.serverError = ""
	c.submitting = false
}

func (c *Controller[D, T]) snapshot() State[D] {
	var errs map[string]string
	if len(c.errors) > 0 {
		errs = make(map[string]string, len(c.errors))
		for k, v := range c.errors {
			errs[k] = v
		}
	}
	return State[D]{
		Mode:        c.mode,
		ID:          c.id,
		Draft:       c.draft,
		Errors:      errs,
		ServerError: c.serverError,
		Submitting:  c.submitting,
	}
}
