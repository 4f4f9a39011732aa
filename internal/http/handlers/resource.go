package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/listview"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
)

// Ref identifies what a resource call operates on: the session, an optional
// parent from the URL (the provider of an availability slot) and the row id.
type Ref struct {
	Session  session.Session
	ParentID string
	ID       string
}

// Resource describes one paginated CRUD page backed by the facade. T is the
// row type shown in the table and In the add/edit form payload.
type Resource[T any, In any] struct {
	Page        string // tracker key, e.g. "centers"
	Entity      string // audit entity, e.g. "center"
	Label       string // toast subject, e.g. "Center"
	IDParam     string // chi URL param holding the row id; "id" when empty
	ParentParam string // chi URL param holding the parent id, if any

	List   func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[T], error)
	Create func(ctx context.Context, ref Ref, in In) error
	Update func(ctx context.Context, ref Ref, in In) error
	Delete func(ctx context.Context, ref Ref) error

	// Prepare normalizes and validates a form before it is sent.
	Prepare func(in *In) error
	// Loaded runs after every successful list load, including re-fetches.
	Loaded func(ctx context.Context, ref Ref, page listview.Page[T])
}

// ResourceHandler serves a Resource: GET list, POST create, PUT /{id}
// update, DELETE /{id} delete. Every mutation answers with a notification
// and the re-fetched current page.
type ResourceHandler[T any, In any] struct {
	env *Env
	res Resource[T, In]
}

func NewResourceHandler[T any, In any](env *Env, res Resource[T, In]) *ResourceHandler[T, In] {
	return &ResourceHandler[T, In]{env: env, res: res}
}

func (h *ResourceHandler[T, In]) ref(r *http.Request) Ref {
	param := h.res.IDParam
	if param == "" {
		param = "id"
	}
	ref := Ref{Session: current(r), ID: chi.URLParam(r, param)}
	if h.res.ParentParam != "" {
		ref.ParentID = chi.URLParam(r, h.res.ParentParam)
	}
	return ref
}

// trackerPage scopes the stale-response tracker to the parent as well, so
// two providers' availability tables do not cancel each other.
func (h *ResourceHandler[T, In]) trackerPage(ref Ref) string {
	if ref.ParentID == "" {
		return h.res.Page
	}
	return h.res.Page + ":" + ref.ParentID
}

// load fetches the page described by q through the stale-response tracker.
func (h *ResourceHandler[T, In]) load(ctx context.Context, ref Ref, q listview.Query) (listview.Page[T], error) {
	page, err := listview.Load(ctx, h.env.Tracker, ref.Session.ID, h.trackerPage(ref),
		func(ctx context.Context) (listview.Page[T], error) {
			src, err := h.res.List(ctx, ref, q.ListQuery())
			if err != nil {
				return listview.Page[T]{}, err
			}
			return listview.NewPage(src, q), nil
		})
	if err != nil {
		return page, err
	}
	if h.res.Loaded != nil {
		h.res.Loaded(ctx, ref, page)
	}
	return page, nil
}

// List handles GET.
func (h *ResourceHandler[T, In]) List(w http.ResponseWriter, r *http.Request) {
	ref := h.ref(r)
	page, err := h.load(r.Context(), ref, h.env.query(r))
	if errors.Is(err, listview.ErrStale) {
		writeJSON(w, http.StatusConflict, Result{Stale: true})
		return
	}
	if err != nil {
		h.env.logger().Warn("list load failed", "page", h.res.Page, "error", err)
		h.env.fail(w, r, ref.Session, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Page: page})
}

// Create handles POST.
func (h *ResourceHandler[T, In]) Create(w http.ResponseWriter, r *http.Request) {
	if h.res.Create == nil {
		http.NotFound(w, r)
		return
	}
	h.mutate(w, r, audit.ActionCreate, http.StatusCreated, fmt.Sprintf("%s added successfully", h.res.Label),
		func(ctx context.Context, ref Ref) error {
			in, err := h.form(r)
			if err != nil {
				return err
			}
			return h.res.Create(ctx, ref, in)
		})
}

// Update handles PUT /{id}.
func (h *ResourceHandler[T, In]) Update(w http.ResponseWriter, r *http.Request) {
	if h.res.Update == nil {
		http.NotFound(w, r)
		return
	}
	h.mutate(w, r, audit.ActionUpdate, http.StatusOK, fmt.Sprintf("%s updated successfully", h.res.Label),
		func(ctx context.Context, ref Ref) error {
			in, err := h.form(r)
			if err != nil {
				return err
			}
			return h.res.Update(ctx, ref, in)
		})
}

// Delete handles DELETE /{id}. A rejected delete leaves the row in place:
// nothing is removed until the re-fetch confirms it.
func (h *ResourceHandler[T, In]) Delete(w http.ResponseWriter, r *http.Request) {
	if h.res.Delete == nil {
		http.NotFound(w, r)
		return
	}
	h.mutate(w, r, audit.ActionDelete, http.StatusOK, fmt.Sprintf("%s deleted successfully", h.res.Label),
		func(ctx context.Context, ref Ref) error {
			return h.res.Delete(ctx, ref)
		})
}

func (h *ResourceHandler[T, In]) form(r *http.Request) (In, error) {
	var in In
	if err := decodeJSON(r, &in); err != nil {
		return in, badRequest("Invalid request body")
	}
	if h.res.Prepare != nil {
		if err := h.res.Prepare(&in); err != nil {
			return in, err
		}
	}
	return in, nil
}

// mutate runs op, records it and answers with a toast plus the re-fetched
// page. A failed re-fetch after a successful mutation still reports success.
func (h *ResourceHandler[T, In]) mutate(w http.ResponseWriter, r *http.Request, action audit.Action, okStatus int, okMessage string, op func(context.Context, Ref) error) {
	ctx := r.Context()
	ref := h.ref(r)

	if err := op(ctx, ref); err != nil {
		h.env.record(ctx, ref.Session, h.res.Entity, action, ref.ID, err, "")
		h.env.logger().Warn("mutation failed", "page", h.res.Page, "action", action, "id", ref.ID, "error", err)
		h.env.fail(w, r, ref.Session, err)
		return
	}
	h.env.record(ctx, ref.Session, h.res.Entity, action, ref.ID, nil, okMessage)

	res := Result{Notification: h.env.notify(ctx, ref.Session, notify.Success(okMessage))}
	page, err := h.load(ctx, ref, h.env.query(r))
	switch {
	case err == nil:
		res.Page = page
	case errors.Is(err, listview.ErrStale):
		res.Stale = true
	default:
		h.env.logger().Warn("re-fetch after mutation failed", "page", h.res.Page, "error", err)
	}
	writeJSON(w, okStatus, res)
}
