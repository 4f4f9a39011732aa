package handlers

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/listview"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/reorder"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
)

// ReorderRequest is a drop: the dragged row and the row it was dropped on.
type ReorderRequest struct {
	ActiveID string `json:"active_id"`
	OverID   string `json:"over_id"`
}

// boardLockStripes bounds the per-session board locks.
const boardLockStripes = 64

// BoardHandler adds drag-reorder and optimistic delete to a resource whose
// order is kept on the backend (test categories and panels). The rows the
// user last saw are cached per session so a drop resolves against them.
// Mutations of one session's board run one at a time, so each drop is
// planned against the order the previous one saved.
type BoardHandler[T any, In any] struct {
	locks  [boardLockStripes]sync.Mutex

	env    *Env
	cache  *session.BoardCache
	kind   string
	res    *ResourceHandler[T, In]
	key    func(T) string
	commit func(ctx context.Context, ref Ref, m clinikpe.Reorder) error
	policy reorder.FailurePolicy
}

// NewBoardHandler wraps res. Every list load of res, including re-fetches
// after create and update, refreshes the cached board. A rejected reorder or
// delete keeps the local change and warns (reorder.KeepLocal).
func NewBoardHandler[T any, In any](env *Env, cache *session.BoardCache, kind string, res Resource[T, In], key func(T) string, commit func(ctx context.Context, ref Ref, m clinikpe.Reorder) error) *BoardHandler[T, In] {
	h := &BoardHandler[T, In]{
		env:    env,
		cache:  cache,
		kind:   kind,
		key:    key,
		commit: commit,
		policy: reorder.KeepLocal,
	}
	loaded := res.Loaded
	res.Loaded = func(ctx context.Context, ref Ref, page listview.Page[T]) {
		h.save(ctx, ref, page.Items)
		if loaded != nil {
			loaded(ctx, ref, page)
		}
	}
	h.res = NewResourceHandler(env, res)
	return h
}

// Resource serves list, create and update.
func (h *BoardHandler[T, In]) Resource() *ResourceHandler[T, In] { return h.res }

// lock serializes board mutations of one session within this process.
func (h *BoardHandler[T, In]) lock(sessionID string) func() {
	f := fnv.New32a()
	_, _ = f.Write([]byte(sessionID))
	mu := &h.locks[f.Sum32()%boardLockStripes]
	mu.Lock()
	return mu.Unlock
}

func (h *BoardHandler[T, In]) save(ctx context.Context, ref Ref, items []T) {
	if items == nil {
		items = []T{}
	}
	if err := h.cache.Save(ctx, ref.Session.ID, h.kind, items); err != nil {
		h.env.logger().Warn("board cache save failed", "kind", h.kind, "error", err)
	}
}

// board returns the cached rows, loading the current page on a miss.
func (h *BoardHandler[T, In]) board(ctx context.Context, r *http.Request, ref Ref) (*reorder.Board[T], error) {
	var items []T
	ok, err := h.cache.Load(ctx, ref.Session.ID, h.kind, &items)
	if err != nil {
		h.env.logger().Warn("board cache load failed", "kind", h.kind, "error", err)
		ok = false
	}
	if !ok {
		page, err := h.res.load(ctx, ref, h.env.query(r))
		if err != nil {
			return nil, err
		}
		items = page.Items
	}
	return reorder.NewBoard(items, h.key, h.policy), nil
}

func outcomeLabel(out reorder.Outcome) string {
	switch {
	case !out.Changed:
		return "noop"
	case out.Err == nil:
		return "committed"
	case out.RolledBack:
		return "rolled_back"
	default:
		return "kept_local"
	}
}

// Reorder handles POST /reorder with {active_id, over_id}. Only the moved
// row and its new predecessor are sent to the backend.
func (h *BoardHandler[T, In]) Reorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := h.res.ref(r)
	label := h.res.res.Label

	var req ReorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.fail(w, r, ref.Session, badRequest("Invalid request body"))
		return
	}
	if req.ActiveID == "" {
		h.env.fail(w, r, ref.Session, badRequest("Nothing to move"))
		return
	}
	ref.ID = req.ActiveID

	defer h.lock(ref.Session.ID)()
	board, err := h.board(ctx, r, ref)
	if err != nil {
		h.env.fail(w, r, ref.Session, err)
		return
	}
	if err := board.DragStart(req.ActiveID); err != nil {
		h.env.fail(w, r, ref.Session, err)
		return
	}
	out, err := board.DragEnd(ctx, req.OverID, func(ctx context.Context, m reorder.Move) error {
		return h.commit(ctx, ref, clinikpe.Reorder{UID: m.UID, AfterUID: m.AfterUID})
	})
	if err != nil {
		h.env.fail(w, r, ref.Session, err)
		return
	}
	h.env.Metrics.ObserveBoard(h.kind, "reorder", outcomeLabel(out))

	items := board.Items()
	if !out.Changed {
		writeJSON(w, http.StatusOK, Result{Items: items})
		return
	}
	h.save(ctx, ref, items)

	var n notify.Notification
	switch {
	case out.Err == nil:
		n = notify.Success(fmt.Sprintf("%s order updated", label))
	case out.RolledBack:
		n = notify.Error(errorMessage(out.Err))
	default:
		n = notify.Warning(fmt.Sprintf("%s order kept locally; the server rejected it: %s", label, errorMessage(out.Err)))
	}
	h.env.record(ctx, ref.Session, h.res.res.Entity, audit.ActionReorder, req.ActiveID, out.Err, n.Message)
	if out.Err != nil {
		h.env.logger().Warn("reorder rejected", "kind", h.kind, "uid", out.Move.UID, "after_uid", out.Move.AfterUID, "policy", h.policy.String(), "error", out.Err)
	}
	writeJSON(w, http.StatusOK, Result{Notification: h.env.notify(ctx, ref.Session, n), Items: items})
}

// Delete handles DELETE /{id}. The row is removed from the board before the
// backend call; if the backend refuses, it stays removed locally and the
// user is warned. Rows outside the cached board take the plain delete path.
func (h *BoardHandler[T, In]) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := h.res.ref(r)
	label := h.res.res.Label

	defer h.lock(ref.Session.ID)()
	board, err := h.board(ctx, r, ref)
	if err != nil {
		h.env.fail(w, r, ref.Session, err)
		return
	}
	out, err := board.Remove(ctx, ref.ID, func(ctx context.Context, id string) error {
		return h.res.res.Delete(ctx, Ref{Session: ref.Session, ParentID: ref.ParentID, ID: id})
	})
	if errors.Is(err, reorder.ErrUnknownItem) {
		h.res.Delete(w, r)
		return
	}
	if err != nil {
		h.env.fail(w, r, ref.Session, err)
		return
	}
	h.env.Metrics.ObserveBoard(h.kind, "delete", outcomeLabel(out))

	if out.Err == nil {
		msg := fmt.Sprintf("%s deleted successfully", label)
		h.env.record(ctx, ref.Session, h.res.res.Entity, audit.ActionDelete, ref.ID, nil, msg)
		res := Result{Notification: h.env.notify(ctx, ref.Session, notify.Success(msg))}
		page, err := h.res.load(ctx, ref, h.env.query(r))
		switch {
		case err == nil:
			res.Page = page
			res.Items = page.Items
		case errors.Is(err, listview.ErrStale):
			res.Stale = true
		default:
			h.env.logger().Warn("re-fetch after delete failed", "kind", h.kind, "error", err)
			items := board.Items()
			h.save(ctx, ref, items)
			res.Items = items
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	items := board.Items()
	h.save(ctx, ref, items)
	var n notify.Notification
	if out.RolledBack {
		n = notify.Error(errorMessage(out.Err))
	} else {
		n = notify.Warning(fmt.Sprintf("%s removed locally; the server rejected the delete: %s", label, errorMessage(out.Err)))
	}
	h.env.record(ctx, ref.Session, h.res.res.Entity, audit.ActionDelete, ref.ID, out.Err, n.Message)
	h.env.logger().Warn("delete rejected", "kind", h.kind, "id", ref.ID, "policy", h.policy.String(), "error", out.Err)
	writeJSON(w, http.StatusOK, Result{Notification: h.env.notify(ctx, ref.Session, n), Items: items})
}
