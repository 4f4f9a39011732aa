package handlers

import (
	"net/http"
	"strings"

	"github.com/vxplore/Clinik-pe-sub000/internal/session"
)

// MenuItem is one entry of the sidebar tree.
type MenuItem struct {
	Key      string     `json:"key"`
	Label    string     `json:"label"`
	Path     string     `json:"path,omitempty"`
	Children []MenuItem `json:"children,omitempty"`
}

var adminMenu = []MenuItem{
	{Key: "organizations", Label: "Organizations", Path: "/organization"},
	{Key: "centers", Label: "Clinics", Path: "/centers"},
	{Key: "providers", Label: "Providers", Path: "/providers"},
	{Key: "patients", Label: "Patients", Path: "/patients"},
	{Key: "lab", Label: "Laboratory", Children: []MenuItem{
		{Key: "lab-tests", Label: "Test Database", Path: "/lab/tests"},
		{Key: "lab-panels", Label: "Test Panels", Path: "/lab/panels"},
		{Key: "lab-packages", Label: "Test Packages", Path: "/lab/packages"},
		{Key: "lab-categories", Label: "Categories", Path: "/lab/categories"},
		{Key: "lab-units", Label: "Units", Path: "/lab/units"},
	}},
	{Key: "billing", Label: "Billing", Path: "/billing"},
	{Key: "settings", Label: "Settings", Children: []MenuItem{
		{Key: "roles", Label: "Roles", Path: "/roles"},
	}},
}

var doctorMenu = []MenuItem{
	{Key: "doctor-dashboard", Label: "Dashboard", Path: "/doctor/dashboard"},
	{Key: "doctor-appointments", Label: "Appointments", Path: "/doctor/appointments"},
}

// Menu returns the sidebar tree for a session kind.
func Menu(kind session.Kind) []MenuItem {
	if kind == session.KindDoctor {
		return doctorMenu
	}
	return adminMenu
}

// menuKeys indexes every key of a menu and whether it has children.
func menuKeys(items []MenuItem, into map[string]bool) map[string]bool {
	if into == nil {
		into = make(map[string]bool)
	}
	for _, item := range items {
		into[item.Key] = len(item.Children) > 0
		menuKeys(item.Children, into)
	}
	return into
}

// SidebarHandler serves the menu tree and its persisted state.
type SidebarHandler struct {
	env   *Env
	store *session.SidebarStore
}

func NewSidebarHandler(env *Env, store *session.SidebarStore) *SidebarHandler {
	return &SidebarHandler{env: env, store: store}
}

type sidebarResponse struct {
	Menu  []MenuItem           `json:"menu"`
	State session.SidebarState `json:"state"`
}

// Get handles GET /api/ui/sidebar.
func (h *SidebarHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	state, err := h.store.Get(r.Context(), sess.ID)
	if err != nil {
		h.env.logger().Warn("sidebar state unreadable; using defaults", "session_id", sess.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, Result{Data: sidebarResponse{Menu: Menu(sess.Kind), State: state}})
}

// Put handles PUT /api/ui/sidebar. Keys that are not in the session's menu
// are dropped, and only group entries may be expanded.
func (h *SidebarHandler) Put(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	var state session.SidebarState
	if err := decodeJSON(r, &state); err != nil {
		h.env.fail(w, r, sess, badRequest("Invalid request body"))
		return
	}

	menu := Menu(sess.Kind)
	keys := menuKeys(menu, nil)
	state.ActiveKey = strings.TrimSpace(state.ActiveKey)
	if _, ok := keys[state.ActiveKey]; !ok && state.ActiveKey != "" {
		h.env.fail(w, r, sess, badRequest("Unknown menu item"))
		return
	}
	expanded := make([]string, 0, len(state.Expanded))
	seen := make(map[string]bool, len(state.Expanded))
	for _, key := range state.Expanded {
		if keys[key] && !seen[key] {
			seen[key] = true
			expanded = append(expanded, key)
		}
	}
	state.Expanded = expanded

	if err := h.store.Set(r.Context(), sess.ID, state); err != nil {
		h.env.logger().Error("sidebar state not saved", "session_id", sess.ID, "error", err)
		h.env.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Data: sidebarResponse{Menu: menu, State: state}})
}
