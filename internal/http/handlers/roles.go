package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
)

// PermissionGroup is the permissions of one module, as shown in the role
// permission drawer.
type PermissionGroup struct {
	Module      string                `json:"module"`
	Permissions []clinikpe.Permission `json:"permissions"`
}

// GroupPermissions groups permissions by module, modules sorted by name and
// permissions kept in backend order.
func GroupPermissions(perms []clinikpe.Permission) []PermissionGroup {
	index := make(map[string]int)
	groups := []PermissionGroup{}
	for _, p := range perms {
		module := strings.TrimSpace(p.Module)
		if module == "" {
			module = "General"
		}
		i, ok := index[module]
		if !ok {
			i = len(groups)
			index[module] = i
			groups = append(groups, PermissionGroup{Module: module})
		}
		groups[i].Permissions = append(groups[i].Permissions, p)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Module < groups[b].Module })
	return groups
}

// RolesHandler serves the permission matrix of the roles page.
type RolesHandler struct {
	env   *Env
	roles *ResourceHandler[clinikpe.Role, clinikpe.RoleInput]
}

func NewRolesHandler(env *Env, roles *ResourceHandler[clinikpe.Role, clinikpe.RoleInput]) *RolesHandler {
	return &RolesHandler{env: env, roles: roles}
}

// Permissions handles GET /api/roles/permissions.
func (h *RolesHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	perms, err := h.env.API.ListPermissions(r.Context())
	if err != nil {
		h.env.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{Data: GroupPermissions(perms)})
}

// PermissionsRequest replaces a role's permission set.
type PermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// SetPermissions handles PUT /api/roles/{id}/permissions.
func (h *RolesHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	h.roles.mutate(w, r, audit.ActionUpdate, http.StatusOK, "Permissions updated successfully",
		func(ctx context.Context, ref Ref) error {
			var req PermissionsRequest
			if err := decodeJSON(r, &req); err != nil {
				return badRequest("Invalid request body")
			}
			keys := make([]string, 0, len(req.Permissions))
			seen := make(map[string]bool, len(req.Permissions))
			for _, key := range req.Permissions {
				key = strings.TrimSpace(key)
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				keys = append(keys, key)
			}
			_, err := h.env.API.SetRolePermissions(ctx, ref.Session.OrgID, ref.ID, keys)
			return err
		})
}
