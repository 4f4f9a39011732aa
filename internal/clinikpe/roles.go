package clinikpe

import "context"

const (
	routeRoles           = "/organization/{org}/role"
	routeRole            = "/organization/{org}/role/{role}"
	routeRolePermissions = "/organization/{org}/role/{role}/permissions"
	routePermissions     = "/permission"
)

func (c *Client) ListRoles(ctx context.Context, orgID string, q ListQuery) (*Page[Role], error) {
	if err := (Scope{OrgID: orgID}).requireOrg(); err != nil {
		return nil, err
	}
	return list[Role](ctx, c, get(routeRoles, orgID), q)
}

func (c *Client) CreateRole(ctx context.Context, orgID string, in RoleInput) (*Role, error) {
	if err := (Scope{OrgID: orgID}).requireOrg(); err != nil {
		return nil, err
	}
	return fetch[Role](ctx, c, post(routeRoles, orgID).JSON(in))
}

func (c *Client) UpdateRole(ctx context.Context, orgID, roleID string, in RoleInput) (*Role, error) {
	if err := (Scope{OrgID: orgID}).requireOrg(); err != nil {
		return nil, err
	}
	return fetch[Role](ctx, c, put(routeRole, orgID, roleID).JSON(in))
}

func (c *Client) DeleteRole(ctx context.Context, orgID, roleID string) error {
	if err := (Scope{OrgID: orgID}).requireOrg(); err != nil {
		return err
	}
	_, err := exec(ctx, c, del(routeRole, orgID, roleID))
	return err
}

// ListPermissions returns every permission a role can be granted.
func (c *Client) ListPermissions(ctx context.Context) ([]Permission, error) {
	page, err := list[Permission](ctx, c, get(routePermissions), ListQuery{})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SetRolePermissions replaces the permission set of a role.
func (c *Client) SetRolePermissions(ctx context.Context, orgID, roleID string, keys []string) (*Role, error) {
	if err := (Scope{OrgID: orgID}).requireOrg(); err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	body := map[string][]string{"permissions": keys}
	return fetch[Role](ctx, c, put(routeRolePermissions, orgID, roleID).JSON(body))
}
