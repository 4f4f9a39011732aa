package tenancy

import "context"

type ctxKey string

const (
	orgKey     ctxKey = "clinikpe.org_id"
	centerKey  ctxKey = "clinikpe.center_id"
	userKey    ctxKey = "clinikpe.user_id"
	tokenKey   ctxKey = "clinikpe.upstream_token"
	sessionKey ctxKey = "clinikpe.session_id"
)

// WithOrgID stores the org id in context.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgKey, orgID)
}

// OrgIDFromContext extracts the org id if present.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, orgKey)
}

// WithCenterID stores the active center (clinic branch) id in context.
func WithCenterID(ctx context.Context, centerID string) context.Context {
	return context.WithValue(ctx, centerKey, centerID)
}

// CenterIDFromContext extracts the center id if present.
func CenterIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, centerKey)
}

// WithUserID stores the logged-in user id in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext extracts the user id if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, userKey)
}

// WithUpstreamToken stores the bearer token issued by the ClinikPe API.
func WithUpstreamToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// UpstreamTokenFromContext extracts the upstream bearer token if present.
func UpstreamTokenFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, tokenKey)
}

// WithSessionID stores the dashboard session id in context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionIDFromContext extracts the dashboard session id if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, sessionKey)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	val := ctx.Value(key)
	if val == nil {
		return "", false
	}
	s, ok := val.(string)
	return s, ok && s != ""
}
