// Package session holds the dashboard's persisted per-user state: the
// authenticated session, sidebar UI state and reorderable board caches.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/tenancy"
)

// Kind distinguishes admin sessions from provider (doctor) sessions.
type Kind string

const (
	KindAdmin  Kind = "admin"
	KindDoctor Kind = "doctor"
)

// Session is an immutable snapshot of a logged-in user. Changes produce a new
// value that must be written back through Store.Update.
type Session struct {
	ID            string
	Kind          Kind
	UserID        string
	UserName      string
	Email         string
	Phone         string
	Role          string
	OrgID         string
	CenterID      string
	ProviderID    string
	UpstreamToken string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// FromVerification builds a new session from a successful OTP verification.
func FromVerification(kind Kind, v *clinikpe.Verification) Session {
	return Session{
		Kind:          kind,
		UserID:        v.User.Identity(),
		UserName:      v.User.Name,
		Email:         v.User.Email,
		Phone:         v.User.Phone,
		Role:          v.User.Role,
		OrgID:         v.User.OrganizationID,
		CenterID:      v.User.CenterID,
		ProviderID:    v.User.ProviderID,
		UpstreamToken: v.Token,
	}
}

// WithContext returns a copy scoped to another organization and center.
func (s Session) WithContext(orgID, centerID string) Session {
	s.OrgID = orgID
	s.CenterID = centerID
	return s
}

// Scope returns the tenant scope for facade calls.
func (s Session) Scope() clinikpe.Scope {
	return clinikpe.Scope{OrgID: s.OrgID, CenterID: s.CenterID}
}

func (s Session) IsDoctor() bool { return s.Kind == KindDoctor }

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Details is the client-visible projection of a session.
type Details struct {
	Kind       Kind   `json:"kind"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"`
	OrgID      string `json:"organization_id,omitempty"`
	CenterID   string `json:"center_id,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
}

// Details omits the session id and upstream token.
func (s Session) Details() Details {
	return Details{
		Kind:       s.Kind,
		UserID:     s.UserID,
		Name:       s.UserName,
		Email:      s.Email,
		Phone:      s.Phone,
		Role:       s.Role,
		OrgID:      s.OrgID,
		CenterID:   s.CenterID,
		ProviderID: s.ProviderID,
	}
}

// record is the persisted form of a Session.
type record struct {
	Version       int       `json:"v"`
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role,omitempty"`
	OrgID         string    `json:"organization_id,omitempty"`
	CenterID      string    `json:"center_id,omitempty"`
	ProviderID    string    `json:"provider_id,omitempty"`
	UpstreamToken string    `json:"upstream_token"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

const recordVersion = 1

func marshal(s Session) ([]byte, error) {
	return json.Marshal(record{
		Version:       recordVersion,
		ID:            s.ID,
		Kind:          s.Kind,
		UserID:        s.UserID,
		UserName:      s.UserName,
		Email:         s.Email,
		Phone:         s.Phone,
		Role:          s.Role,
		OrgID:         s.OrgID,
		CenterID:      s.CenterID,
		ProviderID:    s.ProviderID,
		UpstreamToken: s.UpstreamToken,
		CreatedAt:     s.CreatedAt,
		ExpiresAt:     s.ExpiresAt,
	})
}

func unmarshal(data []byte) (Session, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Session{}, err
	}
	if r.Version != recordVersion {
		return Session{}, fmt.Errorf("unsupported session record version %d", r.Version)
	}
	return Session{
		ID:            r.ID,
		Kind:          r.Kind,
		UserID:        r.UserID,
		UserName:      r.UserName,
		Email:         r.Email,
		Phone:         r.Phone,
		Role:          r.Role,
		OrgID:         r.OrgID,
		CenterID:      r.CenterID,
		ProviderID:    r.ProviderID,
		UpstreamToken: r.UpstreamToken,
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
	}, nil
}

type ctxKey struct{}

// WithSession stores s in ctx along with the tenancy values the API agent
// and logging read.
func WithSession(ctx context.Context, s Session) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, s)
	ctx = tenancy.WithSessionID(ctx, s.ID)
	ctx = tenancy.WithUserID(ctx, s.UserID)
	ctx = tenancy.WithUpstreamToken(ctx, s.UpstreamToken)
	if s.OrgID != "" {
		ctx = tenancy.WithOrgID(ctx, s.OrgID)
	}
	if s.CenterID != "" {
		ctx = tenancy.WithCenterID(ctx, s.CenterID)
	}
	return ctx
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
