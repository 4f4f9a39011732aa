package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/onboarding"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
)

// Client routes of the OTP screens.
const (
	RouteVerifyOTP       = "/verify-otp"
	RouteDoctorVerifyOTP = "/doctor/verify-otp"
)

// Boards cached per session; a context switch invalidates them.
var boardKinds = []string{"categories", "panels"}

// AuthHandler serves OTP login for admins and doctors, the session cookie,
// organization sign-up and the org/center context switch.
type AuthHandler struct {
	env          *Env
	sessions     *session.Store
	tokens       *session.Tokens
	redis        *redis.Client
	boards       *session.BoardCache
	countryCode  string
	cookieSecure bool
}

// AuthConfig configures AuthHandler.
type AuthConfig struct {
	Sessions           *session.Store
	Tokens             *session.Tokens
	Redis              *redis.Client
	Boards             *session.BoardCache
	DefaultCountryCode string
	CookieSecure       bool
}

func NewAuthHandler(env *Env, cfg AuthConfig) *AuthHandler {
	if cfg.DefaultCountryCode == "" {
		cfg.DefaultCountryCode = "+91"
	}
	return &AuthHandler{
		env:          env,
		sessions:     cfg.Sessions,
		tokens:       cfg.Tokens,
		redis:        cfg.Redis,
		boards:       cfg.Boards,
		countryCode:  cfg.DefaultCountryCode,
		cookieSecure: cfg.CookieSecure,
	}
}

// LoginRequest starts an OTP login.
type LoginRequest struct {
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

// VerifyRequest completes an OTP login.
type VerifyRequest struct {
	UID string `json:"uid"`
	OTP string `json:"otp"`
}

// AuthPayload is returned after a successful verification.
type AuthPayload struct {
	User      session.Details `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.requestOTP(w, r, h.env.API.RequestLoginOTP, RouteVerifyOTP)
}

// DoctorLogin handles POST /api/doctor/login.
func (h *AuthHandler) DoctorLogin(w http.ResponseWriter, r *http.Request) {
	h.requestOTP(w, r, h.env.API.RequestDoctorOTP, RouteDoctorVerifyOTP)
}

func (h *AuthHandler) requestOTP(w http.ResponseWriter, r *http.Request, send func(context.Context, string) (*clinikpe.OTPChallenge, error), next string) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.fail(w, r, session.Session{}, badRequest("Invalid request body"))
		return
	}
	cc := req.CountryCode
	if strings.TrimSpace(cc) == "" {
		cc = h.countryCode
	}
	phone, err := onboarding.LoginPhone(cc, req.Phone)
	if err != nil {
		h.env.fail(w, r, session.Session{}, err)
		return
	}
	ch, err := send(r.Context(), phone)
	if err != nil {
		h.env.logger().Warn("otp request failed", "error", err)
		h.env.fail(w, r, session.Session{}, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{
		Notification: h.env.notify(r.Context(), session.Session{}, notify.Success(otpMessage(ch.Message, "OTP sent successfully"))),
		Data:         ch,
		Redirect:     next,
	})
}

// Resend handles POST /api/auth/resend.
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.UID) == "" {
		h.env.fail(w, r, session.Session{}, badRequest("Missing verification id"))
		return
	}
	ch, err := h.env.API.ResendOTP(r.Context(), strings.TrimSpace(req.UID))
	if err != nil {
		h.env.fail(w, r, session.Session{}, err)
		return
	}
	writeJSON(w, http.StatusOK, Result{
		Notification: h.env.notify(r.Context(), session.Session{}, notify.Success(otpMessage(ch.Message, "OTP resent successfully"))),
		Data:         ch,
	})
}

// Verify handles POST /api/auth/verify.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, session.KindAdmin, h.env.API.VerifyOTP)
}

// DoctorVerify handles POST /api/doctor/verify.
func (h *AuthHandler) DoctorVerify(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, session.KindDoctor, h.env.API.VerifyDoctorOTP)
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request, kind session.Kind, check func(context.Context, string, string) (*clinikpe.Verification, error)) {
	ctx := r.Context()
	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.fail(w, r, session.Session{}, badRequest("Invalid request body"))
		return
	}
	req.UID = strings.TrimSpace(req.UID)
	req.OTP = strings.TrimSpace(req.OTP)
	if req.UID == "" || req.OTP == "" {
		h.env.fail(w, r, session.Session{}, badRequest("Enter the OTP"))
		return
	}

	v, err := check(ctx, req.UID, req.OTP)
	if err != nil {
		h.env.fail(w, r, session.Session{}, err)
		return
	}

	sess, err := h.sessions.Create(ctx, session.FromVerification(kind, v))
	if err != nil {
		h.env.logger().Error("session create failed", "kind", kind, "error", err)
		h.env.fail(w, r, session.Session{}, err)
		return
	}
	token, expires, err := h.tokens.Issue(sess.ID)
	if err != nil {
		h.env.logger().Error("session token issue failed", "session_id", sess.ID, "error", err)
		_ = h.sessions.Delete(ctx, sess.ID)
		h.env.fail(w, r, session.Session{}, err)
		return
	}
	http.SetCookie(w, h.tokens.Cookie(token, expires, h.cookieSecure))

	msg := otpMessage(v.Message, "Login successful")
	h.env.record(ctx, sess, "session", audit.ActionLogin, sess.UserID, nil, msg)
	h.env.logger().Info("session started", "session_id", sess.ID, "kind", kind, "org_id", sess.OrgID, "center_id", sess.CenterID)

	writeJSON(w, http.StatusOK, Result{
		Notification: h.env.notify(ctx, sess, notify.Success(msg)),
		Data:         AuthPayload{User: sess.Details(), Token: token, ExpiresAt: expires},
		Redirect:     onboarding.NextRoute(sess),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := current(r)
	writeJSON(w, http.StatusOK, Result{Data: sess.Details(), Redirect: onboarding.NextRoute(sess)})
}

// Logout handles POST /api/auth/logout. Local state is cleared even when the
// backend logout fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := current(r)

	if err := h.env.API.Logout(ctx); err != nil {
		h.env.logger().Warn("backend logout failed; clearing session anyway", "session_id", sess.ID, "error", err)
	}
	if err := session.Clear(ctx, h.redis, sess.ID); err != nil {
		h.env.logger().Error("session clear failed", "session_id", sess.ID, "error", err)
	}
	h.env.Tracker.Forget(sess.ID)
	http.SetCookie(w, session.ClearCookie(h.cookieSecure))
	h.env.record(ctx, sess, "session", audit.ActionLogout, sess.UserID, nil, "")

	// The feed was just cleared, so the toast is only returned inline.
	n := notify.Success("Logged out successfully")
	h.env.Metrics.ObserveNotification(string(n.Level))
	writeJSON(w, http.StatusOK, Result{Notification: &n, Redirect: onboarding.RouteLogin})
}

// ContextRequest selects the organization and center to work in.
type ContextRequest struct {
	OrgID    string `json:"org_id"`
	CenterID string `json:"center_id"`
}

// SwitchContext handles PUT /api/auth/context.
func (h *AuthHandler) SwitchContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := current(r)
	if sess.IsDoctor() {
		jsonError(w, "Doctors cannot switch centers", http.StatusForbidden)
		return
	}

	var req ContextRequest
	if err := decodeJSON(r, &req); err != nil {
		h.env.fail(w, r, sess, badRequest("Invalid request body"))
		return
	}
	orgID := strings.TrimSpace(req.OrgID)
	if orgID == "" {
		orgID = sess.OrgID
	}
	centerID := strings.TrimSpace(req.CenterID)
	if orgID == "" {
		h.env.fail(w, r, sess, badRequest("Select an organization"))
		return
	}

	msg := "Organization selected"
	if centerID != "" {
		center, err := h.env.API.GetCenter(ctx, clinikpe.Scope{OrgID: orgID, CenterID: centerID})
		if err != nil {
			h.env.fail(w, r, sess, err)
			return
		}
		msg = "Switched to " + center.Name
	}

	next := sess.WithContext(orgID, centerID)
	if err := h.sessions.Update(ctx, next); err != nil {
		h.env.logger().Error("session update failed", "session_id", sess.ID, "error", err)
		h.env.fail(w, r, sess, err)
		return
	}
	for _, kind := range boardKinds {
		if err := h.boards.Invalidate(ctx, sess.ID, kind); err != nil {
			h.env.logger().Warn("board invalidate failed", "kind", kind, "error", err)
		}
	}
	h.env.Tracker.Forget(sess.ID)
	h.env.record(ctx, next, "session", audit.ActionUpdate, centerID, nil, msg)

	writeJSON(w, http.StatusOK, Result{
		Notification: h.env.notify(ctx, next, notify.Success(msg)),
		Data:         next.Details(),
		Redirect:     onboarding.NextRoute(next),
	})
}

// RegisterOrganization handles POST /api/onboarding/organization. The phone
// is sent with its country code prefix, and the response carries the OTP
// challenge the verify screen needs.
func (h *AuthHandler) RegisterOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var form onboarding.OrganizationForm
	if err := decodeJSON(r, &form); err != nil {
		h.env.fail(w, r, session.Session{}, badRequest("Invalid request body"))
		return
	}
	form = form.Normalize(h.countryCode)
	if err := form.Validate(); err != nil {
		h.env.fail(w, r, session.Session{}, err)
		return
	}

	ch, err := h.env.API.CreateOrganization(ctx, form.Payload())
	if err != nil {
		h.env.record(ctx, session.Session{}, "organization", audit.ActionCreate, "", err, "")
		h.env.fail(w, r, session.Session{}, err)
		return
	}
	msg := otpMessage(ch.Message, "Organization created. Enter the OTP sent to your phone.")
	h.env.record(ctx, session.Session{}, "organization", audit.ActionCreate, ch.UID, nil, msg)

	writeJSON(w, http.StatusCreated, Result{
		Notification: h.env.notify(ctx, session.Session{}, notify.Success(msg)),
		Data:         ch,
		Redirect:     RouteVerifyOTP,
	})
}

func otpMessage(upstream, fallback string) string {
	if strings.TrimSpace(upstream) != "" {
		return upstream
	}
	return fallback
}
