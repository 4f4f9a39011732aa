package clinikpe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
)

const (
	routeOrganizations   = "/organization"
	routeOrganization    = "/organization/{org}"
	routeLogin           = "/organization/login"
	routeVerifyOTP       = "/organization/otp-verification"
	routeResendOTP       = "/organization/resend-otp"
	routeLogout          = "/organization/logout"
	routeDoctorLogin     = "/doctor/login"
	routeDoctorVerifyOTP = "/doctor/otp-verification"
)

// tokenCookies are the cookie names the backend may set the session token under.
var tokenCookies = []string{"token", "access_token", "clinikpe_token"}

// CreateOrganization registers a new organization. The backend texts an OTP
// to the organization phone; the returned challenge identifies it.
func (c *Client) CreateOrganization(ctx context.Context, in OrganizationInput) (*OTPChallenge, error) {
	env, err := call[OTPChallenge](ctx, c, post(routeOrganizations).JSON(in))
	if err != nil {
		return nil, err
	}
	ch := env.Data
	ch.Message = env.Message
	if ch.Phone == "" {
		ch.Phone = in.Phone
	}
	return &ch, nil
}

func (c *Client) ListOrganizations(ctx context.Context, q ListQuery) (*Page[Organization], error) {
	return list[Organization](ctx, c, get(routeOrganizations), q)
}

func (c *Client) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	return fetch[Organization](ctx, c, get(routeOrganization, orgID))
}

func (c *Client) UpdateOrganization(ctx context.Context, orgID string, in OrganizationInput) (*Organization, error) {
	return fetch[Organization](ctx, c, put(routeOrganization, orgID).JSON(in))
}

func (c *Client) DeleteOrganization(ctx context.Context, orgID string) error {
	_, err := exec(ctx, c, del(routeOrganization, orgID))
	return err
}

// RequestLoginOTP sends a login OTP to an organization admin's phone.
func (c *Client) RequestLoginOTP(ctx context.Context, phone string) (*OTPChallenge, error) {
	return c.requestOTP(ctx, routeLogin, phone)
}

// RequestDoctorOTP sends a login OTP to a provider's phone.
func (c *Client) RequestDoctorOTP(ctx context.Context, phone string) (*OTPChallenge, error) {
	return c.requestOTP(ctx, routeDoctorLogin, phone)
}

func (c *Client) requestOTP(ctx context.Context, route, phone string) (*OTPChallenge, error) {
	env, err := call[OTPChallenge](ctx, c, post(route).JSON(map[string]string{"phone": phone}))
	if err != nil {
		return nil, err
	}
	ch := env.Data
	ch.Message = env.Message
	if ch.Phone == "" {
		ch.Phone = phone
	}
	return &ch, nil
}

// ResendOTP re-issues the OTP of a pending challenge.
func (c *Client) ResendOTP(ctx context.Context, uid string) (*OTPChallenge, error) {
	env, err := call[OTPChallenge](ctx, c, post(routeResendOTP).JSON(map[string]string{"uid": uid}))
	if err != nil {
		return nil, err
	}
	ch := env.Data
	ch.Message = env.Message
	if ch.UID == "" {
		ch.UID = uid
	}
	return &ch, nil
}

// VerifyOTP completes an admin login or onboarding challenge.
func (c *Client) VerifyOTP(ctx context.Context, uid, otp string) (*Verification, error) {
	return c.verify(ctx, routeVerifyOTP, uid, otp)
}

// VerifyDoctorOTP completes a provider login challenge.
func (c *Client) VerifyDoctorOTP(ctx context.Context, uid, otp string) (*Verification, error) {
	return c.verify(ctx, routeDoctorVerifyOTP, uid, otp)
}

// ErrNoToken is returned when a verification succeeds but carries no session token.
var ErrNoToken = errors.New("clinikpe: verification returned no session token")

func (c *Client) verify(ctx context.Context, route, uid, otp string) (*Verification, error) {
	req := post(route).JSON(map[string]string{"uid": uid, "otp": otp})
	resp := c.api.Do(ctx, req)
	env, err := apiclient.Decode[Verification](resp)
	if err != nil {
		if errors.Is(err, apiclient.ErrShapeMismatch) {
			c.logger.Warn("clinikpe API response shape mismatch", "route", route, "status", resp.Status, "error", err)
		}
		return nil, fmt.Errorf("clinikpe: %s: %w", route, err)
	}
	v := env.Data
	v.Message = env.Message
	if v.Token == "" {
		v.Token = tokenFromCookies(resp.Headers)
	}
	if v.Token == "" {
		return nil, fmt.Errorf("clinikpe: %s: %w", route, ErrNoToken)
	}
	return &v, nil
}

func tokenFromCookies(h http.Header) string {
	cookies := (&http.Response{Header: h}).Cookies()
	for _, name := range tokenCookies {
		for _, ck := range cookies {
			if ck.Name == name && ck.Value != "" {
				return ck.Value
			}
		}
	}
	return ""
}

// Logout invalidates the upstream session carried by ctx.
func (c *Client) Logout(ctx context.Context) error {
	_, err := exec(ctx, c, post(routeLogout))
	return err
}
