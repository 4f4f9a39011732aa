package onboarding

import "github.com/vxplore/Clinik-pe-sub000/internal/session"

// Dashboard routes a verified user can be sent to.
const (
	RouteProviders       = "/providers"
	RouteOrganization    = "/organization"
	RouteCenters         = "/centers"
	RouteDoctorDashboard = "/doctor/dashboard"
	RouteLogin           = "/login"
)

// NextRoute picks the landing page after OTP verification. An organization
// without a selected center still has to pick one, so it lands on /centers.
func NextRoute(s session.Session) string {
	if s.IsDoctor() {
		return RouteDoctorDashboard
	}
	switch {
	case s.OrgID != "" && s.CenterID != "":
		return RouteProviders
	case s.OrgID != "":
		return RouteCenters
	default:
		return RouteOrganization
	}
}
