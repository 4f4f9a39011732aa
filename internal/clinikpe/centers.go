package clinikpe

import (
	"context"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
)

const (
	routeCenters = "/organization/{org}/center"
	routeCenter  = "/organization/{org}/center/{center}"

	routeProviders     = "/organization/{org}/center/{center}/provider"
	routeProvider      = "/organization/{org}/center/{center}/provider/{provider}"
	routeProviderPhoto = "/organization/{org}/center/{center}/provider/{provider}/photo"

	routeAvailabilities = "/organization/{org}/center/{center}/provider/{provider}/availability"
	routeAvailability   = "/organization/{org}/center/{center}/provider/{provider}/availability/{availability}"

	routePatients = "/organization/{org}/center/{center}/patient"
	routePatient  = "/organization/{org}/center/{center}/patient/{patient}"
)

func (c *Client) ListCenters(ctx context.Context, orgID string, q ListQuery) (*Page[Center], error) {
	if err := (Scope{OrgID: orgID}).requireOrg(); err != nil {
		return nil, err
	}
	return list[Center](ctx, c, get(routeCenters, orgID), q)
}

func (c *Client) GetCenter(ctx context.Context, s Scope) (*Center, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Center](ctx, c, get(routeCenter, s.OrgID, s.CenterID))
}

func (c *Client) CreateCenter(ctx context.Context, orgID string, in CenterInput) (*Center, error) {
	if err := (Scope{OrgID: orgID}).requireOrg(); err != nil {
		return nil, err
	}
	return fetch[Center](ctx, c, post(routeCenters, orgID).JSON(in))
}

func (c *Client) UpdateCenter(ctx context.Context, orgID, centerID string, in CenterInput) (*Center, error) {
	if err := (Scope{OrgID: orgID, CenterID: centerID}).requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Center](ctx, c, put(routeCenter, orgID, centerID).JSON(in))
}

func (c *Client) DeleteCenter(ctx context.Context, orgID, centerID string) error {
	if err := (Scope{OrgID: orgID, CenterID: centerID}).requireCenter(); err != nil {
		return err
	}
	_, err := exec(ctx, c, del(routeCenter, orgID, centerID))
	return err
}

func (c *Client) ListProviders(ctx context.Context, s Scope, q ListQuery) (*Page[Provider], error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return list[Provider](ctx, c, get(routeProviders, s.OrgID, s.CenterID), q)
}

func (c *Client) GetProvider(ctx context.Context, s Scope, providerID string) (*Provider, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Provider](ctx, c, get(routeProvider, s.OrgID, s.CenterID, providerID))
}

func (c *Client) CreateProvider(ctx context.Context, s Scope, in ProviderInput) (*Provider, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Provider](ctx, c, post(routeProviders, s.OrgID, s.CenterID).JSON(in))
}

func (c *Client) UpdateProvider(ctx context.Context, s Scope, providerID string, in ProviderInput) (*Provider, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Provider](ctx, c, put(routeProvider, s.OrgID, s.CenterID, providerID).JSON(in))
}

func (c *Client) DeleteProvider(ctx context.Context, s Scope, providerID string) error {
	if err := s.requireCenter(); err != nil {
		return err
	}
	_, err := exec(ctx, c, del(routeProvider, s.OrgID, s.CenterID, providerID))
	return err
}

// UploadProviderPhoto replaces a provider's profile photo.
func (c *Client) UploadProviderPhoto(ctx context.Context, s Scope, providerID string, photo apiclient.File) (*Provider, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	if photo.Field == "" {
		photo.Field = "photo"
	}
	req := post(routeProviderPhoto, s.OrgID, s.CenterID, providerID).Multipart(nil, []apiclient.File{photo})
	return fetch[Provider](ctx, c, req)
}

func (c *Client) ListAvailability(ctx context.Context, s Scope, providerID string, q ListQuery) (*Page[Availability], error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return list[Availability](ctx, c, get(routeAvailabilities, s.OrgID, s.CenterID, providerID), q)
}

func (c *Client) CreateAvailability(ctx context.Context, s Scope, providerID string, in AvailabilityInput) (*Availability, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Availability](ctx, c, post(routeAvailabilities, s.OrgID, s.CenterID, providerID).JSON(in))
}

func (c *Client) UpdateAvailability(ctx context.Context, s Scope, providerID, availabilityID string, in AvailabilityInput) (*Availability, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Availability](ctx, c, put(routeAvailability, s.OrgID, s.CenterID, providerID, availabilityID).JSON(in))
}

func (c *Client) DeleteAvailability(ctx context.Context, s Scope, providerID, availabilityID string) error {
	if err := s.requireCenter(); err != nil {
		return err
	}
	_, err := exec(ctx, c, del(routeAvailability, s.OrgID, s.CenterID, providerID, availabilityID))
	return err
}

func (c *Client) ListPatients(ctx context.Context, s Scope, q ListQuery) (*Page[Patient], error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return list[Patient](ctx, c, get(routePatients, s.OrgID, s.CenterID), q)
}

func (c *Client) CreatePatient(ctx context.Context, s Scope, in PatientInput) (*Patient, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Patient](ctx, c, post(routePatients, s.OrgID, s.CenterID).JSON(in))
}

func (c *Client) UpdatePatient(ctx context.Context, s Scope, patientID string, in PatientInput) (*Patient, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Patient](ctx, c, put(routePatient, s.OrgID, s.CenterID, patientID).JSON(in))
}

func (c *Client) DeletePatient(ctx context.Context, s Scope, patientID string) error {
	if err := s.requireCenter(); err != nil {
		return err
	}
	_, err := exec(ctx, c, del(routePatient, s.OrgID, s.CenterID, patientID))
	return err
}
