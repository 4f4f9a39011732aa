package handlers

import (
	"context"
	"strings"

	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/onboarding"
	"github.com/vxplore/Clinik-pe-sub000/internal/schedule"
)

func requireName(name *string, label string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return badRequest(label + " name is required")
	}
	return nil
}

func checkStatus(s clinikpe.Status) error {
	if s != "" && !s.Valid() {
		return badRequest("Status must be active or inactive")
	}
	return nil
}

// Organizations edits organizations with the same form as sign-up.
func Organizations(api *clinikpe.Client, defaultCountryCode string) Resource[clinikpe.Organization, onboarding.OrganizationForm] {
	return Resource[clinikpe.Organization, onboarding.OrganizationForm]{
		Page:   "organizations",
		Entity: "organization",
		Label:  "Organization",
		List: func(ctx context.Context, _ Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.Organization], error) {
			return api.ListOrganizations(ctx, q)
		},
		Create: func(ctx context.Context, _ Ref, in onboarding.OrganizationForm) error {
			_, err := api.CreateOrganization(ctx, in.Payload())
			return err
		},
		Update: func(ctx context.Context, ref Ref, in onboarding.OrganizationForm) error {
			_, err := api.UpdateOrganization(ctx, ref.ID, in.Payload())
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteOrganization(ctx, ref.ID)
		},
		Prepare: func(in *onboarding.OrganizationForm) error {
			*in = in.Normalize(defaultCountryCode)
			return in.Validate()
		},
	}
}

func Centers(api *clinikpe.Client) Resource[clinikpe.Center, clinikpe.CenterInput] {
	return Resource[clinikpe.Center, clinikpe.CenterInput]{
		Page:   "centers",
		Entity: "center",
		Label:  "Center",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.Center], error) {
			return api.ListCenters(ctx, ref.Session.OrgID, q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.CenterInput) error {
			_, err := api.CreateCenter(ctx, ref.Session.OrgID, in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.CenterInput) error {
			_, err := api.UpdateCenter(ctx, ref.Session.OrgID, ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteCenter(ctx, ref.Session.OrgID, ref.ID)
		},
		Prepare: func(in *clinikpe.CenterInput) error {
			if err := requireName(&in.Name, "Center"); err != nil {
				return err
			}
			return checkStatus(in.Status)
		},
	}
}

func Providers(api *clinikpe.Client) Resource[clinikpe.Provider, clinikpe.ProviderInput] {
	return Resource[clinikpe.Provider, clinikpe.ProviderInput]{
		Page:    "providers",
		Entity:  "provider",
		Label:   "Provider",
		IDParam: "providerID",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.Provider], error) {
			return api.ListProviders(ctx, ref.Session.Scope(), q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.ProviderInput) error {
			_, err := api.CreateProvider(ctx, ref.Session.Scope(), in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.ProviderInput) error {
			_, err := api.UpdateProvider(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteProvider(ctx, ref.Session.Scope(), ref.ID)
		},
		Prepare: func(in *clinikpe.ProviderInput) error {
			if err := requireName(&in.Name, "Provider"); err != nil {
				return err
			}
			if in.Fee < 0 {
				return badRequest("Fee cannot be negative")
			}
			return checkStatus(in.Status)
		},
	}
}

func Patients(api *clinikpe.Client) Resource[clinikpe.Patient, clinikpe.PatientInput] {
	return Resource[clinikpe.Patient, clinikpe.PatientInput]{
		Page:   "patients",
		Entity: "patient",
		Label:  "Patient",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.Patient], error) {
			return api.ListPatients(ctx, ref.Session.Scope(), q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.PatientInput) error {
			_, err := api.CreatePatient(ctx, ref.Session.Scope(), in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.PatientInput) error {
			_, err := api.UpdatePatient(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeletePatient(ctx, ref.Session.Scope(), ref.ID)
		},
		Prepare: func(in *clinikpe.PatientInput) error {
			if err := requireName(&in.Name, "Patient"); err != nil {
				return err
			}
			in.Phone = strings.TrimSpace(in.Phone)
			if in.Phone == "" {
				return badRequest("Patient phone is required")
			}
			return nil
		},
	}
}

// AvailabilityRow is an availability slot with its days rendered for the
// table and expanded for the edit drawer.
type AvailabilityRow struct {
	clinikpe.Availability
	DaysLabel string   `json:"days_label"`
	Days      []string `json:"days"`
	Slots     []string `json:"slots,omitempty"`
}

func newAvailabilityRow(a clinikpe.Availability) AvailabilityRow {
	days := schedule.ExpandDays(a.Day)
	row := AvailabilityRow{
		Availability: a,
		DaysLabel:    schedule.CompressDays(days)[0],
		Days:         days,
	}
	if a.SlotDuration > 0 {
		row.Slots, _ = schedule.Slots(a.StartTime, a.EndTime, a.SlotDuration)
	}
	return row
}

// Availability manages one provider's slots. Selected days are compressed
// into a single range or list string before they are sent.
func Availability(api *clinikpe.Client) Resource[AvailabilityRow, clinikpe.AvailabilityInput] {
	return Resource[AvailabilityRow, clinikpe.AvailabilityInput]{
		Page:        "availability",
		Entity:      "availability",
		Label:       "Availability",
		ParentParam: "providerID",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[AvailabilityRow], error) {
			src, err := api.ListAvailability(ctx, ref.Session.Scope(), ref.ParentID, q)
			if err != nil {
				return nil, err
			}
			rows := make([]AvailabilityRow, len(src.Items))
			for i, a := range src.Items {
				rows[i] = newAvailabilityRow(a)
			}
			return &clinikpe.Page[AvailabilityRow]{Items: rows, Pagination: src.Pagination}, nil
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.AvailabilityInput) error {
			_, err := api.CreateAvailability(ctx, ref.Session.Scope(), ref.ParentID, in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.AvailabilityInput) error {
			_, err := api.UpdateAvailability(ctx, ref.Session.Scope(), ref.ParentID, ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteAvailability(ctx, ref.Session.Scope(), ref.ParentID, ref.ID)
		},
		Prepare: func(in *clinikpe.AvailabilityInput) error {
			in.Day = schedule.CompressDays(schedule.ExpandDays(in.Day))
			if in.Day[0] == "" {
				return badRequest("Select at least one day")
			}
			in.StartTime = strings.TrimSpace(in.StartTime)
			in.EndTime = strings.TrimSpace(in.EndTime)
			if err := schedule.ValidateWindow(in.StartTime, in.EndTime, in.SlotDuration); err != nil {
				return err
			}
			return checkStatus(in.Status)
		},
	}
}

func LabTests(api *clinikpe.Client) Resource[clinikpe.LabTest, clinikpe.LabTestInput] {
	return Resource[clinikpe.LabTest, clinikpe.LabTestInput]{
		Page:   "lab-tests",
		Entity: "lab_test",
		Label:  "Test",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.LabTest], error) {
			return api.ListLabTests(ctx, ref.Session.Scope(), q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.LabTestInput) error {
			_, err := api.CreateLabTest(ctx, ref.Session.Scope(), in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.LabTestInput) error {
			_, err := api.UpdateLabTest(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteLabTest(ctx, ref.Session.Scope(), ref.ID)
		},
		Prepare: func(in *clinikpe.LabTestInput) error {
			if err := requireName(&in.Name, "Test"); err != nil {
				return err
			}
			if in.Price < 0 {
				return badRequest("Price cannot be negative")
			}
			return checkStatus(in.Status)
		},
	}
}

func prepareCatalog(label string) func(*clinikpe.CatalogInput) error {
	return func(in *clinikpe.CatalogInput) error {
		if err := requireName(&in.Name, label); err != nil {
			return err
		}
		if in.Price < 0 || in.DiscountedPrice < 0 {
			return badRequest("Price cannot be negative")
		}
		if in.DiscountedPrice > 0 && in.Price > 0 && in.DiscountedPrice > in.Price {
			return badRequest("Discounted price cannot exceed the price")
		}
		return checkStatus(in.Status)
	}
}

func Packages(api *clinikpe.Client) Resource[clinikpe.TestPackage, clinikpe.CatalogInput] {
	return Resource[clinikpe.TestPackage, clinikpe.CatalogInput]{
		Page:   "lab-packages",
		Entity: "package",
		Label:  "Package",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.TestPackage], error) {
			return api.ListPackages(ctx, ref.Session.Scope(), q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.CatalogInput) error {
			_, err := api.CreatePackage(ctx, ref.Session.Scope(), in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.CatalogInput) error {
			_, err := api.UpdatePackage(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeletePackage(ctx, ref.Session.Scope(), ref.ID)
		},
		Prepare: prepareCatalog("Package"),
	}
}

func Units(api *clinikpe.Client) Resource[clinikpe.Unit, clinikpe.CatalogInput] {
	return Resource[clinikpe.Unit, clinikpe.CatalogInput]{
		Page:   "lab-units",
		Entity: "unit",
		Label:  "Unit",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.Unit], error) {
			return api.ListUnits(ctx, ref.Session.Scope(), q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.CatalogInput) error {
			_, err := api.CreateUnit(ctx, ref.Session.Scope(), in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.CatalogInput) error {
			_, err := api.UpdateUnit(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteUnit(ctx, ref.Session.Scope(), ref.ID)
		},
		Prepare: prepareCatalog("Unit"),
	}
}

// Categories is a reorderable board; see NewBoardHandler for reorder and
// delete.
func Categories(api *clinikpe.Client) Resource[clinikpe.TestCategory, clinikpe.CatalogInput] {
	return Resource[clinikpe.TestCategory, clinikpe.CatalogInput]{
		Page:   "lab-categories",
		Entity: "category",
		Label:  "Category",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.TestCategory], error) {
			return api.ListCategories(ctx, ref.Session.Scope(), q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.CatalogInput) error {
			_, err := api.CreateCategory(ctx, ref.Session.Scope(), in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.CatalogInput) error {
			_, err := api.UpdateCategory(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteCategory(ctx, ref.Session.Scope(), ref.ID)
		},
		Prepare: prepareCatalog("Category"),
	}
}

func Panels(api *clinikpe.Client) Resource[clinikpe.TestPanel, clinikpe.CatalogInput] {
	return Resource[clinikpe.TestPanel, clinikpe.CatalogInput]{
		Page:   "lab-panels",
		Entity: "panel",
		Label:  "Panel",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.TestPanel], error) {
			return api.ListPanels(ctx, ref.Session.Scope(), q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.CatalogInput) error {
			_, err := api.CreatePanel(ctx, ref.Session.Scope(), in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.CatalogInput) error {
			_, err := api.UpdatePanel(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeletePanel(ctx, ref.Session.Scope(), ref.ID)
		},
		Prepare: prepareCatalog("Panel"),
	}
}

func Roles(api *clinikpe.Client) Resource[clinikpe.Role, clinikpe.RoleInput] {
	return Resource[clinikpe.Role, clinikpe.RoleInput]{
		Page:   "roles",
		Entity: "role",
		Label:  "Role",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.Role], error) {
			return api.ListRoles(ctx, ref.Session.OrgID, q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.RoleInput) error {
			_, err := api.CreateRole(ctx, ref.Session.OrgID, in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.RoleInput) error {
			_, err := api.UpdateRole(ctx, ref.Session.OrgID, ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteRole(ctx, ref.Session.OrgID, ref.ID)
		},
		Prepare: func(in *clinikpe.RoleInput) error {
			if err := requireName(&in.Name, "Role"); err != nil {
				return err
			}
			return checkStatus(in.Status)
		},
	}
}

func Bookings(api *clinikpe.Client) Resource[clinikpe.Booking, clinikpe.BookingInput] {
	return Resource[clinikpe.Booking, clinikpe.BookingInput]{
		Page:   "bookings",
		Entity: "booking",
		Label:  "Booking",
		List: func(ctx context.Context, ref Ref, q clinikpe.ListQuery) (*clinikpe.Page[clinikpe.Booking], error) {
			return api.ListBookings(ctx, ref.Session.Scope(), q)
		},
		Create: func(ctx context.Context, ref Ref, in clinikpe.BookingInput) error {
			_, err := api.CreateBooking(ctx, ref.Session.Scope(), in)
			return err
		},
		Update: func(ctx context.Context, ref Ref, in clinikpe.BookingInput) error {
			_, err := api.UpdateBooking(ctx, ref.Session.Scope(), ref.ID, in)
			return err
		},
		Delete: func(ctx context.Context, ref Ref) error {
			return api.DeleteBooking(ctx, ref.Session.Scope(), ref.ID)
		},
		Prepare: func(in *clinikpe.BookingInput) error {
			in.PatientID = strings.TrimSpace(in.PatientID)
			if in.PatientID == "" {
				return badRequest("Select a patient")
			}
			if len(in.Items) == 0 {
				return badRequest("Add at least one test, panel or package")
			}
			if in.Discount < 0 || in.PaidAmount < 0 {
				return badRequest("Amounts cannot be negative")
			}
			return nil
		},
	}
}
