package clinikpe

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
)

// Status is the lifecycle flag every entity carries.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known entity status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// FlexID decodes identifiers the backend sends as either strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// Record holds the identifier and audit fields shared by all entities.
type Record struct {
	ID        FlexID `json:"id,omitempty"`
	UID       string `json:"uid,omitempty"`
	Status    Status `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	UpdatedBy string `json:"updated_by,omitempty"`
}

// Key returns the identifier the backend expects in paths: uid when present, id otherwise.
func (r Record) Key() string {
	if r.UID != "" {
		return r.UID
	}
	return string(r.ID)
}

type Organization struct {
	Record
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Logo    string `json:"logo,omitempty"`
}

type OrganizationInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Status  Status `json:"status,omitempty"`
}

// OTPChallenge identifies a pending OTP verification.
type OTPChallenge struct {
	UID       string `json:"uid"`
	Phone     string `json:"phone,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
	Message   string `json:"-"`
}

// UserDetails is the "loggedUserDetails" block returned on OTP verification.
type UserDetails struct {
	UserID         FlexID `json:"user_id"`
	UID            string `json:"uid,omitempty"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Role           string `json:"role,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	CenterID       string `json:"center_id,omitempty"`
	ProviderID     string `json:"provider_id,omitempty"`
}

// Identity returns the best available user identifier.
func (u UserDetails) Identity() string {
	if u.UID != "" {
		return u.UID
	}
	return string(u.UserID)
}

// Verification is the result of a successful OTP verification.
type Verification struct {
	User    UserDetails `json:"loggedUserDetails"`
	Token   string      `json:"token,omitempty"`
	Message string      `json:"-"`
}

type Center struct {
	Record
	OrganizationID string `json:"organization_id,omitempty"`
	Name           string `json:"name"`
	Type           string `json:"type,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	Pincode        string `json:"pincode,omitempty"`
}

type CenterInput struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Status  Status `json:"status,omitempty"`
}

type Provider struct {
	Record
	CenterID       string  `json:"center_id,omitempty"`
	Name           string  `json:"name"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Gender         string  `json:"gender,omitempty"`
	Specialization string  `json:"specialization,omitempty"`
	Qualification  string  `json:"qualification,omitempty"`
	RegistrationNo string  `json:"registration_no,omitempty"`
	Fee            float64 `json:"fee,omitempty"`
	Photo          string  `json:"photo,omitempty"`
}

type ProviderInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Gender         string  `json:"gender,omitempty"`
	Specialization string  `json:"specialization,omitempty"`
	Qualification  string  `json:"qualification,omitempty"`
	RegistrationNo string  `json:"registration_no,omitempty"`
	Fee            float64 `json:"fee,omitempty"`
	Status         Status  `json:"status,omitempty"`
}

// Availability is a recurring weekly slot schedule for a provider.
type Availability struct {
	Record
	ProviderID   string   `json:"provider_id,omitempty"`
	Day          []string `json:"day"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	SlotDuration int      `json:"slot_duration,omitempty"`
	Type         string   `json:"type,omitempty"`
}

// AvailabilityInput is sent as-is; Day must already be compressed and is
// never an empty array.
type AvailabilityInput struct {
	Day          []string `json:"day"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	SlotDuration int      `json:"slot_duration,omitempty"`
	Type         string   `json:"type,omitempty"`
	Status       Status   `json:"status,omitempty"`
}

type Patient struct {
	Record
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Age     int    `json:"age,omitempty"`
	Address string `json:"address,omitempty"`
}

type PatientInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Age     int    `json:"age,omitempty"`
	Address string `json:"address,omitempty"`
}

type Appointment struct {
	Record
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
	ProviderID   string `json:"provider_id,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Type         string `json:"type,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type DoctorDashboard struct {
	TodayAppointments     int          `json:"today_appointments"`
	UpcomingAppointments  int          `json:"upcoming_appointments"`
	CompletedAppointments int          `json:"completed_appointments"`
	CancelledAppointments int          `json:"cancelled_appointments"`
	TotalPatients         int          `json:"total_patients"`
	NextAppointment       *Appointment `json:"next_appointment,omitempty"`
}

type LabTest struct {
	Record
	Name           string  `json:"name"`
	ShortName      string  `json:"short_name,omitempty"`
	Code           string  `json:"code,omitempty"`
	CategoryID     string  `json:"category_id,omitempty"`
	CategoryName   string  `json:"category_name,omitempty"`
	UnitID         string  `json:"unit_id,omitempty"`
	Unit           string  `json:"unit,omitempty"`
	SampleType     string  `json:"sample_type,omitempty"`
	Method         string  `json:"method,omitempty"`
	ReferenceRange string  `json:"reference_range,omitempty"`
	Price          float64 `json:"price"`
}

type LabTestInput struct {
	Name           string  `json:"name"`
	ShortName      string  `json:"short_name,omitempty"`
	Code           string  `json:"code,omitempty"`
	CategoryID     string  `json:"category_id,omitempty"`
	UnitID         string  `json:"unit_id,omitempty"`
	SampleType     string  `json:"sample_type,omitempty"`
	Method         string  `json:"method,omitempty"`
	ReferenceRange string  `json:"reference_range,omitempty"`
	Price          float64 `json:"price"`
	Status         Status  `json:"status,omitempty"`
}

type TestCategory struct {
	Record
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order,omitempty"`
}

type TestPanel struct {
	Record
	Name       string   `json:"name"`
	CategoryID string   `json:"category_id,omitempty"`
	Tests      []string `json:"tests,omitempty"`
	Price      float64  `json:"price"`
	Order      int      `json:"order,omitempty"`
}

type TestPackage struct {
	Record
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Tests           []string `json:"tests,omitempty"`
	Panels          []string `json:"panels,omitempty"`
	Price           float64  `json:"price"`
	DiscountedPrice float64  `json:"discounted_price,omitempty"`
}

type Unit struct {
	Record
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

// CatalogInput covers the name/status edit modal shared by categories and
// units, plus the bundle fields panels and packages add on top.
type CatalogInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Symbol          string   `json:"symbol,omitempty"`
	CategoryID      string   `json:"category_id,omitempty"`
	Tests           []string `json:"tests,omitempty"`
	Panels          []string `json:"panels,omitempty"`
	Price           float64  `json:"price,omitempty"`
	DiscountedPrice float64  `json:"discounted_price,omitempty"`
	Status          Status   `json:"status,omitempty"`
}

// Reorder moves UID to directly after AfterUID; an empty AfterUID means first.
type Reorder struct {
	UID      string `json:"uid"`
	AfterUID string `json:"after_uid"`
}

type Role struct {
	Record
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

type RoleInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status,omitempty"`
}

type Permission struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Module string `json:"module,omitempty"`
}

type BookingItem struct {
	Type  string  `json:"type"`
	RefID string  `json:"ref_id"`
	Name  string  `json:"name,omitempty"`
	Price float64 `json:"price"`
}

type Booking struct {
	Record
	PatientID     string        `json:"patient_id"`
	PatientName   string        `json:"patient_name,omitempty"`
	Items         []BookingItem `json:"items,omitempty"`
	Amount        float64       `json:"amount"`
	Discount      float64       `json:"discount,omitempty"`
	PaidAmount    float64       `json:"paid_amount,omitempty"`
	PaymentMode   string        `json:"payment_mode,omitempty"`
	PaymentStatus string        `json:"payment_status,omitempty"`
	InvoiceNumber string        `json:"invoice_number,omitempty"`
	BookedAt      string        `json:"booked_at,omitempty"`
}

type BookingInput struct {
	PatientID   string        `json:"patient_id"`
	Items       []BookingItem `json:"items"`
	Discount    float64       `json:"discount,omitempty"`
	PaidAmount  float64       `json:"paid_amount,omitempty"`
	PaymentMode string        `json:"payment_mode,omitempty"`
}

type BookingStatusInput struct {
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status,omitempty"`
	PaidAmount    float64 `json:"paid_amount,omitempty"`
}

type InvoiceParty struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type Invoice struct {
	InvoiceNumber string        `json:"invoice_number"`
	BookingID     string        `json:"booking_id"`
	Patient       InvoiceParty  `json:"patient"`
	Center        InvoiceParty  `json:"center"`
	Items         []BookingItem `json:"items"`
	SubTotal      float64       `json:"sub_total"`
	Discount      float64       `json:"discount"`
	Tax           float64       `json:"tax"`
	Total         float64       `json:"total"`
	Paid          float64       `json:"paid"`
	Due           float64       `json:"due"`
	IssuedAt      string        `json:"issued_at,omitempty"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items      []T                  `json:"items"`
	Pagination apiclient.Pagination `json:"pagination"`
}

// Scope is the tenant path prefix most endpoints are nested under.
type Scope struct {
	OrgID    string
	CenterID string
}

func (s Scope) String() string {
	return strings.Trim(s.OrgID+"/"+s.CenterID, "/")
}
