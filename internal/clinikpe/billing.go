package clinikpe

import "context"

const (
	routeBookings      = "/organization/{org}/center/{center}/booking"
	routeBooking       = "/organization/{org}/center/{center}/booking/{booking}"
	routeBookingStatus = "/organization/{org}/center/{center}/booking/{booking}/status"
	routeInvoice       = "/organization/{org}/center/{center}/booking/{booking}/invoice"
)

func (c *Client) ListBookings(ctx context.Context, s Scope, q ListQuery) (*Page[Booking], error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return list[Booking](ctx, c, get(routeBookings, s.OrgID, s.CenterID), q)
}

func (c *Client) CreateBooking(ctx context.Context, s Scope, in BookingInput) (*Booking, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Booking](ctx, c, post(routeBookings, s.OrgID, s.CenterID).JSON(in))
}

func (c *Client) UpdateBooking(ctx context.Context, s Scope, bookingID string, in BookingInput) (*Booking, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Booking](ctx, c, put(routeBooking, s.OrgID, s.CenterID, bookingID).JSON(in))
}

func (c *Client) DeleteBooking(ctx context.Context, s Scope, bookingID string) error {
	if err := s.requireCenter(); err != nil {
		return err
	}
	_, err := exec(ctx, c, del(routeBooking, s.OrgID, s.CenterID, bookingID))
	return err
}

// UpdateBookingStatus changes a booking's status and payment fields.
func (c *Client) UpdateBookingStatus(ctx context.Context, s Scope, bookingID string, in BookingStatusInput) (*Booking, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Booking](ctx, c, patch(routeBookingStatus, s.OrgID, s.CenterID, bookingID).JSON(in))
}

func (c *Client) GetInvoice(ctx context.Context, s Scope, bookingID string) (*Invoice, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return fetch[Invoice](ctx, c, get(routeInvoice, s.OrgID, s.CenterID, bookingID))
}
