package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/atinyakov/carebook/internal/models"
)

// Remote endpoints.
const (
	PathLogin         = "/auth/login"
	PathRegister      = "/auth/register"
	PathLogout        = "/auth/logout"
	PathProfile       = "/auth/profile"
	PathBookings      = "/bookings"
	PathMyBookings    = "/bookings/my-bookings"
	PathPaymentIntent = "/payment/create-payment-intent"
	PathPaymentOK     = "/payment/confirm"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up form. ConfirmPassword never leaves the client.
type Registration struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Contact         string `json:"contact" validate:"required"`
	NID             string `json:"nid" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"-" validate:"eqfield=Password"`
}

// ProfileUpdate is the profile form. Email cannot be changed. Password is
// only sent when non-empty.
type ProfileUpdate struct {
	Name            string `json:"name" validate:"required"`
	Contact         string `json:"contact"`
	Address         string `json:"address"`
	Location        string `json:"location"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"-"`
}

// Login exchanges credentials for a token. It never attaches a credential.
func (c *Client) Login(ctx context.Context, creds Credentials) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.unauthenticated().Do(ctx, http.MethodPost, PathLogin, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, reg Registration) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.unauthenticated().Do(ctx, http.MethodPost, PathRegister, reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the server to revoke the attached token.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, PathLogout, nil, nil)
}

// UpdateProfile saves profile changes and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*models.User, error) {
	var out models.User
	if err := c.Do(ctx, http.MethodPut, PathProfile, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateBooking submits a new booking.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	var out models.Booking
	if err := c.Do(ctx, http.MethodPost, PathBookings, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyBookings lists the bookings of the signed-in user.
func (c *Client) MyBookings(ctx context.Context) ([]models.Booking, error) {
	var out []models.Booking
	if err := c.Do(ctx, http.MethodGet, PathMyBookings, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelBooking cancels the booking with the given id.
func (c *Client) CancelBooking(ctx context.Context, id string) (*models.Booking, error) {
	var out models.Booking
	path := PathBookings + "/" + url.PathEscape(id) + "/cancel"
	if err := c.Do(ctx, http.MethodPatch, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePaymentIntent asks the server for a client secret for bookingID.
func (c *Client) CreatePaymentIntent(ctx context.Context, bookingID string) (string, error) {
	var out struct {
		ClientSecret string `json:"clientSecret"`
	}
	in := map[string]string{"bookingId": bookingID}
	if err := c.Do(ctx, http.MethodPost, PathPaymentIntent, in, &out); err != nil {
		return "", err
	}
	if out.ClientSecret == "" {
		return "", &ApplicationError{StatusCode: http.StatusOK, Message: "server returned no client secret"}
	}
	return out.ClientSecret, nil
}

// ConfirmPayment reports a completed provider transaction for bookingID.
func (c *Client) ConfirmPayment(ctx context.Context, conf models.PaymentConfirmation) (*models.Booking, error) {
	var out models.Booking
	if err := c.Do(ctx, http.MethodPost, PathPaymentOK, conf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// unauthenticated returns a shallow copy that never attaches a credential.
func (c *Client) unauthenticated() *Client {
	cp := *c
	cp.tokens = nil
	return &cp
}
