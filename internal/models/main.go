// Package models defines the core data structures for users, bookings and
// payments shared by the client and the reference backend.
package models

import "time"

// User is the public profile of an account as returned by the API.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"_id"`
	// Name is the display name chosen at registration.
	Name string `json:"name"`
	// Email is the login of the account. It cannot be changed.
	Email string `json:"email"`
	// Contact is an optional phone number.
	Contact string `json:"contact,omitempty"`
	// Address is an optional full street address.
	Address string `json:"address,omitempty"`
	// Location is an optional city/area hint.
	Location string `json:"location,omitempty"`
}

// AuthResponse is the body returned by the login and register endpoints:
// the user profile flattened next to the issued token.
type AuthResponse struct {
	User
	Token string `json:"token"`
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	// StatusPending is a booking that was created but not paid.
	StatusPending BookingStatus = "Pending"
	// StatusConfirmed is a booking whose payment was confirmed.
	StatusConfirmed BookingStatus = "Confirmed"
	// StatusCancelled is a booking cancelled by its owner.
	StatusCancelled BookingStatus = "Cancelled"
)

// PaymentStatus tracks whether a booking has been paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Booking is a care-service reservation owned by a user.
type Booking struct {
	ID            string        `json:"_id"`
	UserID        string        `json:"userId,omitempty"`
	ServiceID     string        `json:"serviceId"`
	ServiceName   string        `json:"serviceName"`
	Duration      int           `json:"duration"` // hours
	Division      string        `json:"division"`
	District      string        `json:"district"`
	City          string        `json:"city"`
	Area          string        `json:"area"`
	Address       string        `json:"address"`
	Location      string        `json:"location"`
	TotalCost     int64         `json:"totalCost"` // BDT
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TransactionID string        `json:"transactionId,omitempty"`
	CreatedAt     time.Time     `json:"date"`
}

// BookingRequest is the payload of POST /bookings.
type BookingRequest struct {
	ServiceID string `json:"serviceId" validate:"required"`
	Duration  int    `json:"duration" validate:"gte=1"`
	Division  string `json:"division" validate:"required"`
	District  string `json:"district" validate:"required"`
	City      string `json:"city" validate:"required"`
	Area      string `json:"area" validate:"required"`
	Address   string `json:"address" validate:"required"`
}

// PaymentIntent is a provider-issued authorization for one payment attempt.
type PaymentIntent struct {
	ID           string    `json:"id"`
	BookingID    string    `json:"bookingId"`
	UserID       string    `json:"-"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	ClientSecret string    `json:"clientSecret"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Intent statuses mirrored from the payment provider.
const (
	IntentRequiresPayment = "requires_payment_method"
	IntentSucceeded       = "succeeded"
)

// PaymentConfirmation is the payload of POST /payment/confirm.
type PaymentConfirmation struct {
	BookingID     string `json:"bookingId" validate:"required"`
	TransactionID string `json:"transactionId" validate:"required"`
}

// Account is a stored user together with its credentials. It never leaves
// the server.
type Account struct {
	User
	NID          string
	PasswordHash string
	CreatedAt    time.Time
}

// Token is an issued session credential.
type Token struct {
	Value     string
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer valid at now.
func (t Token) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }
