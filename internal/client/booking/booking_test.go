package booking

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/carebook/internal/client/api"
	"github.com/atinyakov/carebook/internal/models"
)

type gate bool

func (g gate) Authenticated() bool { return bool(g) }

// fakeAPI records calls and returns canned answers.
type fakeAPI struct {
	created   *models.BookingRequest
	bookings  []models.Booking
	cancelErr error
	cancelled []string
	secret    string
	intentErr error
	confirmed *models.PaymentConfirmation
	confirmEr error
}

func (f *fakeAPI) CreateBooking(_ context.Context, req models.BookingRequest) (*models.Booking, error) {
	f.created = &req
	return &models.Booking{ID: "b1", ServiceID: req.ServiceID, Duration: req.Duration, TotalCost: 1500, Status: models.StatusPending}, nil
}

func (f *fakeAPI) MyBookings(context.Context) ([]models.Booking, error) {
	return append([]models.Booking(nil), f.bookings...), nil
}

func (f *fakeAPI) CancelBooking(_ context.Context, id string) (*models.Booking, error) {
	f.cancelled = append(f.cancelled, id)
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &models.Booking{ID: id, Status: models.StatusCancelled}, nil
}

func (f *fakeAPI) CreatePaymentIntent(_ context.Context, id string) (string, error) {
	if f.intentErr != nil {
		return "", f.intentErr
	}
	return f.secret, nil
}

func (f *fakeAPI) ConfirmPayment(_ context.Context, conf models.PaymentConfirmation) (*models.Booking, error) {
	f.confirmed = &conf
	if f.confirmEr != nil {
		return nil, f.confirmEr
	}
	return &models.Booking{ID: conf.BookingID, Status: models.StatusConfirmed, PaymentStatus: models.PaymentPaid}, nil
}

func validRequest() models.BookingRequest {
	return models.BookingRequest{
		ServiceID: "elderly-care", Duration: 3,
		Division: "Dhaka", District: "Dhaka", City: "Dhaka", Area: "Mirpur", Address: "Road 1",
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.BookingRequest)
		total   int64
		field   string
		wantErr bool
	}{
		{name: "ok", mutate: func(*models.BookingRequest) {}, total: 1800},
		{name: "unknown service", mutate: func(r *models.BookingRequest) { r.ServiceID = "pet-care" }, field: "serviceId", wantErr: true},
		{name: "zero hours", mutate: func(r *models.BookingRequest) { r.Duration = 0 }, field: "duration", wantErr: true},
		{name: "missing area", mutate: func(r *models.BookingRequest) { r.Area = "  " }, field: "area", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, total, err := Quote(req)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.total, total)
				return
			}
			var ve *api.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreate_RequiresSession(t *testing.T) {
	fa := &fakeAPI{}
	s := NewService(fa, gate(false), nil)

	_, err := s.Create(context.Background(), validRequest())
	var ae *api.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, api.ReasonNotAuthenticated, ae.Reason)
	assert.Nil(t, fa.created, "nothing may be sent without a session")
}

func TestCreate_Submits(t *testing.T) {
	fa := &fakeAPI{}
	s := NewService(fa, gate(true), nil)

	req := validRequest()
	req.City = " Dhaka "
	b, err := s.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	require.NotNil(t, fa.created)
	assert.Equal(t, "Dhaka", fa.created.City)
}

func listWith(fa *fakeAPI, items ...models.Booking) *List {
	fa.bookings = items
	l := NewList(fa, gate(true), nil)
	if err := l.Refresh(context.Background()); err != nil {
		panic(err)
	}
	return l
}

func TestCancel_Success(t *testing.T) {
	fa := &fakeAPI{}
	l := listWith(fa, models.Booking{ID: "42", Status: models.StatusPending})

	require.NoError(t, l.Cancel(context.Background(), "42"))
	assert.Equal(t, []string{"42"}, fa.cancelled)

	b, ok := l.Get("42")
	require.True(t, ok)
	assert.Equal(t, models.StatusCancelled, b.Status)
}

func TestCancel_FailureLeavesEntryUnchanged(t *testing.T) {
	fa := &fakeAPI{cancelErr: &api.ApplicationError{StatusCode: http.StatusBadRequest, Message: "Cannot cancel"}}
	l := listWith(fa, models.Booking{ID: "42", Status: models.StatusPending})

	err := l.Cancel(context.Background(), "42")
	var pe *api.ApplicationError
	require.ErrorAs(t, err, &pe)

	b, _ := l.Get("42")
	assert.Equal(t, models.StatusPending, b.Status)
}

func TestCancel_ExpiredTokenSurfaces(t *testing.T) {
	fa := &fakeAPI{cancelErr: &api.AuthError{Reason: api.ReasonUnauthorized, Message: "Not authorized, token failed"}}
	l := listWith(fa, models.Booking{ID: "42", Status: models.StatusPending})

	err := l.Cancel(context.Background(), "42")
	var ae *api.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, api.ReasonUnauthorized, ae.Reason)

	b, _ := l.Get("42")
	assert.Equal(t, models.StatusPending, b.Status)
}

func TestCancel_UnknownOrCancelled(t *testing.T) {
	fa := &fakeAPI{}
	l := listWith(fa, models.Booking{ID: "7", Status: models.StatusCancelled})

	var ve *api.ValidationError
	assert.ErrorAs(t, l.Cancel(context.Background(), "42"), &ve)
	assert.ErrorAs(t, l.Cancel(context.Background(), "7"), &ve)
	assert.Empty(t, fa.cancelled)
}

func TestList_RequiresSession(t *testing.T) {
	l := NewList(&fakeAPI{}, gate(false), nil)
	var ae *api.AuthError
	assert.ErrorAs(t, l.Refresh(context.Background()), &ae)
	assert.ErrorAs(t, l.Cancel(context.Background(), "42"), &ae)
	_, err := l.Pay(context.Background(), "42", nil)
	assert.ErrorAs(t, err, &ae)
}

type widgetFunc func(ctx context.Context, secret string, amount int64) (Result, error)

func (f widgetFunc) Confirm(ctx context.Context, secret string, amount int64) (Result, error) {
	return f(ctx, secret, amount)
}

func TestPay_Success(t *testing.T) {
	fa := &fakeAPI{secret: "pi_9_secret_x"}
	l := listWith(fa, models.Booking{ID: "42", TotalCost: 1800, Status: models.StatusPending, PaymentStatus: models.PaymentUnpaid})

	var gotSecret string
	var gotAmount int64
	w := widgetFunc(func(_ context.Context, secret string, amount int64) (Result, error) {
		gotSecret, gotAmount = secret, amount
		return Result{Status: models.IntentSucceeded, TransactionID: "pi_9"}, nil
	})

	res, err := l.Pay(context.Background(), "42", w)
	require.NoError(t, err)
	assert.Equal(t, "pi_9", res.TransactionID)
	assert.Equal(t, "pi_9_secret_x", gotSecret)
	assert.Equal(t, int64(1800), gotAmount)
	require.NotNil(t, fa.confirmed)
	assert.Equal(t, models.PaymentConfirmation{BookingID: "42", TransactionID: "pi_9"}, *fa.confirmed)

	b, _ := l.Get("42")
	assert.Equal(t, models.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, models.StatusConfirmed, b.Status)
}

func TestPay_WidgetDeclined(t *testing.T) {
	fa := &fakeAPI{secret: "pi_9_secret_x"}
	l := listWith(fa, models.Booking{ID: "42", Status: models.StatusPending})

	w := SandboxWidget{Ask: func(string) (bool, error) { return false, nil }}
	_, err := l.Pay(context.Background(), "42", w)

	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StatusCanceled, pe.Status)
	assert.Nil(t, fa.confirmed)
	b, _ := l.Get("42")
	assert.Equal(t, models.StatusPending, b.Status)
}

func TestPay_ConfirmFailureLeavesEntryUnchanged(t *testing.T) {
	fa := &fakeAPI{secret: "pi_9_secret_x", confirmEr: errors.New("boom")}
	l := listWith(fa, models.Booking{ID: "42", Status: models.StatusPending, PaymentStatus: models.PaymentUnpaid})

	w := SandboxWidget{Ask: func(string) (bool, error) { return true, nil }}
	_, err := l.Pay(context.Background(), "42", w)
	require.Error(t, err)

	b, _ := l.Get("42")
	assert.Equal(t, models.PaymentUnpaid, b.PaymentStatus)
}

func TestPay_RejectsPaidOrCancelled(t *testing.T) {
	fa := &fakeAPI{secret: "pi_9_secret_x"}
	l := listWith(fa,
		models.Booking{ID: "1", Status: models.StatusConfirmed, PaymentStatus: models.PaymentPaid},
		models.Booking{ID: "2", Status: models.StatusCancelled},
	)
	var ve *api.ValidationError
	_, err := l.Pay(context.Background(), "1", nil)
	assert.ErrorAs(t, err, &ve)
	_, err = l.Pay(context.Background(), "2", nil)
	assert.ErrorAs(t, err, &ve)
}

func TestIntentIDFromClientSecret(t *testing.T) {
	assert.Equal(t, "pi_123", IntentIDFromClientSecret("pi_123_secret_abc"))
	assert.Empty(t, IntentIDFromClientSecret("garbage"))
}

func TestSandboxWidget_MalformedSecret(t *testing.T) {
	w := SandboxWidget{Ask: func(string) (bool, error) { return true, nil }}
	_, err := w.Confirm(context.Background(), "nope", 100)
	assert.Error(t, err)
}
