package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/client/prompt"
	"github.com/atinyakov/carebook/internal/client/storage"
	"github.com/atinyakov/carebook/internal/models"
)

// backend counts the calls fakeBackend served.
type backend struct {
	*httptest.Server
	cancels atomic.Int32
	logouts atomic.Int32
}

// fakeBackend serves just enough of the booking API for a shell session.
func fakeBackend(t *testing.T) *backend {
	t.Helper()
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer abc" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Not authorized, token failed"}`))
				return
			}
			next(w, r)
		}
	}
	b := &backend{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"1","name":"A","email":"a@b.com","token":"abc"}`))
	})
	mux.HandleFunc("GET /bookings/my-bookings", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"42","serviceName":"Baby Care","duration":2,"totalCost":1000,"status":"Pending","paymentStatus":"unpaid"},` +
			`{"_id":"43","serviceName":"Elderly Care","duration":1,"totalCost":500,"status":"Pending","paymentStatus":"unpaid"}]`))
	}))
	mux.HandleFunc("PATCH /bookings/42/cancel", authed(func(w http.ResponseWriter, r *http.Request) {
		b.cancels.Add(1)
		_, _ = w.Write([]byte(`{"_id":"42","status":"Cancelled","paymentStatus":"unpaid"}`))
	}))
	mux.HandleFunc("PATCH /bookings/43/cancel", authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Booking not found"}`))
	}))
	mux.HandleFunc("POST /auth/logout", authed(func(w http.ResponseWriter, r *http.Request) {
		b.logouts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func runShell(t *testing.T, srv *backend, store storage.CredentialStore, input string) string {
	t.Helper()
	var out bytes.Buffer
	a := newApp(srv.URL, srv.Client(), store, prompt.New(strings.NewReader(input), &out), &out, zap.NewNop())
	require.NoError(t, a.session.Initialize(context.Background()))
	a.run(context.Background())
	return out.String()
}

func TestShell_LoginListCancel(t *testing.T) {
	srv := fakeBackend(t)
	store := storage.NewMemoryStore()

	out := runShell(t, srv, store, "login\na@b.com\nx\nbookings\ncancel 42\ny\nwhoami\nexit\n")

	assert.Contains(t, out, "Welcome, A")
	assert.Contains(t, out, "Baby Care")
	assert.Contains(t, out, "Are you sure you want to cancel booking 42? [y/N]")
	assert.Contains(t, out, "Booking 42 cancelled")
	assert.Equal(t, int32(1), srv.cancels.Load())
	assert.Contains(t, out, "A <a@b.com>")
	assert.Contains(t, out, "Bye")

	// the session survives a restart
	out = runShell(t, srv, store, "whoami\n")
	assert.Contains(t, out, "A <a@b.com>")
	assert.Contains(t, out, "carebook(a@b.com)> ")
}

func TestShell_RequiresSession(t *testing.T) {
	srv := fakeBackend(t)

	out := runShell(t, srv, storage.NewMemoryStore(), "bookings\nbook\nwhoami\ncancel\nfly\n")

	assert.Contains(t, out, "Run 'login' or 'register' first.")
	assert.Contains(t, out, "Not signed in")
	assert.Contains(t, out, "usage: cancel <id>")
	assert.Contains(t, out, "Unknown command")
}

func TestShell_RejectedToken(t *testing.T) {
	srv := fakeBackend(t)
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save("stale", models.User{ID: "1", Name: "A", Email: "a@b.com"}))

	out := runShell(t, srv, store, "bookings\n")

	assert.Contains(t, out, "Error: Not authorized, token failed")
	assert.Contains(t, out, "Run 'logout' and then 'login'.")
}

func TestShell_Services(t *testing.T) {
	out := runShell(t, fakeBackend(t), storage.NewMemoryStore(), "services\nservice elderly-care\nservice nope\n")

	assert.Contains(t, out, "baby-care")
	assert.Contains(t, out, "Elderly")
	assert.Contains(t, out, `no service "nope"`)
}

func TestShell_CancelDeclined(t *testing.T) {
	srv := fakeBackend(t)

	out := runShell(t, srv, storage.NewMemoryStore(), "login\na@b.com\nx\ncancel 42\nn\n")

	assert.Contains(t, out, "Booking 42 kept")
	assert.NotContains(t, out, "Booking 42 cancelled")
	assert.Zero(t, srv.cancels.Load())
}

func TestShell_CancelGoneOnServer(t *testing.T) {
	srv := fakeBackend(t)

	out := runShell(t, srv, storage.NewMemoryStore(), "login\na@b.com\nx\ncancel 43\ny\n")

	assert.Contains(t, out, "Error: Booking not found")
	assert.Contains(t, out, "Run 'bookings' to refresh.")
}

func TestShell_LogoutRevokesToken(t *testing.T) {
	srv := fakeBackend(t)
	store := storage.NewMemoryStore()

	out := runShell(t, srv, store, "login\na@b.com\nx\nlogout\nwhoami\nlogout\n")

	assert.Contains(t, out, "Signed out")
	assert.Contains(t, out, "Not signed in")
	// the second logout has no token to revoke
	assert.Equal(t, int32(1), srv.logouts.Load())
	token, user, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestShell_LogoutSurvivesServerRejection(t *testing.T) {
	srv := fakeBackend(t)
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save("stale", models.User{ID: "1", Name: "A", Email: "a@b.com"}))

	out := runShell(t, srv, store, "logout\nwhoami\n")

	assert.Contains(t, out, "Signed out")
	assert.Contains(t, out, "Not signed in")
	assert.Zero(t, srv.logouts.Load())
}
