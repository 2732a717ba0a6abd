package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/catalog"
	"github.com/atinyakov/carebook/internal/client/api"
	"github.com/atinyakov/carebook/internal/client/booking"
	"github.com/atinyakov/carebook/internal/client/prompt"
	"github.com/atinyakov/carebook/internal/client/session"
	"github.com/atinyakov/carebook/internal/models"
)

const helpText = `Available commands:
  services            list care services
  service <id>        show one service
  register            create an account
  login               sign in
  logout              sign out
  whoami              show the signed-in user
  profile             edit your profile
  book [service-id]   book a care service
  bookings            list your bookings
  cancel <id>         cancel a pending booking
  pay <id>            pay for a pending booking
  exit`

type app struct {
	client   *api.Client
	session  *session.Manager
	bookings *booking.Service
	list     *booking.List
	prompt   *prompt.Prompter
	out      io.Writer
	log      *zap.Logger
}

// run reads commands until exit, EOF or ctx is done.
func (a *app) run(ctx context.Context) {
	scanner := a.prompt.Scanner()
	for ctx.Err() == nil {
		fmt.Fprint(a.out, a.promptLabel())
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(a.out, "Bye")
			return
		}
		if err := a.dispatch(ctx, args); err != nil {
			a.report(err)
		}
	}
}

func (a *app) promptLabel() string {
	if u := a.session.User(); u != nil {
		return fmt.Sprintf("carebook(%s)> ", u.Email)
	}
	return "carebook> "
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(a.out, helpText)
	case "services":
		a.printServices()
	case "service":
		if len(args) < 2 {
			return usage("service <id>")
		}
		return a.printService(args[1])
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		a.revoke(ctx)
		a.list.Reset()
		if err := a.session.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out")
	case "whoami":
		a.whoami()
	case "profile":
		return a.profile(ctx)
	case "book":
		id := ""
		if len(args) > 1 {
			id = args[1]
		}
		return a.book(ctx, id)
	case "bookings":
		return a.showBookings(ctx)
	case "cancel":
		if len(args) < 2 {
			return usage("cancel <id>")
		}
		return a.cancel(ctx, args[1])
	case "pay":
		if len(args) < 2 {
			return usage("pay <id>")
		}
		return a.pay(ctx, args[1])
	default:
		fmt.Fprintln(a.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

// report prints err the way the UI should surface it.
func (a *app) report(err error) {
	if errors.Is(err, prompt.ErrClosed) {
		return
	}
	fmt.Fprintln(a.out, "Error:", api.Message(err))

	var ae *api.AuthError
	if errors.As(err, &ae) {
		switch ae.Reason {
		case api.ReasonUnauthorized:
			fmt.Fprintln(a.out, "Your session is no longer accepted. Run 'logout' and then 'login'.")
		case api.ReasonNotAuthenticated:
			fmt.Fprintln(a.out, "Run 'login' or 'register' first.")
		}
	}
	var pe *api.ApplicationError
	if errors.As(err, &pe) && pe.NotFound() {
		fmt.Fprintln(a.out, "It may have been removed on the server. Run 'bookings' to refresh.")
	}
	a.log.Debug("command failed", zap.Error(err))
}

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

func usage(s string) error { return usageError(s) }

func (a *app) printServices() {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE/HOUR")
	for _, s := range catalog.All() {
		fmt.Fprintf(tw, "%s\t%s\t%d %s\n", s.ID, s.Name, s.PricePerHour, catalog.Currency)
	}
	_ = tw.Flush()
}

func (a *app) printService(id string) error {
	s, ok := catalog.Lookup(id)
	if !ok {
		return &api.ValidationError{Field: "id", Message: fmt.Sprintf("no service %q", id)}
	}
	fmt.Fprintf(a.out, "%s (%s)\n%s\nPrice: %d %s per hour\n", s.Name, s.ID, s.Description, s.PricePerHour, catalog.Currency)
	for _, f := range s.Features {
		fmt.Fprintln(a.out, "  -", f)
	}
	return nil
}

// revoke tells the server to drop the current token. The local sign-out
// goes ahead whatever the server says.
func (a *app) revoke(ctx context.Context) {
	if !a.session.Authenticated() {
		return
	}
	if err := a.client.Logout(ctx); err != nil {
		a.log.Info("server logout failed", zap.Error(err))
	}
}

func (a *app) login(ctx context.Context) error {
	email, err := a.prompt.Line("Email")
	if err != nil {
		return err
	}
	password, err := a.prompt.Password("Password")
	if err != nil {
		return err
	}
	if err := a.session.Login(ctx, api.Credentials{Email: email, Password: password}); err != nil {
		return err
	}
	a.list.Reset()
	fmt.Fprintf(a.out, "Welcome, %s\n", a.session.User().Name)
	return nil
}

func (a *app) register(ctx context.Context) error {
	var reg api.Registration
	fields := []struct {
		label  string
		dst    *string
		secret bool
	}{
		{"Name", &reg.Name, false},
		{"Email", &reg.Email, false},
		{"Contact", &reg.Contact, false},
		{"NID", &reg.NID, false},
		{"Password", &reg.Password, true},
		{"Confirm password", &reg.ConfirmPassword, true},
	}
	for _, f := range fields {
		var err error
		if f.secret {
			*f.dst, err = a.prompt.Password(f.label)
		} else {
			*f.dst, err = a.prompt.Line(f.label)
		}
		if err != nil {
			return err
		}
	}
	if err := a.session.Register(ctx, reg); err != nil {
		return err
	}
	a.list.Reset()
	fmt.Fprintf(a.out, "Account created. Welcome, %s\n", a.session.User().Name)
	return nil
}

func (a *app) whoami() {
	u := a.session.User()
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return
	}
	fmt.Fprintf(a.out, "%s <%s>\n", u.Name, u.Email)
	for _, kv := range [][2]string{{"Contact", u.Contact}, {"Address", u.Address}, {"Location", u.Location}} {
		if kv[1] != "" {
			fmt.Fprintf(a.out, "%s: %s\n", kv[0], kv[1])
		}
	}
}

func (a *app) profile(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		return &api.AuthError{Reason: api.ReasonNotAuthenticated, Message: "please log in to edit your profile"}
	}
	upd := api.ProfileUpdate{}
	var err error
	if upd.Name, err = a.prompt.Default("Name", u.Name); err != nil {
		return err
	}
	if upd.Contact, err = a.prompt.Default("Contact", u.Contact); err != nil {
		return err
	}
	if upd.Address, err = a.prompt.Default("Address", u.Address); err != nil {
		return err
	}
	if upd.Location, err = a.prompt.Default("Location", u.Location); err != nil {
		return err
	}
	if upd.Password, err = a.prompt.Password("New password (empty keeps current)"); err != nil {
		return err
	}
	if upd.Password != "" {
		if upd.ConfirmPassword, err = a.prompt.Password("Confirm password"); err != nil {
			return err
		}
	}
	if err := a.session.UpdateProfile(ctx, upd); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated")
	return nil
}

func (a *app) book(ctx context.Context, serviceID string) error {
	if !a.session.Authenticated() {
		return &api.AuthError{Reason: api.ReasonNotAuthenticated, Message: "please log in to book a service"}
	}
	var (
		req models.BookingRequest
		err error
	)
	if req.ServiceID, err = a.prompt.Default("Service id", serviceID); err != nil {
		return err
	}
	if req.Duration, err = a.prompt.Int("Hours"); err != nil {
		return err
	}
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"Division", &req.Division},
		{"District", &req.District},
		{"City", &req.City},
		{"Area", &req.Area},
		{"Address", &req.Address},
	} {
		if *f.dst, err = a.prompt.Line(f.label); err != nil {
			return err
		}
	}

	_, total, err := booking.Quote(req)
	if err != nil {
		return err
	}
	ok, err := a.prompt.Confirm(fmt.Sprintf("Total %d %s. Submit booking?", total, catalog.Currency))
	if err != nil || !ok {
		return err
	}

	b, err := a.bookings.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booked %s (%s), total %d %s\n", b.ServiceName, b.ID, b.TotalCost, catalog.Currency)
	return nil
}

func (a *app) showBookings(ctx context.Context) error {
	if err := a.list.Refresh(ctx); err != nil {
		return err
	}
	items := a.list.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No bookings yet")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERVICE\tHOURS\tLOCATION\tTOTAL\tSTATUS\tPAYMENT")
	for _, b := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			b.ID, b.ServiceName, b.Duration, b.Location, b.TotalCost, b.Status, b.PaymentStatus)
	}
	return tw.Flush()
}

// ensureListed loads the list once so cancel and pay work by id straight
// after login.
func (a *app) ensureListed(ctx context.Context, id string) error {
	if _, ok := a.list.Get(id); ok {
		return nil
	}
	return a.list.Refresh(ctx)
}

func (a *app) cancel(ctx context.Context, id string) error {
	if err := a.ensureListed(ctx, id); err != nil {
		return err
	}
	if b, ok := a.list.Get(id); ok && b.Status != models.StatusCancelled {
		yes, err := a.prompt.Confirm(fmt.Sprintf("Are you sure you want to cancel booking %s?", id))
		if err != nil {
			return err
		}
		if !yes {
			fmt.Fprintf(a.out, "Booking %s kept\n", id)
			return nil
		}
	}
	if err := a.list.Cancel(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booking %s cancelled\n", id)
	return nil
}

func (a *app) pay(ctx context.Context, id string) error {
	if err := a.ensureListed(ctx, id); err != nil {
		return err
	}
	res, err := a.list.Pay(ctx, id, booking.SandboxWidget{Ask: a.prompt.Confirm})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Payment %s, transaction %s\n", res.Status, res.TransactionID)
	return nil
}
