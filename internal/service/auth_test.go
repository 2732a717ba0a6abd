package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuth() (*AuthService, *memUsers, *memTokens) {
	users, tokens := newMemUsers(), newMemTokens()
	svc := NewAuthService(users, tokens, time.Hour)
	svc.cost = bcrypt.MinCost
	return svc, users, tokens
}

var reg = RegisterInput{Name: "A", Email: "A@B.com ", Contact: "017", NID: "123", Password: "x"}

func TestRegister_IssuesToken(t *testing.T) {
	svc, users, tokens := newTestAuth()

	resp, err := svc.Register(context.Background(), reg)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if resp.Token == "" || resp.ID == "" {
		t.Fatalf("Register returned incomplete session: %+v", resp)
	}
	if resp.Email != "a@b.com" {
		t.Errorf("email = %q; want normalised a@b.com", resp.Email)
	}
	acc := users.byID[resp.ID]
	if acc.PasswordHash == "x" || acc.NID != "123" {
		t.Errorf("unexpected stored account: %+v", acc)
	}
	if tok, ok := tokens.tokens[resp.Token]; !ok || tok.UserID != resp.ID {
		t.Errorf("token not stored for user: %+v", tok)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newTestAuth()
	if _, err := svc.Register(context.Background(), reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(context.Background(), reg); !errors.Is(err, ErrUserExists) {
		t.Fatalf("second Register error = %v; want ErrUserExists", err)
	}
}

func TestRegister_Invalid(t *testing.T) {
	svc, _, _ := newTestAuth()
	in := reg
	in.NID = ""
	_, err := svc.Register(context.Background(), in)
	var ie *InputError
	if !errors.As(err, &ie) || ie.Field != "nid" || ie.Message != "nid is required" {
		t.Fatalf("Register error = %v; want InputError on nid", err)
	}

	in = reg
	in.Email = "not-an-email"
	if _, err := svc.Register(context.Background(), in); !errors.As(err, &ie) || ie.Message != "email is invalid" {
		t.Fatalf("Register error = %v; want invalid email", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuth()
	if _, err := svc.Register(context.Background(), reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Name != "A" || resp.Token == "" {
		t.Errorf("unexpected login response: %+v", resp)
	}

	cases := []LoginInput{
		{Email: "a@b.com", Password: "wrong"},
		{Email: "nobody@b.com", Password: "x"},
	}
	for _, in := range cases {
		if _, err := svc.Login(context.Background(), in); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%+v) error = %v; want ErrInvalidCredentials", in, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, tokens := newTestAuth()
	resp, err := svc.Register(context.Background(), reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	id, err := svc.Authenticate(context.Background(), resp.Token)
	if err != nil || id != resp.ID {
		t.Fatalf("Authenticate = %q, %v; want %q", id, err, resp.ID)
	}

	if _, err := svc.Authenticate(context.Background(), "bogus"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown token error = %v; want ErrUnauthorized", err)
	}
	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("empty token error = %v; want ErrUnauthorized", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.Authenticate(context.Background(), resp.Token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expired token error = %v; want ErrUnauthorized", err)
	}
	if _, ok := tokens.tokens[resp.Token]; ok {
		t.Error("expired token was not deleted")
	}
}

func TestRevoke(t *testing.T) {
	svc, _, _ := newTestAuth()
	resp, _ := svc.Register(context.Background(), reg)
	if err := svc.Revoke(context.Background(), resp.Token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), resp.Token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("revoked token still valid: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, users, _ := newTestAuth()
	resp, _ := svc.Register(context.Background(), reg)

	u, err := svc.UpdateProfile(context.Background(), resp.ID, ProfileInput{Name: "A2", Location: "Dhaka"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.Name != "A2" || u.Location != "Dhaka" || u.Contact != "017" || u.Email != "a@b.com" {
		t.Errorf("unexpected profile: %+v", u)
	}

	oldHash := users.byID[resp.ID].PasswordHash
	if _, err := svc.UpdateProfile(context.Background(), resp.ID, ProfileInput{Password: "new"}); err != nil {
		t.Fatalf("password change: %v", err)
	}
	if users.byID[resp.ID].PasswordHash == oldHash {
		t.Error("password hash unchanged")
	}
	if _, err := svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "new"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}

	_, err = svc.UpdateProfile(context.Background(), "missing", ProfileInput{Name: "Z"})
	if !errors.Is(err, ErrNotFound) || err.Error() != "User not found" {
		t.Errorf("unknown user error = %v; want ErrNotFound saying User not found", err)
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	svc, users, _ := newTestAuth()
	wantErr := errors.New("db down")
	users.failErr = wantErr
	if _, err := svc.Register(context.Background(), reg); !errors.Is(err, wantErr) {
		t.Fatalf("Register error = %v; want %v", err, wantErr)
	}
}
