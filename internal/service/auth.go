package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/carebook/internal/models"
	"github.com/atinyakov/carebook/internal/repository"
)

// UserRepository defines the account persistence needed by AuthService.
type UserRepository interface {
	CreateUser(ctx context.Context, a *models.Account) error
	GetUserByEmail(ctx context.Context, email string) (*models.Account, error)
	GetUserByID(ctx context.Context, id string) (*models.Account, error)
	UpdateUser(ctx context.Context, a *models.Account) error
}

// TokenRepository stores issued session tokens.
type TokenRepository interface {
	SaveToken(ctx context.Context, t models.Token) error
	LookupToken(ctx context.Context, value string) (*models.Token, error)
	DeleteToken(ctx context.Context, value string) error
}

// RegisterInput is the payload of POST /auth/register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Contact  string `json:"contact" validate:"required"`
	NID      string `json:"nid" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginInput is the payload of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput is the payload of PUT /auth/profile. Empty fields keep their
// stored value.
type ProfileInput struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
	Location string `json:"location"`
	Password string `json:"password"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// name fields as they appear in request bodies
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name[:1]) + f.Name[1:]
		}
		return name
	})
	return v
}

func check(v any) error {
	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return invalid(fe.Field(), "%s is required", fe.Field())
		}
		return invalid(fe.Field(), "%s is invalid", fe.Field())
	}
	return err
}

// AuthService registers users, checks passwords and issues opaque bearer
// tokens.
type AuthService struct {
	users  UserRepository
	tokens TokenRepository
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewAuthService constructs an AuthService issuing tokens valid for ttl.
func NewAuthService(users UserRepository, tokens TokenRepository, ttl time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.AuthResponse, error) {
	in.Email = normalizeEmail(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := &models.Account{
		User: models.User{
			ID:      uuid.NewString(),
			Name:    strings.TrimSpace(in.Name),
			Email:   in.Email,
			Contact: strings.TrimSpace(in.Contact),
		},
		NID:          strings.TrimSpace(in.NID),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return s.issue(ctx, acc.User)
}

// Login checks email and password and issues a new token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.AuthResponse, error) {
	in.Email = normalizeEmail(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	acc, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, acc.User)
}

// Authenticate resolves a bearer token to its user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	t, err := s.tokens.LookupToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	if t.Expired(s.now()) {
		_ = s.tokens.DeleteToken(ctx, token)
		return "", ErrUnauthorized
	}
	return t.UserID, nil
}

// Revoke invalidates a token.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	return s.tokens.DeleteToken(ctx, token)
}

// UpdateProfile applies in to the account of userID. Email cannot change.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	acc, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(in.Name); v != "" {
		acc.Name = v
	}
	if v := strings.TrimSpace(in.Contact); v != "" {
		acc.Contact = v
	}
	if v := strings.TrimSpace(in.Address); v != "" {
		acc.Address = v
	}
	if v := strings.TrimSpace(in.Location); v != "" {
		acc.Location = v
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		acc.PasswordHash = string(hash)
	}

	if err := s.users.UpdateUser(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}
	u := acc.User
	return &u, nil
}

func (s *AuthService) issue(ctx context.Context, u models.User) (*models.AuthResponse, error) {
	value, err := generateToken()
	if err != nil {
		return nil, err
	}
	t := models.Token{Value: value, UserID: u.ID, ExpiresAt: s.now().Add(s.ttl)}
	if err := s.tokens.SaveToken(ctx, t); err != nil {
		return nil, err
	}
	return &models.AuthResponse{User: u, Token: value}, nil
}

// generateToken returns 32 random bytes, base64url encoded.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
