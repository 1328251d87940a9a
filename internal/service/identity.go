package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/startup-ecosystem/internal/model"
	"github.com/iliyamo/startup-ecosystem/internal/repository"
	"github.com/iliyamo/startup-ecosystem/internal/utils"
)

// emailShape is the minimal check applied to admin-entered addresses.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IdentityService registers, authenticates and administers accounts.
type IdentityService struct {
	Users       UserStore
	BcryptCost  int
	SignupEmail *regexp.Regexp
	Log         *zap.Logger

	// dummyHash is compared on unknown emails so every failed login pays
	// for one bcrypt comparison.
	dummyOnce sync.Once
	dummyHash string
}

// NewIdentityService compiles signupPattern, the expression self-service
// sign-up emails must match.
func NewIdentityService(users UserStore, bcryptCost int, signupPattern string, log *zap.Logger) (*IdentityService, error) {
	re, err := regexp.Compile(signupPattern)
	if err != nil {
		return nil, fmt.Errorf("signup email pattern: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IdentityService{Users: users, BcryptCost: bcryptCost, SignupEmail: re, Log: log}, nil
}

// Register creates a Founder, Mentor or Investor account together with its
// empty profile. Admin accounts cannot be self-registered.
func (s *IdentityService) Register(ctx context.Context, name, email, password, role string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !s.SignupEmail.MatchString(email) {
		return model.User{}, invalid("email", "must be a valid Gmail address")
	}
	return s.create(ctx, name, email, password, role)
}

// CreateByAdmin creates a non-admin account with any well-formed email.
func (s *IdentityService) CreateByAdmin(ctx context.Context, name, email, password, role string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !emailShape.MatchString(email) {
		return model.User{}, invalid("email", "is not a valid address")
	}
	return s.create(ctx, name, email, password, role)
}

func (s *IdentityService) create(ctx context.Context, name, email, password, roleName string) (model.User, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return model.User{}, invalid("name", "is required")
	case email == "":
		return model.User{}, invalid("email", "is required")
	case password == "":
		return model.User{}, invalid("password", "is required")
	}
	role, ok := model.ParseRole(roleName)
	if !ok || !role.HasProfile() {
		return model.User{}, invalid("role", "must be Founder, Mentor or Investor")
	}
	return s.insert(ctx, model.User{Name: name, Email: email, Role: role}, password)
}

func (s *IdentityService) insert(ctx context.Context, u model.User, password string) (model.User, error) {
	hash, err := utils.HashPassword(password, s.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return model.User{}, invalid("password", "must be at most 72 bytes")
	}
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = hash
	if err := s.Users.CreateWithProfile(ctx, &u); err != nil {
		return model.User{}, err
	}
	s.Log.Info("user created", zap.Uint64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Authenticate checks email and password.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.dummyOnce.Do(func() {
			s.dummyHash, _ = utils.HashPassword("no-such-account", s.BcryptCost)
		})
		_ = utils.VerifyPassword(s.dummyHash, password)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Get loads one user.
func (s *IdentityService) Get(ctx context.Context, id uint64) (model.User, error) {
	return s.Users.GetByID(ctx, id)
}

// ListByRole lists Founder, Mentor or Investor accounts.
func (s *IdentityService) ListByRole(ctx context.Context, roleName string) ([]model.User, error) {
	role, ok := model.ParseRole(roleName)
	if !ok || !role.HasProfile() {
		return nil, invalid("role", "must be Founder, Mentor or Investor")
	}
	return s.Users.ListByRole(ctx, role)
}

// UpdateByAdmin changes a non-admin user's name and email; the profile
// copy follows in the same transaction.
func (s *IdentityService) UpdateByAdmin(ctx context.Context, id uint64, name, email string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return model.User{}, invalid("name", "is required")
	}
	if !emailShape.MatchString(email) {
		return model.User{}, invalid("email", "is not a valid address")
	}
	if _, err := s.managed(ctx, id); err != nil {
		return model.User{}, err
	}
	if err := s.Users.UpdateNameEmail(ctx, id, name, email); err != nil {
		return model.User{}, err
	}
	return s.Users.GetByID(ctx, id)
}

// DeleteByAdmin removes a non-admin user and its profile.
func (s *IdentityService) DeleteByAdmin(ctx context.Context, id uint64) error {
	u, err := s.managed(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		return err
	}
	s.Log.Info("user deleted", zap.Uint64("user_id", id), zap.String("role", string(u.Role)))
	return nil
}

// managed loads a user admins may edit; admin accounts are off limits.
func (s *IdentityService) managed(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if !u.Role.HasProfile() {
		return model.User{}, repository.ErrForbidden
	}
	return u, nil
}

// EnsureAdmin seeds the admin account at startup. It is a no-op when the
// email is already registered, whatever that account's role.
func (s *IdentityService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, invalid("admin", "email and password are required")
	}
	_, err := s.Users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	_, err = s.insert(ctx, model.User{Name: strings.TrimSpace(name), Email: email, Role: model.RoleAdmin}, password)
	if errors.Is(err, repository.ErrEmailExists) {
		return false, nil
	}
	return err == nil, err
}
