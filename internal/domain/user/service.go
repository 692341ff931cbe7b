package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/paging"
)

// Service manages user accounts and their addresses.
type Service struct {
	users     Repository
	roles     RoleRepository
	addresses AddressRepository
	cost      int
	now       func() time.Time
}

// NewService creates a user Service. A bcryptCost of zero selects
// bcrypt.DefaultCost.
func NewService(users Repository, roles RoleRepository, addresses AddressRepository, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:     users,
		roles:     roles,
		addresses: addresses,
		cost:      bcryptCost,
		now:       time.Now,
	}
}

// Register creates a Customer account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Role = ""
	return s.CreateUser(ctx, req)
}

// CreateUser creates an account with the requested role, Customer when
// empty. Username and email must be unique.
func (s *Service) CreateUser(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)

	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "check username")
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	email := optional(req.Email)
	if email != nil {
		taken, err := s.users.EmailExists(ctx, *email, "")
		if err != nil {
			return nil, errors.Wrap(err, "check email")
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}

	role, err := s.role(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		FullName:     strings.TrimSpace(req.FullName),
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		Phone:        req.Phone,
		Address:      req.Address,
		RoleID:       role.ID,
		RoleName:     role.Name,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	zctx.From(ctx).Info("User created", zap.String("user_id", u.ID), zap.String("role", u.RoleName))
	return u, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, errors.Wrap(err, "get user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidLogin
	}
	if !u.IsActive {
		return nil, ErrInactiveAccount
	}
	return u, nil
}

// GetUser returns a user by id, active or not.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns one page of users, including inactive ones.
func (s *Service) ListUsers(ctx context.Context, p paging.Params) (paging.Result[User], error) {
	p = p.Normalize()
	items, total, err := s.users.List(ctx, p)
	if err != nil {
		return paging.Result[User]{}, errors.Wrap(err, "list users")
	}
	return paging.NewResult(items, total, p), nil
}

// UpdateUser overwrites profile fields. IsActive and Role are applied when
// set; callers must strip them for non-admin requests.
func (s *Service) UpdateUser(ctx context.Context, id string, req UpdateRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := optional(req.Email)
	if email != nil && (u.Email == nil || *u.Email != *email) {
		taken, err := s.users.EmailExists(ctx, *email, id)
		if err != nil {
			return nil, errors.Wrap(err, "check email")
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}
	if req.Role != "" {
		role, err := s.role(ctx, req.Role)
		if err != nil {
			return nil, err
		}
		u.RoleID, u.RoleName = role.ID, role.Name
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	u.FullName = strings.TrimSpace(req.FullName)
	u.Email = email
	u.Phone = req.Phone
	u.Address = req.Address

	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, id string, req PasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Current)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.New), s.cost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	if err := s.users.SetPassword(ctx, id, string(hash)); err != nil {
		return errors.Wrap(err, "set password")
	}
	return nil
}

// DeleteUser deactivates a user. The row is kept.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.SetActive(ctx, id, false)
}

func (s *Service) role(ctx context.Context, name string) (*Role, error) {
	if name == "" {
		name = auth.RoleCustomer
	}
	r, err := s.roles.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get role")
	}
	return r, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
