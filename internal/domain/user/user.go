// Package user manages accounts, roles and shipping addresses.
package user

import (
	"context"
	"time"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/paging"
	"github.com/xenking/storefront/internal/domain/validate"
)

var (
	ErrNotFound        = apperr.NotFound("user not found")
	ErrRoleNotFound    = apperr.Validation("role not found")
	ErrUsernameTaken   = apperr.Duplicate("username already exists")
	ErrEmailTaken      = apperr.Duplicate("email already exists")
	ErrInvalidLogin    = apperr.Unauthorized("invalid username or password")
	ErrWrongPassword   = apperr.Validation("current password is incorrect")
	ErrAddressNotFound = apperr.NotFound("address not found")
	ErrInactiveAccount = apperr.Unauthorized("account is disabled")
)

// User is a registered account. Deleting a user only clears IsActive.
type User struct {
	ID           string
	FullName     string
	Username     string
	PasswordHash string
	Email        *string
	Phone        string
	Address      string
	RoleID       string
	RoleName     string
	IsActive     bool
	CreatedAt    time.Time
}

// Role is a named permission set.
type Role struct {
	ID   string
	Name string
}

// Address is one of a user's shipping addresses. At most one address per
// user has IsDefault set.
type Address struct {
	ID          string
	UserID      string
	AddressLine string
	IsDefault   bool
}

// RegisterRequest is the input for self-registration and admin creation.
type RegisterRequest struct {
	FullName string
	Username string
	Password string
	Email    string
	Phone    string
	Address  string
	// Role is only honoured by CreateUser; Register always uses Customer.
	Role string
}

// Validate checks the request fields.
func (r RegisterRequest) Validate() error {
	var v validate.Validator
	v.Required("fullName", r.FullName)
	v.MaxLen("fullName", r.FullName, 100)
	v.Required("username", r.Username)
	v.Length("username", r.Username, 3, 50)
	v.Length("password", r.Password, 6, 100)
	v.Email("email", r.Email)
	v.MaxLen("phone", r.Phone, 20)
	v.MaxLen("address", r.Address, 500)
	return v.Err()
}

// UpdateRequest is the input for updating a user's profile.
type UpdateRequest struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	// IsActive and Role are only honoured for admins.
	IsActive *bool
	Role     string
}

// Validate checks the request fields.
func (r UpdateRequest) Validate() error {
	var v validate.Validator
	v.Required("fullName", r.FullName)
	v.MaxLen("fullName", r.FullName, 100)
	v.Email("email", r.Email)
	v.MaxLen("phone", r.Phone, 20)
	v.MaxLen("address", r.Address, 500)
	return v.Err()
}

// PasswordRequest is the input for changing a password.
type PasswordRequest struct {
	Current string
	New     string
}

// Validate checks the request fields.
func (r PasswordRequest) Validate() error {
	var v validate.Validator
	v.Required("currentPassword", r.Current)
	v.Length("newPassword", r.New, 6, 100)
	return v.Err()
}

// AddressRequest is the input for adding or updating an address.
type AddressRequest struct {
	AddressLine string
	IsDefault   bool
}

// Validate checks the request fields.
func (r AddressRequest) Validate() error {
	var v validate.Validator
	v.Required("addressLine", r.AddressLine)
	v.MaxLen("addressLine", r.AddressLine, 500)
	return v.Err()
}

// Repository defines persistence operations for users. Lookups return
// inactive users too; callers decide what inactive means.
type Repository interface {
	List(ctx context.Context, p paging.Params) ([]User, int, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	// EmailExists reports whether email is used by any user other than
	// excludeID.
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	SetPassword(ctx context.Context, id, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// RoleRepository resolves roles.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*Role, error)
}

// AddressRepository defines persistence operations for addresses.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	// Get returns the address only if it belongs to userID.
	Get(ctx context.Context, userID, id string) (*Address, error)
	Create(ctx context.Context, a *Address) error
	UpdateLine(ctx context.Context, a *Address) error
	Delete(ctx context.Context, userID, id string) (bool, error)
	// SetDefault sets is_default = (id = addressID) for every address of
	// userID in a single statement.
	SetDefault(ctx context.Context, userID, addressID string) error
}
