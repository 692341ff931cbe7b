package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/paging"
	"github.com/xenking/storefront/internal/domain/user"
)

const (
	userSelect = `SELECT u.id, u.full_name, u.username, u.password_hash, u.email, u.phone,
		u.address, u.role_id, r.name, u.is_active, u.created_at
		FROM users u JOIN roles r ON r.id = u.role_id`

	listUsersSQL         = userSelect + ` ORDER BY u.created_at, u.id LIMIT $1 OFFSET $2`
	countUsersSQL        = `SELECT COUNT(*) FROM users`
	getUserSQL           = userSelect + ` WHERE u.id = $1`
	getUserByUsernameSQL = userSelect + ` WHERE u.username = $1`
	usernameExistsSQL    = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	emailExistsSQL       = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`

	createUserSQL = `INSERT INTO users (id, full_name, username, password_hash, email, phone,
		address, role_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	updateUserSQL = `UPDATE users SET full_name = $2, email = $3, phone = $4, address = $5,
		role_id = $6, is_active = $7 WHERE id = $1`

	setPasswordSQL   = `UPDATE users SET password_hash = $2 WHERE id = $1`
	setUserActiveSQL = `UPDATE users SET is_active = $2 WHERE id = $1`

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	db DBTX
}

// NewUserRepository returns a UserRepository that uses db.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// List returns one page of users in creation order and the total count.
func (r *UserRepository) List(ctx context.Context, p paging.Params) ([]user.User, int, error) {
	total, err := count(ctx, r.db, countUsersSQL)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	rows, err := r.db.Query(ctx, listUsersSQL, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return items, total, nil
}

// GetByID returns a user or user.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserSQL, id)
}

// GetByUsername returns a user or user.ErrNotFound.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, getUserByUsernameSQL, username)
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", arg, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", arg, err)
	}
	return &u, nil
}

// UsernameExists reports whether the username is taken.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, usernameExistsSQL, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return exists, nil
}

// EmailExists reports whether another user has the email.
func (r *UserRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, emailExistsSQL, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return exists, nil
}

// Create inserts a user. Unique violations that slip past the service
// pre-checks map to the matching duplicate error.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.Exec(ctx, createUserSQL,
		u.ID, u.FullName, u.Username, u.PasswordHash, u.Email, u.Phone,
		u.Address, u.RoleID, u.IsActive, u.CreatedAt,
	)
	if err != nil {
		return userWriteError(err, "creating user", u.Username)
	}
	return nil
}

// Update overwrites profile, role and active flag.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.db.Exec(ctx, updateUserSQL,
		u.ID, u.FullName, u.Email, u.Phone, u.Address, u.RoleID, u.IsActive,
	)
	if err != nil {
		return userWriteError(err, "updating user", u.ID)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// SetPassword replaces the password hash.
func (r *UserRepository) SetPassword(ctx context.Context, id, hash string) error {
	tag, err := r.db.Exec(ctx, setPasswordSQL, id, hash)
	if err != nil {
		return fmt.Errorf("setting password of %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// SetActive toggles the soft-delete flag.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, setUserActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("setting user %q active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func userWriteError(err error, op, key string) error {
	switch {
	case uniqueViolationOn(err, usernameConstraint):
		return user.ErrUsernameTaken
	case uniqueViolationOn(err, emailConstraint):
		return user.ErrEmailTaken
	default:
		return fmt.Errorf("%s %q: %w", op, key, err)
	}
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Username, &u.PasswordHash, &u.Email, &u.Phone,
		&u.Address, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt,
	)
	return u, err
}

const getRoleByNameSQL = `SELECT id, name FROM roles WHERE name = $1`

var _ user.RoleRepository = (*RoleRepository)(nil)

// RoleRepository implements user.RoleRepository backed by PostgreSQL.
type RoleRepository struct {
	db DBTX
}

// NewRoleRepository returns a RoleRepository that uses db.
func NewRoleRepository(db DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetByName returns a role or user.ErrRoleNotFound.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*user.Role, error) {
	var role user.Role
	err := r.db.QueryRow(ctx, getRoleByNameSQL, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrRoleNotFound
		}
		return nil, fmt.Errorf("getting role %q: %w", name, err)
	}
	return &role, nil
}
