package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/user"
)

const (
	addressColumns = `id, user_id, address_line, is_default`

	listAddressesSQL  = `SELECT ` + addressColumns + ` FROM user_addresses WHERE user_id = $1 ORDER BY is_default DESC, id`
	getAddressSQL     = `SELECT ` + addressColumns + ` FROM user_addresses WHERE user_id = $1 AND id = $2`
	createAddressSQL  = `INSERT INTO user_addresses (` + addressColumns + `) VALUES ($1, $2, $3, $4)`
	updateAddressSQL  = `UPDATE user_addresses SET address_line = $3 WHERE user_id = $1 AND id = $2`
	deleteAddressSQL  = `DELETE FROM user_addresses WHERE user_id = $1 AND id = $2`
	setDefaultAddrSQL = `UPDATE user_addresses SET is_default = (id = $2) WHERE user_id = $1`
)

var _ user.AddressRepository = (*AddressRepository)(nil)

// AddressRepository implements user.AddressRepository backed by
// PostgreSQL. Every statement is scoped to the owning user.
type AddressRepository struct {
	db DBTX
}

// NewAddressRepository returns an AddressRepository that uses db.
func NewAddressRepository(db DBTX) *AddressRepository {
	return &AddressRepository{db: db}
}

// ListByUser returns the user's addresses, default first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]user.Address, error) {
	rows, err := r.db.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

// Get returns one of the user's addresses or user.ErrAddressNotFound.
func (r *AddressRepository) Get(ctx context.Context, userID, id string) (*user.Address, error) {
	rows, err := r.db.Query(ctx, getAddressSQL, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrAddressNotFound
		}
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}
	return &a, nil
}

// Create inserts an address.
func (r *AddressRepository) Create(ctx context.Context, a *user.Address) error {
	if _, err := r.db.Exec(ctx, createAddressSQL, a.ID, a.UserID, a.AddressLine, a.IsDefault); err != nil {
		return fmt.Errorf("creating address: %w", err)
	}
	return nil
}

// UpdateLine overwrites the address line.
func (r *AddressRepository) UpdateLine(ctx context.Context, a *user.Address) error {
	tag, err := r.db.Exec(ctx, updateAddressSQL, a.UserID, a.ID, a.AddressLine)
	if err != nil {
		return fmt.Errorf("updating address %q: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrAddressNotFound
	}
	return nil
}

// Delete removes one of the user's addresses.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, deleteAddressSQL, userID, id)
	if err != nil {
		return false, fmt.Errorf("deleting address %q: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetDefault flips is_default for all of the user's addresses in one
// statement, so exactly one row ends up true when addressID is theirs.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressID string) error {
	if _, err := r.db.Exec(ctx, setDefaultAddrSQL, userID, addressID); err != nil {
		return fmt.Errorf("setting default address of %q: %w", userID, err)
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (user.Address, error) {
	var a user.Address
	err := row.Scan(&a.ID, &a.UserID, &a.AddressLine, &a.IsDefault)
	return a, err
}
