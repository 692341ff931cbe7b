package user

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ListAddresses returns the user's addresses.
func (s *Service) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	out, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return out, nil
}

// AddAddress stores a new address. The user's first address always becomes
// the default; later ones do so only when requested.
func (s *Service) AddAddress(ctx context.Context, userID string, req AddressRequest) (*Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.ListAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}

	a := &Address{
		ID:          uuid.New().String(),
		UserID:      userID,
		AddressLine: req.AddressLine,
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	if req.IsDefault || len(existing) == 0 {
		if err := s.addresses.SetDefault(ctx, userID, a.ID); err != nil {
			return nil, errors.Wrap(err, "set default address")
		}
		a.IsDefault = true
	}
	return a, nil
}

// UpdateAddress changes the address line and, when requested, makes it the
// default. Clearing IsDefault on the current default is ignored so the user
// is never left without one.
func (s *Service) UpdateAddress(ctx context.Context, userID, id string, req AddressRequest) (*Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := s.addresses.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	a.AddressLine = req.AddressLine
	if err := s.addresses.UpdateLine(ctx, a); err != nil {
		return nil, errors.Wrap(err, "update address")
	}
	if req.IsDefault && !a.IsDefault {
		if err := s.addresses.SetDefault(ctx, userID, id); err != nil {
			return nil, errors.Wrap(err, "set default address")
		}
		a.IsDefault = true
	}
	return a, nil
}

// DeleteAddress removes an address.
func (s *Service) DeleteAddress(ctx context.Context, userID, id string) error {
	ok, err := s.addresses.Delete(ctx, userID, id)
	if err != nil {
		return errors.Wrap(err, "delete address")
	}
	if !ok {
		return ErrAddressNotFound
	}
	return nil
}

// SetDefaultAddress makes addressID the user's only default address. The
// address must belong to the user.
func (s *Service) SetDefaultAddress(ctx context.Context, userID, addressID string) (*Address, error) {
	a, err := s.addresses.Get(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if err := s.addresses.SetDefault(ctx, userID, addressID); err != nil {
		return nil, errors.Wrap(err, "set default address")
	}
	a.IsDefault = true
	return a, nil
}
