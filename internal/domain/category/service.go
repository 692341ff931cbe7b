package category

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// maxDepth bounds the ancestor walk used for cycle detection.
const maxDepth = 64

// Service manages the category tree.
type Service struct {
	repo Repository
}

// NewService creates a category Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every category.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Get returns a single category.
func (s *Service) Get(ctx context.Context, id string) (*Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Children returns the direct subcategories of id.
func (s *Service) Children(ctx context.Context, id string) ([]Category, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListChildren(ctx, id)
}

// Create adds a category, optionally under an existing parent.
func (s *Service) Create(ctx context.Context, req Request) (*Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, "", req.ParentID); err != nil {
		return nil, err
	}

	c := &Category{
		ID:       uuid.New().String(),
		Name:     req.Name,
		ParentID: req.ParentID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return c, nil
}

// Update renames or re-parents a category.
func (s *Service) Update(ctx context.Context, id string, req Request) (*Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, id, req.ParentID); err != nil {
		return nil, err
	}

	c.Name = req.Name
	c.ParentID = req.ParentID
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update category")
	}
	return c, nil
}

// Delete removes a category permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// checkParent verifies parentID exists and that id is not among its
// ancestors. An empty id means the category is new.
func (s *Service) checkParent(ctx context.Context, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	next := *parentID
	for range maxDepth {
		if id != "" && next == id {
			return ErrCycle
		}
		p, err := s.repo.GetByID(ctx, next)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				if next == *parentID {
					return ErrParentNotFound
				}
				return nil
			}
			return errors.Wrap(err, "get parent category")
		}
		if p.ParentID == nil {
			return nil
		}
		next = *p.ParentID
	}
	return ErrCycle
}
