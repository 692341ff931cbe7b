package category

import (
	"context"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/validate"
)

var (
	// ErrNotFound is returned when a category id does not exist.
	ErrNotFound = apperr.NotFound("category not found")
	// ErrParentNotFound is returned when the requested parent does not exist.
	ErrParentNotFound = apperr.Validation("parent category not found")
	// ErrCycle is returned when a parent assignment would make a category its
	// own ancestor.
	ErrCycle = apperr.Validation("category cannot be its own ancestor")
)

// Category is a node in the product category tree. Children reference their
// parent by id; there is no embedded object graph.
type Category struct {
	ID       string
	Name     string
	ParentID *string
}

// Request is the input for creating or renaming a category.
type Request struct {
	Name     string
	ParentID *string
}

// Validate checks the request fields.
func (r Request) Validate() error {
	var v validate.Validator
	v.Required("name", r.Name)
	v.MaxLen("name", r.Name, 100)
	if r.ParentID != nil {
		v.Required("parentId", *r.ParentID)
	}
	return v.Err()
}

// Repository defines persistence operations for categories. Delete is a
// hard delete; children and products lose their reference.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	ListChildren(ctx context.Context, parentID string) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}
