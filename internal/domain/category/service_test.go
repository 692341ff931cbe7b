package category

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCategoryRepo struct {
	byID map[string]*Category
}

func newMockCategoryRepo(cs ...Category) *mockCategoryRepo {
	m := &mockCategoryRepo{byID: map[string]*Category{}}
	for i := range cs {
		m.byID[cs[i].ID] = &cs[i]
	}
	return m
}

func (m *mockCategoryRepo) List(context.Context) ([]Category, error) {
	out := make([]Category, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCategoryRepo) ListChildren(_ context.Context, parentID string) ([]Category, error) {
	var out []Category
	for _, c := range m.byID {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id string) (*Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCategoryRepo) Create(_ context.Context, c *Category) error {
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *Category) error {
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	for _, c := range m.byID {
		if c.ParentID != nil && *c.ParentID == id {
			c.ParentID = nil
		}
	}
	return nil
}

func ptr(s string) *string { return &s }

func TestService_CreateWithParent(t *testing.T) {
	repo := newMockCategoryRepo(Category{ID: "root", Name: "Root"})
	s := NewService(repo)

	c, err := s.Create(context.Background(), Request{Name: "Shoes", ParentID: ptr("root")})
	require.NoError(t, err)
	assert.Equal(t, "root", *c.ParentID)

	children, err := s.Children(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Shoes", children[0].Name)

	_, err = s.Create(context.Background(), Request{Name: "Orphan", ParentID: ptr("missing")})
	require.ErrorIs(t, err, ErrParentNotFound)

	_, err = s.Create(context.Background(), Request{Name: ""})
	require.Error(t, err)
}

func TestService_UpdateRejectsCycles(t *testing.T) {
	repo := newMockCategoryRepo(
		Category{ID: "a", Name: "A"},
		Category{ID: "b", Name: "B", ParentID: ptr("a")},
		Category{ID: "c", Name: "C", ParentID: ptr("b")},
	)
	s := NewService(repo)

	_, err := s.Update(context.Background(), "a", Request{Name: "A", ParentID: ptr("a")})
	require.ErrorIs(t, err, ErrCycle)

	_, err = s.Update(context.Background(), "a", Request{Name: "A", ParentID: ptr("c")})
	require.ErrorIs(t, err, ErrCycle)

	c, err := s.Update(context.Background(), "c", Request{Name: "C2", ParentID: ptr("a")})
	require.NoError(t, err)
	assert.Equal(t, "C2", c.Name)
	assert.Equal(t, "a", *c.ParentID)
}

func TestService_DeleteDetachesChildren(t *testing.T) {
	repo := newMockCategoryRepo(
		Category{ID: "a", Name: "A"},
		Category{ID: "b", Name: "B", ParentID: ptr("a")},
	)
	s := NewService(repo)

	require.NoError(t, s.Delete(context.Background(), "a"))
	_, err := s.Get(context.Background(), "a")
	require.ErrorIs(t, err, ErrNotFound)

	b, err := s.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.Nil(t, b.ParentID)
}
