package pets_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/adapters/storage/memory"
	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/auth"
)

var (
	admin   = auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}
	rescue1 = auth.Claims{UserID: "staff-1", Role: auth.RoleRescue, RescueID: "r-1"}
	rescue2 = auth.Claims{UserID: "staff-2", Role: auth.RoleRescue, RescueID: "r-2"}
	visitor = auth.Claims{}
)

func intPtr(v int) *int { return &v }

func newService(t *testing.T, opts ...pets.Option) *pets.Service {
	t.Helper()
	return pets.NewService(memory.NewPetRepo(), opts...)
}

func mustCreate(t *testing.T, svc *pets.Service, viewer auth.Claims, in pets.CreateInput) pets.Pet {
	t.Helper()
	if in.Species == "" {
		in.Species = "capybara"
	}
	if in.Size == "" {
		in.Size = "large"
	}
	p, err := svc.Create(context.Background(), viewer, in)
	require.NoError(t, err)
	return p
}

func TestList_FiveCapybarasAcrossPages(t *testing.T) {
	svc := newService(t, pets.WithPageSize(2, 50))
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		mustCreate(t, svc, rescue1, pets.CreateInput{Name: name, Age: 2})
	}
	mustCreate(t, svc, rescue1, pets.CreateInput{Name: "Luna", Species: "guinea_pig", Size: "small"})

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		res, err := svc.List(ctx, visitor, pets.Filter{
			Species: []string{"capybara"},
			MinAge:  intPtr(0),
			MaxAge:  intPtr(20),
			Page:    page,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, res.Pagination.TotalItems)
		assert.Equal(t, 3, res.Pagination.TotalPages)
		assert.Equal(t, page < 3, res.Pagination.HasNextPage)
		for _, p := range res.Items {
			assert.Equal(t, pets.SpeciesCapybara, p.Species)
			seen[p.Name] = true
		}
	}
	assert.Len(t, seen, 5)

	// Fuera de rango: página vacía, no error.
	res, err := svc.List(ctx, visitor, pets.Filter{Species: []string{"capybara"}, Page: 9})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 5, res.Pagination.TotalItems)
}

func TestList_HugePageIsEmpty(t *testing.T) {
	svc := newService(t)
	for _, name := range []string{"A", "B", "C"} {
		mustCreate(t, svc, rescue1, pets.CreateInput{Name: name})
	}

	for _, page := range []int{math.MaxInt, 1<<62 + 1} {
		res, err := svc.List(context.Background(), visitor, pets.Filter{Page: page, Limit: 12})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, 3, res.Pagination.TotalItems)
		assert.Equal(t, page, res.Pagination.CurrentPage)
		assert.False(t, res.Pagination.HasNextPage)
	}
}

func TestList_MaxAgeAboveTwentyFiltersOlderPets(t *testing.T) {
	svc := newService(t)
	mustCreate(t, svc, rescue1, pets.CreateInput{Name: "Young", Age: 3})
	mustCreate(t, svc, rescue1, pets.CreateInput{Name: "Old", Age: 28})

	res, err := svc.List(context.Background(), visitor, pets.Filter{MaxAge: intPtr(25)})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Young", res.Items[0].Name)

	// 20 sigue siendo "sin cota"
	res, err = svc.List(context.Background(), visitor, pets.Filter{MaxAge: intPtr(20)})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}

func TestCreate_RoleRules(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, auth.Claims{UserID: "u1", Role: auth.RoleUser}, pets.CreateInput{Name: "X", Species: "capybara", Size: "large"})
	assert.ErrorIs(t, err, pets.ErrForbidden)

	_, err = svc.Create(ctx, admin, pets.CreateInput{Name: "X", Species: "capybara", Size: "large"})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "rescue_id")

	// La rescue publica siempre bajo su propia rescue.
	p := mustCreate(t, svc, rescue1, pets.CreateInput{Name: "X", RescueID: "r-2"})
	assert.Equal(t, "r-1", p.RescueID)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, int64(1), p.RefNumber)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(t)
	_, err := svc.Create(context.Background(), rescue1, pets.CreateInput{
		Name:     " ",
		Species:  "dragon",
		Size:     "tiny",
		Age:      pets.MaxAge + 1,
		ImageURL: "ftp://img",
		Gallery:  []string{"https://ok.example/1.png", "not a url"},
	})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	for _, f := range []string{"name", "species", "size", "age", "image_url", "gallery[1]"} {
		assert.Contains(t, fields, f)
	}
}

func TestInternalNotesVisibility(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, rescue1, pets.CreateInput{Name: "Pancho", InternalNotes: "bites"})
	assert.Equal(t, "bites", p.InternalNotes)

	for _, tc := range []struct {
		viewer auth.Claims
		want   string
	}{
		{visitor, ""},
		{rescue2, ""},
		{rescue1, "bites"},
		{admin, "bites"},
	} {
		got, err := svc.Get(ctx, tc.viewer, p.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.InternalNotes)

		page, err := svc.List(ctx, tc.viewer, pets.Filter{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, tc.want, page.Items[0].InternalNotes)
	}
}

func TestUpdate_OwnershipAndVersion(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, rescue1, pets.CreateInput{Name: "Pancho"})

	name := "Pancho II"
	_, err := svc.Update(ctx, rescue2, p.ID, pets.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, pets.ErrForbidden)

	updated, err := svc.Update(ctx, rescue1, p.ID, pets.UpdateInput{Name: &name, ExpectedVersion: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, "Pancho II", updated.Name)
	assert.Equal(t, 2, updated.Version)

	_, err = svc.Update(ctx, rescue1, p.ID, pets.UpdateInput{Name: &name, ExpectedVersion: intPtr(1)})
	assert.ErrorIs(t, err, pets.ErrVersionConflict)

	promoted := true
	_, err = svc.Update(ctx, rescue1, p.ID, pets.UpdateInput{Promoted: &promoted})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "promoted")
}

func TestChangeHookAndAdoption(t *testing.T) {
	calls := 0
	svc := newService(t, pets.WithChangeHook(func(context.Context) { calls++ }))
	ctx := context.Background()

	p := mustCreate(t, svc, rescue1, pets.CreateInput{Name: "Pancho"})
	assert.Equal(t, 1, calls)

	_, err := svc.MarkAdopted(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// Idempotente: no vuelve a guardar.
	_, err = svc.MarkAdopted(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	pool, err := svc.AvailablePool(ctx, auth.Claims{}, 50)
	require.NoError(t, err)
	assert.Empty(t, pool)

	page, err := svc.List(ctx, admin, pets.Filter{ShowAdopted: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	require.NoError(t, svc.Delete(ctx, admin, p.ID))
	assert.Equal(t, 3, calls)
	_, err = svc.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, pets.ErrNotFound)
}
