package rescues

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-api/internal/domain/users"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/auth"
)

type testRepo struct {
	byID map[string]Rescue
}

func (r *testRepo) Create(ctx context.Context, x Rescue) error {
	r.byID[x.ID] = x
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Rescue, error) {
	x, ok := r.byID[id]
	if !ok {
		return Rescue{}, ErrNotFound
	}
	return x, nil
}

func (r *testRepo) Update(ctx context.Context, x Rescue) error {
	if _, ok := r.byID[x.ID]; !ok {
		return ErrNotFound
	}
	r.byID[x.ID] = x
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *testRepo) List(ctx context.Context) ([]Rescue, error) {
	out := make([]Rescue, 0, len(r.byID))
	for _, x := range r.byID {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type testRequests struct {
	byID map[string]Request
}

func (r *testRequests) Create(ctx context.Context, x Request) error {
	r.byID[x.ID] = x
	return nil
}

func (r *testRequests) GetByID(ctx context.Context, id string) (Request, error) {
	x, ok := r.byID[id]
	if !ok {
		return Request{}, ErrRequestNotFound
	}
	return x, nil
}

func (r *testRequests) Update(ctx context.Context, x Request) error {
	r.byID[x.ID] = x
	return nil
}

func (r *testRequests) List(ctx context.Context, userID string, status RequestStatus) ([]Request, error) {
	out := make([]Request, 0)
	for _, x := range r.byID {
		if userID != "" && x.UserID != userID {
			continue
		}
		if status != "" && x.Status != status {
			continue
		}
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeLinker struct {
	attached map[string]string
	err      error
}

func (f *fakeLinker) AttachToRescue(ctx context.Context, userID, rescueID string) (users.User, error) {
	if f.err != nil {
		return users.User{}, f.err
	}
	f.attached[userID] = rescueID
	return users.User{ID: userID, Role: auth.RoleRescue, RescueID: rescueID}, nil
}

var (
	t0      = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	admin   = auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}
	regular = auth.Claims{UserID: "u-1", Role: auth.RoleUser}
)

func newTestService() (*Service, *testRepo, *testRequests, *fakeLinker) {
	repo := &testRepo{byID: map[string]Rescue{}}
	reqs := &testRequests{byID: map[string]Request{}}
	linker := &fakeLinker{attached: map[string]string{}}
	svc := NewService(repo, reqs, linker)
	svc.now = func() time.Time { return t0 }
	return svc, repo, reqs, linker
}

func validDetails() Details {
	return Details{
		Name:         "Cavy Haven",
		Location:     "Rosario",
		ContactEmail: "Hola@CavyHaven.org",
		Description:  "Guinea pigs and friends",
		Website:      "https://cavyhaven.org",
	}
}

func TestSubmitRequestValidation(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.SubmitRequest(context.Background(), regular, Details{Website: "ftp://x"})
	fields, ok := validation.Fields(err)
	require.True(t, ok)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "location")
	assert.Contains(t, fields, "contact_email")
	assert.Contains(t, fields, "website")

	_, err = svc.SubmitRequest(context.Background(), auth.Claims{}, validDetails())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SubmitRequest(context.Background(), auth.Claims{UserID: "r", Role: auth.RoleRescue, RescueID: "x"}, validDetails())
	_, ok = validation.Fields(err)
	assert.True(t, ok)
}

func TestSubmitRequestCollapsesPending(t *testing.T) {
	svc, _, reqs, _ := newTestService()
	ctx := context.Background()

	first, err := svc.SubmitRequest(ctx, regular, validDetails())
	require.NoError(t, err)
	assert.Equal(t, RequestPending, first.Status)
	assert.Equal(t, "hola@cavyhaven.org", first.Details.ContactEmail)

	// Otra pendiente colada (p.ej. por una carrera) para verificar que se retira.
	reqs.byID["stale"] = Request{
		ID: "stale", UserID: regular.UserID, Status: RequestPending,
		Details: validDetails(), CreatedAt: t0.Add(-time.Hour), UpdatedAt: t0.Add(-time.Hour),
	}

	svc.now = func() time.Time { return t0.Add(time.Minute) }
	d := validDetails()
	d.Name = "Cavy Haven Norte"
	second, err := svc.SubmitRequest(ctx, regular, d)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Cavy Haven Norte", reqs.byID[first.ID].Details.Name)
	assert.Equal(t, RequestWithdrawn, reqs.byID["stale"].Status)

	mine, err := svc.MyRequests(ctx, regular.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := svc.ListRequests(ctx, RequestPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestApproveCreatesRescueAndIsIdempotent(t *testing.T) {
	svc, repo, _, linker := newTestService()
	ctx := context.Background()

	req, err := svc.SubmitRequest(ctx, regular, validDetails())
	require.NoError(t, err)

	_, _, err = svc.Approve(ctx, regular, req.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	got, rescue, err := svc.Approve(ctx, admin, req.ID, "  bienvenidos  ")
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, got.Status)
	assert.Equal(t, rescue.ID, got.RescueID)
	assert.Equal(t, "bienvenidos", got.DecisionNote)
	assert.Equal(t, admin.UserID, got.DecidedBy)
	require.NotNil(t, got.DecidedAt)
	assert.Equal(t, "Cavy Haven", rescue.Name)
	assert.Equal(t, rescue.ID, linker.attached[regular.UserID])

	again, rescue2, err := svc.Approve(ctx, admin, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, rescue.ID, rescue2.ID)
	assert.Equal(t, got.ID, again.ID)
	assert.Len(t, repo.byID, 1)

	_, err = svc.Reject(ctx, admin, req.ID, "")
	assert.ErrorIs(t, err, ErrBadState)
}

func TestApproveLinkFailure(t *testing.T) {
	svc, _, reqs, linker := newTestService()
	ctx := context.Background()
	linker.err = users.ErrNotFound

	req, err := svc.SubmitRequest(ctx, regular, validDetails())
	require.NoError(t, err)

	_, _, err = svc.Approve(ctx, admin, req.ID, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, users.ErrNotFound))
	assert.Equal(t, RequestPending, reqs.byID[req.ID].Status)
}

func TestReject(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Reject(ctx, admin, "missing", "")
	assert.ErrorIs(t, err, ErrRequestNotFound)

	req, err := svc.SubmitRequest(ctx, regular, validDetails())
	require.NoError(t, err)

	got, err := svc.Reject(ctx, admin, req.ID, "faltan datos")
	require.NoError(t, err)
	assert.Equal(t, RequestRejected, got.Status)

	again, err := svc.Reject(ctx, admin, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "faltan datos", again.DecisionNote)

	_, _, err = svc.Approve(ctx, admin, req.ID, "")
	assert.ErrorIs(t, err, ErrBadState)
}

func TestUpdateAndDeletePermissions(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	repo.byID["r-1"] = Rescue{ID: "r-1", Name: "Norte", Location: "Salta", ContactEmail: "n@norte.org"}

	name := "Norte Cavy"
	_, err := svc.Update(ctx, auth.Claims{UserID: "s", Role: auth.RoleRescue, RescueID: "r-2"}, "r-1", UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Update(ctx, auth.Claims{UserID: "s", Role: auth.RoleRescue, RescueID: "r-1"}, "r-1", UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Norte Cavy", got.Name)
	assert.Equal(t, t0, got.UpdatedAt)

	empty := ""
	_, err = svc.Update(ctx, admin, "r-1", UpdateInput{Location: &empty})
	_, ok := validation.Fields(err)
	assert.True(t, ok)

	assert.ErrorIs(t, svc.Delete(ctx, regular, "r-1"), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, "r-1"))
	assert.ErrorIs(t, svc.Delete(ctx, admin, "r-1"), ErrNotFound)
}
