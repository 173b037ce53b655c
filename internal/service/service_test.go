package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/group-rooming/internal/allocation"
	"github.com/Shivanand-hulikatti/group-rooming/internal/inventory"
	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
	"github.com/Shivanand-hulikatti/group-rooming/internal/notify"
	"github.com/Shivanand-hulikatti/group-rooming/internal/session"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recorder) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Op
	}
	return out
}

func party(headGuestID string) *model.Party {
	return &model.Party{
		HeadGuestID: headGuestID,
		Allocations: []model.Allocation{
			{ID: "A1", HeadGuestID: headGuestID, RoomType: "Double", MaxCapacity: 2, HotelName: "Harbour"},
			{ID: "A2", HeadGuestID: headGuestID, RoomType: "Single", MaxCapacity: 1, HotelName: "Harbour"},
		},
		Guests: []model.Guest{
			{ID: "g1", Name: "Ada", HeadGuestID: headGuestID},
			{ID: "g2", Name: "Charles", HeadGuestID: headGuestID},
			{ID: "g3", Name: "Mary", HeadGuestID: headGuestID},
			{ID: "g4", Name: "Byron", HeadGuestID: headGuestID},
		},
	}
}

func newService(t *testing.T) (*RoomingService, *recorder) {
	t.Helper()
	source := inventory.SourceFunc(func(_ context.Context, id string) (*model.Party, error) {
		if id != "hg-1" {
			return nil, fmt.Errorf("head guest %q: %w", id, inventory.ErrNotFound)
		}
		return party(id), nil
	})
	n := 0
	ids := func() string { n++; return fmt.Sprintf("rg-%d", n) }
	rec := &recorder{}
	sessions := session.NewManager(time.Hour, time.Hour, zap.NewNop())
	return NewRoomingService(source, sessions, rec, zap.NewNop(), allocation.WithIDGenerator(ids)), rec
}

func open(t *testing.T, svc *RoomingService) string {
	t.Helper()
	snap, err := svc.Open(context.Background(), model.OpenSessionRequest{HeadGuestID: " hg-1 "})
	require.NoError(t, err)
	return snap.SessionID
}

func TestOpen(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	snap, err := svc.Open(ctx, model.OpenSessionRequest{HeadGuestID: "hg-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, "hg-1", snap.HeadGuestID)
	assert.Len(t, snap.Allocations, 2)
	assert.Equal(t, []string{"g1", "g2", "g3", "g4"}, snap.Unassigned)
	assert.Equal(t, []model.RoomGroup{}, snap.Groups)
	assert.Equal(t, model.Summary{TotalCapacity: 3, Unassigned: 4, EmptyRooms: 2}, snap.Summary)

	_, err = svc.Open(ctx, model.OpenSessionRequest{HeadGuestID: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Open(ctx, model.OpenSessionRequest{HeadGuestID: "hg-404"})
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestOpen_SourceFailure(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewRoomingService(
		inventory.SourceFunc(func(context.Context, string) (*model.Party, error) { return nil, boom }),
		session.NewManager(time.Hour, time.Hour, zap.NewNop()),
		&recorder{}, zap.NewNop(),
	)

	_, err := svc.Open(context.Background(), model.OpenSessionRequest{HeadGuestID: "hg-1"})

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, inventory.ErrNotFound)
}

func TestOpen_InvalidParty(t *testing.T) {
	svc := NewRoomingService(
		inventory.SourceFunc(func(context.Context, string) (*model.Party, error) {
			p := party("hg-1")
			p.Allocations[0].MaxCapacity = -1
			return p, nil
		}),
		session.NewManager(time.Hour, time.Hour, zap.NewNop()),
		&recorder{}, zap.NewNop(),
	)

	_, err := svc.Open(context.Background(), model.OpenSessionRequest{HeadGuestID: "hg-1"})

	assert.ErrorIs(t, err, allocation.ErrInvalidParty)
}

func TestPlaceAndRemove(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	id := open(t, svc)

	group, err := svc.Place(ctx, id, model.PlaceRequest{GuestID: "g1", AllocationID: "A2"})
	require.NoError(t, err)
	assert.Equal(t, model.RoomGroup{ID: "rg-1", AllocationID: "A2", GuestIDs: []string{"g1"}}, group)

	_, err = svc.Place(ctx, id, model.PlaceRequest{GuestID: "g2", AllocationID: "A2"})
	assert.ErrorIs(t, err, allocation.ErrCapacityExceeded)

	_, err = svc.Place(ctx, id, model.PlaceRequest{GuestID: "nobody", AllocationID: "A2"})
	assert.ErrorIs(t, err, allocation.ErrUnknownGuest)

	_, err = svc.Place(ctx, id, model.PlaceRequest{GuestID: "g2"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.Remove(ctx, id, "g1"))
	snap, err := svc.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, snap.Groups)

	assert.Equal(t, []string{"place", "remove"}, rec.ops())
	assert.Equal(t, id, rec.events[0].SessionID)
	assert.Equal(t, "hg-1", rec.events[0].HeadGuestID)
}

func TestAutoFill_PartialIsNotAnError(t *testing.T) {
	svc, rec := newService(t)
	id := open(t, svc)

	resp, err := svc.AutoFill(context.Background(), id, model.AutoFillRequest{})

	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "g3"}, resp.Placed)
	assert.Equal(t, []string{"g4"}, resp.Unplaced)
	assert.Contains(t, resp.Warning, "1 of 4")
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, []string{"autofill"}, rec.ops())
}

func TestAutoFill_Subset(t *testing.T) {
	svc, _ := newService(t)
	id := open(t, svc)

	resp, err := svc.AutoFill(context.Background(), id, model.AutoFillRequest{
		GuestIDs:      []string{"g3", " g4 "},
		AllocationIDs: []string{"A2", "A1"},
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, []string{}, resp.Unplaced)
	assert.Equal(t, []model.RoomGroup{
		{ID: "rg-2", AllocationID: "A1", GuestIDs: []string{"g4"}},
		{ID: "rg-1", AllocationID: "A2", GuestIDs: []string{"g3"}},
	}, resp.Groups)

	_, err = svc.AutoFill(context.Background(), id, model.AutoFillRequest{AllocationIDs: []string{"A9"}})
	assert.ErrorIs(t, err, allocation.ErrUnknownAllocation)
}

func TestRenameClearValidate(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()
	id := open(t, svc)

	_, err := svc.Place(ctx, id, model.PlaceRequest{GuestID: "g1", AllocationID: "A1"})
	require.NoError(t, err)

	group, err := svc.Rename(ctx, id, "rg-1", model.RenameGroupRequest{Label: "  Parents "})
	require.NoError(t, err)
	assert.Equal(t, "Parents", group.Label)

	_, err = svc.Rename(ctx, id, "rg-9", model.RenameGroupRequest{Label: "x"})
	assert.ErrorIs(t, err, allocation.ErrUnknownGroup)

	violations, err := svc.Validate(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, violations)

	snap, err := svc.Clear(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, snap.Groups)
	assert.Len(t, snap.Unassigned, 4)

	assert.Equal(t, []string{"place", "rename", "clear"}, rec.ops())
}

func TestExport(t *testing.T) {
	svc, _ := newService(t)
	id := open(t, svc)

	data, err := svc.Export(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))
}

func TestClose(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := open(t, svc)

	require.NoError(t, svc.Close(ctx, id))

	_, err := svc.Snapshot(ctx, id)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.ErrorIs(t, svc.Close(ctx, id), session.ErrNotFound)
}

func TestNotifierFailureKeepsChange(t *testing.T) {
	svc, rec := newService(t)
	rec.err = errors.New("redis down")
	ctx := context.Background()
	id := open(t, svc)

	_, err := svc.Place(ctx, id, model.PlaceRequest{GuestID: "g1", AllocationID: "A1"})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Len(t, snap.Groups, 1)
}
