// Package service implements input validation and orchestration between HTTP
// handlers, the inventory source, editing sessions and change notifiers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/group-rooming/internal/allocation"
	"github.com/Shivanand-hulikatti/group-rooming/internal/export"
	"github.com/Shivanand-hulikatti/group-rooming/internal/inventory"
	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
	"github.com/Shivanand-hulikatti/group-rooming/internal/notify"
	"github.com/Shivanand-hulikatti/group-rooming/internal/session"
)

// ErrInvalidInput marks a request rejected before reaching the engine.
var ErrInvalidInput = errors.New("invalid input")

const maxLabelLength = 100

// RoomingService orchestrates room assignment editing sessions.
type RoomingService struct {
	source        inventory.Source
	sessions      *session.Manager
	notifier      notify.Notifier
	logger        *zap.Logger
	notifyTimeout time.Duration
	engineOpts    []allocation.Option
}

// NewRoomingService constructs a RoomingService with its dependencies.
// engineOpts are applied to every engine the service creates.
func NewRoomingService(
	source inventory.Source,
	sessions *session.Manager,
	notifier notify.Notifier,
	logger *zap.Logger,
	engineOpts ...allocation.Option,
) *RoomingService {
	return &RoomingService{
		source:        source,
		sessions:      sessions,
		notifier:      notifier,
		logger:        logger,
		notifyTimeout: 5 * time.Second,
		engineOpts:    engineOpts,
	}
}

// Open loads a head guest's party and starts an editing session for it.
func (s *RoomingService) Open(ctx context.Context, req model.OpenSessionRequest) (model.Snapshot, error) {
	headGuestID := strings.TrimSpace(req.HeadGuestID)
	if headGuestID == "" {
		return model.Snapshot{}, invalid("head_guest_id is required")
	}

	party, err := s.source.Load(ctx, headGuestID)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			return model.Snapshot{}, err
		}
		return model.Snapshot{}, fmt.Errorf("load party: %w", err)
	}
	if party.HeadGuestID == "" {
		party.HeadGuestID = headGuestID
	}

	engine, err := allocation.New(*party, s.engineOpts...)
	if err != nil {
		s.logger.Error("party rejected",
			zap.String("head_guest_id", headGuestID),
			zap.Error(err),
		)
		return model.Snapshot{}, err
	}

	sess := s.sessions.Create(engine)
	var snap model.Snapshot
	_ = sess.Do(func(e *allocation.Engine) error {
		e.Subscribe(s.publish(sess))
		snap = snapshot(sess.ID, e)
		return nil
	})
	return snap, nil
}

// Snapshot returns the current state of a session.
func (s *RoomingService) Snapshot(_ context.Context, sessionID string) (model.Snapshot, error) {
	var snap model.Snapshot
	err := s.do(sessionID, func(e *allocation.Engine) error {
		snap = snapshot(sessionID, e)
		return nil
	})
	return snap, err
}

// Place moves a guest into an allocation's room group.
func (s *RoomingService) Place(_ context.Context, sessionID string, req model.PlaceRequest) (model.RoomGroup, error) {
	req.GuestID = strings.TrimSpace(req.GuestID)
	req.AllocationID = strings.TrimSpace(req.AllocationID)
	if req.GuestID == "" {
		return model.RoomGroup{}, invalid("guest_id is required")
	}
	if req.AllocationID == "" {
		return model.RoomGroup{}, invalid("allocation_id is required")
	}

	var group model.RoomGroup
	err := s.do(sessionID, func(e *allocation.Engine) error {
		var err error
		group, err = e.Place(req.GuestID, req.AllocationID)
		return err
	})
	return group, err
}

// Remove takes a guest out of their room group.
func (s *RoomingService) Remove(_ context.Context, sessionID, guestID string) error {
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return invalid("guest id is required")
	}
	return s.do(sessionID, func(e *allocation.Engine) error {
		return e.Remove(guestID)
	})
}

// AutoFill places guests automatically. Running out of capacity is not an
// error here: the guests that fit stay placed and the rest are reported in
// Unplaced together with a warning.
func (s *RoomingService) AutoFill(_ context.Context, sessionID string, req model.AutoFillRequest) (model.AutoFillResponse, error) {
	guestIDs := trimAll(req.GuestIDs)
	allocationIDs := trimAll(req.AllocationIDs)

	var resp model.AutoFillResponse
	err := s.do(sessionID, func(e *allocation.Engine) error {
		res, err := e.AutoFill(guestIDs, allocationIDs)
		if err != nil && !errors.Is(err, allocation.ErrNoCapacity) {
			return err
		}
		resp = model.AutoFillResponse{
			Groups:   nonNil(res.Groups),
			Placed:   nonNil(res.Placed),
			Unplaced: nonNil(res.Unplaced),
		}
		if err != nil {
			resp.Warning = err.Error()
			s.logger.Warn("auto-fill incomplete",
				zap.String("session_id", sessionID),
				zap.Strings("unplaced", res.Unplaced),
			)
		}
		return nil
	})
	return resp, err
}

// Rename labels a room group.
func (s *RoomingService) Rename(_ context.Context, sessionID, groupID string, req model.RenameGroupRequest) (model.RoomGroup, error) {
	groupID = strings.TrimSpace(groupID)
	label := strings.TrimSpace(req.Label)
	if groupID == "" {
		return model.RoomGroup{}, invalid("room group id is required")
	}
	if len(label) > maxLabelLength {
		return model.RoomGroup{}, invalid(fmt.Sprintf("label cannot exceed %d characters", maxLabelLength))
	}

	var group model.RoomGroup
	err := s.do(sessionID, func(e *allocation.Engine) error {
		var err error
		group, err = e.Rename(groupID, label)
		return err
	})
	return group, err
}

// Clear unassigns every guest of the session.
func (s *RoomingService) Clear(_ context.Context, sessionID string) (model.Snapshot, error) {
	var snap model.Snapshot
	err := s.do(sessionID, func(e *allocation.Engine) error {
		e.Clear()
		snap = snapshot(sessionID, e)
		return nil
	})
	return snap, err
}

// Validate reports broken invariants in the session's grouping.
func (s *RoomingService) Validate(_ context.Context, sessionID string) ([]model.Violation, error) {
	out := []model.Violation{}
	err := s.do(sessionID, func(e *allocation.Engine) error {
		for _, v := range e.Validate() {
			out = append(out, model.Violation{
				Kind:         string(v.Kind),
				GroupID:      v.GroupID,
				AllocationID: v.AllocationID,
				GuestID:      v.GuestID,
				Detail:       v.Detail,
			})
		}
		return nil
	})
	if len(out) > 0 {
		s.logger.Error("room assignment invariant violated",
			zap.String("session_id", sessionID),
			zap.Int("violations", len(out)),
		)
	}
	return out, err
}

// Export renders the session's rooming list as an XLSX workbook.
func (s *RoomingService) Export(ctx context.Context, sessionID string) ([]byte, error) {
	snap, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	data, err := export.RoomingList(snap)
	if err != nil {
		return nil, fmt.Errorf("export rooming list: %w", err)
	}
	return data, nil
}

// Close ends a session.
func (s *RoomingService) Close(_ context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func (s *RoomingService) do(sessionID string, fn func(e *allocation.Engine) error) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return sess.Do(fn)
}

// publish forwards engine changes to the notifier. Delivery failures are
// logged and never undo the change.
func (s *RoomingService) publish(sess *session.Session) allocation.Listener {
	return func(c allocation.Change) {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		ev := notify.Event{
			SessionID:   sess.ID,
			HeadGuestID: sess.HeadGuestID,
			Op:          string(c.Op),
			GuestIDs:    c.GuestIDs,
			GroupID:     c.GroupID,
			Groups:      nonNil(c.Groups),
			OccurredAt:  time.Now().UTC(),
		}
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.logger.Warn("change notification failed",
				zap.String("session_id", sess.ID),
				zap.String("op", ev.Op),
				zap.Error(err),
			)
		}
	}
}

func snapshot(sessionID string, e *allocation.Engine) model.Snapshot {
	return model.Snapshot{
		SessionID:   sessionID,
		HeadGuestID: e.HeadGuestID(),
		Allocations: nonNil(e.Allocations()),
		Guests:      nonNil(e.Guests()),
		Groups:      nonNil(e.Groups()),
		Unassigned:  nonNil(e.Unassigned()),
		Summary:     e.Summary(),
	}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// trimAll trims every id and maps an empty list to nil, which the engine reads
// as "all".
func trimAll(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strings.TrimSpace(id)
	}
	return out
}

// nonNil keeps empty lists as [] rather than null in JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
