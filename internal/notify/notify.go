// Package notify delivers room assignment changes to whoever needs them:
// the log, a Redis stream, or both.
package notify

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

// Event is one state change of an editing session.
type Event struct {
	SessionID   string            `json:"session_id"`
	HeadGuestID string            `json:"head_guest_id"`
	Op          string            `json:"op"`
	GuestIDs    []string          `json:"guest_ids,omitempty"`
	GroupID     string            `json:"group_id,omitempty"`
	Groups      []model.RoomGroup `json:"groups"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// Notifier receives change events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// LogNotifier records the update that would be saved.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event. It never fails.
func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	occupied := 0
	for _, g := range ev.Groups {
		occupied += len(g.GuestIDs)
	}
	n.logger.Info("room assignment updated",
		zap.String("session_id", ev.SessionID),
		zap.String("head_guest_id", ev.HeadGuestID),
		zap.String("op", ev.Op),
		zap.Strings("guest_ids", ev.GuestIDs),
		zap.String("group_id", ev.GroupID),
		zap.Int("room_groups", len(ev.Groups)),
		zap.Int("assigned_guests", occupied),
	)
	return nil
}

// Multi fans an event out to several notifiers. Every notifier is called even
// when an earlier one fails; the errors are combined.
type Multi []Notifier

// Notify delivers ev to every notifier.
func (m Multi) Notify(ctx context.Context, ev Event) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.Notify(ctx, ev))
	}
	return err
}
