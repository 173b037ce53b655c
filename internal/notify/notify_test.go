package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

func sampleEvent() Event {
	return Event{
		SessionID:   "s-1",
		HeadGuestID: "hg-1",
		Op:          "place",
		GuestIDs:    []string{"g1"},
		GroupID:     "rg-1",
		Groups:      []model.RoomGroup{{ID: "rg-1", AllocationID: "A1", GuestIDs: []string{"g1", "g2"}}},
		OccurredAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStreamNotifier_Publishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	n := NewStreamNotifier(client, "rooming:changes", 1000)

	require.NoError(t, n.Notify(context.Background(), sampleEvent()))

	msgs, err := client.XRange(context.Background(), "rooming:changes", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "place", msgs[0].Values["op"])
	assert.Equal(t, "s-1", msgs[0].Values["session_id"])

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &got))
	assert.Equal(t, sampleEvent(), got)
}

func TestStreamNotifier_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	err = NewStreamNotifier(client, "rooming:changes", 0).Notify(context.Background(), sampleEvent())

	assert.ErrorContains(t, err, "publish to stream rooming:changes")
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	require.NoError(t, NewLogNotifier(zap.New(core)).Notify(context.Background(), sampleEvent()))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "room assignment updated", entry.Message)
	assert.Equal(t, "place", entry.ContextMap()["op"])
	assert.EqualValues(t, 2, entry.ContextMap()["assigned_guests"])
}

type notifierFunc func(ctx context.Context, ev Event) error

func (f notifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

func TestMulti_CallsEveryNotifier(t *testing.T) {
	calls := 0
	ok := notifierFunc(func(context.Context, Event) error { calls++; return nil })
	boom := notifierFunc(func(context.Context, Event) error { calls++; return errors.New("boom") })

	err := Multi{boom, ok, boom}.Notify(context.Background(), sampleEvent())

	assert.Equal(t, 3, calls)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}
