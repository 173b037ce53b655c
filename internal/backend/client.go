// Package backend is a client for the events platform backend API, used as
// an inventory source for parties.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/group-rooming/internal/config"
	"github.com/Shivanand-hulikatti/group-rooming/internal/inventory"
	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

// ErrNotFound is returned when the backend does not know a head guest.
var ErrNotFound = inventory.ErrNotFound

// apiError is the backend's JSON error body.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client reads allocations, guests and saved room groups from the backend.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a backend client from configuration.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		}).
		SetHeader("Accept", "application/json").
		SetError(&apiError{})
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	return &Client{http: c, logger: logger}
}

// Load fetches the party for headGuestID.
func (c *Client) Load(ctx context.Context, headGuestID string) (*model.Party, error) {
	party := &model.Party{HeadGuestID: headGuestID}

	if err := c.get(ctx, headGuestID, "allocations", &party.Allocations); err != nil {
		return nil, err
	}
	if err := c.get(ctx, headGuestID, "guests", &party.Guests); err != nil {
		return nil, err
	}
	if err := c.get(ctx, headGuestID, "room-groups", &party.Groups); err != nil {
		return nil, err
	}

	c.logger.Debug("loaded party from backend",
		zap.String("head_guest_id", headGuestID),
		zap.Int("allocations", len(party.Allocations)),
		zap.Int("guests", len(party.Guests)),
		zap.Int("room_groups", len(party.Groups)),
	)
	return party, nil
}

func (c *Client) get(ctx context.Context, headGuestID, resource string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", headGuestID).
		SetResult(out).
		Get("/head-guests/{id}/" + resource)
	if err != nil {
		c.logger.Error("backend request failed",
			zap.String("resource", resource),
			zap.String("head_guest_id", headGuestID),
			zap.Error(err),
		)
		return fmt.Errorf("fetch %s: %w", resource, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("head guest %q: %w", headGuestID, ErrNotFound)
	case resp.IsError():
		msg := resp.Status()
		if e, ok := resp.Error().(*apiError); ok {
			if e.Error != "" {
				msg = e.Error
			} else if e.Message != "" {
				msg = e.Message
			}
		}
		c.logger.Error("backend returned error",
			zap.String("resource", resource),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", msg),
		)
		return fmt.Errorf("fetch %s: backend status %d: %s", resource, resp.StatusCode(), msg)
	}
	return nil
}
