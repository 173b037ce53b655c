// Package repository reads party inventory from PostgreSQL.
// It uses pgx directly (no ORM). Room assignments are never written here;
// saving them is the backend's job.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/group-rooming/internal/inventory"
	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

// ErrNotFound is returned when a head guest has no allocations and no guests.
var ErrNotFound = inventory.ErrNotFound

// Querier is the subset of *pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PartyRepository loads allocations, guests and saved room groups.
type PartyRepository struct {
	db Querier
}

// NewPartyRepository constructs a PartyRepository.
func NewPartyRepository(db Querier) *PartyRepository {
	return &PartyRepository{db: db}
}

// Load returns everything booked for headGuestID, or ErrNotFound.
func (r *PartyRepository) Load(ctx context.Context, headGuestID string) (*model.Party, error) {
	allocations, err := r.ListAllocations(ctx, headGuestID)
	if err != nil {
		return nil, err
	}
	guests, err := r.ListGuests(ctx, headGuestID)
	if err != nil {
		return nil, err
	}
	if len(allocations) == 0 && len(guests) == 0 {
		return nil, fmt.Errorf("head guest %q: %w", headGuestID, ErrNotFound)
	}
	groups, err := r.ListRoomGroups(ctx, headGuestID)
	if err != nil {
		return nil, err
	}
	return &model.Party{
		HeadGuestID: headGuestID,
		Allocations: allocations,
		Guests:      guests,
		Groups:      groups,
	}, nil
}

// ListAllocations returns a head guest's rooms in booking order.
func (r *PartyRepository) ListAllocations(ctx context.Context, headGuestID string) ([]model.Allocation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, head_guest_id, room_type, max_capacity, hotel_name
		 FROM allocations
		 WHERE head_guest_id = $1
		 ORDER BY created_at ASC, id ASC`,
		headGuestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var out []model.Allocation
	for rows.Next() {
		var a model.Allocation
		if err := rows.Scan(&a.ID, &a.HeadGuestID, &a.RoomType, &a.MaxCapacity, &a.HotelName); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListGuests returns a head guest's sub-guests in registration order.
func (r *PartyRepository) ListGuests(ctx context.Context, headGuestID string) ([]model.Guest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), age, head_guest_id, COALESCE(family_tag, '')
		 FROM guests
		 WHERE head_guest_id = $1
		 ORDER BY created_at ASC, id ASC`,
		headGuestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()

	var out []model.Guest
	for rows.Next() {
		var g model.Guest
		if err := rows.Scan(&g.ID, &g.Name, &g.Email, &g.Phone, &g.Age, &g.HeadGuestID, &g.FamilyTag); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListRoomGroups returns the room groups last saved for a head guest.
func (r *PartyRepository) ListRoomGroups(ctx context.Context, headGuestID string) ([]model.RoomGroup, error) {
	rows, err := r.db.Query(ctx,
		`SELECT rg.id, rg.allocation_id, rg.guest_ids, COALESCE(rg.label, '')
		 FROM room_groups rg
		 JOIN allocations a ON a.id = rg.allocation_id
		 WHERE a.head_guest_id = $1
		 ORDER BY rg.id ASC`,
		headGuestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list room groups: %w", err)
	}
	defer rows.Close()

	var out []model.RoomGroup
	for rows.Next() {
		var g model.RoomGroup
		if err := rows.Scan(&g.ID, &g.AllocationID, &g.GuestIDs, &g.Label); err != nil {
			return nil, fmt.Errorf("scan room group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
