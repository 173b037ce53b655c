// Package model defines the core domain types for group room assignment.
package model

// Allocation is a bookable room at one hotel, reserved for one head guest's party.
// Allocations are created upstream and are read-only here.
type Allocation struct {
	ID          string `json:"id" yaml:"id"`
	HeadGuestID string `json:"head_guest_id" yaml:"head_guest_id"`
	RoomType    string `json:"room_type" yaml:"room_type"`
	MaxCapacity int    `json:"max_capacity" yaml:"max_capacity"`
	HotelName   string `json:"hotel_name" yaml:"hotel_name"`
}

// Guest is a sub-guest belonging to a head guest's party.
//
// RoomGroupID is a back-reference derived from room group membership on output;
// it is ignored when a party is loaded.
type Guest struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Age         *int   `json:"age,omitempty" yaml:"age,omitempty"`
	HeadGuestID string `json:"head_guest_id" yaml:"head_guest_id"`
	RoomGroupID string `json:"room_group_id,omitempty" yaml:"-"`
	FamilyTag   string `json:"family_tag,omitempty" yaml:"family_tag,omitempty"`
}

// RoomGroup is a set of guests occupying one allocation.
type RoomGroup struct {
	ID           string   `json:"id" yaml:"id"`
	AllocationID string   `json:"allocation_id" yaml:"allocation_id"`
	GuestIDs     []string `json:"guest_ids" yaml:"guest_ids"`
	Label        string   `json:"label,omitempty" yaml:"label,omitempty"`
}

// Size returns the number of guests in the group.
func (g *RoomGroup) Size() int {
	return len(g.GuestIDs)
}

// Has reports whether guestID is a member of the group.
func (g *RoomGroup) Has(guestID string) bool {
	for _, id := range g.GuestIDs {
		if id == guestID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate engine state.
func (g RoomGroup) Clone() RoomGroup {
	ids := make([]string, len(g.GuestIDs))
	copy(ids, g.GuestIDs)
	g.GuestIDs = ids
	return g
}

// Party is everything an inventory source knows about one head guest:
// the rooms booked for them, their sub-guests and any saved room groups.
type Party struct {
	HeadGuestID string       `json:"head_guest_id" yaml:"head_guest_id"`
	Allocations []Allocation `json:"allocations" yaml:"allocations"`
	Guests      []Guest      `json:"guests" yaml:"guests"`
	Groups      []RoomGroup  `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Summary is a headline count of a party's room assignment.
type Summary struct {
	TotalCapacity int `json:"total_capacity"`
	Assigned      int `json:"assigned"`
	Unassigned    int `json:"unassigned"`
	OpenRooms     int `json:"open_rooms"`
	EmptyRooms    int `json:"empty_rooms"`
}

// Snapshot is the full view of a session rendered by clients.
type Snapshot struct {
	SessionID   string       `json:"session_id"`
	HeadGuestID string       `json:"head_guest_id"`
	Allocations []Allocation `json:"allocations"`
	Guests      []Guest      `json:"guests"`
	Groups      []RoomGroup  `json:"groups"`
	Unassigned  []string     `json:"unassigned"`
	Summary     Summary      `json:"summary"`
}

// OpenSessionRequest is the payload for starting an editing session.
type OpenSessionRequest struct {
	HeadGuestID string `json:"head_guest_id"`
}

// PlaceRequest is the payload for moving a guest into an allocation.
type PlaceRequest struct {
	GuestID      string `json:"guest_id"`
	AllocationID string `json:"allocation_id"`
}

// AutoFillRequest is the payload for automatic placement. Empty lists mean
// "every unassigned guest" and "every allocation" respectively.
type AutoFillRequest struct {
	GuestIDs      []string `json:"guest_ids,omitempty"`
	AllocationIDs []string `json:"allocation_ids,omitempty"`
}

// AutoFillResponse reports the grouping after auto-fill and any guests that
// did not fit.
type AutoFillResponse struct {
	Groups   []RoomGroup `json:"groups"`
	Placed   []string    `json:"placed"`
	Unplaced []string    `json:"unplaced"`
	Warning  string      `json:"warning,omitempty"`
}

// RenameGroupRequest is the payload for labelling a room group.
type RenameGroupRequest struct {
	Label string `json:"label"`
}

// Violation is one broken invariant reported by validation.
type Violation struct {
	Kind         string `json:"kind"`
	GroupID      string `json:"group_id,omitempty"`
	AllocationID string `json:"allocation_id,omitempty"`
	GuestID      string `json:"guest_id,omitempty"`
	Detail       string `json:"detail"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
