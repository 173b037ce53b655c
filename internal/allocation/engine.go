// Package allocation keeps a party's guests assigned to capacity-bounded rooms.
//
// An Engine owns the room groups of one head guest's party. Every mutation goes
// through its methods, which enforce the capacity invariant and leave state
// unchanged when they fail. Membership is stored once, on the room group; a
// guest's room group is always derived by looking it up.
//
// An Engine is not safe for concurrent use. Hosts serving several editing
// sessions give each session its own Engine.
package allocation

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
	"github.com/google/uuid"
)

// ErrUnknownGuest is returned when a guest id does not belong to the party.
var ErrUnknownGuest = errors.New("unknown guest")

// ErrUnknownAllocation is returned when an allocation id is not one of the party's rooms.
var ErrUnknownAllocation = errors.New("unknown allocation")

// ErrUnknownGroup is returned when a room group id does not exist.
var ErrUnknownGroup = errors.New("unknown room group")

// ErrCapacityExceeded is returned when a guest cannot join a room because it is full.
var ErrCapacityExceeded = errors.New("room is at capacity")

// ErrNoCapacity is returned by AutoFill when some guests could not be placed.
var ErrNoCapacity = errors.New("not enough room capacity for every guest")

// ErrInvalidParty is returned by New when the allocations or guests are malformed.
var ErrInvalidParty = errors.New("invalid party")

// Op names the mutation that produced a Change.
type Op string

const (
	OpPlace    Op = "place"
	OpRemove   Op = "remove"
	OpAutoFill Op = "autofill"
	OpRename   Op = "rename"
	OpClear    Op = "clear"
)

// Change is emitted after every mutation that altered the grouping.
type Change struct {
	Op       Op                `json:"op"`
	GuestIDs []string          `json:"guest_ids,omitempty"`
	GroupID  string            `json:"group_id,omitempty"`
	Groups   []model.RoomGroup `json:"groups"`
}

// Listener receives changes synchronously, after the mutation has completed.
type Listener func(Change)

// Option customises an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the room group id generator (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithListener registers a change listener.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// Engine assigns the guests of one party to its allocations.
type Engine struct {
	headGuestID string

	allocations []model.Allocation
	allocIndex  map[string]int

	guests     []model.Guest
	guestIndex map[string]int

	groups map[string]*model.RoomGroup

	newID     func() string
	listeners []Listener
}

// New builds an engine for a party. Saved room groups in party.Groups are
// adopted as the starting state after they pass validation; empty ones are
// dropped.
func New(party model.Party, opts ...Option) (*Engine, error) {
	e := &Engine{
		headGuestID: party.HeadGuestID,
		allocIndex:  make(map[string]int, len(party.Allocations)),
		guestIndex:  make(map[string]int, len(party.Guests)),
		groups:      make(map[string]*model.RoomGroup, len(party.Groups)),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, a := range party.Allocations {
		switch {
		case a.ID == "":
			return nil, fmt.Errorf("allocation without id: %w", ErrInvalidParty)
		case a.MaxCapacity < 0:
			return nil, fmt.Errorf("allocation %q has negative capacity: %w", a.ID, ErrInvalidParty)
		case !e.sameParty(a.HeadGuestID):
			return nil, fmt.Errorf("allocation %q belongs to head guest %q: %w", a.ID, a.HeadGuestID, ErrInvalidParty)
		}
		if _, dup := e.allocIndex[a.ID]; dup {
			return nil, fmt.Errorf("duplicate allocation %q: %w", a.ID, ErrInvalidParty)
		}
		e.allocIndex[a.ID] = len(e.allocations)
		e.allocations = append(e.allocations, a)
	}

	for _, g := range party.Guests {
		switch {
		case g.ID == "":
			return nil, fmt.Errorf("guest without id: %w", ErrInvalidParty)
		case !e.sameParty(g.HeadGuestID):
			return nil, fmt.Errorf("guest %q belongs to head guest %q: %w", g.ID, g.HeadGuestID, ErrInvalidParty)
		}
		if _, dup := e.guestIndex[g.ID]; dup {
			return nil, fmt.Errorf("duplicate guest %q: %w", g.ID, ErrInvalidParty)
		}
		g.RoomGroupID = ""
		e.guestIndex[g.ID] = len(e.guests)
		e.guests = append(e.guests, g)
	}

	seeds := make([]model.RoomGroup, 0, len(party.Groups))
	for _, g := range party.Groups {
		if len(g.GuestIDs) == 0 {
			continue
		}
		g = g.Clone()
		if g.ID == "" {
			g.ID = e.newID()
		}
		if _, dup := e.groups[g.ID]; dup {
			return nil, fmt.Errorf("duplicate room group %q: %w", g.ID, ErrInvalidParty)
		}
		e.groups[g.ID] = &g
		seeds = append(seeds, g)
	}
	if violations := e.check(e.sortGroups(seeds)); len(violations) > 0 {
		return nil, fmt.Errorf("seed room groups: %w", violations[0])
	}
	return e, nil
}

func (e *Engine) sameParty(headGuestID string) bool {
	return e.headGuestID == "" || headGuestID == "" || headGuestID == e.headGuestID
}

// HeadGuestID returns the party leader this engine was built for.
func (e *Engine) HeadGuestID() string {
	return e.headGuestID
}

// Subscribe registers an additional change listener.
func (e *Engine) Subscribe(l Listener) {
	if l != nil {
		e.listeners = append(e.listeners, l)
	}
}

// ─── Operations ───────────────────────────────────────────────────────────────

// Place moves a guest into the room group of allocationID, creating the group
// if the room is empty. A guest already in another room leaves it first and an
// emptied group is deleted. Placing a guest in the room they already occupy
// is a no-op.
//
// On error nothing changes.
func (e *Engine) Place(guestID, allocationID string) (model.RoomGroup, error) {
	if _, ok := e.guestIndex[guestID]; !ok {
		return model.RoomGroup{}, fmt.Errorf("place guest %q: %w", guestID, ErrUnknownGuest)
	}
	alloc, ok := e.allocation(allocationID)
	if !ok {
		return model.RoomGroup{}, fmt.Errorf("place guest %q: allocation %q: %w", guestID, allocationID, ErrUnknownAllocation)
	}

	current := e.groupOf(guestID)
	if current != nil && current.AllocationID == allocationID {
		return current.Clone(), nil
	}

	target := e.groupFor(allocationID)
	if e.spare(alloc, target) <= 0 {
		return model.RoomGroup{}, fmt.Errorf("place guest %q in allocation %q (capacity %d): %w",
			guestID, allocationID, alloc.MaxCapacity, ErrCapacityExceeded)
	}

	if current != nil {
		e.detach(current, guestID)
	}
	if target == nil {
		target = e.open(allocationID)
	}
	target.GuestIDs = append(target.GuestIDs, guestID)

	e.emit(Change{Op: OpPlace, GuestIDs: []string{guestID}, GroupID: target.ID})
	return target.Clone(), nil
}

// Remove takes a guest out of whatever room group holds them. Removing an
// unassigned guest is a no-op.
func (e *Engine) Remove(guestID string) error {
	if _, ok := e.guestIndex[guestID]; !ok {
		return fmt.Errorf("remove guest %q: %w", guestID, ErrUnknownGuest)
	}
	current := e.groupOf(guestID)
	if current == nil {
		return nil
	}
	groupID := current.ID
	e.detach(current, guestID)
	e.emit(Change{Op: OpRemove, GuestIDs: []string{guestID}, GroupID: groupID})
	return nil
}

// Rename sets the display label of a room group.
func (e *Engine) Rename(groupID, label string) (model.RoomGroup, error) {
	g, ok := e.groups[groupID]
	if !ok {
		return model.RoomGroup{}, fmt.Errorf("rename %q: %w", groupID, ErrUnknownGroup)
	}
	if g.Label == label {
		return g.Clone(), nil
	}
	g.Label = label
	e.emit(Change{Op: OpRename, GroupID: groupID})
	return g.Clone(), nil
}

// Clear unassigns every guest and drops all room groups.
func (e *Engine) Clear() {
	if len(e.groups) == 0 {
		return
	}
	var removed []string
	for _, g := range e.Groups() {
		removed = append(removed, g.GuestIDs...)
	}
	clear(e.groups)
	e.emit(Change{Op: OpClear, GuestIDs: removed})
}

// ─── Queries ──────────────────────────────────────────────────────────────────

// Groups returns a copy of every room group, ordered by allocation.
func (e *Engine) Groups() []model.RoomGroup {
	out := make([]model.RoomGroup, 0, len(e.groups))
	for _, g := range e.groups {
		out = append(out, g.Clone())
	}
	return e.sortGroups(out)
}

// Group returns a room group by id.
func (e *Engine) Group(groupID string) (model.RoomGroup, bool) {
	g, ok := e.groups[groupID]
	if !ok {
		return model.RoomGroup{}, false
	}
	return g.Clone(), true
}

// GroupOf returns the room group currently holding guestID.
func (e *Engine) GroupOf(guestID string) (model.RoomGroup, bool) {
	g := e.groupOf(guestID)
	if g == nil {
		return model.RoomGroup{}, false
	}
	return g.Clone(), true
}

// Allocations returns the party's rooms in their original order.
func (e *Engine) Allocations() []model.Allocation {
	return slices.Clone(e.allocations)
}

// Guests returns the party's guests in their original order with RoomGroupID
// filled in from current membership.
func (e *Engine) Guests() []model.Guest {
	owner := make(map[string]string)
	for _, g := range e.groups {
		for _, id := range g.GuestIDs {
			owner[id] = g.ID
		}
	}
	out := slices.Clone(e.guests)
	for i := range out {
		out[i].RoomGroupID = owner[out[i].ID]
	}
	return out
}

// Unassigned lists the guests not in any room group, in original order.
func (e *Engine) Unassigned() []string {
	var out []string
	for _, g := range e.guests {
		if e.groupOf(g.ID) == nil {
			out = append(out, g.ID)
		}
	}
	return out
}

// Remaining reports how many more guests allocationID can take.
func (e *Engine) Remaining(allocationID string) (int, error) {
	alloc, ok := e.allocation(allocationID)
	if !ok {
		return 0, fmt.Errorf("remaining %q: %w", allocationID, ErrUnknownAllocation)
	}
	return e.spare(alloc, e.groupFor(allocationID)), nil
}

// Summary counts capacity and assignments across the party.
func (e *Engine) Summary() model.Summary {
	var s model.Summary
	for _, a := range e.allocations {
		s.TotalCapacity += a.MaxCapacity
		if g := e.groupFor(a.ID); g != nil {
			s.OpenRooms++
			s.Assigned += g.Size()
		} else {
			s.EmptyRooms++
		}
	}
	s.Unassigned = len(e.guests) - s.Assigned
	return s
}

// ─── Internals ────────────────────────────────────────────────────────────────

func (e *Engine) allocation(id string) (model.Allocation, bool) {
	i, ok := e.allocIndex[id]
	if !ok {
		return model.Allocation{}, false
	}
	return e.allocations[i], true
}

// groupOf scans the room groups for guestID.
func (e *Engine) groupOf(guestID string) *model.RoomGroup {
	for _, g := range e.groups {
		if g.Has(guestID) {
			return g
		}
	}
	return nil
}

// groupFor returns the room group occupying allocationID. There is at most one.
func (e *Engine) groupFor(allocationID string) *model.RoomGroup {
	for _, g := range e.groups {
		if g.AllocationID == allocationID {
			return g
		}
	}
	return nil
}

func (e *Engine) spare(alloc model.Allocation, g *model.RoomGroup) int {
	if g == nil {
		return alloc.MaxCapacity
	}
	return alloc.MaxCapacity - g.Size()
}

func (e *Engine) open(allocationID string) *model.RoomGroup {
	g := &model.RoomGroup{ID: e.newID(), AllocationID: allocationID}
	e.groups[g.ID] = g
	return g
}

// detach removes guestID from g and deletes g once it is empty.
func (e *Engine) detach(g *model.RoomGroup, guestID string) {
	g.GuestIDs = slices.DeleteFunc(g.GuestIDs, func(id string) bool { return id == guestID })
	if len(g.GuestIDs) == 0 {
		delete(e.groups, g.ID)
	}
}

func (e *Engine) emit(c Change) {
	if len(e.listeners) == 0 {
		return
	}
	c.Groups = e.Groups()
	for _, l := range e.listeners {
		l(c)
	}
}

// sortGroups orders groups by allocation position, unknown allocations last.
func (e *Engine) sortGroups(groups []model.RoomGroup) []model.RoomGroup {
	pos := func(g model.RoomGroup) int {
		if i, ok := e.allocIndex[g.AllocationID]; ok {
			return i
		}
		return len(e.allocations)
	}
	slices.SortStableFunc(groups, func(a, b model.RoomGroup) int {
		if c := cmp.Compare(pos(a), pos(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return groups
}
