package allocation

import (
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

// ErrInvariantViolation marks a broken room assignment invariant. The engine's
// operations never produce one; seeing it means the engine has a bug or was
// seeded with bad data.
var ErrInvariantViolation = errors.New("room assignment invariant violated")

// ViolationKind classifies a broken invariant.
type ViolationKind string

const (
	ViolationOverCapacity      ViolationKind = "over_capacity"
	ViolationDuplicateMember   ViolationKind = "duplicate_member"
	ViolationUnknownAllocation ViolationKind = "unknown_allocation"
	ViolationUnknownGuest      ViolationKind = "unknown_guest"
	ViolationEmptyGroup        ViolationKind = "empty_group"
	ViolationSharedAllocation  ViolationKind = "shared_allocation"
)

// Violation describes one broken invariant. It unwraps to ErrInvariantViolation.
type Violation struct {
	Kind         ViolationKind
	GroupID      string
	AllocationID string
	GuestID      string
	Detail       string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

func (v Violation) Unwrap() error {
	return ErrInvariantViolation
}

// Validate checks every room group and returns the violations found, in
// allocation order. An empty result means the state is consistent.
func (e *Engine) Validate() []Violation {
	return e.check(e.Groups())
}

func (e *Engine) check(groups []model.RoomGroup) []Violation {
	var out []Violation
	memberOf := make(map[string]string)
	allocOwner := make(map[string]string)

	for _, g := range groups {
		if len(g.GuestIDs) == 0 {
			out = append(out, Violation{
				Kind: ViolationEmptyGroup, GroupID: g.ID, AllocationID: g.AllocationID,
				Detail: fmt.Sprintf("room group %q has no guests", g.ID),
			})
		}

		alloc, ok := e.allocation(g.AllocationID)
		if !ok {
			out = append(out, Violation{
				Kind: ViolationUnknownAllocation, GroupID: g.ID, AllocationID: g.AllocationID,
				Detail: fmt.Sprintf("room group %q occupies unknown allocation %q", g.ID, g.AllocationID),
			})
		} else {
			if g.Size() > alloc.MaxCapacity {
				out = append(out, Violation{
					Kind: ViolationOverCapacity, GroupID: g.ID, AllocationID: g.AllocationID,
					Detail: fmt.Sprintf("room group %q holds %d guests, allocation %q takes %d",
						g.ID, g.Size(), g.AllocationID, alloc.MaxCapacity),
				})
			}
			if other, taken := allocOwner[g.AllocationID]; taken {
				out = append(out, Violation{
					Kind: ViolationSharedAllocation, GroupID: g.ID, AllocationID: g.AllocationID,
					Detail: fmt.Sprintf("room groups %q and %q both occupy allocation %q", other, g.ID, g.AllocationID),
				})
			} else {
				allocOwner[g.AllocationID] = g.ID
			}
		}

		for _, id := range g.GuestIDs {
			if _, known := e.guestIndex[id]; !known {
				out = append(out, Violation{
					Kind: ViolationUnknownGuest, GroupID: g.ID, AllocationID: g.AllocationID, GuestID: id,
					Detail: fmt.Sprintf("room group %q holds unknown guest %q", g.ID, id),
				})
			}
			if first, dup := memberOf[id]; dup {
				out = append(out, Violation{
					Kind: ViolationDuplicateMember, GroupID: g.ID, AllocationID: g.AllocationID, GuestID: id,
					Detail: fmt.Sprintf("guest %q is in room group %q and %q", id, first, g.ID),
				})
				continue
			}
			memberOf[id] = g.ID
		}
	}
	return out
}
