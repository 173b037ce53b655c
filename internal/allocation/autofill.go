package allocation

import (
	"fmt"

	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

// AutoFillResult is the grouping after an auto-fill pass.
type AutoFillResult struct {
	Groups   []model.RoomGroup
	Placed   []string
	Unplaced []string
}

// AutoFill places unassigned guests greedily.
//
// Guests are taken in the order given; for each one the allocations are scanned
// in the order given and the guest joins the first room group with a free bed.
// When no open room has space, a new group is opened in the first empty
// allocation with non-zero capacity. Guests already in a room are skipped.
//
// A nil guestIDs means every unassigned guest and a nil allocationIDs means
// every allocation, both in the party's order. Unknown ids fail the whole call
// before anything is placed.
//
// If some guests do not fit, the ones that did stay placed and the result is
// returned together with ErrNoCapacity; Unplaced lists the rest.
func (e *Engine) AutoFill(guestIDs, allocationIDs []string) (AutoFillResult, error) {
	if guestIDs == nil {
		guestIDs = e.Unassigned()
	}
	for _, id := range guestIDs {
		if _, ok := e.guestIndex[id]; !ok {
			return AutoFillResult{}, fmt.Errorf("auto-fill guest %q: %w", id, ErrUnknownGuest)
		}
	}

	var order []model.Allocation
	if allocationIDs == nil {
		order = e.allocations
	} else {
		order = make([]model.Allocation, 0, len(allocationIDs))
		for _, id := range allocationIDs {
			a, ok := e.allocation(id)
			if !ok {
				return AutoFillResult{}, fmt.Errorf("auto-fill allocation %q: %w", id, ErrUnknownAllocation)
			}
			order = append(order, a)
		}
	}

	var res AutoFillResult
	seen := make(map[string]bool, len(guestIDs))
	for _, id := range guestIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e.groupOf(id) != nil {
			continue
		}

		target := e.firstWithSpace(order)
		if target == nil {
			if alloc, ok := e.firstEmpty(order); ok {
				target = e.open(alloc.ID)
			}
		}
		if target == nil {
			res.Unplaced = append(res.Unplaced, id)
			continue
		}
		target.GuestIDs = append(target.GuestIDs, id)
		res.Placed = append(res.Placed, id)
	}

	res.Groups = e.Groups()
	if len(res.Placed) > 0 {
		e.emit(Change{Op: OpAutoFill, GuestIDs: res.Placed})
	}
	if len(res.Unplaced) > 0 {
		return res, fmt.Errorf("auto-fill left %d of %d guests unplaced: %w",
			len(res.Unplaced), len(res.Placed)+len(res.Unplaced), ErrNoCapacity)
	}
	return res, nil
}

// firstWithSpace returns the first open room group, in allocation order, that
// still has a free bed.
func (e *Engine) firstWithSpace(order []model.Allocation) *model.RoomGroup {
	for _, a := range order {
		if g := e.groupFor(a.ID); g != nil && g.Size() < a.MaxCapacity {
			return g
		}
	}
	return nil
}

func (e *Engine) firstEmpty(order []model.Allocation) (model.Allocation, bool) {
	for _, a := range order {
		if a.MaxCapacity > 0 && e.groupFor(a.ID) == nil {
			return a, true
		}
	}
	return model.Allocation{}, false
}
