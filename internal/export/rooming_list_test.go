package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

func TestRoomingList(t *testing.T) {
	age := 34
	snap := model.Snapshot{
		SessionID:   "s-1",
		HeadGuestID: "hg-1",
		Allocations: []model.Allocation{
			{ID: "A1", RoomType: "Double", MaxCapacity: 2, HotelName: "Harbour"},
			{ID: "A2", RoomType: "Single", MaxCapacity: 1, HotelName: "Harbour"},
		},
		Guests: []model.Guest{
			{ID: "g1", Name: "Ada", Email: "ada@example.com", Age: &age, FamilyTag: "lovelace"},
			{ID: "g2", Name: "Charles"},
			{ID: "g3", Name: "Mary"},
		},
		Groups: []model.RoomGroup{
			{ID: "rg-1", AllocationID: "A1", GuestIDs: []string{"g1", "g2"}, Label: "Parents"},
		},
		Unassigned: []string{"g3"},
	}

	data, err := RoomingList(snap)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetRoomingList, SheetUnassigned}, f.GetSheetList())

	rows, err := f.GetRows(SheetRoomingList)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, roomingListHeader, rows[0])
	assert.Equal(t, []string{
		"Harbour", "A1", "Double", "2", "rg-1", "Parents",
		"g1", "Ada", "ada@example.com", "", "34", "lovelace",
	}, rows[1])
	assert.Equal(t, []string{"Harbour", "A1", "Double", "2", "rg-1", "Parents", "g2", "Charles"}, rows[2])

	rows, err = f.GetRows(SheetUnassigned)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"g3", "Mary"}, rows[1])
}

func TestRoomingList_Empty(t *testing.T) {
	data, err := RoomingList(model.Snapshot{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetRoomingList)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
