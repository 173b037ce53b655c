// Package export renders a party's room assignment as a spreadsheet for the
// hotel.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
)

// Sheet names.
const (
	SheetRoomingList = "Rooming List"
	SheetUnassigned  = "Unassigned"
)

var roomingListHeader = []string{
	"Hotel", "Room", "Room Type", "Capacity", "Room Group", "Label",
	"Guest ID", "Guest", "Email", "Phone", "Age", "Family",
}

var unassignedHeader = []string{
	"Guest ID", "Guest", "Email", "Phone", "Age", "Family",
}

// RoomingList builds an XLSX workbook from a session snapshot: one row per
// guest per room on the first sheet, and guests without a room on the second.
func RoomingList(snap model.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRoomingList); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetUnassigned); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	guests := make(map[string]model.Guest, len(snap.Guests))
	for _, g := range snap.Guests {
		guests[g.ID] = g
	}
	allocations := make(map[string]model.Allocation, len(snap.Allocations))
	for _, a := range snap.Allocations {
		allocations[a.ID] = a
	}

	rooms := [][]interface{}{}
	for _, group := range snap.Groups {
		a := allocations[group.AllocationID]
		for _, id := range group.GuestIDs {
			g := guests[id]
			rooms = append(rooms, []interface{}{
				a.HotelName, a.ID, a.RoomType, a.MaxCapacity, group.ID, group.Label,
				g.ID, g.Name, g.Email, g.Phone, age(g), g.FamilyTag,
			})
		}
	}
	if err := writeSheet(f, SheetRoomingList, roomingListHeader, rooms, headerStyle); err != nil {
		return nil, err
	}

	unassigned := [][]interface{}{}
	for _, id := range snap.Unassigned {
		g := guests[id]
		unassigned = append(unassigned, []interface{}{
			id, g.Name, g.Email, g.Phone, age(g), g.FamilyTag,
		})
	}
	if err := writeSheet(f, SheetUnassigned, unassignedHeader, unassigned, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, style int) error {
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("set %s column width: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// age leaves the cell blank when the age is unknown.
func age(g model.Guest) interface{} {
	if g.Age == nil {
		return ""
	}
	return *g.Age
}
