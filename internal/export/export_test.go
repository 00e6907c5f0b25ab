package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func testCatalog() *domain.Catalog {
	return &domain.Catalog{
		Activities: []domain.Activity{
			{ID: 1, Name: "SLA303"},
			{ID: 2, Name: "SLA100A"},
		},
		Rooms: []domain.Room{
			{ID: 1, Name: "Loft 206"},
			{ID: 2, Name: "Beach 301"},
		},
		TimeSlots: []domain.TimeSlot{
			{ID: 7, Label: "11 AM", Position: 2},
			{ID: 8, Label: "10 AM", Position: 1},
			{ID: 9, Label: "12 PM", Position: 3},
		},
		Facilitators: []domain.Facilitator{
			{ID: 1, Name: "Glen"},
			{ID: 2, Name: "Lock"},
		},
	}
}

func testAssignments() []domain.Assignment {
	return []domain.Assignment{
		{ActivityID: 1, RoomID: 1, TimeSlotID: 7, FacilitatorID: 1},
		{ActivityID: 2, RoomID: 2, TimeSlotID: 8, FacilitatorID: 2},
	}
}

func TestRowsResolvesNames(t *testing.T) {
	rows, err := Rows(testCatalog(), testAssignments())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "SLA303", rows[0].Activity)
	assert.Equal(t, "Loft 206", rows[0].Room)
	assert.Equal(t, "11 AM", rows[0].TimeSlot)
	assert.Equal(t, "Glen", rows[0].Facilitator)
}

func TestRowsRejectsUnknownIDs(t *testing.T) {
	assignments := testAssignments()
	assignments[1].RoomID = 42

	_, err := Rows(testCatalog(), assignments)
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	rows, err := Rows(testCatalog(), testAssignments())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, rows))

	want := "SLA303: Room=Loft 206, Time=11 AM, Facilitator=Glen\n" +
		"SLA100A: Room=Beach 301, Time=10 AM, Facilitator=Lock\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTableSortsByActivity(t *testing.T) {
	rows, err := Rows(testCatalog(), testAssignments())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rows))

	want := "Activity,Room,Time,Facilitator\n" +
		"SLA100A,Beach 301,10 AM,Lock\n" +
		"SLA303,Loft 206,11 AM,Glen\n"
	assert.Equal(t, want, buf.String())
	// 原切片不应被排序
	assert.Equal(t, "SLA303", rows[0].Activity)
}

func TestGroupByTimeSlotFollowsSlotOrder(t *testing.T) {
	catalog := testCatalog()
	rows, err := Rows(catalog, testAssignments())
	require.NoError(t, err)

	groups := GroupByTimeSlot(catalog, rows)
	require.Len(t, groups, 3)

	assert.Equal(t, "10 AM", groups[0].TimeSlot)
	assert.Equal(t, []TimeSlotGroupItem{{Activity: "SLA100A", Room: "Beach 301", Facilitator: "Lock"}}, groups[0].Items)
	assert.Equal(t, "11 AM", groups[1].TimeSlot)
	assert.Len(t, groups[1].Items, 1)
	assert.Equal(t, "12 PM", groups[2].TimeSlot)
	assert.Empty(t, groups[2].Items)

	var buf bytes.Buffer
	require.NoError(t, WriteByTimeSlot(&buf, groups))
	assert.Contains(t, buf.String(), "\nTime Slot: 12 PM\n")
	assert.Contains(t, buf.String(), "  SLA303: Room=Loft 206, Facilitator=Glen\n")
}
