package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ops/internal/model"
)

func intp(v int) *int { return &v }

func TestPercent(t *testing.T) {
	tests := []struct {
		num, den, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 8, 13}, // 12.5
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1}, // 0.5
		{1, 201, 0},
		{3, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.num, tt.den), "%d/%d", tt.num, tt.den)
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(Snapshot{})
	assert.Equal(t, Totals{}, s.Totals)
	assert.NotNil(t, s.Districts)
	assert.Empty(t, s.Districts)
	assert.Empty(t, s.Teams)
	assert.Empty(t, s.TopLodges)
	assert.Empty(t, s.TopWorkshops)
	assert.Equal(t, 0, s.Lodges.OccupancyRate)
}

func TestTotals(t *testing.T) {
	ps := []model.Profile{
		{ID: 1, CheckedIn: true, IsPaid: true},
		{ID: 2, CheckedIn: true},
		{ID: 3},
	}
	got := Compute(Snapshot{Profiles: ps}).Totals
	assert.Equal(t, Totals{Participants: 3, CheckedIn: 2, Paid: 1, Pending: 2, CheckedInRate: 67, PaidRate: 33}, got)
}

func TestTeamsSkipEmptyAndKeepFirstHex(t *testing.T) {
	ps := []model.Profile{
		{TeamColor: "Azul", TeamHex: "#00f"},
		{TeamColor: "Verde", TeamHex: "#0f0"},
		{TeamColor: "Verde", TeamHex: "#0a0"},
		{},
		{TeamColor: "Azul"},
		{TeamColor: "Rosa", TeamHex: "#f0f"},
		{TeamColor: "Verde"},
	}
	got := Compute(Snapshot{Profiles: ps}).Teams
	assert.Equal(t, []TeamCount{
		{Color: "Verde", Hex: "#0f0", Count: 3},
		{Color: "Azul", Hex: "#00f", Count: 2},
		{Color: "Rosa", Hex: "#f0f", Count: 1},
	}, got)
}

func TestDistrictsTopSixStable(t *testing.T) {
	var ps []model.Profile
	add := func(d string, n int) {
		for i := 0; i < n; i++ {
			ps = append(ps, model.Profile{District: d})
		}
	}
	add("G", 1)
	add("A", 2)
	add("B", 2)
	add("C", 3)
	add("D", 1)
	add("E", 1)
	add("F", 1)
	add("", 9)

	got := Compute(Snapshot{Profiles: ps}).Districts
	require.Len(t, got, 6)
	names := []string{}
	for _, d := range got {
		names = append(names, d.District)
	}
	// ties keep first-seen order; F drops off
	assert.Equal(t, []string{"C", "A", "B", "G", "D", "E"}, names)
	assert.Equal(t, Percent(3, len(ps)), got[0].Percent)
}

func TestLodgeStats(t *testing.T) {
	ls := []model.LodgingWithOccupation{
		{Lodging: model.Lodging{ID: 1, MaxCapacity: 4}, Occupation: 4},
		{Lodging: model.Lodging{ID: 2, MaxCapacity: 4}, Occupation: 1},
		{Lodging: model.Lodging{ID: 3, MaxCapacity: 0}, Occupation: 0},
	}
	got := Compute(Snapshot{Lodgings: ls}).Lodges
	assert.Equal(t, LodgeStats{Total: 3, Capacity: 8, Occupied: 5, Full: 2, OccupancyRate: 63}, got)
}

func TestDegenerateLodgeCapacity(t *testing.T) {
	ls := []model.LodgingWithOccupation{{Lodging: model.Lodging{ID: 1, MaxCapacity: 0}}}
	s := Compute(Snapshot{Lodgings: ls})
	assert.Equal(t, 0, s.Lodges.OccupancyRate)
	assert.Empty(t, s.TopLodges)
}

func TestSessionStatsNullCapacityCountsZero(t *testing.T) {
	ss := []model.SessionWithOccupancy{
		{Session: model.Session{ID: 1, IsWorkshop: true, MaxCapacity: intp(10)}, Occupancy: 5},
		{Session: model.Session{ID: 2, IsWorkshop: true}, Occupancy: 40},
		{Session: model.Session{ID: 3}, Occupancy: 100},
		{Session: model.Session{ID: 4}, Occupancy: 0},
	}
	got := Compute(Snapshot{Sessions: ss}).Sessions
	assert.Equal(t, SessionStats{Workshops: 2, Lectures: 2, WorkshopCapacity: 10, WorkshopRegistrations: 45, WorkshopFillRate: 450}, got)
}

func TestRankLodges(t *testing.T) {
	name := func(s string) *string { return &s }
	ls := []model.LodgingWithOccupation{
		{Lodging: model.Lodging{ID: 1, MaxCapacity: 4}, Occupation: 1},              // 25%
		{Lodging: model.Lodging{ID: 2, MaxCapacity: 2}, Occupation: 2},              // 100%
		{Lodging: model.Lodging{ID: 3, MaxCapacity: 3}, Occupation: 0},              // skipped
		{Lodging: model.Lodging{ID: 4, MaxCapacity: 4}, Occupation: 2},              // 50%
		{Lodging: model.Lodging{ID: 5, MaxCapacity: 6}, Occupation: 3},              // 50%, after 4
		{Lodging: model.Lodging{ID: 6, MaxCapacity: 3, Name: name("Sol")}, Occupation: 2}, // 67%
		{Lodging: model.Lodging{ID: 7, MaxCapacity: 10}, Occupation: 1},             // 10%, cut
	}
	got := Compute(Snapshot{Lodgings: ls}).TopLodges
	ids := []uint64{}
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uint64{2, 6, 4, 5, 1}, ids)
	assert.Equal(t, "Sol", got[1].Name)
	assert.Equal(t, "Quarto 2", got[0].Name)
	assert.Equal(t, 67, got[1].Percent)
}

func TestRankWorkshops(t *testing.T) {
	var ss []model.SessionWithOccupancy
	for i, occ := range []int{3, 9, 1, 9, 4, 7, 2} {
		ss = append(ss, model.SessionWithOccupancy{
			Session:   model.Session{ID: uint64(i + 1), IsWorkshop: true, MaxCapacity: intp(10)},
			Occupancy: occ,
		})
	}
	ss = append(ss, model.SessionWithOccupancy{Session: model.Session{ID: 99}, Occupancy: 50})

	got := Compute(Snapshot{Sessions: ss}).TopWorkshops
	ids := []uint64{}
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uint64{2, 4, 6, 5, 1}, ids)
	assert.Equal(t, 90, got[0].Percent)
}

func TestComputeIsDeterministic(t *testing.T) {
	snap := Snapshot{
		Profiles: []model.Profile{{District: "A", TeamColor: "X"}, {District: "B", TeamColor: "Y"}},
		Lodgings: []model.LodgingWithOccupation{{Lodging: model.Lodging{ID: 1, MaxCapacity: 2}, Occupation: 1}},
	}
	assert.Equal(t, Compute(snap), Compute(snap))
}
