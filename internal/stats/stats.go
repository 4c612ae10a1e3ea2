// Package stats derives the dashboard summary from a snapshot of profiles,
// lodgings and sessions.  Compute is a pure function: the same snapshot in
// the same order always yields the same Summary.
package stats

import (
	"sort"

	"github.com/iliyamo/event-ops/internal/model"
)

const (
	topDistricts = 6
	topLodges    = 5
	topWorkshops = 5
)

// Snapshot is the input of Compute.
type Snapshot struct {
	Profiles []model.Profile
	Lodgings []model.LodgingWithOccupation
	Sessions []model.SessionWithOccupancy
}

// Summary is every figure the dashboard shows.
type Summary struct {
	Totals       Totals          `json:"totals" yaml:"totals"`
	Teams        []TeamCount     `json:"team_distribution" yaml:"team_distribution"`
	Districts    []DistrictCount `json:"district_distribution" yaml:"district_distribution"`
	Lodges       LodgeStats      `json:"lodge_stats" yaml:"lodge_stats"`
	Sessions     SessionStats    `json:"session_stats" yaml:"session_stats"`
	TopLodges    []LodgeRank     `json:"top_lodges" yaml:"top_lodges"`
	TopWorkshops []WorkshopRank  `json:"top_workshops" yaml:"top_workshops"`
}

type Totals struct {
	Participants  int `json:"participants" yaml:"participants"`
	CheckedIn     int `json:"checked_in" yaml:"checked_in"`
	Paid          int `json:"paid" yaml:"paid"`
	Pending       int `json:"pending" yaml:"pending"`
	CheckedInRate int `json:"checked_in_rate" yaml:"checked_in_rate"`
	PaidRate      int `json:"paid_rate" yaml:"paid_rate"`
}

type TeamCount struct {
	Color string `json:"color" yaml:"color"`
	Hex   string `json:"hex" yaml:"hex"`
	Count int    `json:"count" yaml:"count"`
}

type DistrictCount struct {
	District string `json:"district" yaml:"district"`
	Count    int    `json:"count" yaml:"count"`
	Percent  int    `json:"percent" yaml:"percent"`
}

type LodgeStats struct {
	Total         int `json:"total" yaml:"total"`
	Capacity      int `json:"capacity" yaml:"capacity"`
	Occupied      int `json:"occupied" yaml:"occupied"`
	Full          int `json:"full" yaml:"full"`
	OccupancyRate int `json:"occupancy_rate" yaml:"occupancy_rate"`
}

type SessionStats struct {
	Workshops             int `json:"workshops" yaml:"workshops"`
	Lectures              int `json:"lectures" yaml:"lectures"`
	WorkshopCapacity      int `json:"workshop_capacity" yaml:"workshop_capacity"`
	WorkshopRegistrations int `json:"workshop_registrations" yaml:"workshop_registrations"`
	WorkshopFillRate      int `json:"workshop_fill_rate" yaml:"workshop_fill_rate"`
}

type LodgeRank struct {
	ID         uint64 `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Occupation int    `json:"occupation" yaml:"occupation"`
	Capacity   int    `json:"capacity" yaml:"capacity"`
	Percent    int    `json:"percent" yaml:"percent"`
}

type WorkshopRank struct {
	ID            uint64 `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Registrations int    `json:"registrations" yaml:"registrations"`
	Capacity      *int   `json:"capacity" yaml:"capacity"`
	Percent       int    `json:"percent" yaml:"percent"`
}

// Percent returns num/den as an integer percent rounded half up, or 0 when
// den is not positive.
func Percent(num, den int) int {
	if den <= 0 || num <= 0 {
		return 0
	}
	return (200*num + den) / (2 * den)
}

// Compute builds the Summary for snap.
func Compute(snap Snapshot) Summary {
	return Summary{
		Totals:       totals(snap.Profiles),
		Teams:        teams(snap.Profiles),
		Districts:    districts(snap.Profiles),
		Lodges:       lodgeStats(snap.Lodgings),
		Sessions:     sessionStats(snap.Sessions),
		TopLodges:    rankLodges(snap.Lodgings),
		TopWorkshops: rankWorkshops(snap.Sessions),
	}
}

func totals(ps []model.Profile) Totals {
	t := Totals{Participants: len(ps)}
	for _, p := range ps {
		if p.CheckedIn {
			t.CheckedIn++
		}
		if p.IsPaid {
			t.Paid++
		}
	}
	t.Pending = t.Participants - t.Paid
	t.CheckedInRate = Percent(t.CheckedIn, t.Participants)
	t.PaidRate = Percent(t.Paid, t.Participants)
	return t
}

func teams(ps []model.Profile) []TeamCount {
	out := []TeamCount{}
	index := map[string]int{}
	for _, p := range ps {
		if p.TeamColor == "" {
			continue
		}
		i, ok := index[p.TeamColor]
		if !ok {
			i = len(out)
			index[p.TeamColor] = i
			out = append(out, TeamCount{Color: p.TeamColor, Hex: p.TeamHex})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func districts(ps []model.Profile) []DistrictCount {
	out := []DistrictCount{}
	index := map[string]int{}
	for _, p := range ps {
		if p.District == "" {
			continue
		}
		i, ok := index[p.District]
		if !ok {
			i = len(out)
			index[p.District] = i
			out = append(out, DistrictCount{District: p.District})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > topDistricts {
		out = out[:topDistricts]
	}
	for i := range out {
		out[i].Percent = Percent(out[i].Count, len(ps))
	}
	return out
}

func lodgeStats(ls []model.LodgingWithOccupation) LodgeStats {
	s := LodgeStats{Total: len(ls)}
	for _, l := range ls {
		s.Capacity += l.MaxCapacity
		s.Occupied += l.Occupation
		if l.Occupation >= l.MaxCapacity {
			s.Full++
		}
	}
	s.OccupancyRate = Percent(s.Occupied, s.Capacity)
	return s
}

func sessionStats(ss []model.SessionWithOccupancy) SessionStats {
	var s SessionStats
	for _, sess := range ss {
		if !sess.IsWorkshop {
			s.Lectures++
			continue
		}
		s.Workshops++
		s.WorkshopRegistrations += sess.Occupancy
		if sess.MaxCapacity != nil {
			s.WorkshopCapacity += *sess.MaxCapacity
		}
	}
	s.WorkshopFillRate = Percent(s.WorkshopRegistrations, s.WorkshopCapacity)
	return s
}

// rankLodges orders by occupation/capacity without floating point: a/b is
// above c/d when a*d > c*b.  A zero capacity ranks as a zero ratio.
func rankLodges(ls []model.LodgingWithOccupation) []LodgeRank {
	out := []LodgeRank{}
	for _, l := range ls {
		if l.Occupation <= 0 {
			continue
		}
		out = append(out, LodgeRank{
			ID:         l.ID,
			Name:       l.DisplayName(),
			Occupation: l.Occupation,
			Capacity:   l.MaxCapacity,
			Percent:    Percent(l.Occupation, l.MaxCapacity),
		})
	}
	ratio := func(r LodgeRank) (int, int) {
		if r.Capacity <= 0 {
			return 0, 1
		}
		return r.Occupation, r.Capacity
	}
	sort.SliceStable(out, func(i, j int) bool {
		an, ad := ratio(out[i])
		bn, bd := ratio(out[j])
		return an*bd > bn*ad
	})
	if len(out) > topLodges {
		out = out[:topLodges]
	}
	return out
}

func rankWorkshops(ss []model.SessionWithOccupancy) []WorkshopRank {
	out := []WorkshopRank{}
	for _, s := range ss {
		if !s.IsWorkshop {
			continue
		}
		r := WorkshopRank{ID: s.ID, Name: s.Name, Registrations: s.Occupancy, Capacity: s.MaxCapacity}
		if s.MaxCapacity != nil {
			r.Percent = Percent(s.Occupancy, *s.MaxCapacity)
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Registrations > out[j].Registrations })
	if len(out) > topWorkshops {
		out = out[:topWorkshops]
	}
	return out
}
