package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ops/internal/model"
)

const seedYAML = `
lodge_types:
  - {id: 1, type: Quarto}
lodges:
  - {id: 1, name: Azul, max_capacity: 2, lodge_type_id: 1, key_owner: 10}
  - {id: 2, max_capacity: 3, lodge_type_id: 1}
profiles:
  - {id: 10, name: Ana, district: Centro, lodge_id: 1, team_color: Verde, team_hex: "#0f0"}
  - {id: 11, name: Bia, district: Norte, instagram: bia.b}
  - {id: 12, name: Caio, district: Centro}
lectures:
  - id: 1
    name: Abertura
    start_date: 2026-01-10T09:00:00Z
    end_date: 2026-01-10T10:00:00Z
  - id: 2
    name: Oficina
    start_date: 2026-01-10T11:00:00Z
    end_date: 2026-01-10T12:00:00Z
    is_workshop: true
    max_capacity: 1
    participants: [11]
`

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	require.NoError(t, s.LoadSeed(strings.NewReader(seedYAML)))
	return s
}

func TestLoadSeed(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	lodges, err := s.Lodgings().ListWithOccupation(ctx)
	require.NoError(t, err)
	require.Len(t, lodges, 2)
	assert.Equal(t, 1, lodges[0].Occupation)
	require.NotNil(t, lodges[0].KeyOwnerName)
	assert.Equal(t, "Ana", *lodges[0].KeyOwnerName)
	assert.Equal(t, "Quarto", lodges[1].LodgeType)
	assert.Equal(t, model.LodgingAvailable, lodges[1].Status)

	sessions, err := s.Sessions().ListWithOccupation(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Unbounded())
	assert.Equal(t, 1, sessions[1].Occupancy)
	assert.Equal(t, time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC), sessions[1].StartDate)

	p, err := s.Profiles().Create(ctx, model.NewProfile{Name: "Duda"})
	require.NoError(t, err)
	assert.Equal(t, uint64(13), p.ID, "ids continue after seeded rows")
}

func TestLoadSeedRejectsBrokenInvariants(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code model.Code
	}{
		{
			name: "over capacity",
			yaml: `
lodge_types: [{id: 1, type: Quarto}]
lodges: [{id: 1, max_capacity: 1, lodge_type_id: 1}]
profiles: [{id: 1, name: A, lodge_id: 1}, {id: 2, name: B, lodge_id: 1}]`,
			code: model.CodeCapacityExceeded,
		},
		{
			name: "key owner elsewhere",
			yaml: `
lodge_types: [{id: 1, type: Quarto}]
lodges: [{id: 1, max_capacity: 2, lodge_type_id: 1, key_owner: 1}]
profiles: [{id: 1, name: A}]`,
			code: model.CodeInvalid,
		},
		{
			name: "unknown type",
			yaml: `lodges: [{id: 1, max_capacity: 2, lodge_type_id: 9}]`,
			code: model.CodeNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().LoadSeed(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.code, model.CodeOf(err))
		})
	}
}

func TestAssignIsAllOrNothing(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	lodges := s.Lodgings()

	err := lodges.Assign(ctx, 1, []uint64{11, 12})
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)

	err = lodges.Assign(ctx, 2, []uint64{11, 10})
	assert.ErrorIs(t, err, model.ErrAlreadyAssigned)

	d, err := lodges.GetDetail(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, d.Participants)

	require.NoError(t, lodges.Assign(ctx, 2, []uint64{11, 12, 11}))
	d, err = lodges.GetDetail(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Occupation)
	require.NoError(t, d.Validate())
}

func TestRemoveClearsKeyOwner(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	cleared, err := s.Lodgings().Remove(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, cleared)

	d, err := s.Lodgings().GetDetail(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, d.KeyOwner)
	assert.Nil(t, d.KeyOwnerName)

	_, err = s.Lodgings().Remove(ctx, 1, 10)
	assert.ErrorIs(t, err, model.ErrNotAssigned)
}

func TestSearch(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	lodge := uint64(1)

	tests := []struct {
		name  string
		query model.ProfileSearch
		want  []uint64
		total int
	}{
		{name: "all ordered by name", query: model.ProfileSearch{}, want: []uint64{10, 11, 12}, total: 3},
		{name: "instagram substring", query: model.ProfileSearch{Name: "BIA.B"}, want: []uint64{11}, total: 1},
		{name: "district", query: model.ProfileSearch{District: "Centro"}, want: []uint64{10, 12}, total: 2},
		{name: "lodge", query: model.ProfileSearch{LodgeID: &lodge}, want: []uint64{10}, total: 1},
		{name: "ids", query: model.ProfileSearch{IDs: []uint64{12, 11}}, want: []uint64{11, 12}, total: 2},
		{name: "paged", query: model.ProfileSearch{Offset: 1, Limit: 1}, want: []uint64{11}, total: 3},
		{name: "past the end", query: model.ProfileSearch{Offset: 5}, want: []uint64{}, total: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.Profiles().Search(ctx, tt.query)
			require.NoError(t, err)
			got := []uint64{}
			for _, p := range page.Profiles {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.total, page.Total)
		})
	}
}

func TestUsersAndTokens(t *testing.T) {
	s := New()
	ctx := context.Background()
	users := s.Users()

	require.NoError(t, users.EnsureAdmin(ctx, "Admin@Example.com", "correct-horse", 4))
	require.NoError(t, users.EnsureAdmin(ctx, "admin@example.com", "other-password", 4))
	u, err := users.GetByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	tokens := s.Tokens()
	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, "h1", time.Now().Add(time.Hour)))
	id, err := tokens.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	require.NoError(t, tokens.RevokeByHash(ctx, "h1"))
	_, err = tokens.ValidateRefresh(ctx, "h1")
	assert.Error(t, err)
}
