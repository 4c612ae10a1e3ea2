package lodging

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ops/internal/client"
	"github.com/iliyamo/event-ops/internal/client/clienttest"
	"github.com/iliyamo/event-ops/internal/model"
	"github.com/iliyamo/event-ops/internal/repository/memory"
)

var cred = client.Bearer("test-token")

// fixture has two lodge types, a two-bed lodging (1), a ten-bed lodging
// (2) and twelve unassigned participants with ids 101..112.
func fixture(t *testing.T) (*memory.Store, *clienttest.Authority, *Manager) {
	t.Helper()
	s := memory.New()
	s.AddLodgeType(model.LodgeType{ID: 1, Type: "Quarto"})
	s.AddLodgeType(model.LodgeType{ID: 2, Type: "Chalé"})
	s.AddLodging(model.Lodging{ID: 1, MaxCapacity: 2, LodgeTypeID: 1})
	s.AddLodging(model.Lodging{ID: 2, MaxCapacity: 10, LodgeTypeID: 1})
	for i := 1; i <= 12; i++ {
		s.AddProfile(model.Profile{ID: uint64(100 + i), Name: fmt.Sprintf("P%02d", i), District: "Centro"})
	}
	api := clienttest.New(s)
	return s, api, New(api, cred)
}

func occupantIDs(d *model.LodgingDetail) []uint64 {
	ids := make([]uint64, 0, len(d.Participants))
	for _, p := range d.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// requireInvariants checks every lodging against its own detail rules.
func requireInvariants(t *testing.T, m *Manager) {
	t.Helper()
	ctx := context.Background()
	ls, err := m.ListWithOccupation(ctx)
	require.NoError(t, err)
	for _, l := range ls {
		assert.LessOrEqual(t, l.Occupation, l.MaxCapacity, "lodging %d", l.ID)
		d, err := m.GetDetail(ctx, l.ID)
		require.NoError(t, err)
		require.NoError(t, d.Validate(), "lodging %d", l.ID)
	}
}

func TestAssignParticipants(t *testing.T) {
	_, api, m := fixture(t)
	ctx := context.Background()

	d, err := m.AssignParticipants(ctx, 2, 101, 102, 101, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Occupation)
	assert.ElementsMatch(t, []uint64{101, 102}, occupantIDs(d))
	assert.Equal(t, []string{"AssignParticipants"}, api.Writes())
	requireInvariants(t, m)
}

func TestAssignRejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, m *Manager)
		lodging uint64
		ids     []uint64
		want    error
	}{
		{
			name:    "empty batch",
			lodging: 1,
			want:    model.ErrInvalid,
		},
		{
			name:    "unknown lodging",
			lodging: 9,
			ids:     []uint64{101},
			want:    model.ErrNotFound,
		},
		{
			name:    "unknown participant",
			lodging: 1,
			ids:     []uint64{101, 999},
			want:    model.ErrNotFound,
		},
		{
			name:    "batch larger than free places",
			lodging: 1,
			ids:     []uint64{101, 102, 103},
			want:    model.ErrCapacityExceeded,
		},
		{
			name: "already in this lodging",
			prepare: func(t *testing.T, m *Manager) {
				_, err := m.AssignParticipants(context.Background(), 1, 101)
				require.NoError(t, err)
			},
			lodging: 1,
			ids:     []uint64{101},
			want:    model.ErrAlreadyAssigned,
		},
		{
			name: "already in another lodging",
			prepare: func(t *testing.T, m *Manager) {
				_, err := m.AssignParticipants(context.Background(), 2, 103)
				require.NoError(t, err)
			},
			lodging: 1,
			ids:     []uint64{102, 103},
			want:    model.ErrAlreadyAssigned,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, api, m := fixture(t)
			if tt.prepare != nil {
				tt.prepare(t, m)
			}
			before := len(api.Writes())

			_, err := m.AssignParticipants(context.Background(), tt.lodging, tt.ids...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, errors.Is(err, model.ErrConflict))
			assert.Len(t, api.Writes(), before, "a locally rejected batch never reaches the server")
			requireInvariants(t, m)
		})
	}
}

func TestAssignOverCapacityLeavesOccupationUnchanged(t *testing.T) {
	_, _, m := fixture(t)
	ctx := context.Background()

	_, err := m.AssignParticipants(ctx, 2, 101, 102, 103, 104, 105, 106, 107, 108)
	require.NoError(t, err)

	_, err = m.AssignParticipants(ctx, 2, 109, 110, 111)
	require.ErrorIs(t, err, model.ErrCapacityExceeded)

	var me *model.Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, model.EntityLodging, me.Entity)
	assert.Equal(t, uint64(2), me.ID)

	d, err := m.GetDetail(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, d.Occupation)

	d, err = m.AssignParticipants(ctx, 2, 109, 110)
	require.NoError(t, err)
	assert.Equal(t, model.LodgingFull, d.Status)
}

func TestKeyOwnerIsClearedAndNeverPromoted(t *testing.T) {
	_, _, m := fixture(t)
	ctx := context.Background()
	const a, b = 101, 102

	_, err := m.AssignParticipants(ctx, 1, a, b)
	require.NoError(t, err)
	d, err := m.SetKeyOwner(ctx, 1, a)
	require.NoError(t, err)
	require.NotNil(t, d.KeyOwner)
	assert.Equal(t, uint64(a), *d.KeyOwner)
	require.NotNil(t, d.KeyOwnerName)
	assert.Equal(t, "P01", *d.KeyOwnerName)

	d, err = m.RemoveParticipant(ctx, 1, a)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b}, occupantIDs(d))
	assert.Nil(t, d.KeyOwner)

	d, err = m.AssignParticipants(ctx, 1, a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{a, b}, occupantIDs(d))
	assert.Nil(t, d.KeyOwner, "re-assigning the old holder does not give the key back")

	d, err = m.SetKeyOwner(ctx, 1, a)
	require.NoError(t, err)
	require.NotNil(t, d.KeyOwner)
	assert.Equal(t, uint64(a), *d.KeyOwner)
	requireInvariants(t, m)
}

func TestRemovingOtherOccupantKeepsKey(t *testing.T) {
	_, _, m := fixture(t)
	ctx := context.Background()

	_, err := m.AssignParticipants(ctx, 1, 101, 102)
	require.NoError(t, err)
	_, err = m.SetKeyOwner(ctx, 1, 101)
	require.NoError(t, err)

	d, err := m.RemoveParticipant(ctx, 1, 102)
	require.NoError(t, err)
	require.NotNil(t, d.KeyOwner)
	assert.Equal(t, uint64(101), *d.KeyOwner)
}

func TestOccupantChecks(t *testing.T) {
	_, api, m := fixture(t)
	ctx := context.Background()
	_, err := m.AssignParticipants(ctx, 1, 101)
	require.NoError(t, err)
	writes := len(api.Writes())

	_, err = m.SetKeyOwner(ctx, 1, 102)
	assert.ErrorIs(t, err, model.ErrNotAnOccupant)

	_, err = m.RemoveParticipant(ctx, 1, 102)
	assert.ErrorIs(t, err, model.ErrNotAssigned)

	var me *model.Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, model.EntityProfile, me.Entity)
	assert.Equal(t, uint64(102), me.ID)

	_, err = m.RemoveParticipant(ctx, 7, 101)
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Len(t, api.Writes(), writes)
}

func TestUpdateLodgingCapacity(t *testing.T) {
	_, _, m := fixture(t)
	ctx := context.Background()
	ten, five, six := 10, 5, 6

	_, err := m.AssignParticipants(ctx, 2, 101, 102, 103, 104, 105, 106)
	require.NoError(t, err)

	_, err = m.UpdateLodging(ctx, 2, model.LodgingUpdate{MaxCapacity: &five})
	require.ErrorIs(t, err, model.ErrCapacityBelowOccupation)
	d, err := m.GetDetail(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, ten, d.MaxCapacity)

	d, err = m.UpdateLodging(ctx, 2, model.LodgingUpdate{MaxCapacity: &six})
	require.NoError(t, err)
	assert.Equal(t, six, d.MaxCapacity)
	assert.Equal(t, model.LodgingFull, d.Status)
}

func TestUpdateLodgingTypeAndName(t *testing.T) {
	_, api, m := fixture(t)
	ctx := context.Background()
	chale, missing := uint64(2), uint64(42)
	name := "Casa Azul"

	_, err := m.UpdateLodging(ctx, 1, model.LodgingUpdate{LodgeTypeID: &missing})
	require.ErrorIs(t, err, model.ErrNotFound)
	var me *model.Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, model.EntityLodgeType, me.Entity)

	d, err := m.UpdateLodging(ctx, 1, model.LodgingUpdate{LodgeTypeID: &chale, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Chalé", d.LodgeType)
	assert.Equal(t, "Casa Azul", d.DisplayName())

	calls := len(api.Calls())
	zero := 0
	_, err = m.UpdateLodging(ctx, 1, model.LodgingUpdate{MaxCapacity: &zero})
	require.ErrorIs(t, err, model.ErrInvalid)
	_, err = m.UpdateLodging(ctx, 1, model.LodgingUpdate{})
	require.ErrorIs(t, err, model.ErrInvalid)
	assert.Len(t, api.Calls(), calls, "invalid edits are rejected before any call")
}

func TestStalePreCheckBecomesConflict(t *testing.T) {
	s, api, m := fixture(t)
	ctx := context.Background()

	// another operator fills lodging 1 between our read and our write
	api.BeforeWrite = func(op string) {
		api.BeforeWrite = nil
		require.NoError(t, s.Lodgings().Assign(ctx, 1, []uint64{111, 112}))
	}

	_, err := m.AssignParticipants(ctx, 1, 101)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.ErrorIs(t, err, model.ErrCapacityExceeded, "the server's own code is still visible")

	d, err := m.GetDetail(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{111, 112}, occupantIDs(d))
	requireInvariants(t, m)
}

func TestTransportErrorsPassThrough(t *testing.T) {
	_, api, _ := fixture(t)
	m := New(api, client.Credential{})

	_, err := m.AssignParticipants(context.Background(), 1, 101)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.False(t, errors.Is(err, model.ErrConflict))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(api, cred).GetDetail(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssignMoreThanOneListingPage(t *testing.T) {
	s, api, m := fixture(t)
	s.AddLodging(model.Lodging{ID: 3, MaxCapacity: 1500, LodgeTypeID: 2})
	ids := make([]uint64, 0, model.MaxProfileLimit+1)
	for i := 1; i <= model.MaxProfileLimit+1; i++ {
		p := s.AddProfile(model.Profile{ID: uint64(1000 + i), Name: fmt.Sprintf("B%04d", i)})
		ids = append(ids, p.ID)
	}

	d, err := m.AssignParticipants(context.Background(), 3, ids...)
	require.NoError(t, err)
	assert.Equal(t, model.MaxProfileLimit+1, d.Occupation)

	searches := 0
	for _, c := range api.Calls() {
		if c == "SearchProfiles" {
			searches++
		}
	}
	assert.Equal(t, 2, searches)
	requireInvariants(t, m)
}
